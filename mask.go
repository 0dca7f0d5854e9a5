package pocketplus

import "github.com/mycophonic/pocketplus/bitvec"

// The mask state machine follows CCSDS 124.0-B-1 equations 6 through 8.
// The mask accumulates every position that has ever changed; the build
// vector accumulates only the changes since the last mask restart. A
// restart reseeds the mask from the build, dropping positions that have
// gone quiet since.

// computeChange sets dst to the positions where input differs from previous.
func computeChange(dst, input, previous *bitvec.Vector) {
	dst.Xor(input, previous)
}

// updateMask advances the mask for packet t. The initial mask is kept
// untouched at t zero. Call before updateBuild, a restart reads the build
// as accumulated through the previous packet.
func updateMask(mask, changes, build *bitvec.Vector, t int, newMask bool) {
	switch {
	case t == 0:
	case newMask:
		mask.Or(changes, build)
	default:
		mask.OrWith(changes)
	}
}

// updateBuild advances the build vector for packet t.
func updateBuild(build, changes *bitvec.Vector, t int, newMask bool) {
	if t == 0 || newMask {
		build.Zero()

		return
	}

	build.OrWith(changes)
}
