package pocketplus

import (
	"testing"

	"github.com/mycophonic/pocketplus/bitvec"
)

func vectorFrom(t *testing.T, length int, positions ...int) *bitvec.Vector {
	t.Helper()

	v, err := bitvec.New(length)
	if err != nil {
		t.Fatal(err)
	}

	for _, pos := range positions {
		v.Set(pos, 1)
	}

	return v
}

func TestComputeChange(t *testing.T) {
	t.Parallel()

	input := vectorFrom(t, 16, 0, 5, 9)
	previous := vectorFrom(t, 16, 5, 9, 12)
	dst := vectorFrom(t, 16)

	computeChange(dst, input, previous)

	if !dst.Equal(vectorFrom(t, 16, 0, 12)) {
		t.Errorf("change vector: %X", dst.Bytes())
	}
}

func TestFirstPacketKeepsInitialMaskAndClearsBuild(t *testing.T) {
	t.Parallel()

	mask := vectorFrom(t, 16, 3)
	build := vectorFrom(t, 16, 7)
	changes := vectorFrom(t, 16, 0, 1)

	updateMask(mask, changes, build, 0, false)
	updateBuild(build, changes, 0, false)

	if !mask.Equal(vectorFrom(t, 16, 3)) {
		t.Errorf("mask changed on first packet: %X", mask.Bytes())
	}

	if build.AnySet() {
		t.Errorf("build not cleared on first packet: %X", build.Bytes())
	}
}

func TestMaskAccumulatesChanges(t *testing.T) {
	t.Parallel()

	mask := vectorFrom(t, 16, 3)
	build := vectorFrom(t, 16)

	changes := vectorFrom(t, 16, 5)
	updateMask(mask, changes, build, 1, false)
	updateBuild(build, changes, 1, false)

	changes = vectorFrom(t, 16, 9)
	updateMask(mask, changes, build, 2, false)
	updateBuild(build, changes, 2, false)

	if !mask.Equal(vectorFrom(t, 16, 3, 5, 9)) {
		t.Errorf("mask: %X", mask.Bytes())
	}

	if !build.Equal(vectorFrom(t, 16, 5, 9)) {
		t.Errorf("build: %X", build.Bytes())
	}
}

func TestRestartReseedsMaskFromBuild(t *testing.T) {
	t.Parallel()

	// Position 3 stopped changing before the current build epoch, so a
	// restart drops it; the accumulated 5 and the fresh 9 survive.
	mask := vectorFrom(t, 16, 3, 5)
	build := vectorFrom(t, 16, 5)
	changes := vectorFrom(t, 16, 9)

	updateMask(mask, changes, build, 7, true)
	updateBuild(build, changes, 7, true)

	if !mask.Equal(vectorFrom(t, 16, 5, 9)) {
		t.Errorf("restarted mask: %X", mask.Bytes())
	}

	if build.AnySet() {
		t.Errorf("build not cleared by restart: %X", build.Bytes())
	}
}
