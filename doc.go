// Package pocketplus implements the POCKET+ lossless compressor for fixed
// length packet streams, as specified by CCSDS 124.0-B-1.
//
// POCKET+ targets housekeeping telemetry: long runs of packets that share a
// layout and mostly repeat, with a sparse set of fields that actually move.
// The codec maintains a mask of the moving positions, transmits only the
// bits the mask selects, and updates the mask on the fly as fields start or
// stop changing. A configurable robustness level retransmits recent mask
// changes so a receiver can ride out up to that many lost packets without
// desynchronizing.
//
// Compression is stateful and order dependent. A Compressor and the
// Decompressor consuming its output must be created with identical Params,
// and packets must be delivered in order. Sessions are not safe for
// concurrent use; give each stream its own instance.
//
// The format carries no checksums or framing beyond the packet grammar
// itself. Callers that need integrity protection or loss detection wrap the
// stream in a transport that provides them.
package pocketplus
