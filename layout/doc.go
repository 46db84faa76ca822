// Package layout compiles union schemas into slot layout plans.
//
// A Plan places the selector at the union's base slot B and every field of
// every variant at a fixed slot offset, according to a Strategy:
//
//	NonOverlapping     variant i starts after variants 0..i-1
//	Overlapping        every variant starts at B+1
//	OverlappingPrefix  static fields overlap from B+1, dynamic pointers get per-variant bodies
//	Indirected         variant i lives at keccak256(B ‖ i); only the selector is inline
//
// Offsets are relative to a Region; Plan.Resolve turns them into physical
// 256-bit slot addresses. Dynamic fields occupy one pointer slot whose content
// is resolved one level further with Plan.ContentBase.
//
// Plans are deterministic: MarshalBinary returns identical bytes for identical
// input, and Fingerprint is their Keccak-256. The Compiler caches plans, so
// compiling the same schema and options twice returns the same *Plan.
//
// Field lookups come in two flavours. FieldOffset is unguarded. OffsetOf takes
// the value being accessed and fails with ErrVariantMismatch unless the
// requested variant is the selected one.
package layout
