// Package codec implements the head/tail wire encoding of tagged union
// values.
//
// An encoded union is a selector word followed by the selected variant's
// fields, encoded as a tuple whose head is zero-padded to the widest variant
// head. Static fields are written inline as words. Each dynamic field leaves
// a pointer word in the head: the byte offset of its content relative to the
// start of the enclosing tuple. Content is appended to the tail in field
// order.
//
//	[selector][head fields ... zero padding][tail]
//
// Word layout for a W-byte word:
//
//	uintN, intN      big-endian, two's complement, sign-extended to W bytes
//	bool             0 or 1
//	bytesN, function left-aligned, zero-padded
//	address          right-aligned, zero-padded
//	bytes, string    [length][payload padded to W]
//	T[]              [length][elements as a tuple]
//	T[k], tuples     elements as a tuple
//
// The Decoder accepts exactly the bytes the Encoder produces: every
// pointer, padding byte and length is checked, and the result is compared
// with its re-encoding. A failed decode returns no value.
package codec
