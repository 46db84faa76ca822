// Package value holds runtime union values.
//
// Field values use these Go representations:
//
//	uintN, intN   *big.Int
//	bool          bool
//	bytesN        []byte of length N
//	address       Address
//	function      Function
//	bytes         []byte
//	string        string
//	T[k], T[]     []any
//	tuple         []any in component order
//
// Union implements the variant state machine: Select, ClearField and ClearAll.
// Accessors obtained before a Select or ClearAll fail with ErrVariantMismatch.
package value
