package value

import (
	"encoding/hex"

	"github.com/wippyai/unionlayout/schema"
)

// Address is a 20-byte account address.
type Address [schema.AddressSize]byte

// Function is an external function reference: an address followed by a
// 4-byte function selector.
type Function [schema.FunctionSize]byte

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }
func (f Function) Hex() string { return "0x" + hex.EncodeToString(f[:]) }

func (a Address) String() string { return a.Hex() }
func (f Function) String() string { return f.Hex() }

// NewFunction joins an address and a 4-byte selector.
func NewFunction(addr Address, selector [4]byte) Function {
	var f Function
	copy(f[:], addr[:])
	copy(f[schema.AddressSize:], selector[:])
	return f
}

// Address returns the target address of the function reference.
func (f Function) Address() Address {
	var a Address
	copy(a[:], f[:schema.AddressSize])
	return a
}

// Selector returns the 4-byte function selector.
func (f Function) Selector() [4]byte {
	var s [4]byte
	copy(s[:], f[schema.AddressSize:])
	return s
}
