package layout

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

func keccak256(data ...[]byte) (h [32]byte) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// HashSlot returns keccak256 of the 32-byte big-endian forms of the words.
func HashSlot(words ...*uint256.Int) *uint256.Int {
	buf := make([]byte, 0, 32*len(words))
	for _, w := range words {
		b := w.Bytes32()
		buf = append(buf, b[:]...)
	}
	h := keccak256(buf)
	return new(uint256.Int).SetBytes(h[:])
}

// SelectorAddress is the slot holding the selector.
func (p *Plan) SelectorAddress(base *uint256.Int) *uint256.Int {
	return base.Clone()
}

// RegionBase returns the first slot of a variant's field region: the base
// slot itself, or keccak256(base ‖ variant) under Indirected.
func (p *Plan) RegionBase(base *uint256.Int, variant int) *uint256.Int {
	if p.opts.Strategy != Indirected {
		return base.Clone()
	}
	return HashSlot(base, uint256.NewInt(uint64(variant)))
}

// Resolve maps a slot offset to a physical slot address. Arithmetic wraps
// modulo 2^256.
func (p *Plan) Resolve(base *uint256.Int, off SlotOffset) *uint256.Int {
	var start *uint256.Int
	if off.Region == RegionHashed {
		start = HashSlot(base, uint256.NewInt(uint64(off.Variant)))
	} else {
		start = base.Clone()
	}
	return start.Add(start, uint256.NewInt(off.Offset))
}

// ContentBase returns the first slot of a dynamic field's content. Under
// Indirected the pointer slot holds the byte length and the content starts
// at keccak256(pointerAddr). Otherwise the pointer slot holds a slot offset
// relative to base, and the content starts there with a length word.
func (p *Plan) ContentBase(base, pointerAddr *uint256.Int, pointer uint64) *uint256.Int {
	if p.opts.Strategy == Indirected {
		return HashSlot(pointerAddr)
	}
	out := base.Clone()
	return out.Add(out, uint256.NewInt(pointer))
}

// Slot returns addr + k modulo 2^256.
func Slot(addr *uint256.Int, k uint64) *uint256.Int {
	out := addr.Clone()
	return out.Add(out, uint256.NewInt(k))
}
