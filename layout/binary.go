package layout

import (
	"encoding/binary"
	"encoding/hex"
)

const planMagic = "ULP1"

// MarshalBinary returns the canonical byte form of the plan. Identical
// schemas and options always produce identical bytes.
func (p *Plan) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), p.encoded...), nil
}

// Fingerprint is the Keccak-256 of MarshalBinary.
func (p *Plan) Fingerprint() [32]byte { return p.fingerprint }

// FingerprintHex is the fingerprint as 0x-prefixed hex.
func (p *Plan) FingerprintHex() string {
	return "0x" + hex.EncodeToString(p.fingerprint[:])
}

func (p *Plan) marshal() []byte {
	b := make([]byte, 0, 128+len(p.signature))
	b = append(b, planMagic...)
	b = append(b, byte(p.opts.Strategy), byte(p.opts.StorageClass), byte(p.opts.WordWidth))
	b = binary.AppendUvarint(b, uint64(p.selectorSlots))
	b = binary.AppendUvarint(b, uint64(p.footprint))
	b = binary.AppendUvarint(b, uint64(p.headWords))
	b = appendBool(b, p.dynamic)
	b = appendString(b, p.signature)

	b = binary.AppendUvarint(b, uint64(len(p.variants)))
	for _, v := range p.variants {
		b = appendString(b, v.Name)
		b = append(b, byte(v.Region))
		b = binary.AppendUvarint(b, v.Start)
		b = binary.AppendUvarint(b, uint64(v.Footprint))
		b = appendBool(b, v.Dynamic)
		b = binary.AppendUvarint(b, uint64(len(v.Fields)))
		for _, f := range v.Fields {
			b = appendString(b, f.Name)
			b = appendString(b, f.Type.Signature())
			b = append(b, byte(f.Region))
			b = binary.AppendUvarint(b, f.Offset)
			b = binary.AppendUvarint(b, uint64(f.Slots))
			b = appendBool(b, f.Pointer)
		}
	}
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}
