package layout

import (
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/schema"
)

// Region names the address space a slot offset is relative to.
type Region uint8

const (
	// RegionBase offsets are relative to the union's base slot.
	RegionBase Region = iota
	// RegionHashed offsets are relative to keccak256(base ‖ variant).
	RegionHashed
)

func (r Region) String() string {
	if r == RegionHashed {
		return "hashed"
	}
	return "base"
}

// SlotOffset locates one field of one variant.
type SlotOffset struct {
	Name    string
	Type    *schema.Type
	Variant int
	Field   int
	Offset  uint64
	Slots   int
	Region  Region
	// Pointer is set for dynamic fields: the slot holds a pointer word and
	// the content lives one indirection further.
	Pointer bool
}

// VariantLayout is the placement of one variant's fields.
type VariantLayout struct {
	Name      string
	Fields    []SlotOffset
	Start     uint64
	Footprint int
	Region    Region
	Dynamic   bool
}

// Selected is implemented by anything with a current variant: in-memory and
// storage-bound union values.
type Selected interface {
	CurrentVariant() (int, error)
}

// Plan is the compiled layout of a union. Plans are immutable and safe for
// concurrent use.
type Plan struct {
	schema        *schema.Union
	signature     string
	encoded       []byte
	variants      []VariantLayout
	opts          Options
	selectorSlots int
	footprint     int
	headWords     int
	dynamic       bool
	fingerprint   [32]byte
}

func (p *Plan) Schema() *schema.Union { return p.schema }
func (p *Plan) Options() Options { return p.opts }
func (p *Plan) Strategy() Strategy { return p.opts.Strategy }
func (p *Plan) WordWidth() int { return p.opts.WordWidth }
func (p *Plan) Signature() string { return p.signature }

// SelectorSlots is the number of slots the selector occupies at the base.
func (p *Plan) SelectorSlots() int { return p.selectorSlots }

// SelectorBytes is the number of low-order selector bytes that can be
// non-zero for this union.
func (p *Plan) SelectorBytes() int {
	n := len(p.variants) - 1
	b := 1
	for n > 0xff {
		n >>= 8
		b++
	}
	return b
}

// Footprint is the number of inline slots from the base slot, selector
// included. Dynamic content lives after it.
func (p *Plan) Footprint() int { return p.footprint }

// HeadWords is the wire head width in words, selector included.
func (p *Plan) HeadWords() int { return p.headWords }

// IsDynamic reports whether any variant has a dynamic field.
func (p *Plan) IsDynamic() bool { return p.dynamic }

// TailStart is the first base-relative slot available for dynamic content
// under the non-indirected strategies.
func (p *Plan) TailStart() uint64 { return uint64(p.footprint) }

func (p *Plan) NumVariants() int { return len(p.variants) }

// Variants returns a copy of the per-variant layouts.
func (p *Plan) Variants() []VariantLayout {
	out := make([]VariantLayout, len(p.variants))
	for i, v := range p.variants {
		out[i] = v
		out[i].Fields = append([]SlotOffset(nil), v.Fields...)
	}
	return out
}

// Variant returns the layout of variant i.
func (p *Plan) Variant(i int) (VariantLayout, error) {
	if i < 0 || i >= len(p.variants) {
		return VariantLayout{}, errors.New(errors.PhaseLookup, errors.KindUnknownField).
			Path(p.schema.Name).
			Detail("variant index %d out of range (%d variants)", i, len(p.variants)).
			Build()
	}
	v := p.variants[i]
	v.Fields = append([]SlotOffset(nil), v.Fields...)
	return v, nil
}

// VariantIndex returns the index of the named variant, or -1.
func (p *Plan) VariantIndex(name string) int {
	return p.schema.VariantIndex(name)
}

// FieldOffset resolves a field without checking which variant is selected.
// Callers holding a value should use OffsetOf.
func (p *Plan) FieldOffset(variant int, field string) (SlotOffset, error) {
	if variant < 0 || variant >= len(p.variants) {
		return SlotOffset{}, errors.New(errors.PhaseLookup, errors.KindUnknownField).
			Path(p.schema.Name, field).
			Detail("variant index %d out of range (%d variants)", variant, len(p.variants)).
			Build()
	}
	v := &p.variants[variant]
	for _, f := range v.Fields {
		if f.Name == field {
			return f, nil
		}
	}
	return SlotOffset{}, errors.UnknownField([]string{p.schema.Name, v.Name}, field)
}

// OffsetOf resolves a field of the variant currently selected in sel. It
// fails with ErrVariantMismatch if variant is not the selected one.
func (p *Plan) OffsetOf(sel Selected, variant int, field string) (SlotOffset, error) {
	cur, err := sel.CurrentVariant()
	if err != nil {
		return SlotOffset{}, err
	}
	if cur != variant {
		name := ""
		if variant >= 0 && variant < len(p.variants) {
			name = p.variants[variant].Name
		}
		return SlotOffset{}, errors.VariantMismatch([]string{p.schema.Name, name, field}, variant, cur)
	}
	return p.FieldOffset(variant, field)
}
