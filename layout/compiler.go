package layout

import (
	"encoding/hex"
	"sync"

	"github.com/wippyai/unionlayout/schema"
	"go.uber.org/zap"
)

// Compiler turns union schemas into plans and caches the result per
// (signature, options), so repeated compiles return the same *Plan.
type Compiler struct {
	cache sync.Map // cacheKey -> *Plan
}

type cacheKey struct {
	signature string
	opts      Options
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

var defaultCompiler = NewCompiler()

// Compile compiles u with the package-level compiler.
func Compile(u *schema.Union, opts Options) (*Plan, error) {
	return defaultCompiler.Compile(u, opts)
}

// Compile validates the options (including the strategy/storage class rule),
// then the schema, and returns the plan. No partial plan is returned on error.
func (c *Compiler) Compile(u *schema.Union, opts Options) (*Plan, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := u.Validate(opts.WordWidth); err != nil {
		return nil, err
	}

	key := cacheKey{signature: u.Signature(), opts: opts}
	if cached, ok := c.cache.Load(key); ok {
		Logger().Debug("plan cache hit", zap.String("union", u.Name), zap.Stringer("strategy", opts.Strategy))
		return cached.(*Plan), nil
	}

	p := build(u, key.signature, opts)
	actual, _ := c.cache.LoadOrStore(key, p)
	p = actual.(*Plan)

	Logger().Debug("plan compiled",
		zap.String("union", u.Name),
		zap.Stringer("strategy", opts.Strategy),
		zap.Int("footprint", p.footprint),
		zap.Int("head_words", p.headWords),
		zap.Bool("dynamic", p.dynamic),
		zap.String("fingerprint", hex.EncodeToString(p.fingerprint[:])),
	)
	return p, nil
}

// build places every field. The schema is already validated.
func build(u *schema.Union, signature string, opts Options) *Plan {
	const sel = 1

	p := &Plan{
		schema:        u,
		signature:     signature,
		opts:          opts,
		selectorSlots: sel,
		headWords:     1 + u.MaxHeadWords(),
		dynamic:       u.IsDynamic(),
		variants:      make([]VariantLayout, len(u.Variants)),
	}

	switch opts.Strategy {
	case NonOverlapping:
		next := uint64(sel)
		for i := range u.Variants {
			p.variants[i] = consecutive(i, &u.Variants[i], RegionBase, next)
			next += uint64(p.variants[i].Footprint)
		}
		p.footprint = int(next)

	case Overlapping:
		widest := 0
		for i := range u.Variants {
			p.variants[i] = consecutive(i, &u.Variants[i], RegionBase, sel)
			widest = max(widest, p.variants[i].Footprint)
		}
		p.footprint = sel + widest

	case OverlappingPrefix:
		prefix := 0
		for i := range u.Variants {
			prefix = max(prefix, staticWords(&u.Variants[i]))
		}
		body := uint64(sel + prefix)
		for i := range u.Variants {
			p.variants[i] = prefixed(i, &u.Variants[i], sel, body)
			body += uint64(dynamicCount(&u.Variants[i]))
		}
		p.footprint = int(body)

	case Indirected:
		for i := range u.Variants {
			p.variants[i] = consecutive(i, &u.Variants[i], RegionHashed, 0)
		}
		p.footprint = sel
	}

	p.encoded = p.marshal()
	p.fingerprint = keccak256(p.encoded)
	return p
}

func consecutive(idx int, v *schema.Variant, region Region, start uint64) VariantLayout {
	vl := VariantLayout{
		Name:    v.Name,
		Region:  region,
		Start:   start,
		Dynamic: v.IsDynamic(),
		Fields:  make([]SlotOffset, len(v.Fields)),
	}
	off := start
	for j, f := range v.Fields {
		vl.Fields[j] = slotOffset(idx, j, f, region, off)
		off += uint64(vl.Fields[j].Slots)
	}
	vl.Footprint = int(off - start)
	return vl
}

// prefixed places static fields consecutively from prefixStart and dynamic
// pointer slots consecutively from bodyStart.
func prefixed(idx int, v *schema.Variant, prefixStart int, bodyStart uint64) VariantLayout {
	vl := VariantLayout{
		Name:    v.Name,
		Region:  RegionBase,
		Start:   uint64(prefixStart),
		Dynamic: v.IsDynamic(),
		Fields:  make([]SlotOffset, len(v.Fields)),
	}
	static, body := uint64(prefixStart), bodyStart
	for j, f := range v.Fields {
		if f.Type.IsDynamic() {
			vl.Fields[j] = slotOffset(idx, j, f, RegionBase, body)
			body++
			continue
		}
		vl.Fields[j] = slotOffset(idx, j, f, RegionBase, static)
		static += uint64(vl.Fields[j].Slots)
	}
	vl.Footprint = v.HeadWords()
	return vl
}

func slotOffset(variant, field int, f schema.Field, region Region, off uint64) SlotOffset {
	return SlotOffset{
		Name:    f.Name,
		Type:    f.Type,
		Variant: variant,
		Field:   field,
		Offset:  off,
		Slots:   f.Type.HeadWords(),
		Region:  region,
		Pointer: f.Type.IsDynamic(),
	}
}

func staticWords(v *schema.Variant) int {
	n := 0
	for _, f := range v.Fields {
		if !f.Type.IsDynamic() {
			n += f.Type.HeadWords()
		}
	}
	return n
}

func dynamicCount(v *schema.Variant) int {
	n := 0
	for _, f := range v.Fields {
		if f.Type.IsDynamic() {
			n++
		}
	}
	return n
}
