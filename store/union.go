package store

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/codec"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/value"
)

// Union is a union value living in a slot store at a base slot, laid out by
// a plan. The selector slot is the source of truth for the current variant.
//
// Select and ClearAll bump a generation counter held by this binding;
// accessors issued before fail with ErrVariantMismatch afterwards. A Union
// is not safe for concurrent mutation.
type Union struct {
	plan       *layout.Plan
	store      unionlayout.SlotStore
	base       *uint256.Int
	enc        *codec.Encoder
	dec        *codec.Decoder
	observers  value.Observers
	generation uint64
}

// Bind attaches plan to st at base. A nil base is slot 0.
func Bind(plan *layout.Plan, st unionlayout.SlotStore, base *uint256.Int) (*Union, error) {
	if st.WordWidth() != plan.WordWidth() {
		return nil, errors.New(errors.PhaseStorage, errors.KindInvalidInput).
			Path(plan.Schema().Name).
			Detail("store word width %d, plan word width %d", st.WordWidth(), plan.WordWidth()).
			Build()
	}
	if plan.Strategy() == layout.Indirected && st.StorageClass() == unionlayout.Transient {
		return nil, errors.StrategyUnsupported(plan.Strategy().String(), st.StorageClass().String())
	}
	if base == nil {
		base = new(uint256.Int)
	}
	return &Union{
		plan:  plan,
		store: st,
		base:  base.Clone(),
		enc:   codec.NewEncoder(plan.WordWidth()),
		dec:   codec.NewDecoder(plan.WordWidth()),
	}, nil
}

func (u *Union) Plan() *layout.Plan { return u.plan }

// Base returns a copy of the base slot.
func (u *Union) Base() *uint256.Int { return u.base.Clone() }

func (u *Union) Generation() uint64 { return u.generation }

// CurrentVariant reads the selector slot.
func (u *Union) CurrentVariant() (int, error) {
	word, err := u.store.ReadSlot(u.plan.SelectorAddress(u.base))
	if err != nil {
		return 0, err
	}
	n := u.plan.NumVariants()
	sel, ok := wordIndex(word)
	if !ok || sel >= uint64(n) {
		return 0, errors.SelectorOutOfRange([]string{u.plan.Schema().Name}, "0x"+hex.EncodeToString(word), n)
	}
	return int(sel), nil
}

// Load reads the whole value.
func (u *Union) Load() (*value.Union, error) {
	cur, err := u.CurrentVariant()
	if err != nil {
		return nil, err
	}
	fields, err := u.readVariant(cur)
	if err != nil {
		return nil, err
	}
	return value.FromParts(u.plan.Schema(), cur, fields)
}

// Save writes v, switching variants if needed.
func (u *Union) Save(v *value.Union) error {
	if v.Schema().Signature() != u.plan.Schema().Signature() {
		return errors.New(errors.PhaseOperation, errors.KindInvalidInput).
			Path(u.plan.Schema().Name).
			Detail("value schema %s does not match the bound plan", v.Schema().Name).
			Build()
	}
	return u.Select(v.Selector(), v.Fields())
}

// Select clears the current variant's slots and dynamic content, then writes
// fields and the new selector. All writes go through one batch when the
// store supports batching.
func (u *Union) Select(variant int, fields []any) error {
	s := u.plan.Schema()
	if variant < 0 || variant >= len(s.Variants) {
		return errors.OutOfBounds(errors.PhaseOperation, []string{s.Name}, variant, len(s.Variants))
	}
	if err := value.CheckFields(errors.PhaseOperation, s.Name, &s.Variants[variant], fields); err != nil {
		return err
	}

	prev, err := u.CurrentVariant()
	var ws []write
	switch {
	case err == nil:
		if ws, err = u.clearOps(prev); err != nil {
			return err
		}
	case isKind(err, errors.KindSelectorOutOfRange):
		// unreadable selector: nothing known to clear
		prev = -1
	default:
		return err
	}

	body, err := u.writeOps(variant, fields)
	if err != nil {
		return err
	}
	ws = append(ws, body...)
	ws = append(ws, write{addr: u.plan.SelectorAddress(u.base), word: u.uintWord(uint64(variant))})
	if err := u.apply(ws); err != nil {
		return err
	}

	u.generation++
	Logger().Debug("variant switch",
		zap.String("union", s.Name),
		zap.Int("from", prev),
		zap.Int("to", variant),
		zap.Int("writes", len(ws)),
	)
	u.observers.Notify(value.Event{Type: value.EventSelected, Variant: variant, Generation: u.generation})
	return nil
}

// ReadField reads a field of variant, which must be the selected one.
func (u *Union) ReadField(variant int, field string) (any, error) {
	off, err := u.plan.OffsetOf(u, variant, field)
	if err != nil {
		return nil, err
	}
	return u.readField(off)
}

// WriteField writes a field of variant, which must be the selected one.
// Writing a dynamic field rewrites the variant's dynamic content.
func (u *Union) WriteField(variant int, field string, val any) error {
	off, err := u.plan.OffsetOf(u, variant, field)
	if err != nil {
		return err
	}
	s := u.plan.Schema()
	if err := value.CheckAt(errors.PhaseOperation, []string{s.Name, s.Variants[variant].Name, field}, off.Type, val); err != nil {
		return err
	}

	var ws []write
	if !off.Pointer {
		data, err := u.enc.EncodeValue(off.Type, val)
		if err != nil {
			return err
		}
		ws = u.wordOps(u.plan.Resolve(u.base, off), data)
	} else {
		fields, err := u.readVariant(variant)
		if err != nil {
			return err
		}
		fields[off.Field] = val
		if ws, err = u.clearOps(variant); err != nil {
			return err
		}
		body, err := u.writeOps(variant, fields)
		if err != nil {
			return err
		}
		ws = append(ws, body...)
	}
	if err := u.apply(ws); err != nil {
		return err
	}
	u.observers.Notify(value.Event{
		Type:       value.EventFieldWritten,
		Variant:    variant,
		Field:      field,
		Value:      val,
		Generation: u.generation,
	})
	return nil
}

// ClearField zeroes the slots and dynamic content of variant, which must be
// the selected one. The selector and accessors are unaffected.
func (u *Union) ClearField(variant int) error {
	cur, err := u.CurrentVariant()
	if err != nil {
		return err
	}
	if variant != cur {
		return errors.NotCurrentVariant(variant, cur)
	}
	ws, err := u.clearOps(cur)
	if err != nil {
		return err
	}
	if err := u.apply(ws); err != nil {
		return err
	}
	u.observers.Notify(value.Event{Type: value.EventFieldCleared, Variant: variant, Generation: u.generation})
	return nil
}

// ClearAll zeroes the current variant and the selector. The union then
// reads as the first variant with zero fields.
func (u *Union) ClearAll() error {
	var ws []write
	cur, err := u.CurrentVariant()
	switch {
	case err == nil:
		if ws, err = u.clearOps(cur); err != nil {
			return err
		}
	case !isKind(err, errors.KindSelectorOutOfRange):
		return err
	}
	ws = append(ws, write{addr: u.plan.SelectorAddress(u.base), word: make([]byte, u.plan.WordWidth())})
	if err := u.apply(ws); err != nil {
		return err
	}
	u.generation++
	u.observers.Notify(value.Event{Type: value.EventCleared, Generation: u.generation})
	return nil
}

// Accessor returns a guarded handle to a field of the selected variant.
func (u *Union) Accessor(variant int, field string) (*Accessor, error) {
	off, err := u.plan.OffsetOf(u, variant, field)
	if err != nil {
		return nil, err
	}
	return &Accessor{union: u, off: off, generation: u.generation}, nil
}

// Subscribe adds an observer for state transitions.
func (u *Union) Subscribe(o value.Observer) { u.observers.Subscribe(o) }

// Unsubscribe removes an observer.
func (u *Union) Unsubscribe(o value.Observer) { u.observers.Unsubscribe(o) }

// Accessor reads and writes one stored field. Every use re-reads the
// selector and checks the binding's generation.
type Accessor struct {
	union      *Union
	off        layout.SlotOffset
	generation uint64
}

func (a *Accessor) check() error {
	u := a.union
	s := u.plan.Schema()
	path := []string{s.Name, s.Variants[a.off.Variant].Name, a.off.Name}
	cur, err := u.CurrentVariant()
	if err != nil {
		return err
	}
	if cur != a.off.Variant {
		return errors.VariantMismatch(path, a.off.Variant, cur)
	}
	if u.generation != a.generation {
		return errors.StaleAccessor(path, a.generation, u.generation)
	}
	return nil
}

func (a *Accessor) Get() (any, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	return a.union.readField(a.off)
}

func (a *Accessor) Set(val any) error {
	if err := a.check(); err != nil {
		return err
	}
	return a.union.WriteField(a.off.Variant, a.off.Name, val)
}

// Offset returns the resolved slot offset of the field.
func (a *Accessor) Offset() layout.SlotOffset { return a.off }

// extent is where a dynamic field's content lives.
type extent struct {
	lenSlot *uint256.Int // nil under Indirected
	start   *uint256.Int
	words   int
}

func (u *Union) content(off layout.SlotOffset, ptrAddr *uint256.Int) (extent, error) {
	s := u.plan.Schema()
	path := []string{s.Name, s.Variants[off.Variant].Name, off.Name}
	w := u.plan.WordWidth()

	word, err := u.store.ReadSlot(ptrAddr)
	if err != nil {
		return extent{}, err
	}
	ptr, ok := wordIndex(word)
	if !ok {
		return extent{}, errors.MalformedTailPointer(path, "0x"+hex.EncodeToString(word), int(u.plan.TailStart()), -1)
	}
	if ptr == 0 {
		return extent{}, nil
	}

	if u.plan.Strategy() == layout.Indirected {
		if ptr%uint64(w) != 0 || ptr > abi.MaxBytesLength {
			return extent{}, errors.MalformedTailPointer(path, ptr, 0, abi.MaxBytesLength)
		}
		return extent{start: u.plan.ContentBase(u.base, ptrAddr, 0), words: int(ptr) / w}, nil
	}

	if ptr < u.plan.TailStart() {
		return extent{}, errors.MalformedTailPointer(path, ptr, int(u.plan.TailStart()), -1)
	}
	head := u.plan.ContentBase(u.base, ptrAddr, ptr)
	lw, err := u.store.ReadSlot(head)
	if err != nil {
		return extent{}, err
	}
	n, ok := wordIndex(lw)
	if !ok || n%uint64(w) != 0 || n > abi.MaxBytesLength {
		return extent{}, errors.InvalidData(errors.PhaseStorage, path, "content length word is malformed")
	}
	return extent{lenSlot: head, start: layout.Slot(head, 1), words: int(n) / w}, nil
}

func (u *Union) readField(off layout.SlotOffset) (any, error) {
	s := u.plan.Schema()
	addr := u.plan.Resolve(u.base, off)

	var (
		data []byte
		err  error
	)
	if !off.Pointer {
		data, err = u.readWords(addr, off.Slots)
	} else {
		var ext extent
		if ext, err = u.content(off, addr); err != nil {
			return nil, err
		}
		if ext.start == nil {
			return value.Zero(off.Type), nil
		}
		data, err = u.readWords(ext.start, ext.words)
	}
	if err != nil {
		return nil, err
	}
	v, err := u.dec.DecodeValue(off.Type, data)
	if err != nil {
		return nil, errors.WithPath(err, s.Name, s.Variants[off.Variant].Name, off.Name)
	}
	return v, nil
}

func (u *Union) readVariant(variant int) ([]any, error) {
	vl, err := u.plan.Variant(variant)
	if err != nil {
		return nil, err
	}
	fields := make([]any, len(vl.Fields))
	for i, off := range vl.Fields {
		if fields[i], err = u.readField(off); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func (u *Union) readWords(addr *uint256.Int, n int) ([]byte, error) {
	out := make([]byte, 0, n*u.plan.WordWidth())
	for k := 0; k < n; k++ {
		word, err := u.store.ReadSlot(layout.Slot(addr, uint64(k)))
		if err != nil {
			return nil, err
		}
		out = append(out, word...)
	}
	return out, nil
}

// clearOps zeroes a variant's field slots and any dynamic content they
// point to.
func (u *Union) clearOps(variant int) ([]write, error) {
	vl, err := u.plan.Variant(variant)
	if err != nil {
		return nil, err
	}
	zero := make([]byte, u.plan.WordWidth())
	var ws []write
	for _, off := range vl.Fields {
		addr := u.plan.Resolve(u.base, off)
		if off.Pointer {
			ext, err := u.content(off, addr)
			if err != nil {
				return nil, err
			}
			if ext.lenSlot != nil {
				ws = append(ws, write{addr: ext.lenSlot, word: zero})
			}
			for k := 0; k < ext.words; k++ {
				ws = append(ws, write{addr: layout.Slot(ext.start, uint64(k)), word: zero})
			}
		}
		for k := 0; k < off.Slots; k++ {
			ws = append(ws, write{addr: layout.Slot(addr, uint64(k)), word: zero})
		}
	}
	return ws, nil
}

// writeOps lays out fields of variant. Non-indirected dynamic content is
// packed sequentially from the plan's tail start.
func (u *Union) writeOps(variant int, fields []any) ([]write, error) {
	vl, err := u.plan.Variant(variant)
	if err != nil {
		return nil, err
	}
	w := u.plan.WordWidth()
	next := u.plan.TailStart()

	var ws []write
	for i, off := range vl.Fields {
		data, err := u.enc.EncodeValue(off.Type, fields[i])
		if err != nil {
			return nil, err
		}
		addr := u.plan.Resolve(u.base, off)
		if !off.Pointer {
			ws = append(ws, u.wordOps(addr, data)...)
			continue
		}

		if u.plan.Strategy() == layout.Indirected {
			ws = append(ws, write{addr: addr, word: u.uintWord(uint64(len(data)))})
			ws = append(ws, u.wordOps(u.plan.ContentBase(u.base, addr, 0), data)...)
			continue
		}
		head := u.plan.ContentBase(u.base, addr, next)
		ws = append(ws, write{addr: addr, word: u.uintWord(next)})
		ws = append(ws, write{addr: head, word: u.uintWord(uint64(len(data)))})
		ws = append(ws, u.wordOps(layout.Slot(head, 1), data)...)
		next += 1 + uint64(len(data)/w)
	}
	return ws, nil
}

func (u *Union) wordOps(addr *uint256.Int, data []byte) []write {
	w := u.plan.WordWidth()
	ws := make([]write, 0, len(data)/w)
	for k := 0; k*w < len(data); k++ {
		ws = append(ws, write{addr: layout.Slot(addr, uint64(k)), word: data[k*w : (k+1)*w]})
	}
	return ws
}

func (u *Union) apply(ws []write) error {
	b, ok := u.store.(unionlayout.Batcher)
	if !ok {
		for _, w := range ws {
			if err := u.store.WriteSlot(w.addr, w.word); err != nil {
				return err
			}
		}
		return nil
	}

	batch := b.NewBatch()
	for _, w := range ws {
		if err := batch.WriteSlot(w.addr, w.word); err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	Logger().Debug("batch committed", zap.String("union", u.plan.Schema().Name), zap.Int("writes", len(ws)))
	return nil
}

func (u *Union) uintWord(v uint64) []byte {
	word := make([]byte, u.plan.WordWidth())
	binary.BigEndian.PutUint64(word[len(word)-8:], v)
	return word
}

// wordIndex reads a word as a uint64. ok is false when the high bytes are
// not zero.
func wordIndex(word []byte) (uint64, bool) {
	n := len(word)
	if n < 8 || !isZero(word[:n-8]) {
		return 0, false
	}
	return binary.BigEndian.Uint64(word[n-8:]), true
}

func isKind(err error, kind errors.Kind) bool {
	e, ok := err.(*errors.Error)
	return ok && e.Kind == kind
}
