package store

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/fixture"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/value"
)

var strategies = []layout.Strategy{
	layout.NonOverlapping,
	layout.Overlapping,
	layout.OverlappingPrefix,
	layout.Indirected,
}

func compile(t *testing.T, s *schema.Union, st layout.Strategy) *layout.Plan {
	t.Helper()
	p, err := layout.Compile(s, layout.Options{Strategy: st})
	require.NoError(t, err)
	return p
}

func newMem(t *testing.T) *MemoryStore {
	t.Helper()
	m, err := NewMemoryStore(32, unionlayout.Persistent)
	require.NoError(t, err)
	return m
}

type sample struct {
	variant int
	fields  []any
}

func eSamples() []sample {
	var owner value.Address
	owner[19] = 0xaa
	fn := value.NewFunction(owner, [4]byte{1, 2, 3, 4})
	return []sample{
		{0, []any{[]byte{0xde, 0xad, 0xbe, 0xef}, owner, big.NewInt(1000)}},
		{1, []any{[]byte{9, 9, 9, 9}, owner, []any{fn, big.NewInt(5)}, bytes.Repeat([]byte{1}, 16)}},
		{2, []any{[]any{big.NewInt(7), big.NewInt(-7), big.NewInt(70)}}},
		{3, []any{big.NewInt(1 << 40), []any{big.NewInt(1), big.NewInt(2)}}},
		{2, []any{[]any{}}},
	}
}

func mixedSamples() []sample {
	return []sample{
		{1, []any{big.NewInt(3), "a label that is longer than a single slot word", true}},
		{2, []any{bytes.Repeat([]byte{0xab}, 70), []any{[]byte{1, 2}, []byte{3, 4}}}},
		{0, []any{}},
		{2, []any{[]byte{}, []any{}}},
	}
}

func TestUnionRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		schema  *schema.Union
		samples []sample
	}{
		{"E", fixture.E(), eSamples()},
		{"M", fixture.Mixed(), mixedSamples()},
	}
	for _, tc := range cases {
		for _, st := range strategies {
			t.Run(tc.name+"/"+st.String(), func(t *testing.T) {
				mem := newMem(t)
				u, err := Bind(compile(t, tc.schema, st), mem, uint256.NewInt(100))
				require.NoError(t, err)

				for _, smp := range tc.samples {
					require.NoError(t, u.Select(smp.variant, smp.fields))

					cur, err := u.CurrentVariant()
					require.NoError(t, err)
					require.Equal(t, smp.variant, cur)

					got, err := u.Load()
					require.NoError(t, err)
					want, err := value.FromParts(tc.schema, smp.variant, smp.fields)
					require.NoError(t, err)
					require.True(t, got.Equal(want), "loaded %v, want %v", got, want)
				}

				require.NoError(t, u.ClearAll())
				require.Zero(t, mem.Len(), "ClearAll must leave no slot behind")
			})
		}
	}
}

func TestUnionFreshStoreReadsZero(t *testing.T) {
	e := fixture.E()
	u, err := Bind(compile(t, e, layout.Overlapping), newMem(t), nil)
	require.NoError(t, err)

	got, err := u.Load()
	require.NoError(t, err)
	want, err := value.New(e)
	require.NoError(t, err)
	require.True(t, got.Equal(want))
}

func TestUnionSwitchClearsPreviousVariant(t *testing.T) {
	e := fixture.E()
	samples := eSamples()
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			mem := newMem(t)
			plan := compile(t, e, st)
			u, err := Bind(plan, mem, nil)
			require.NoError(t, err)

			require.NoError(t, u.Select(samples[1].variant, samples[1].fields))
			require.NoError(t, u.Select(samples[2].variant, samples[2].fields))

			vl, err := plan.Variant(1)
			require.NoError(t, err)
			c, err := plan.Variant(2)
			require.NoError(t, err)
			for _, off := range vl.Fields {
				addr := plan.Resolve(u.Base(), off)
				if overlaps(plan, off, c.Fields) {
					continue
				}
				for k := 0; k < off.Slots; k++ {
					word, err := mem.ReadSlot(layout.Slot(addr, uint64(k)))
					require.NoError(t, err)
					require.True(t, isZero(word), "B.%s slot %d not cleared", off.Name, k)
				}
			}
		})
	}
}

// overlaps reports whether off shares a slot with any of fields, or with the
// tail area the other variant's content may occupy.
func overlaps(p *layout.Plan, off layout.SlotOffset, fields []layout.SlotOffset) bool {
	if off.Region == layout.RegionBase && off.Offset >= p.TailStart() {
		return true
	}
	for _, f := range fields {
		sameRegion := f.Region == off.Region && (off.Region == layout.RegionBase || f.Variant == off.Variant)
		if sameRegion && off.Offset < f.Offset+uint64(f.Slots) && f.Offset < off.Offset+uint64(off.Slots) {
			return true
		}
	}
	return false
}

func TestUnionAliasingGuard(t *testing.T) {
	e := fixture.E()
	samples := eSamples()
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			u, err := Bind(compile(t, e, st), newMem(t), nil)
			require.NoError(t, err)
			require.NoError(t, u.Select(samples[0].variant, samples[0].fields))

			acc, err := u.Accessor(0, "owner")
			require.NoError(t, err)
			got, err := acc.Get()
			require.NoError(t, err)
			require.Equal(t, samples[0].fields[1], got)

			require.NoError(t, u.Select(samples[2].variant, samples[2].fields))

			_, err = acc.Get()
			require.ErrorIs(t, err, errors.ErrVariantMismatch)
			require.ErrorIs(t, acc.Set(value.Address{}), errors.ErrVariantMismatch)

			_, err = u.ReadField(0, "owner")
			require.ErrorIs(t, err, errors.ErrVariantMismatch)
			require.ErrorIs(t, u.WriteField(0, "owner", value.Address{}), errors.ErrVariantMismatch)
			_, err = u.Accessor(0, "owner")
			require.ErrorIs(t, err, errors.ErrVariantMismatch)

			// switching back does not revive the old accessor
			require.NoError(t, u.Select(samples[0].variant, samples[0].fields))
			_, err = acc.Get()
			require.ErrorIs(t, err, errors.ErrVariantMismatch)

			_, err = u.ReadField(0, "nope")
			require.ErrorIs(t, err, errors.ErrUnknownField)
		})
	}
}

func TestUnionWriteField(t *testing.T) {
	m := fixture.Mixed()
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			mem := newMem(t)
			u, err := Bind(compile(t, m, st), mem, uint256.NewInt(7))
			require.NoError(t, err)
			require.NoError(t, u.Select(2, []any{[]byte("short"), []any{[]byte{1, 1}}}))

			acc, err := u.Accessor(2, "data")
			require.NoError(t, err)
			long := bytes.Repeat([]byte("grow"), 40)
			require.NoError(t, acc.Set(long))

			got, err := acc.Get()
			require.NoError(t, err)
			require.Equal(t, long, got)

			more, err := u.ReadField(2, "more")
			require.NoError(t, err)
			require.True(t, value.Equal(schema.Slice(schema.FixedBytes(2)), []any{[]byte{1, 1}}, more))

			require.NoError(t, u.Select(1, []any{big.NewInt(1), "x", false}))
			require.NoError(t, u.WriteField(1, "id", big.NewInt(99)))
			id, err := u.ReadField(1, "id")
			require.NoError(t, err)
			require.Equal(t, 0, id.(*big.Int).Cmp(big.NewInt(99)))

			require.Error(t, u.WriteField(1, "id", "not a number"))

			require.NoError(t, u.ClearAll())
			require.Zero(t, mem.Len())
		})
	}
}

func TestUnionClearField(t *testing.T) {
	m := fixture.Mixed()
	mem := newMem(t)
	u, err := Bind(compile(t, m, layout.NonOverlapping), mem, nil)
	require.NoError(t, err)
	require.NoError(t, u.Select(1, []any{big.NewInt(5), "label", true}))

	require.ErrorIs(t, u.ClearField(2), errors.ErrNotCurrentVariant)

	acc, err := u.Accessor(1, "label")
	require.NoError(t, err)
	require.NoError(t, u.ClearField(1))

	cur, err := u.CurrentVariant()
	require.NoError(t, err)
	require.Equal(t, 1, cur)
	require.Equal(t, 1, mem.Len(), "only the selector slot remains")

	label, err := acc.Get()
	require.NoError(t, err, "ClearField keeps accessors valid")
	require.Equal(t, "", label)
}

func TestUnionGarbageSelector(t *testing.T) {
	e := fixture.E()
	mem := newMem(t)
	plan := compile(t, e, layout.NonOverlapping)
	u, err := Bind(plan, mem, nil)
	require.NoError(t, err)

	word := make([]byte, 32)
	word[31] = 4
	require.NoError(t, mem.WriteSlot(plan.SelectorAddress(u.Base()), word))

	_, err = u.CurrentVariant()
	require.ErrorIs(t, err, errors.ErrSelectorOutOfRange)
	_, err = u.Load()
	require.ErrorIs(t, err, errors.ErrSelectorOutOfRange)

	samples := eSamples()
	require.NoError(t, u.Select(samples[3].variant, samples[3].fields))
	cur, err := u.CurrentVariant()
	require.NoError(t, err)
	require.Equal(t, 3, cur)
}

func TestBindRejectsIndirectedOnTransient(t *testing.T) {
	e := fixture.E()
	plan := compile(t, e, layout.Indirected)

	transient, err := NewMemoryStore(32, unionlayout.Transient)
	require.NoError(t, err)
	_, err = Bind(plan, transient, nil)
	require.ErrorIs(t, err, errors.ErrStrategyUnsupportedForStorageClass)

	narrow, err := NewMemoryStore(16, unionlayout.Persistent)
	require.NoError(t, err)
	_, err = Bind(plan, narrow, nil)
	require.Error(t, err)

	_, err = Bind(compile(t, e, layout.Overlapping), transient, nil)
	require.NoError(t, err)
}

func TestUnionSaveChecksSchema(t *testing.T) {
	u, err := Bind(compile(t, fixture.E(), layout.Overlapping), newMem(t), nil)
	require.NoError(t, err)

	other, err := value.New(fixture.Mixed())
	require.NoError(t, err)
	require.Error(t, u.Save(other))

	v, err := value.FromParts(fixture.E(), 3, eSamples()[3].fields)
	require.NoError(t, err)
	require.NoError(t, u.Save(v))
	got, err := u.Load()
	require.NoError(t, err)
	require.True(t, got.Equal(v))
}

type recorder struct {
	events []value.Event
}

func (r *recorder) OnUnionEvent(e value.Event) { r.events = append(r.events, e) }

func TestUnionObservers(t *testing.T) {
	m := fixture.Mixed()
	u, err := Bind(compile(t, m, layout.Overlapping), newMem(t), nil)
	require.NoError(t, err)

	rec := &recorder{}
	u.Subscribe(rec)
	require.NoError(t, u.Select(1, []any{big.NewInt(1), "a", true}))
	require.NoError(t, u.WriteField(1, "flag", false))
	require.NoError(t, u.ClearField(1))
	require.NoError(t, u.ClearAll())
	u.Unsubscribe(rec)
	require.NoError(t, u.Select(0, []any{}))

	var types []value.EventType
	for _, e := range rec.events {
		types = append(types, e.Type)
	}
	require.Equal(t, []value.EventType{
		value.EventSelected,
		value.EventFieldWritten,
		value.EventFieldCleared,
		value.EventCleared,
	}, types)
	require.Equal(t, uint64(2), rec.events[3].Generation)
}
