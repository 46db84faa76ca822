package value

import (
	"fmt"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/schema"
)

// Union is an in-memory tagged union value: a selector and the field values
// of the selected variant only.
//
// Every Select and ClearAll bumps a generation counter. Accessors remember
// the generation and variant they were issued for and fail with
// ErrVariantMismatch once either changed, so no accessor can observe another
// variant's fields.
//
// A Union is not safe for concurrent mutation.
type Union struct {
	schema     *schema.Union
	fields     []any
	observers  Observers
	selector   int
	generation uint64
}

// New returns a union with the first variant selected and zero fields.
func New(s *schema.Union) (*Union, error) {
	if err := s.Validate(0); err != nil {
		return nil, err
	}
	return &Union{
		schema: s,
		fields: ZeroFields(&s.Variants[0]),
	}, nil
}

// FromParts builds a union with the given variant selected. The fields are
// type-checked and copied.
func FromParts(s *schema.Union, selector int, fields []any) (*Union, error) {
	u, err := New(s)
	if err != nil {
		return nil, err
	}
	if err := u.Select(selector, fields); err != nil {
		return nil, err
	}
	u.generation = 0
	return u, nil
}

func (u *Union) Schema() *schema.Union { return u.schema }

// Selector returns the index of the selected variant.
func (u *Union) Selector() int { return u.selector }

// CurrentVariant implements layout.Selected.
func (u *Union) CurrentVariant() (int, error) { return u.selector, nil }

// VariantName returns the name of the selected variant.
func (u *Union) VariantName() string { return u.schema.Variants[u.selector].Name }

// Generation returns the number of variant switches and resets so far.
func (u *Union) Generation() uint64 { return u.generation }

// Fields returns a copy of the selected variant's field values.
func (u *Union) Fields() []any {
	v := &u.schema.Variants[u.selector]
	out := make([]any, len(u.fields))
	for i, f := range v.Fields {
		out[i] = Clone(f.Type, u.fields[i])
	}
	return out
}

// Field returns a copy of a field of the selected variant.
func (u *Union) Field(name string) (any, error) {
	v := &u.schema.Variants[u.selector]
	i := v.FieldIndex(name)
	if i < 0 {
		return nil, errors.UnknownField([]string{u.schema.Name, v.Name}, name)
	}
	return Clone(v.Fields[i].Type, u.fields[i]), nil
}

// Select switches to variant and binds fields, which must match the
// variant's field list. On error the union is unchanged.
func (u *Union) Select(variant int, fields []any) error {
	if variant < 0 || variant >= len(u.schema.Variants) {
		return errors.OutOfBounds(errors.PhaseOperation, []string{u.schema.Name}, variant, len(u.schema.Variants))
	}
	v := &u.schema.Variants[variant]
	if err := CheckFields(errors.PhaseOperation, u.schema.Name, v, fields); err != nil {
		return err
	}

	bound := make([]any, len(fields))
	for i, f := range v.Fields {
		bound[i] = Clone(f.Type, fields[i])
	}
	u.selector = variant
	u.fields = bound
	u.generation++
	u.observers.Notify(Event{Type: EventSelected, Variant: variant, Generation: u.generation})
	return nil
}

// SelectByName is Select with a variant name.
func (u *Union) SelectByName(name string, fields []any) error {
	i := u.schema.VariantIndex(name)
	if i < 0 {
		return errors.NotFound(errors.PhaseOperation, "variant", name)
	}
	return u.Select(i, fields)
}

// SetField writes one field of the selected variant.
func (u *Union) SetField(name string, val any) error {
	v := &u.schema.Variants[u.selector]
	i := v.FieldIndex(name)
	if i < 0 {
		return errors.UnknownField([]string{u.schema.Name, v.Name}, name)
	}
	return u.setField(i, val)
}

func (u *Union) setField(i int, val any) error {
	v := &u.schema.Variants[u.selector]
	f := v.Fields[i]
	if err := CheckAt(errors.PhaseOperation, []string{u.schema.Name, v.Name, f.Name}, f.Type, val); err != nil {
		return err
	}
	u.fields[i] = Clone(f.Type, val)
	u.observers.Notify(Event{
		Type:       EventFieldWritten,
		Variant:    u.selector,
		Field:      f.Name,
		Value:      val,
		Generation: u.generation,
	})
	return nil
}

// ClearField zeroes the fields of variant, which must be the selected one.
// Accessors stay valid.
func (u *Union) ClearField(variant int) error {
	if variant != u.selector {
		return errors.NotCurrentVariant(variant, u.selector)
	}
	u.fields = ZeroFields(&u.schema.Variants[u.selector])
	u.observers.Notify(Event{Type: EventFieldCleared, Variant: variant, Generation: u.generation})
	return nil
}

// ClearAll resets the union to the first variant with zero fields. The
// union stays usable.
func (u *Union) ClearAll() {
	u.selector = 0
	u.fields = ZeroFields(&u.schema.Variants[0])
	u.generation++
	u.observers.Notify(Event{Type: EventCleared, Generation: u.generation})
}

// Accessor returns a guarded handle to one field of the selected variant.
func (u *Union) Accessor(variant int, field string) (*Accessor, error) {
	if variant != u.selector {
		name := ""
		if variant >= 0 && variant < len(u.schema.Variants) {
			name = u.schema.Variants[variant].Name
		}
		return nil, errors.VariantMismatch([]string{u.schema.Name, name, field}, variant, u.selector)
	}
	v := &u.schema.Variants[variant]
	i := v.FieldIndex(field)
	if i < 0 {
		return nil, errors.UnknownField([]string{u.schema.Name, v.Name}, field)
	}
	return &Accessor{
		union:      u,
		variant:    variant,
		field:      i,
		generation: u.generation,
	}, nil
}

// Equal reports whether both unions have the same schema signature, the same
// selector and equal field values.
func (u *Union) Equal(o *Union) bool {
	if o == nil || u.selector != o.selector {
		return false
	}
	if u.schema != o.schema && u.schema.Signature() != o.schema.Signature() {
		return false
	}
	v := &u.schema.Variants[u.selector]
	for i, f := range v.Fields {
		if !Equal(f.Type, u.fields[i], o.fields[i]) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy without observers.
func (u *Union) Clone() *Union {
	return &Union{
		schema:     u.schema,
		fields:     u.Fields(),
		selector:   u.selector,
		generation: u.generation,
	}
}

// Subscribe adds an observer for state transitions.
func (u *Union) Subscribe(o Observer) { u.observers.Subscribe(o) }

// Unsubscribe removes an observer.
func (u *Union) Unsubscribe(o Observer) { u.observers.Unsubscribe(o) }

func (u *Union) String() string {
	v := &u.schema.Variants[u.selector]
	return fmt.Sprintf("%s.%s%v", u.schema.Name, v.Name, FieldsToNative(v, u.fields))
}

// CheckFields type-checks a full field list for variant v.
func CheckFields(phase errors.Phase, union string, v *schema.Variant, fields []any) error {
	if len(fields) != len(v.Fields) {
		return errors.New(phase, errors.KindInvalidInput).
			Path(union, v.Name).
			Detail("variant has %d fields, got %d values", len(v.Fields), len(fields)).
			Build()
	}
	for i, f := range v.Fields {
		if err := CheckAt(phase, []string{union, v.Name, f.Name}, f.Type, fields[i]); err != nil {
			return err
		}
	}
	return nil
}

// Accessor reads and writes one field of one variant. Every use re-validates
// that the union still has the same variant selected at the same generation.
type Accessor struct {
	union      *Union
	variant    int
	field      int
	generation uint64
}

func (a *Accessor) check() error {
	u := a.union
	name := u.schema.Variants[a.variant].Fields[a.field].Name
	path := []string{u.schema.Name, u.schema.Variants[a.variant].Name, name}
	if u.selector != a.variant {
		return errors.VariantMismatch(path, a.variant, u.selector)
	}
	if u.generation != a.generation {
		return errors.StaleAccessor(path, a.generation, u.generation)
	}
	return nil
}

// Get returns a copy of the field value.
func (a *Accessor) Get() (any, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	f := a.union.schema.Variants[a.variant].Fields[a.field]
	return Clone(f.Type, a.union.fields[a.field]), nil
}

// Set writes the field value.
func (a *Accessor) Set(val any) error {
	if err := a.check(); err != nil {
		return err
	}
	return a.union.setField(a.field, val)
}

// Variant returns the variant index the accessor was issued for.
func (a *Accessor) Variant() int { return a.variant }

// Field returns the field name.
func (a *Accessor) Field() string {
	return a.union.schema.Variants[a.variant].Fields[a.field].Name
}
