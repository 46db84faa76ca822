package value

import (
	"bytes"
	"math/big"
	"strconv"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/schema"
)

// Zero returns the zero value of t.
func Zero(t *schema.Type) any {
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		return new(big.Int)
	case schema.KindBool:
		return false
	case schema.KindFixedBytes:
		return make([]byte, t.Size)
	case schema.KindAddress:
		return Address{}
	case schema.KindFunction:
		return Function{}
	case schema.KindBytes:
		return []byte{}
	case schema.KindString:
		return ""
	case schema.KindArray:
		out := make([]any, t.Size)
		for i := range out {
			out[i] = Zero(t.Elem)
		}
		return out
	case schema.KindSlice:
		return []any{}
	case schema.KindTuple:
		out := make([]any, len(t.Components))
		for i, c := range t.Components {
			out[i] = Zero(c.Type)
		}
		return out
	}
	return nil
}

// ZeroFields returns the zero values of a variant's fields.
func ZeroFields(v *schema.Variant) []any {
	out := make([]any, len(v.Fields))
	for i, f := range v.Fields {
		out[i] = Zero(f.Type)
	}
	return out
}

// Check reports whether v is a valid value of type t.
func Check(t *schema.Type, v any) error {
	return CheckAt(errors.PhaseOperation, nil, t, v)
}

// CheckAt is Check with the phase and path used in the returned error.
func CheckAt(phase errors.Phase, path []string, t *schema.Type, v any) error {
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		b, ok := v.(*big.Int)
		if !ok || b == nil {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
		if !InRange(t, b) {
			return errors.Overflow(phase, path, b, t.String())
		}
	case schema.KindBool:
		if _, ok := v.(bool); !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
	case schema.KindFixedBytes:
		b, ok := v.([]byte)
		if !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
		if len(b) != t.Size {
			return errors.New(phase, errors.KindTypeMismatch).Path(path...).
				SchemaType(t.String()).Detail("got %d bytes", len(b)).Build()
		}
	case schema.KindAddress:
		if _, ok := v.(Address); !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
	case schema.KindFunction:
		if _, ok := v.(Function); !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
	case schema.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
		if len(b) > abi.MaxBytesLength {
			return errors.OutOfBounds(phase, path, len(b), abi.MaxBytesLength)
		}
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
		if len(s) > abi.MaxBytesLength {
			return errors.OutOfBounds(phase, path, len(s), abi.MaxBytesLength)
		}
	case schema.KindArray, schema.KindSlice:
		items, ok := v.([]any)
		if !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
		if t.Kind == schema.KindArray && len(items) != t.Size {
			return errors.New(phase, errors.KindTypeMismatch).Path(path...).
				SchemaType(t.String()).Detail("got %d elements", len(items)).Build()
		}
		if len(items) > abi.MaxArrayLength {
			return errors.OutOfBounds(phase, path, len(items), abi.MaxArrayLength)
		}
		for i, item := range items {
			if err := CheckAt(phase, extend(path, strconv.Itoa(i)), t.Elem, item); err != nil {
				return err
			}
		}
	case schema.KindTuple:
		items, ok := v.([]any)
		if !ok {
			return errors.TypeMismatch(phase, path, abi.TypeName(v), t.String())
		}
		if len(items) != len(t.Components) {
			return errors.New(phase, errors.KindTypeMismatch).Path(path...).
				SchemaType(t.String()).Detail("got %d components", len(items)).Build()
		}
		for i, c := range t.Components {
			if err := CheckAt(phase, extend(path, c.Name), c.Type, items[i]); err != nil {
				return err
			}
		}
	default:
		return errors.Unsupported(phase, "type kind "+t.Kind.String())
	}
	return nil
}

// InRange reports whether b fits integer type t.
func InRange(t *schema.Type, b *big.Int) bool {
	if t.Kind == schema.KindUint {
		return b.Sign() >= 0 && b.BitLen() <= t.Size
	}
	// signed: -2^(N-1) <= b < 2^(N-1)
	if b.Sign() >= 0 {
		return b.BitLen() < t.Size
	}
	m := new(big.Int).Add(b, big.NewInt(1))
	return m.BitLen() < t.Size
}

// Equal compares two values of type t.
func Equal(t *schema.Type, a, b any) bool {
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		x, ok1 := a.(*big.Int)
		y, ok2 := b.(*big.Int)
		return ok1 && ok2 && x != nil && y != nil && x.Cmp(y) == 0
	case schema.KindFixedBytes, schema.KindBytes:
		x, ok1 := a.([]byte)
		y, ok2 := b.([]byte)
		return ok1 && ok2 && bytes.Equal(x, y)
	case schema.KindArray, schema.KindSlice:
		x, ok1 := a.([]any)
		y, ok2 := b.([]any)
		if !ok1 || !ok2 || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(t.Elem, x[i], y[i]) {
				return false
			}
		}
		return true
	case schema.KindTuple:
		x, ok1 := a.([]any)
		y, ok2 := b.([]any)
		if !ok1 || !ok2 || len(x) != len(t.Components) || len(y) != len(t.Components) {
			return false
		}
		for i, c := range t.Components {
			if !Equal(c.Type, x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// Clone deep-copies a value of type t.
func Clone(t *schema.Type, v any) any {
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		if b, ok := v.(*big.Int); ok && b != nil {
			return new(big.Int).Set(b)
		}
	case schema.KindFixedBytes, schema.KindBytes:
		if b, ok := v.([]byte); ok {
			return append([]byte{}, b...)
		}
	case schema.KindArray, schema.KindSlice:
		if items, ok := v.([]any); ok {
			out := make([]any, len(items))
			for i, item := range items {
				out[i] = Clone(t.Elem, item)
			}
			return out
		}
	case schema.KindTuple:
		if items, ok := v.([]any); ok && len(items) == len(t.Components) {
			out := make([]any, len(items))
			for i, c := range t.Components {
				out[i] = Clone(c.Type, items[i])
			}
			return out
		}
	}
	return v
}

func extend(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
