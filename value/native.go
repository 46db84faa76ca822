package value

import (
	"encoding/hex"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/schema"
)

// FromNative converts loosely typed input, as produced by YAML or JSON
// decoding, into the value representation of t.
//
//	integers   Go integers, integral float64, *big.Int, decimal or 0x-hex strings
//	bool       bool, "true", "false"
//	bytesN     []byte or 0x-hex, zero-padded on the right to N bytes
//	address    Address, [20]byte, []byte or 0x-hex of exactly 20 bytes
//	function   Function, [24]byte, []byte or 0x-hex of exactly 24 bytes
//	bytes      []byte, 0x-hex, or any other string taken as raw bytes
//	arrays     []any
//	tuples     []any in component order, or map[string]any by component name
func FromNative(t *schema.Type, x any) (any, error) {
	return fromNative(t, x, nil)
}

func fromNative(t *schema.Type, x any, path []string) (any, error) {
	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseEncode, path, abi.TypeName(x), t.String())
	}

	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		b, ok := abi.CoerceToBigInt(x)
		if !ok {
			s, isStr := x.(string)
			if !isStr {
				return nil, mismatch()
			}
			if b, ok = parseBigInt(s); !ok {
				return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
					Path(path...).SchemaType(t.String()).Detail("invalid integer literal %q", s).Build()
			}
		}
		if !InRange(t, b) {
			return nil, errors.Overflow(errors.PhaseEncode, path, b, t.String())
		}
		return b, nil

	case schema.KindBool:
		switch v := x.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
		return nil, mismatch()

	case schema.KindFixedBytes:
		b, err := bytesFrom(x, path, t)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, errors.Overflow(errors.PhaseEncode, path, "0x"+hex.EncodeToString(b), t.String())
		}
		out := make([]byte, t.Size)
		copy(out, b)
		return out, nil

	case schema.KindAddress:
		switch v := x.(type) {
		case Address:
			return v, nil
		case [schema.AddressSize]byte:
			return Address(v), nil
		}
		b, err := bytesFrom(x, path, t)
		if err != nil {
			return nil, err
		}
		if len(b) != schema.AddressSize {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).SchemaType(t.String()).Detail("address must be 20 bytes, got %d", len(b)).Build()
		}
		return Address(b), nil

	case schema.KindFunction:
		switch v := x.(type) {
		case Function:
			return v, nil
		case [schema.FunctionSize]byte:
			return Function(v), nil
		}
		b, err := bytesFrom(x, path, t)
		if err != nil {
			return nil, err
		}
		if len(b) != schema.FunctionSize {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).SchemaType(t.String()).Detail("function must be 24 bytes, got %d", len(b)).Build()
		}
		return Function(b), nil

	case schema.KindBytes:
		if s, ok := x.(string); ok && !strings.HasPrefix(s, "0x") {
			return []byte(s), nil
		}
		b, err := bytesFrom(x, path, t)
		if err != nil {
			return nil, err
		}
		return append([]byte{}, b...), nil

	case schema.KindString:
		if s, ok := x.(string); ok {
			return s, nil
		}
		return nil, mismatch()

	case schema.KindArray, schema.KindSlice:
		items, ok := x.([]any)
		if !ok {
			return nil, mismatch()
		}
		if t.Kind == schema.KindArray && len(items) != t.Size {
			return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).Path(path...).
				SchemaType(t.String()).Detail("got %d elements", len(items)).Build()
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := fromNative(t.Elem, item, extend(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case schema.KindTuple:
		return tupleFromNative(t, x, path)
	}
	return nil, errors.Unsupported(errors.PhaseEncode, "type kind "+t.Kind.String())
}

func tupleFromNative(t *schema.Type, x any, path []string) (any, error) {
	out := make([]any, len(t.Components))
	switch v := x.(type) {
	case []any:
		if len(v) != len(t.Components) {
			return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).Path(path...).
				SchemaType(t.String()).Detail("got %d components", len(v)).Build()
		}
		for i, c := range t.Components {
			cv, err := fromNative(c.Type, v[i], extend(path, c.Name))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
	case map[string]any:
		for k := range v {
			if indexOfComponent(t, k) < 0 {
				return nil, errors.UnknownField(path, k)
			}
		}
		for i, c := range t.Components {
			raw, ok := v[c.Name]
			if !ok {
				out[i] = Zero(c.Type)
				continue
			}
			cv, err := fromNative(c.Type, raw, extend(path, c.Name))
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
	default:
		return nil, errors.TypeMismatch(errors.PhaseEncode, path, abi.TypeName(x), t.String())
	}
	return out, nil
}

func indexOfComponent(t *schema.Type, name string) int {
	for i, c := range t.Components {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func bytesFrom(x any, path []string, t *schema.Type) ([]byte, error) {
	switch v := x.(type) {
	case []byte:
		return v, nil
	case string:
		b, err := DecodeHex(v)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).SchemaType(t.String()).Cause(err).Detail("invalid hex literal").Build()
		}
		return b, nil
	}
	return nil, errors.TypeMismatch(errors.PhaseEncode, path, abi.TypeName(x), t.String())
}

// DecodeHex decodes a hex string with an optional 0x prefix. An odd number of
// digits is left-padded with a zero.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", ""))
	neg := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		neg, s = true, rest
	}
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		base, s = 16, rest
	}
	if s == "" {
		return nil, false
	}
	b, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if neg {
		b.Neg(b)
	}
	return b, true
}

// ToNative converts a value of type t into plain Go data suitable for YAML or
// JSON output. Integers that fit int64 stay numeric, larger ones become
// decimal strings. Byte values become 0x-hex strings and tuples become maps
// keyed by component name.
func ToNative(t *schema.Type, v any) any {
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		b, ok := v.(*big.Int)
		if !ok || b == nil {
			return nil
		}
		if b.IsInt64() {
			return b.Int64()
		}
		return b.String()
	case schema.KindFixedBytes, schema.KindBytes:
		b, _ := v.([]byte)
		return "0x" + hex.EncodeToString(b)
	case schema.KindAddress:
		a, _ := v.(Address)
		return a.Hex()
	case schema.KindFunction:
		f, _ := v.(Function)
		return f.Hex()
	case schema.KindArray, schema.KindSlice:
		items, _ := v.([]any)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = ToNative(t.Elem, item)
		}
		return out
	case schema.KindTuple:
		items, _ := v.([]any)
		out := make(map[string]any, len(t.Components))
		for i, c := range t.Components {
			if i < len(items) {
				out[c.Name] = ToNative(c.Type, items[i])
			}
		}
		return out
	}
	return v
}

// FieldsFromNative converts a map of field name to native value into the
// field list of a variant. Missing fields take their zero value.
func FieldsFromNative(v *schema.Variant, in map[string]any) ([]any, error) {
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if v.FieldIndex(k) < 0 {
			return nil, errors.UnknownField([]string{v.Name}, k)
		}
	}

	out := make([]any, len(v.Fields))
	for i, f := range v.Fields {
		raw, ok := in[f.Name]
		if !ok {
			out[i] = Zero(f.Type)
			continue
		}
		fv, err := fromNative(f.Type, raw, []string{v.Name, f.Name})
		if err != nil {
			return nil, err
		}
		out[i] = fv
	}
	return out, nil
}

// FieldsToNative is the inverse of FieldsFromNative.
func FieldsToNative(v *schema.Variant, fields []any) map[string]any {
	out := make(map[string]any, len(v.Fields))
	for i, f := range v.Fields {
		if i < len(fields) {
			out[f.Name] = ToNative(f.Type, fields[i])
		}
	}
	return out
}
