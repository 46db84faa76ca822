package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
)

// Type describes a field type. Size is the bit width for integers, the byte
// length for bytesN and the element count for fixed arrays.
type Type struct {
	Elem       *Type
	Components []Field
	Kind       Kind
	Size       int
}

func Uint(bits int) *Type { return &Type{Kind: KindUint, Size: bits} }
func Int(bits int) *Type { return &Type{Kind: KindInt, Size: bits} }
func Bool() *Type { return &Type{Kind: KindBool} }
func FixedBytes(n int) *Type { return &Type{Kind: KindFixedBytes, Size: n} }
func Address() *Type { return &Type{Kind: KindAddress} }
func Function() *Type { return &Type{Kind: KindFunction} }
func Bytes() *Type { return &Type{Kind: KindBytes} }
func String() *Type { return &Type{Kind: KindString} }
func Array(elem *Type, n int) *Type { return &Type{Kind: KindArray, Elem: elem, Size: n} }
func Slice(elem *Type) *Type { return &Type{Kind: KindSlice, Elem: elem} }
func Tuple(components ...Field) *Type {
	return &Type{Kind: KindTuple, Components: components}
}

// IsDynamic reports whether the encoded size of a value depends on the value.
func (t *Type) IsDynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindSlice:
		return true
	case KindArray:
		return t.Elem.IsDynamic()
	case KindTuple:
		for _, c := range t.Components {
			if c.Type.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// HeadWords returns the number of words the type occupies in a head or in a
// variant's slot region. Dynamic types occupy a single pointer word.
func (t *Type) HeadWords() int {
	if t.IsDynamic() {
		return 1
	}
	switch t.Kind {
	case KindArray:
		return t.Size * t.Elem.HeadWords()
	case KindTuple:
		n := 0
		for _, c := range t.Components {
			n += c.Type.HeadWords()
		}
		return n
	}
	return 1
}

// ByteSize returns the natural byte width of a scalar and 0 for composites.
func (t *Type) ByteSize() int {
	switch t.Kind {
	case KindUint, KindInt:
		return t.Size / 8
	case KindBool:
		return 1
	case KindFixedBytes:
		return t.Size
	case KindAddress:
		return AddressSize
	case KindFunction:
		return FunctionSize
	}
	return 0
}

// String returns the canonical type string, e.g. "uint16[2]" or
// "(function,uint256)". Tuple component names are not part of it.
func (t *Type) String() string {
	var b strings.Builder
	t.write(&b, false)
	return b.String()
}

// Signature is like String but includes tuple component names.
func (t *Type) Signature() string {
	var b strings.Builder
	t.write(&b, true)
	return b.String()
}

func (t *Type) write(b *strings.Builder, names bool) {
	switch t.Kind {
	case KindUint:
		b.WriteString("uint")
		b.WriteString(strconv.Itoa(t.Size))
	case KindInt:
		b.WriteString("int")
		b.WriteString(strconv.Itoa(t.Size))
	case KindFixedBytes:
		b.WriteString("bytes")
		b.WriteString(strconv.Itoa(t.Size))
	case KindArray:
		t.Elem.write(b, names)
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(t.Size))
		b.WriteByte(']')
	case KindSlice:
		t.Elem.write(b, names)
		b.WriteString("[]")
	case KindTuple:
		b.WriteByte('(')
		for i, c := range t.Components {
			if i > 0 {
				b.WriteByte(',')
			}
			c.Type.write(b, names)
			if names {
				b.WriteByte(' ')
				b.WriteString(c.Name)
			}
		}
		b.WriteByte(')')
	default:
		b.WriteString(t.Kind.String())
	}
}

// Validate checks that the type is well formed. A positive wordWidth also
// requires every scalar to fit in one word.
func (t *Type) Validate(wordWidth int, path []string) error {
	if t == nil {
		return errors.InvalidSchema(path, "missing type")
	}
	switch t.Kind {
	case KindUint, KindInt:
		if t.Size < 8 || t.Size > MaxIntBits || t.Size%8 != 0 {
			return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
				Path(path...).SchemaType(t.String()).
				Detail("integer width must be a multiple of 8 in [8, 256]").Build()
		}
	case KindFixedBytes:
		if t.Size < 1 || t.Size > MaxFixedSize {
			return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
				Path(path...).SchemaType(t.String()).
				Detail("fixed byte length must be in [1, 32]").Build()
		}
	case KindBool, KindAddress, KindFunction, KindBytes, KindString:
	case KindArray:
		if t.Size < 1 || t.Size > abi.MaxArrayLength {
			return errors.InvalidSchema(path, "fixed array length must be in [1, %d], got %d", abi.MaxArrayLength, t.Size)
		}
		if t.Elem == nil {
			return errors.InvalidSchema(path, "array without element type")
		}
		if err := t.Elem.Validate(wordWidth, path); err != nil {
			return err
		}
	case KindSlice:
		if t.Elem == nil {
			return errors.InvalidSchema(path, "array without element type")
		}
		return t.Elem.Validate(wordWidth, path)
	case KindTuple:
		if len(t.Components) == 0 {
			return errors.InvalidSchema(path, "tuple without components")
		}
		seen := make(map[string]struct{}, len(t.Components))
		for _, c := range t.Components {
			cpath := appendPath(path, c.Name)
			if err := checkName(c.Name, cpath, "component"); err != nil {
				return err
			}
			if _, dup := seen[c.Name]; dup {
				return errors.InvalidSchema(cpath, "duplicate component name %q", c.Name)
			}
			seen[c.Name] = struct{}{}
			if err := c.Type.Validate(wordWidth, cpath); err != nil {
				return err
			}
		}
	default:
		return errors.InvalidSchema(path, "unknown type kind %d", t.Kind)
	}

	if t.Kind == KindArray || t.Kind == KindTuple {
		if n, ok := t.span(); !ok || n > abi.MaxArrayLength {
			return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
				Path(path...).SchemaType(t.String()).
				Detail("type holds more than %d values", abi.MaxArrayLength).Build()
		}
	}

	if wordWidth > 0 && t.Kind.IsScalar() && t.ByteSize() > wordWidth {
		return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
			Path(path...).SchemaType(t.String()).
			Detail("%d bytes do not fit a %d-byte word", t.ByteSize(), wordWidth).Build()
	}
	return nil
}

func appendPath(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}

// span counts the values a type holds with nested fixed arrays multiplied
// out. It bounds both HeadWords and the size of zero values.
func (t *Type) span() (int, bool) {
	switch t.Kind {
	case KindArray:
		n, ok := t.Elem.span()
		if !ok {
			return 0, false
		}
		return abi.SafeMul(t.Size, n)
	case KindTuple:
		total := 0
		for _, c := range t.Components {
			n, ok := c.Type.span()
			if !ok {
				return 0, false
			}
			if total, ok = abi.SafeAdd(total, n); !ok {
				return 0, false
			}
		}
		return total, true
	}
	return 1, true
}
