package schema

import (
	"strings"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
)

// Field is a named, typed member of a variant or tuple.
type Field struct {
	Type *Type
	Name string
}

// Variant is one named alternative of a union.
type Variant struct {
	Name   string
	Fields []Field
}

// Union is a tagged union schema. It is declared once and never mutated.
type Union struct {
	Name     string
	Variants []Variant
}

// FieldIndex returns the index of the named field, or -1.
func (v *Variant) FieldIndex(name string) int {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// HeadWords is the sum of the head words of the variant's fields.
func (v *Variant) HeadWords() int {
	n := 0
	for _, f := range v.Fields {
		n += f.Type.HeadWords()
	}
	return n
}

// IsDynamic reports whether any field of the variant is dynamic.
func (v *Variant) IsDynamic() bool {
	for _, f := range v.Fields {
		if f.Type.IsDynamic() {
			return true
		}
	}
	return false
}

// NumVariants returns the number of declared variants.
func (u *Union) NumVariants() int {
	return len(u.Variants)
}

// VariantIndex returns the index of the named variant, or -1.
func (u *Union) VariantIndex(name string) int {
	for i := range u.Variants {
		if u.Variants[i].Name == name {
			return i
		}
	}
	return -1
}

// IsDynamic is the OR of the variants' dynamic flags.
func (u *Union) IsDynamic() bool {
	for i := range u.Variants {
		if u.Variants[i].IsDynamic() {
			return true
		}
	}
	return false
}

// MaxHeadWords is the largest variant head, excluding the selector word.
func (u *Union) MaxHeadWords() int {
	m := 0
	for i := range u.Variants {
		if h := u.Variants[i].HeadWords(); h > m {
			m = h
		}
	}
	return m
}

// Validate checks the schema. A zero word width checks structure only.
func (u *Union) Validate(wordWidth int) error {
	if u == nil {
		return errors.InvalidSchema(nil, "nil union")
	}
	path := []string{u.Name}
	if len(u.Variants) == 0 {
		return errors.InvalidSchema(path, "union must declare at least one variant")
	}

	total := 0
	variants := make(map[string]struct{}, len(u.Variants))
	for _, v := range u.Variants {
		vpath := appendPath(path, v.Name)
		if err := checkName(v.Name, vpath, "variant"); err != nil {
			return err
		}
		if _, dup := variants[v.Name]; dup {
			return errors.InvalidSchema(vpath, "duplicate variant name %q", v.Name)
		}
		variants[v.Name] = struct{}{}

		fields := make(map[string]struct{}, len(v.Fields))
		for _, f := range v.Fields {
			fpath := appendPath(vpath, f.Name)
			if err := checkName(f.Name, fpath, "field"); err != nil {
				return err
			}
			if _, dup := fields[f.Name]; dup {
				return errors.InvalidSchema(fpath, "duplicate field name %q", f.Name)
			}
			fields[f.Name] = struct{}{}
			if err := f.Type.Validate(wordWidth, fpath); err != nil {
				return err
			}
		}

		head, ok := 0, true
		for _, f := range v.Fields {
			if head, ok = abi.SafeAdd(head, f.Type.HeadWords()); !ok {
				break
			}
		}
		if !ok || head > abi.MaxArrayLength {
			return errors.InvalidSchema(vpath, "variant needs more than %d head words", abi.MaxArrayLength)
		}
		if total, ok = abi.SafeAdd(total, head); !ok || total > abi.MaxArrayLength {
			return errors.InvalidSchema(path, "union needs more than %d slots", abi.MaxArrayLength)
		}
	}
	return nil
}

// Signature is the canonical one-line form of the union, for example
// E{A(bytes4 sel,address owner)|B()}.
func (u *Union) Signature() string {
	var b strings.Builder
	b.WriteString(u.Name)
	b.WriteByte('{')
	for i, v := range u.Variants {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(v.Name)
		b.WriteByte('(')
		for j, f := range v.Fields {
			if j > 0 {
				b.WriteByte(',')
			}
			if f.Type != nil {
				f.Type.write(&b, true)
			}
			b.WriteByte(' ')
			b.WriteString(f.Name)
		}
		b.WriteByte(')')
	}
	b.WriteByte('}')
	return b.String()
}

const reservedNameChars = "(){}[],| \t\r\n"

func checkName(name string, path []string, what string) error {
	if name == "" {
		return errors.InvalidSchema(path, "empty %s name", what)
	}
	if strings.ContainsAny(name, reservedNameChars) {
		return errors.InvalidSchema(path, "%s name %q contains a reserved character", what, name)
	}
	return nil
}
