// Package witschema converts WIT variant type definitions into union
// schemas, so a component's variant types can be laid out in slot storage.
//
// Case payloads map to variant fields: no payload gives an empty variant, a
// record gives one field per record field, and any other type gives a single
// field named "value". WIT types map as follows:
//
//	bool                  bool
//	u8 u16 u32 u64        uint8 .. uint64
//	s8 s16 s32 s64        int8 .. int64
//	char                  uint32
//	string                string
//	list<u8>              bytes
//	list<T>               T[]
//	record, tuple         tuple
//	enum                  uint8, uint16 or uint32 by case count
//
// Floats, option, result, flags, nested variants and resource handles have
// no slot representation and are rejected as invalid schemas.
package witschema

import (
	"fmt"
	"io"
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/schema"
)

// PayloadField names the single field of a case whose payload is not a
// record.
const PayloadField = "value"

// FromTypeDef converts a variant typedef.
func FromTypeDef(td *wit.TypeDef) (*schema.Union, error) {
	name := typeDefName(td)
	v, ok := td.Kind.(*wit.Variant)
	if !ok {
		return nil, errors.InvalidSchema([]string{name}, "typedef is %T, not a variant", td.Kind)
	}

	u := &schema.Union{Name: name, Variants: make([]schema.Variant, len(v.Cases))}
	for i, c := range v.Cases {
		path := []string{name, c.Name}
		fields, err := caseFields(c.Type, path)
		if err != nil {
			return nil, err
		}
		u.Variants[i] = schema.Variant{Name: c.Name, Fields: fields}
	}
	if err := u.Validate(0); err != nil {
		return nil, err
	}
	return u, nil
}

// FromResolve finds the variant typedef called name in r and converts it.
// An empty name selects the only variant typedef.
func FromResolve(r *wit.Resolve, name string) (*schema.Union, error) {
	var found []*wit.TypeDef
	for _, td := range r.TypeDefs {
		if _, ok := td.Kind.(*wit.Variant); !ok {
			continue
		}
		if name == "" || (td.Name != nil && *td.Name == name) {
			found = append(found, td)
		}
	}
	switch {
	case len(found) == 0:
		return nil, errors.NotFound(errors.PhaseParse, "variant typedef", name)
	case len(found) > 1 && name == "":
		return nil, errors.InvalidInput(errors.PhaseParse,
			fmt.Sprintf("%d variant typedefs found, name one", len(found)))
	}
	return FromTypeDef(found[0])
}

// DecodeJSON reads a WIT resolve in the JSON form printed by
// `wasm-tools component wit --json` and converts the named variant.
func DecodeJSON(r io.Reader, name string) (*schema.Union, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, errors.ParseFailed("WIT JSON", err)
	}
	return FromResolve(res, name)
}

func typeDefName(td *wit.TypeDef) string {
	if td.Name != nil && *td.Name != "" {
		return *td.Name
	}
	return "variant"
}

func caseFields(t wit.Type, path []string) ([]schema.Field, error) {
	if t == nil {
		return nil, nil
	}
	if td, ok := t.(*wit.TypeDef); ok {
		if rec, ok := td.Kind.(*wit.Record); ok {
			return recordFields(rec, path)
		}
	}
	ft, err := toType(t, append(path, PayloadField))
	if err != nil {
		return nil, err
	}
	return []schema.Field{{Name: PayloadField, Type: ft}}, nil
}

func recordFields(rec *wit.Record, path []string) ([]schema.Field, error) {
	out := make([]schema.Field, len(rec.Fields))
	for i, f := range rec.Fields {
		ft, err := toType(f.Type, append(path[:len(path):len(path)], f.Name))
		if err != nil {
			return nil, err
		}
		out[i] = schema.Field{Name: f.Name, Type: ft}
	}
	return out, nil
}

func toType(t wit.Type, path []string) (*schema.Type, error) {
	switch v := t.(type) {
	case wit.Bool:
		return schema.Bool(), nil
	case wit.U8:
		return schema.Uint(8), nil
	case wit.U16:
		return schema.Uint(16), nil
	case wit.U32:
		return schema.Uint(32), nil
	case wit.U64:
		return schema.Uint(64), nil
	case wit.S8:
		return schema.Int(8), nil
	case wit.S16:
		return schema.Int(16), nil
	case wit.S32:
		return schema.Int(32), nil
	case wit.S64:
		return schema.Int(64), nil
	case wit.Char:
		return schema.Uint(32), nil
	case wit.String:
		return schema.String(), nil
	case *wit.TypeDef:
		return typeDefType(v, path)
	}
	return nil, unsupported(t, path)
}

func typeDefType(td *wit.TypeDef, path []string) (*schema.Type, error) {
	switch k := td.Kind.(type) {
	case *wit.Record:
		fields, err := recordFields(k, path)
		if err != nil {
			return nil, err
		}
		return schema.Tuple(fields...), nil
	case *wit.Tuple:
		fields := make([]schema.Field, len(k.Types))
		for i, et := range k.Types {
			name := strconv.Itoa(i)
			ft, err := toType(et, append(path[:len(path):len(path)], name))
			if err != nil {
				return nil, err
			}
			fields[i] = schema.Field{Name: name, Type: ft}
		}
		return schema.Tuple(fields...), nil
	case *wit.List:
		if _, ok := k.Type.(wit.U8); ok {
			return schema.Bytes(), nil
		}
		elem, err := toType(k.Type, path)
		if err != nil {
			return nil, err
		}
		return schema.Slice(elem), nil
	case *wit.Enum:
		switch n := len(k.Cases); {
		case n <= 1<<8:
			return schema.Uint(8), nil
		case n <= 1<<16:
			return schema.Uint(16), nil
		default:
			return schema.Uint(32), nil
		}
	case wit.Type:
		return toType(k, path)
	}
	return nil, unsupported(td.Kind, path)
}

func unsupported(t any, path []string) error {
	return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
		Path(path...).
		GoType(fmt.Sprintf("%T", t)).
		Detail("WIT type has no slot representation").
		Build()
}
