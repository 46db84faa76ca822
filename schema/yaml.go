package schema

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wippyai/unionlayout/errors"
	"gopkg.in/yaml.v3"
)

type fieldDoc struct {
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Components []fieldDoc `yaml:"components,omitempty"`
}

type variantDoc struct {
	Name   string     `yaml:"name"`
	Fields []fieldDoc `yaml:"fields,omitempty"`
}

type unionDoc struct {
	Name     string       `yaml:"name"`
	Variants []variantDoc `yaml:"variants"`
}

type document struct {
	Name     string       `yaml:"name,omitempty"`
	Variants []variantDoc `yaml:"variants,omitempty"`
	Unions   []unionDoc   `yaml:"unions,omitempty"`
}

// ParseYAML reads a schema document. A document is either a single union
// ({name, variants}) or a list of them ({unions: [...]}). Field entries follow
// the Solidity ABI JSON shape: {name, type, components}.
func ParseYAML(data []byte) ([]*Union, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.ParseFailed("schema document", err)
	}

	docs := doc.Unions
	if len(docs) == 0 {
		if doc.Name == "" && doc.Variants == nil {
			return nil, errors.InvalidSchema(nil, "document declares no unions")
		}
		docs = []unionDoc{{Name: doc.Name, Variants: doc.Variants}}
	} else if doc.Name != "" || doc.Variants != nil {
		return nil, errors.InvalidSchema(nil, "document mixes a top-level union with a unions list")
	}

	out := make([]*Union, 0, len(docs))
	for _, ud := range docs {
		u, err := ud.union()
		if err != nil {
			return nil, err
		}
		if err := u.Validate(0); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// LoadFile reads a schema document from disk.
func LoadFile(path string) ([]*Union, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindNotFound, err, "read schema file "+path)
	}
	unions, err := ParseYAML(data)
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Detail = path + ": " + cp.Detail
		return nil, &cp
	}
	return unions, err
}

// Lookup returns the union with the given name. An empty name selects the
// only union of a single-union list.
func Lookup(unions []*Union, name string) (*Union, error) {
	if name == "" && len(unions) == 1 {
		return unions[0], nil
	}
	for _, u := range unions {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, errors.NotFound(errors.PhaseParse, "union", name)
}

// MarshalYAML renders unions in the document format ParseYAML reads.
func MarshalYAML(unions ...*Union) ([]byte, error) {
	var doc document
	if len(unions) == 1 {
		ud := docFromUnion(unions[0])
		doc.Name, doc.Variants = ud.Name, ud.Variants
	} else {
		for _, u := range unions {
			doc.Unions = append(doc.Unions, docFromUnion(u))
		}
	}
	return yaml.Marshal(&doc)
}

func (ud unionDoc) union() (*Union, error) {
	u := &Union{Name: ud.Name, Variants: make([]Variant, 0, len(ud.Variants))}
	for _, vd := range ud.Variants {
		v := Variant{Name: vd.Name, Fields: make([]Field, 0, len(vd.Fields))}
		for _, fd := range vd.Fields {
			f, err := fd.field([]string{ud.Name, vd.Name})
			if err != nil {
				return nil, err
			}
			v.Fields = append(v.Fields, f)
		}
		u.Variants = append(u.Variants, v)
	}
	return u, nil
}

func (fd fieldDoc) field(path []string) (Field, error) {
	fpath := appendPath(path, fd.Name)
	rest, isTuple := strings.CutPrefix(fd.Type, "tuple")
	if isTuple && (rest == "" || rest[0] == '[') {
		if len(fd.Components) == 0 {
			return Field{}, errors.InvalidSchema(fpath, "tuple without components")
		}
		comps := make([]Field, 0, len(fd.Components))
		for _, cd := range fd.Components {
			c, err := cd.field(fpath)
			if err != nil {
				return Field{}, err
			}
			comps = append(comps, c)
		}
		p := &typeParser{src: rest}
		t, err := p.parseSuffixes(Tuple(comps...))
		if err == nil && p.pos != len(rest) {
			err = p.fail("unexpected %q", rest[p.pos:])
		}
		if err != nil {
			return Field{}, errors.WithPath(err, fpath...)
		}
		return Field{Name: fd.Name, Type: t}, nil
	}

	if len(fd.Components) > 0 {
		return Field{}, errors.InvalidSchema(fpath, "components given for non-tuple type %q", fd.Type)
	}
	t, err := ParseType(fd.Type)
	if err != nil {
		return Field{}, errors.WithPath(err, fpath...)
	}
	return Field{Name: fd.Name, Type: t}, nil
}

func docFromUnion(u *Union) unionDoc {
	ud := unionDoc{Name: u.Name, Variants: make([]variantDoc, 0, len(u.Variants))}
	for _, v := range u.Variants {
		vd := variantDoc{Name: v.Name}
		for _, f := range v.Fields {
			vd.Fields = append(vd.Fields, docFromField(f))
		}
		ud.Variants = append(ud.Variants, vd)
	}
	return ud
}

func docFromField(f Field) fieldDoc {
	base := f.Type
	var suffixes []string
	for base.Kind == KindArray || base.Kind == KindSlice {
		if base.Kind == KindSlice {
			suffixes = append(suffixes, "[]")
		} else {
			suffixes = append(suffixes, "["+strconv.Itoa(base.Size)+"]")
		}
		base = base.Elem
	}
	if base.Kind != KindTuple {
		return fieldDoc{Name: f.Name, Type: f.Type.String()}
	}

	var b strings.Builder
	b.WriteString("tuple")
	for i := len(suffixes) - 1; i >= 0; i-- {
		b.WriteString(suffixes[i])
	}
	fd := fieldDoc{Name: f.Name, Type: b.String()}
	for _, c := range base.Components {
		fd.Components = append(fd.Components, docFromField(c))
	}
	return fd
}
