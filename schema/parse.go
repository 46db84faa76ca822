package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
)

// ParseType parses a type string such as "uint256", "int32[]", "uint16[2]"
// or "(function,uint256)". Tuple components parsed from a string are named
// by position: "0", "1", ...
func ParseType(s string) (*Type, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, p.fail("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) fail(format string, args ...any) error {
	return errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
		SchemaType(p.src).
		Detail(format, args...).
		Build()
}

func (p *typeParser) parse() (*Type, error) {
	var t *Type
	var err error
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		t, err = p.parseTuple()
	} else {
		t, err = p.parseElementary()
	}
	if err != nil {
		return nil, err
	}
	return p.parseSuffixes(t)
}

func (p *typeParser) parseTuple() (*Type, error) {
	p.pos++ // (
	var comps []Field
	for {
		if p.pos >= len(p.src) {
			return nil, p.fail("unterminated tuple")
		}
		if p.src[p.pos] == ')' && len(comps) == 0 {
			return nil, p.fail("empty tuple")
		}
		c, err := p.parse()
		if err != nil {
			return nil, err
		}
		comps = append(comps, Field{Name: strconv.Itoa(len(comps)), Type: c})
		if p.pos >= len(p.src) {
			return nil, p.fail("unterminated tuple")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return Tuple(comps...), nil
		default:
			return nil, p.fail("unexpected %q in tuple", p.src[p.pos])
		}
	}
}

func (p *typeParser) parseElementary() (*Type, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return nil, p.fail("expected type name at offset %d", start)
	}
	return elementary(name, p)
}

func (p *typeParser) parseSuffixes(t *Type) (*Type, error) {
	for p.pos < len(p.src) && p.src[p.pos] == '[' {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return nil, p.fail("unterminated array suffix")
		}
		digits := p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
		if digits == "" {
			t = Slice(t)
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 || n > abi.MaxArrayLength {
			return nil, p.fail("invalid array length %q", digits)
		}
		t = Array(t, n)
	}
	return t, nil
}

func elementary(name string, p *typeParser) (*Type, error) {
	switch name {
	case "bool":
		return Bool(), nil
	case "address":
		return Address(), nil
	case "function":
		return Function(), nil
	case "bytes":
		return Bytes(), nil
	case "string":
		return String(), nil
	case "uint":
		return Uint(256), nil
	case "int":
		return Int(256), nil
	case "byte":
		return FixedBytes(1), nil
	}

	for _, prefix := range []string{"uint", "int", "bytes"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			break
		}
		var t *Type
		switch prefix {
		case "uint":
			t = Uint(n)
		case "int":
			t = Int(n)
		default:
			t = FixedBytes(n)
		}
		if err := t.Validate(0, nil); err != nil {
			return nil, p.fail("invalid type %q", name)
		}
		return t, nil
	}
	return nil, p.fail("unknown type %q", name)
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
