package codec

import (
	"math/big"
	"strconv"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/value"
)

// Encoder produces the head/tail wire encoding of union values for a fixed
// word width. An Encoder holds no state between calls.
type Encoder struct {
	width int
}

// NewEncoder returns an encoder for w-byte words. Zero selects 32.
func NewEncoder(w int) *Encoder {
	if w == 0 {
		w = abi.DefaultWordWidth
	}
	return &Encoder{width: w}
}

func (e *Encoder) WordWidth() int { return e.width }

// Encode returns the selector word, the selected variant's head-encoded
// fields zero-padded to the widest variant head, then the tail.
func (e *Encoder) Encode(u *value.Union) ([]byte, error) {
	if err := checkWidth(errors.PhaseEncode, e.width); err != nil {
		return nil, err
	}
	s := u.Schema()
	if err := s.Validate(e.width); err != nil {
		return nil, err
	}

	v := &s.Variants[u.Selector()]
	fields := u.Fields()
	if err := value.CheckFields(errors.PhaseEncode, s.Name, v, fields); err != nil {
		return nil, err
	}

	types := make([]*schema.Type, len(v.Fields))
	for i, f := range v.Fields {
		types[i] = f.Type
	}

	headWords := 1 + s.MaxHeadWords()
	out := make([]byte, e.width, headWords*e.width)
	putUint(out[:e.width], uint64(u.Selector()))
	return e.appendSeq(out, 0, headWords*e.width, types, fields, []string{s.Name, v.Name})
}

// EncodeValue encodes a single value: its head words for a static type, its
// tail encoding for a dynamic one.
func (e *Encoder) EncodeValue(t *schema.Type, v any) ([]byte, error) {
	if err := checkWidth(errors.PhaseEncode, e.width); err != nil {
		return nil, err
	}
	if err := t.Validate(e.width, nil); err != nil {
		return nil, err
	}
	if err := value.CheckAt(errors.PhaseEncode, nil, t, v); err != nil {
		return nil, err
	}
	if t.IsDynamic() {
		return e.appendTail(nil, t, v, nil)
	}
	return e.appendStatic(nil, t, v), nil
}

// appendSeq appends the tuple encoding of values to out. The tuple starts at
// out[start:], its head is headLen bytes (at least the sum of the head
// sizes), and pointers are relative to start.
func (e *Encoder) appendSeq(out []byte, start, headLen int, types []*schema.Type, values []any, path []string) ([]byte, error) {
	tail := getTail()
	defer putTail(tail)

	type fixup struct {
		at  int
		rel int
	}
	var fixups []fixup

	for i, t := range types {
		if t.IsDynamic() {
			fixups = append(fixups, fixup{at: len(out), rel: len(*tail)})
			out = append(out, make([]byte, e.width)...)
			var err error
			*tail, err = e.appendTail(*tail, t, values[i], appendPath(path, i))
			if err != nil {
				return nil, err
			}
			continue
		}
		out = e.appendStatic(out, t, values[i])
	}

	if pad := start + headLen - len(out); pad > 0 {
		out = append(out, make([]byte, pad)...)
	}
	headEnd := len(out)
	for _, f := range fixups {
		putUint(out[f.at:f.at+e.width], uint64(headEnd-start+f.rel))
	}
	return append(out, *tail...), nil
}

// appendTail appends the encoding of a dynamic value.
func (e *Encoder) appendTail(out []byte, t *schema.Type, v any, path []string) ([]byte, error) {
	switch t.Kind {
	case schema.KindBytes, schema.KindString:
		var data []byte
		if s, ok := v.(string); ok {
			data = []byte(s)
		} else {
			data = v.([]byte)
		}
		out = e.appendLength(out, len(data))
		out = append(out, data...)
		if pad := abi.PadTo(len(data), e.width) - len(data); pad > 0 {
			out = append(out, make([]byte, pad)...)
		}
		return out, nil

	case schema.KindSlice:
		items := v.([]any)
		out = e.appendLength(out, len(items))
		start := len(out)
		return e.appendSeq(out, start, len(items)*t.Elem.HeadWords()*e.width, repeat(t.Elem, len(items)), items, path)

	case schema.KindArray:
		items := v.([]any)
		start := len(out)
		return e.appendSeq(out, start, len(items)*t.Elem.HeadWords()*e.width, repeat(t.Elem, len(items)), items, path)

	case schema.KindTuple:
		items := v.([]any)
		types := make([]*schema.Type, len(t.Components))
		headLen := 0
		for i, c := range t.Components {
			types[i] = c.Type
			headLen += c.Type.HeadWords() * e.width
		}
		start := len(out)
		return e.appendSeq(out, start, headLen, types, items, path)
	}
	return nil, errors.Unsupported(errors.PhaseEncode, "dynamic encoding of "+t.String())
}

// appendStatic appends the head encoding of a static value. The value has
// been type-checked.
func (e *Encoder) appendStatic(out []byte, t *schema.Type, v any) []byte {
	switch t.Kind {
	case schema.KindArray:
		for _, item := range v.([]any) {
			out = e.appendStatic(out, t.Elem, item)
		}
		return out
	case schema.KindTuple:
		items := v.([]any)
		for i, c := range t.Components {
			out = e.appendStatic(out, c.Type, items[i])
		}
		return out
	}

	word := make([]byte, e.width)
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		putInt(word, v.(*big.Int))
	case schema.KindBool:
		if v.(bool) {
			word[e.width-1] = 1
		}
	case schema.KindFixedBytes:
		copy(word, v.([]byte))
	case schema.KindAddress:
		a := v.(value.Address)
		copy(word[e.width-schema.AddressSize:], a[:])
	case schema.KindFunction:
		f := v.(value.Function)
		copy(word, f[:])
	}
	return append(out, word...)
}

func (e *Encoder) appendLength(out []byte, n int) []byte {
	word := make([]byte, e.width)
	putUint(word, uint64(n))
	return append(out, word...)
}

func repeat(t *schema.Type, n int) []*schema.Type {
	out := make([]*schema.Type, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func appendPath(path []string, i int) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, strconv.Itoa(i))
}
