package codec

import (
	"bytes"
	"encoding/hex"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/value"
)

// Decoder parses the wire encoding produced by Encoder. Decoding is strict
// and all-or-nothing: any malformed or non-canonical input yields an error
// and no value.
type Decoder struct {
	width int
	enc   *Encoder
}

// NewDecoder returns a decoder for w-byte words. Zero selects 32.
func NewDecoder(w int) *Decoder {
	if w == 0 {
		w = abi.DefaultWordWidth
	}
	return &Decoder{width: w, enc: NewEncoder(w)}
}

func (d *Decoder) WordWidth() int { return d.width }

// Decode reads a union value of schema s from buf.
func (d *Decoder) Decode(buf []byte, s *schema.Union) (*value.Union, error) {
	if err := checkWidth(errors.PhaseDecode, d.width); err != nil {
		return nil, err
	}
	if err := s.Validate(d.width); err != nil {
		return nil, err
	}

	w := d.width
	if len(buf) < w {
		return nil, errors.TruncatedBuffer([]string{s.Name}, w, len(buf))
	}
	sel, ok := wordUint(buf[:w])
	if !ok || sel >= len(s.Variants) {
		return nil, errors.SelectorOutOfRange([]string{s.Name}, "0x"+hexWord(buf[:w]), len(s.Variants))
	}

	headLen := (1 + s.MaxHeadWords()) * w
	if len(buf) < headLen {
		return nil, errors.TruncatedBuffer([]string{s.Name}, headLen, len(buf))
	}

	v := &s.Variants[sel]
	types := make([]*schema.Type, len(v.Fields))
	for i, f := range v.Fields {
		types[i] = f.Type
	}
	fields, _, err := d.decodeSeq(buf, w, headLen, types, []string{s.Name, v.Name})
	if err != nil {
		return nil, err
	}

	u, err := value.FromParts(s, sel, fields)
	if err != nil {
		return nil, err
	}

	canon, err := d.enc.Encode(u)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(canon, buf) {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{s.Name, v.Name}, "non-canonical encoding")
	}
	return u, nil
}

// DecodeValue is the inverse of Encoder.EncodeValue.
func (d *Decoder) DecodeValue(t *schema.Type, data []byte) (any, error) {
	if err := checkWidth(errors.PhaseDecode, d.width); err != nil {
		return nil, err
	}
	if err := t.Validate(d.width, nil); err != nil {
		return nil, err
	}

	var (
		v   any
		err error
	)
	if t.IsDynamic() {
		v, _, err = d.decodeTail(data, 0, t, nil)
	} else {
		need := staticBytes(t, d.width)
		if len(data) < need {
			return nil, errors.TruncatedBuffer(nil, need, len(data))
		}
		v, err = d.decodeStatic(data[:need], t, nil)
	}
	if err != nil {
		return nil, err
	}

	canon, err := d.enc.EncodeValue(t, v)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(canon, data) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "non-canonical encoding")
	}
	return v, nil
}

// decodeSeq decodes a tuple whose encoding is data. The heads start at
// headStart and the tails at headEnd. Tails follow each other in head order
// with no gaps or sharing. It returns the values and the end of the last tail.
func (d *Decoder) decodeSeq(data []byte, headStart, headEnd int, types []*schema.Type, path []string) ([]any, int, error) {
	w := d.width
	out := make([]any, len(types))
	off := headStart
	next := headEnd
	for i, t := range types {
		fpath := appendPath(path, i)
		size := staticBytes(t, w)
		if off+size > len(data) {
			return nil, 0, errors.TruncatedBuffer(fpath, off+size, len(data))
		}

		if !t.IsDynamic() {
			v, err := d.decodeStatic(data[off:off+size], t, fpath)
			if err != nil {
				return nil, 0, err
			}
			out[i] = v
			off += size
			continue
		}

		ptr, ok := wordUint(data[off : off+w])
		if !ok || ptr != next || ptr >= len(data) {
			return nil, 0, errors.MalformedTailPointer(fpath, "0x"+hexWord(data[off:off+w]), next, len(data))
		}
		v, end, err := d.decodeTail(data, ptr, t, fpath)
		if err != nil {
			return nil, 0, err
		}
		out[i] = v
		next = end
		off += w
	}
	return out, next, nil
}

// decodeTail decodes a dynamic value whose encoding starts at data[off]. It
// returns the value and the offset just past its encoding.
func (d *Decoder) decodeTail(data []byte, off int, t *schema.Type, path []string) (any, int, error) {
	w := d.width
	switch t.Kind {
	case schema.KindBytes, schema.KindString:
		n, err := d.readLength(data, off, abi.MaxBytesLength, path)
		if err != nil {
			return nil, 0, err
		}
		start := off + w
		padded := abi.PadTo(n, w)
		if padded > len(data)-start {
			return nil, 0, errors.TruncatedBuffer(path, start+padded, len(data))
		}
		payload := data[start : start+n]
		if t.Kind == schema.KindString {
			return string(payload), start + padded, nil
		}
		return append([]byte{}, payload...), start + padded, nil

	case schema.KindSlice:
		n, err := d.readLength(data, off, abi.MaxArrayLength, path)
		if err != nil {
			return nil, 0, err
		}
		body := data[off+w:]
		headLen, ok := abi.SafeMul(n, staticBytes(t.Elem, w))
		if !ok || headLen > len(body) {
			return nil, 0, errors.TruncatedBuffer(path, off+w+headLen, len(data))
		}
		v, end, err := d.decodeSeq(body, 0, headLen, repeat(t.Elem, n), path)
		return v, off + w + end, err

	case schema.KindArray:
		body := data[off:]
		headLen := t.Size * staticBytes(t.Elem, w)
		if headLen > len(body) {
			return nil, 0, errors.TruncatedBuffer(path, off+headLen, len(data))
		}
		v, end, err := d.decodeSeq(body, 0, headLen, repeat(t.Elem, t.Size), path)
		return v, off + end, err

	case schema.KindTuple:
		body := data[off:]
		types := make([]*schema.Type, len(t.Components))
		headLen := 0
		for i, c := range t.Components {
			types[i] = c.Type
			headLen += staticBytes(c.Type, w)
		}
		v, end, err := d.decodeSeq(body, 0, headLen, types, path)
		return v, off + end, err
	}
	return nil, 0, errors.Unsupported(errors.PhaseDecode, "dynamic decoding of "+t.String())
}

func (d *Decoder) readLength(data []byte, off, limit int, path []string) (int, error) {
	w := d.width
	if off+w > len(data) {
		return 0, errors.TruncatedBuffer(path, off+w, len(data))
	}
	n, ok := wordUint(data[off : off+w])
	if !ok || n > limit {
		return 0, errors.TruncatedBuffer(path, len(data)+1, len(data))
	}
	return n, nil
}

// decodeStatic decodes a static value from exactly its head bytes.
func (d *Decoder) decodeStatic(data []byte, t *schema.Type, path []string) (any, error) {
	w := d.width
	switch t.Kind {
	case schema.KindArray:
		size := staticBytes(t.Elem, w)
		out := make([]any, t.Size)
		for i := range out {
			v, err := d.decodeStatic(data[i*size:(i+1)*size], t.Elem, appendPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case schema.KindTuple:
		out := make([]any, len(t.Components))
		off := 0
		for i, c := range t.Components {
			size := staticBytes(c.Type, w)
			v, err := d.decodeStatic(data[off:off+size], c.Type, append(append([]string{}, path...), c.Name))
			if err != nil {
				return nil, err
			}
			out[i] = v
			off += size
		}
		return out, nil
	}

	word := data[:w]
	switch t.Kind {
	case schema.KindUint, schema.KindInt:
		v := wordInt(word, t.Kind == schema.KindInt)
		if !value.InRange(t, v) {
			return nil, errors.Overflow(errors.PhaseDecode, path, v, t.String())
		}
		return v, nil
	case schema.KindBool:
		if !allZero(word[:w-1]) || word[w-1] > 1 {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "bool word is not 0 or 1")
		}
		return word[w-1] == 1, nil
	case schema.KindFixedBytes:
		if !allZero(word[t.Size:]) {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "non-zero padding after "+t.String())
		}
		return append([]byte{}, word[:t.Size]...), nil
	case schema.KindAddress:
		if !allZero(word[:w-schema.AddressSize]) {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "non-zero padding before address")
		}
		var a value.Address
		copy(a[:], word[w-schema.AddressSize:])
		return a, nil
	case schema.KindFunction:
		if !allZero(word[schema.FunctionSize:]) {
			return nil, errors.InvalidData(errors.PhaseDecode, path, "non-zero padding after function")
		}
		var f value.Function
		copy(f[:], word[:schema.FunctionSize])
		return f, nil
	}
	return nil, errors.Unsupported(errors.PhaseDecode, "static decoding of "+t.String())
}

func hexWord(word []byte) string {
	trimmed := bytes.TrimLeft(word, "\x00")
	if len(trimmed) == 0 {
		return "0"
	}
	return hex.EncodeToString(trimmed)
}
