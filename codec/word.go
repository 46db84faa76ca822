package codec

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/schema"
)

func checkWidth(phase errors.Phase, w int) error {
	if !abi.ValidWordWidth(w) {
		return errors.InvalidInput(phase, "word width out of range")
	}
	return nil
}

// putUint writes v big-endian into the low 8 bytes of word.
func putUint(word []byte, v uint64) {
	binary.BigEndian.PutUint64(word[len(word)-8:], v)
}

// wordUint reads a word as an unsigned integer. ok is false when the value
// does not fit an int.
func wordUint(word []byte) (int, bool) {
	n := len(word)
	for _, b := range word[:n-8] {
		if b != 0 {
			return 0, false
		}
	}
	v := binary.BigEndian.Uint64(word[n-8:])
	if v > math.MaxInt {
		return 0, false
	}
	return int(v), true
}

// twoPow returns 2^(8w).
func twoPow(w int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(8*w))
}

func putInt(word []byte, v *big.Int) {
	if v.Sign() >= 0 {
		v.FillBytes(word)
		return
	}
	tc := new(big.Int).Add(v, twoPow(len(word)))
	tc.FillBytes(word)
}

func wordInt(word []byte, signed bool) *big.Int {
	v := new(big.Int).SetBytes(word)
	if signed && len(word) > 0 && word[0]&0x80 != 0 {
		v.Sub(v, twoPow(len(word)))
	}
	return v
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// staticBytes is the byte size of a static type's head encoding.
func staticBytes(t *schema.Type, w int) int {
	return t.HeadWords() * w
}
