package store

import (
	"github.com/holiman/uint256"

	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
)

// ErrClosed matches operations on a closed store.
var ErrClosed = &errors.Error{Phase: errors.PhaseStorage, Kind: errors.KindClosed}

func slotKey(addr *uint256.Int) [32]byte {
	return addr.Bytes32()
}

func checkWidth(w int) error {
	if !abi.ValidWordWidth(w) {
		return errors.InvalidInput(errors.PhaseStorage, "word width out of range")
	}
	return nil
}

func checkWord(w int, word []byte) error {
	if len(word) != w {
		return errors.New(errors.PhaseStorage, errors.KindInvalidInput).
			Detail("word is %d bytes, store word width is %d", len(word), w).
			Build()
	}
	return nil
}

func isZero(word []byte) bool {
	for _, b := range word {
		if b != 0 {
			return false
		}
	}
	return true
}

func closedErr(op string) error {
	return &errors.Error{Phase: errors.PhaseStorage, Kind: errors.KindClosed, Detail: op}
}

type write struct {
	addr *uint256.Int
	word []byte
}
