package unionlayout

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/wippyai/unionlayout/errors"
)

// StorageClass describes the lifetime of the medium a union is laid out in.
type StorageClass uint8

const (
	// Persistent storage is a keyed store that survives calls, so
	// hash-addressed regions are meaningful.
	Persistent StorageClass = iota
	// Transient storage is linear or stack memory scoped to one execution.
	Transient
)

func (c StorageClass) String() string {
	switch c {
	case Persistent:
		return "persistent"
	case Transient:
		return "transient"
	default:
		return fmt.Sprintf("StorageClass(%d)", uint8(c))
	}
}

// ParseStorageClass accepts "persistent", "transient", and the aliases
// "storage", "memory" and "stack".
func ParseStorageClass(s string) (StorageClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "persistent", "storage":
		return Persistent, nil
	case "transient", "memory", "stack":
		return Transient, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown storage class %q", s))
}

// SlotStore reads and writes fixed-width words at 256-bit slot addresses.
// Missing slots read as zero words; writing a zero word deletes the slot.
type SlotStore interface {
	ReadSlot(addr *uint256.Int) ([]byte, error)
	WriteSlot(addr *uint256.Int, word []byte) error
	WordWidth() int
	StorageClass() StorageClass
}

// Batcher is implemented by stores that can apply several writes atomically.
type Batcher interface {
	NewBatch() SlotBatch
}

// SlotBatch buffers writes until Commit applies them in order.
type SlotBatch interface {
	WriteSlot(addr *uint256.Int, word []byte) error
	Commit() error
}
