package store

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/wippyai/unionlayout"
)

// MemoryStore is a map-backed slot store. It is safe for concurrent use.
type MemoryStore struct {
	slots map[[32]byte][]byte
	mu    sync.RWMutex
	width int
	class unionlayout.StorageClass
}

// NewMemoryStore returns an empty store of w-byte words. Zero selects 32.
func NewMemoryStore(w int, class unionlayout.StorageClass) (*MemoryStore, error) {
	if w == 0 {
		w = 32
	}
	if err := checkWidth(w); err != nil {
		return nil, err
	}
	return &MemoryStore{
		slots: make(map[[32]byte][]byte),
		width: w,
		class: class,
	}, nil
}

func (s *MemoryStore) WordWidth() int { return s.width }
func (s *MemoryStore) StorageClass() unionlayout.StorageClass { return s.class }

// ReadSlot returns a copy of the word at addr.
func (s *MemoryStore) ReadSlot(addr *uint256.Int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]byte, s.width)
	copy(out, s.slots[slotKey(addr)])
	return out, nil
}

func (s *MemoryStore) WriteSlot(addr *uint256.Int, word []byte) error {
	if err := checkWord(s.width, word); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(slotKey(addr), word)
	return nil
}

func (s *MemoryStore) put(key [32]byte, word []byte) {
	if isZero(word) {
		delete(s.slots, key)
		return
	}
	s.slots[key] = append([]byte(nil), word...)
}

// Len returns the number of non-zero slots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// NewBatch returns a batch applied under a single lock on Commit.
func (s *MemoryStore) NewBatch() unionlayout.SlotBatch {
	return &memoryBatch{store: s}
}

type memoryBatch struct {
	store  *MemoryStore
	writes []write
}

func (b *memoryBatch) WriteSlot(addr *uint256.Int, word []byte) error {
	if err := checkWord(b.store.width, word); err != nil {
		return err
	}
	b.writes = append(b.writes, write{addr: addr.Clone(), word: append([]byte(nil), word...)})
	return nil
}

func (b *memoryBatch) Commit() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, w := range b.writes {
		b.store.put(slotKey(w.addr), w.word)
	}
	b.writes = nil
	return nil
}
