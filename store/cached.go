package store

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/errors"
)

// CachedStore is a read-through, write-through LRU cache over another
// store. It assumes no one else writes to the inner store.
type CachedStore struct {
	inner  unionlayout.SlotStore
	cache  *lru.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedStore caches up to size slots of inner.
func NewCachedStore(inner unionlayout.SlotStore, size int) (*CachedStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindInvalidInput, err, "create slot cache")
	}
	return &CachedStore{inner: inner, cache: c}, nil
}

func (s *CachedStore) WordWidth() int { return s.inner.WordWidth() }

func (s *CachedStore) StorageClass() unionlayout.StorageClass { return s.inner.StorageClass() }

func (s *CachedStore) ReadSlot(addr *uint256.Int) ([]byte, error) {
	key := slotKey(addr)
	if v, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return append([]byte(nil), v.([]byte)...), nil
	}
	s.misses.Add(1)
	word, err := s.inner.ReadSlot(addr)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, append([]byte(nil), word...))
	return word, nil
}

func (s *CachedStore) WriteSlot(addr *uint256.Int, word []byte) error {
	key := slotKey(addr)
	if err := s.inner.WriteSlot(addr, word); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, append([]byte(nil), word...))
	return nil
}

// Stats returns the cache hit and miss counts.
func (s *CachedStore) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

// Purge drops every cached slot.
func (s *CachedStore) Purge() { s.cache.Purge() }

// NewBatch wraps the inner store's batch and invalidates the written slots
// on commit. When the inner store does not batch, writes are applied one by
// one on commit.
func (s *CachedStore) NewBatch() unionlayout.SlotBatch {
	b := &cachedBatch{store: s}
	if bt, ok := s.inner.(unionlayout.Batcher); ok {
		b.inner = bt.NewBatch()
	}
	return b
}

type cachedBatch struct {
	store  *CachedStore
	inner  unionlayout.SlotBatch
	writes []write
}

func (b *cachedBatch) WriteSlot(addr *uint256.Int, word []byte) error {
	if b.inner != nil {
		if err := b.inner.WriteSlot(addr, word); err != nil {
			return err
		}
	}
	b.writes = append(b.writes, write{addr: addr.Clone(), word: append([]byte(nil), word...)})
	return nil
}

func (b *cachedBatch) Commit() error {
	writes := b.writes
	b.writes = nil
	defer func() {
		for _, w := range writes {
			b.store.cache.Remove(slotKey(w.addr))
		}
	}()

	if b.inner != nil {
		return b.inner.Commit()
	}
	for _, w := range writes {
		if err := b.store.inner.WriteSlot(w.addr, w.word); err != nil {
			return err
		}
	}
	return nil
}
