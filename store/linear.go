package store

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/errors"
)

const (
	// PageSize is the size of one WebAssembly memory page.
	PageSize = 64 << 10
	// MaxPages keeps the memory size representable as a uint32.
	MaxPages = 32768
)

// LinearStore is a transient slot store backed by the linear memory of a
// wazero module instance. Slot a lives at byte offset a*W, so only slots
// below Capacity are addressable. It is safe for concurrent use.
type LinearStore struct {
	runtime wazero.Runtime
	mem     api.Memory
	mu      sync.Mutex
	width   int
	closed  bool
}

// NewLinearStore instantiates a module exporting a memory of the given
// number of pages.
func NewLinearStore(ctx context.Context, w int, pages uint32) (*LinearStore, error) {
	if err := checkWidth(w); err != nil {
		return nil, err
	}
	if pages == 0 || pages > MaxPages {
		return nil, errors.InvalidInput(errors.PhaseStorage, "memory pages out of range")
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(pages))
	mod, err := rt.InstantiateWithConfig(ctx, memoryModule(pages), wazero.NewModuleConfig().WithName("slots"))
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Storage("instantiate linear memory", err)
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseStorage, "export", "memory")
	}

	Logger().Debug("linear store created", zap.Int("word_width", w), zap.Uint32("pages", pages))
	return &LinearStore{runtime: rt, mem: mem, width: w}, nil
}

// memoryModule assembles a module with one memory of min pages exported as
// "memory".
func memoryModule(pages uint32) []byte {
	mem := append([]byte{0x01, 0x00}, uleb128(pages)...)
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, 0x05)
	out = append(out, uleb128(uint32(len(mem)))...)
	out = append(out, mem...)
	out = append(out, 0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00)
	return out
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func (s *LinearStore) WordWidth() int { return s.width }

func (s *LinearStore) StorageClass() unionlayout.StorageClass { return unionlayout.Transient }

// Capacity returns the number of addressable slots.
func (s *LinearStore) Capacity() uint64 {
	return uint64(s.mem.Size()) / uint64(s.width)
}

func (s *LinearStore) offset(addr *uint256.Int) (uint32, error) {
	if !addr.IsUint64() || addr.Uint64() >= s.Capacity() {
		return 0, errors.OutOfBounds(errors.PhaseStorage, nil, addr.Hex(), s.Capacity())
	}
	return uint32(addr.Uint64() * uint64(s.width)), nil
}

func (s *LinearStore) ReadSlot(addr *uint256.Int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, closedErr("read slot")
	}
	off, err := s.offset(addr)
	if err != nil {
		return nil, err
	}
	data, ok := s.mem.Read(off, uint32(s.width))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseStorage, nil, off, s.mem.Size())
	}
	return append([]byte(nil), data...), nil
}

func (s *LinearStore) WriteSlot(addr *uint256.Int, word []byte) error {
	if err := checkWord(s.width, word); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return closedErr("write slot")
	}
	off, err := s.offset(addr)
	if err != nil {
		return err
	}
	if !s.mem.Write(off, word) {
		return errors.OutOfBounds(errors.PhaseStorage, nil, off, s.mem.Size())
	}
	return nil
}

// NewBatch returns a batch whose writes are bounds-checked up front and
// applied under one lock, so a failing batch changes nothing.
func (s *LinearStore) NewBatch() unionlayout.SlotBatch {
	return &linearBatch{store: s}
}

type linearBatch struct {
	store  *LinearStore
	writes []write
}

func (b *linearBatch) WriteSlot(addr *uint256.Int, word []byte) error {
	if err := checkWord(b.store.width, word); err != nil {
		return err
	}
	b.writes = append(b.writes, write{addr: addr.Clone(), word: append([]byte(nil), word...)})
	return nil
}

func (b *linearBatch) Commit() error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return closedErr("commit batch")
	}
	offsets := make([]uint32, len(b.writes))
	for i, w := range b.writes {
		off, err := s.offset(w.addr)
		if err != nil {
			return err
		}
		offsets[i] = off
	}
	for i, w := range b.writes {
		s.mem.Write(offsets[i], w.word)
	}
	b.writes = nil
	return nil
}

// Close releases the wazero runtime. The store is unusable afterwards.
func (s *LinearStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.runtime.Close(ctx); err != nil {
		return errors.Storage("close runtime", err)
	}
	return nil
}
