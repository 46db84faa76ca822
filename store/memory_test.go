package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/unionlayout"
)

func word(w int, b byte) []byte {
	out := make([]byte, w)
	out[w-1] = b
	return out
}

// exerciseStore runs the SlotStore contract against st.
func exerciseStore(t *testing.T, st unionlayout.SlotStore) {
	t.Helper()
	w := st.WordWidth()
	a := uint256.NewInt(3)

	got, err := st.ReadSlot(a)
	require.NoError(t, err)
	require.Equal(t, make([]byte, w), got, "missing slots read as zero")

	require.NoError(t, st.WriteSlot(a, word(w, 0x42)))
	got, err = st.ReadSlot(a)
	require.NoError(t, err)
	require.Equal(t, word(w, 0x42), got)

	got[w-1] = 0
	again, err := st.ReadSlot(a)
	require.NoError(t, err)
	require.Equal(t, word(w, 0x42), again, "ReadSlot must return a copy")

	require.Error(t, st.WriteSlot(a, make([]byte, w+1)))

	b, ok := st.(unionlayout.Batcher)
	require.True(t, ok)
	batch := b.NewBatch()
	require.NoError(t, batch.WriteSlot(uint256.NewInt(4), word(w, 1)))
	require.NoError(t, batch.WriteSlot(uint256.NewInt(4), word(w, 2)))
	require.NoError(t, batch.WriteSlot(a, make([]byte, w)))

	got, err = st.ReadSlot(uint256.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, make([]byte, w), got, "batch writes are invisible before Commit")

	require.NoError(t, batch.Commit())
	got, err = st.ReadSlot(uint256.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, word(w, 2), got, "later batch writes win")
	got, err = st.ReadSlot(a)
	require.NoError(t, err)
	require.Equal(t, make([]byte, w), got)
}

func TestMemoryStore(t *testing.T) {
	st, err := NewMemoryStore(16, unionlayout.Transient)
	require.NoError(t, err)
	require.Equal(t, unionlayout.Transient, st.StorageClass())
	exerciseStore(t, st)
	require.Equal(t, 1, st.Len(), "zero writes delete slots")

	top := new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1))
	require.NoError(t, st.WriteSlot(top, word(16, 9)))
	got, err := st.ReadSlot(top)
	require.NoError(t, err)
	require.Equal(t, word(16, 9), got)
}

func TestMemoryStoreWidth(t *testing.T) {
	st, err := NewMemoryStore(0, unionlayout.Persistent)
	require.NoError(t, err)
	require.Equal(t, 32, st.WordWidth())

	_, err = NewMemoryStore(4, unionlayout.Persistent)
	require.Error(t, err)
}
