package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/internal/fixture"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/value"
)

func TestLevelDBStore(t *testing.T) {
	st, err := NewMemLevelDB(32)
	require.NoError(t, err)
	defer st.Close()

	require.Equal(t, unionlayout.Persistent, st.StorageClass())
	exerciseStore(t, st)

	var n int
	require.NoError(t, st.Each(func(addr *uint256.Int, w []byte) error {
		n++
		require.Equal(t, uint64(4), addr.Uint64())
		require.Equal(t, word(32, 2), w)
		return nil
	}))
	require.Equal(t, 1, n)
}

func TestLevelDBStoreReopen(t *testing.T) {
	dir := t.TempDir()
	e := fixture.E()
	plan, err := layout.Compile(e, layout.Options{Strategy: layout.Indirected})
	require.NoError(t, err)

	st, err := OpenLevelDB(dir, 32)
	require.NoError(t, err)
	u, err := Bind(plan, st, uint256.NewInt(1))
	require.NoError(t, err)
	samples := eSamples()
	require.NoError(t, u.Select(samples[2].variant, samples[2].fields))
	require.NoError(t, st.Close())

	_, err = OpenLevelDB(dir, 16)
	require.Error(t, err, "word width is fixed at creation")

	st, err = OpenLevelDB(dir, 32)
	require.NoError(t, err)
	defer st.Close()
	u, err = Bind(plan, st, uint256.NewInt(1))
	require.NoError(t, err)
	got, err := u.Load()
	require.NoError(t, err)
	want, err := value.FromParts(e, samples[2].variant, samples[2].fields)
	require.NoError(t, err)
	require.True(t, got.Equal(want))
}

func TestLevelDBStoreClosed(t *testing.T) {
	st, err := NewMemLevelDB(32)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.ReadSlot(uint256.NewInt(1))
	require.ErrorIs(t, err, ErrClosed)
}
