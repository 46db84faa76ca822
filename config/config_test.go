package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/unionlayout"
	ulerrors "github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/store"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults
	require.NoError(t, cfg.Validate())

	opts, err := cfg.LayoutOptions()
	require.NoError(t, err)
	require.Equal(t, layout.NonOverlapping, opts.Strategy)
	require.Equal(t, unionlayout.Persistent, opts.StorageClass)
	require.Equal(t, 32, opts.WordWidth)
}

func TestDecode(t *testing.T) {
	cfg := Defaults
	err := Decode(strings.NewReader(`
[Layout]
Strategy = "overlapping-prefix"
WordWidth = 16

[Store]
Backend = "linear"
MemoryPages = 2

[Log]
Level = "debug"
`), &cfg)
	require.NoError(t, err)
	require.Equal(t, "overlapping-prefix", cfg.Layout.Strategy)
	require.Equal(t, 16, cfg.Layout.WordWidth)
	require.Equal(t, "persistent", cfg.Layout.StorageClass, "unset keys keep defaults")
	require.Equal(t, uint32(2), cfg.Store.MemoryPages)
	require.NoError(t, cfg.Validate())
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	cfg := Defaults
	err := Decode(strings.NewReader("[Layout]\nPacking = true\n"), &cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Packing")
	require.NotContains(t, err.Error(), "%!")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "unionlayout.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Store]\nBackend = \"leveldb\"\nPath = \"db\"\nCacheSize = 16\n"), 0o644))

	cfg := Defaults
	require.NoError(t, Load(file, &cfg))
	require.Equal(t, BackendLevelDB, cfg.Store.Backend)
	require.Equal(t, 16, cfg.Store.CacheSize)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[Layout\n"), 0o644))
	err := Load(bad, &cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.toml")

	err = Load(filepath.Join(dir, "missing.toml"), &cfg)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown strategy", func(c *Config) { c.Layout.Strategy = "packed" }, nil},
		{"unknown class", func(c *Config) { c.Layout.StorageClass = "calldata" }, nil},
		{"word width", func(c *Config) { c.Layout.WordWidth = 4 }, nil},
		{"indirected transient", func(c *Config) {
			c.Layout.Strategy = "indirected"
			c.Layout.StorageClass = "transient"
		}, ulerrors.ErrStrategyUnsupportedForStorageClass},
		{"indirected linear", func(c *Config) {
			c.Layout.Strategy = "indirected"
			c.Store.Backend = BackendLinear
		}, ulerrors.ErrStrategyUnsupportedForStorageClass},
		{"leveldb without path", func(c *Config) { c.Store.Backend = BackendLevelDB }, nil},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, nil},
		{"negative cache", func(c *Config) { c.Store.CacheSize = -1 }, nil},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestDumpRoundTrip(t *testing.T) {
	cfg := Defaults
	cfg.Layout.Strategy = "overlapping"
	cfg.Store.CacheSize = 8

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, &cfg))
	require.Contains(t, buf.String(), "[Layout]")

	var back Config
	require.NoError(t, Decode(&buf, &back))
	require.Equal(t, cfg, back)
}

func TestNewLogger(t *testing.T) {
	cfg := Defaults
	cfg.Log.Development = true
	l, err := cfg.NewLogger()
	require.NoError(t, err)
	require.NotNil(t, l)

	cfg.Log.Level = "nope"
	_, err = cfg.NewLogger()
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := Defaults
	cfg.Store.CacheSize = 4
	st, release, err := cfg.OpenStore(ctx, 32)
	require.NoError(t, err)
	_, cached := st.(*store.CachedStore)
	require.True(t, cached)
	require.NoError(t, release())

	cfg = Defaults
	cfg.Store.Backend = BackendLevelDB
	cfg.Store.Path = filepath.Join(t.TempDir(), "db")
	st, release, err = cfg.OpenStore(ctx, 32)
	require.NoError(t, err)
	require.Equal(t, unionlayout.Persistent, st.StorageClass())
	require.NoError(t, release())

	cfg = Defaults
	cfg.Store.Backend = BackendLinear
	st, release, err = cfg.OpenStore(ctx, 16)
	require.NoError(t, err)
	require.Equal(t, unionlayout.Transient, st.StorageClass())
	require.Equal(t, 16, st.WordWidth())
	require.NoError(t, release())
}
