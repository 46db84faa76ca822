package config

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/naoina/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/store"
)

// Store backends.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendLinear  = "linear"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LayoutConfig selects how unions are compiled.
type LayoutConfig struct {
	Strategy     string
	StorageClass string
	WordWidth    int
}

// StoreConfig selects the slot store used by the store commands.
type StoreConfig struct {
	Backend     string
	Path        string `toml:",omitempty"`
	CacheSize   int
	MemoryPages uint32
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

type Config struct {
	Layout LayoutConfig
	Store  StoreConfig
	Log    LogConfig
}

// Defaults holds the built-in configuration.
var Defaults = Config{
	Layout: LayoutConfig{
		Strategy:     layout.NonOverlapping.String(),
		StorageClass: unionlayout.Persistent.String(),
		WordWidth:    abi.DefaultWordWidth,
	},
	Store: StoreConfig{
		Backend:     BackendMemory,
		MemoryPages: 1,
	},
	Log: LogConfig{
		Level: "info",
	},
}

// Load decodes the TOML file over cfg. Errors carry the file name.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, file)
	}
	defer f.Close()

	if err := Decode(bufio.NewReader(f), cfg); err != nil {
		if e, ok := err.(*errors.Error); ok {
			cp := *e
			cp.Detail = file + ", " + e.Detail
			return &cp
		}
		return err
	}
	return nil
}

// Decode reads TOML from r over cfg.
func Decode(r io.Reader, cfg *Config) error {
	err := tomlSettings.NewDecoder(r).Decode(cfg)
	if err == nil {
		return nil
	}
	detail := "invalid configuration"
	if le, ok := err.(*toml.LineError); ok {
		detail = fmt.Sprintf("line %d", le.Line)
	}
	return errors.New(errors.PhaseConfig, errors.KindInvalidData).Detail("%s", detail).Cause(err).Build()
}

// Dump writes cfg as TOML.
func Dump(w io.Writer, cfg *Config) error {
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "marshal configuration")
	}
	_, err = w.Write(out)
	return err
}

// Validate checks every section.
func (c *Config) Validate() error {
	opts, err := c.LayoutOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendLevelDB:
		if c.Store.Path == "" {
			return errors.InvalidInput(errors.PhaseConfig, "leveldb backend needs Store.Path")
		}
	case BackendLinear:
		if opts.Strategy == layout.Indirected {
			return errors.StrategyUnsupported(opts.Strategy.String(), unionlayout.Transient.String())
		}
		if c.Store.MemoryPages == 0 || c.Store.MemoryPages > store.MaxPages {
			return errors.InvalidInput(errors.PhaseConfig, "Store.MemoryPages out of range")
		}
	default:
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.CacheSize < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "Store.CacheSize must not be negative")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "Log.Level")
	}
	return nil
}

// LayoutOptions converts the layout section.
func (c *Config) LayoutOptions() (layout.Options, error) {
	st, err := layout.ParseStrategy(c.Layout.Strategy)
	if err != nil {
		return layout.Options{}, err
	}
	class, err := unionlayout.ParseStorageClass(c.Layout.StorageClass)
	if err != nil {
		return layout.Options{}, err
	}
	return layout.Options{Strategy: st, StorageClass: class, WordWidth: c.Layout.WordWidth}, nil
}

// NewLogger builds a zap logger writing to stderr.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "Log.Level")
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// OpenStore opens the configured slot store for w-byte words. The returned
// function releases it.
func (c *Config) OpenStore(ctx context.Context, w int) (unionlayout.SlotStore, func() error, error) {
	var (
		st      unionlayout.SlotStore
		release func() error
	)
	switch c.Store.Backend {
	case BackendMemory:
		class, err := unionlayout.ParseStorageClass(c.Layout.StorageClass)
		if err != nil {
			return nil, nil, err
		}
		ms, err := store.NewMemoryStore(w, class)
		if err != nil {
			return nil, nil, err
		}
		st, release = ms, func() error { return nil }
	case BackendLevelDB:
		db, err := store.OpenLevelDB(c.Store.Path, w)
		if err != nil {
			return nil, nil, err
		}
		st, release = db, db.Close
	case BackendLinear:
		ls, err := store.NewLinearStore(ctx, w, c.Store.MemoryPages)
		if err != nil {
			return nil, nil, err
		}
		st, release = ls, func() error { return ls.Close(ctx) }
	default:
		return nil, nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}

	if c.Store.CacheSize > 0 {
		cs, err := store.NewCachedStore(st, c.Store.CacheSize)
		if err != nil {
			release()
			return nil, nil, err
		}
		st = cs
	}
	return st, release, nil
}
