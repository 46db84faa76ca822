// Command unionlayout compiles tagged-union schemas into slot layouts, encodes
// and decodes union values, and reads and writes them in a slot store.
package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/urfave/cli.v1"

	"github.com/wippyai/unionlayout/config"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/schema/witschema"
	"github.com/wippyai/unionlayout/store"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	schemaFlag = cli.StringFlag{
		Name:  "schema",
		Usage: "YAML schema document",
	}
	witFlag = cli.StringFlag{
		Name:  "wit",
		Usage: "WIT package in wasm-tools JSON form",
	}
	typeFlag = cli.StringFlag{
		Name:  "type",
		Usage: "union (or WIT variant) name; optional when the document has one",
	}
	strategyFlag = cli.StringFlag{
		Name:  "strategy",
		Usage: "layout strategy: non-overlapping, overlapping, overlapping-prefix, indirected",
	}
	storageClassFlag = cli.StringFlag{
		Name:  "storage-class",
		Usage: "persistent or transient",
	}
	wordWidthFlag = cli.IntFlag{
		Name:  "word-width",
		Usage: "bytes per slot and per wire word",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error)",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "unionlayout"
	app.Usage = "tagged-union slot layouts and wire encodings"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		configFileFlag,
		schemaFlag,
		witFlag,
		typeFlag,
		strategyFlag,
		storageClassFlag,
		wordWidthFlag,
		logLevelFlag,
	}
	app.Commands = []cli.Command{
		planCommand,
		encodeCommand,
		decodeCommand,
		storeCommand,
		schemaCommand,
		dumpConfigCommand,
		inspectCommand,
	}
	app.Before = setupLogging
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	layout.SetLogger(logger)
	store.SetLogger(logger)
	return nil
}

// loadConfig applies the config file and then the flags over the defaults.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Defaults
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := config.Load(file, &cfg); err != nil {
			return nil, err
		}
	}
	if ctx.GlobalIsSet(strategyFlag.Name) {
		cfg.Layout.Strategy = ctx.GlobalString(strategyFlag.Name)
	}
	if ctx.GlobalIsSet(storageClassFlag.Name) {
		cfg.Layout.StorageClass = ctx.GlobalString(storageClassFlag.Name)
	}
	if ctx.GlobalIsSet(wordWidthFlag.Name) {
		cfg.Layout.WordWidth = ctx.GlobalInt(wordWidthFlag.Name)
	}
	if ctx.GlobalIsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.GlobalString(logLevelFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadUnion(ctx *cli.Context) (*schema.Union, error) {
	schemaFile := ctx.GlobalString(schemaFlag.Name)
	witFile := ctx.GlobalString(witFlag.Name)
	name := ctx.GlobalString(typeFlag.Name)

	switch {
	case schemaFile != "" && witFile != "":
		return nil, errors.InvalidInput(errors.PhaseConfig, "--schema and --wit are mutually exclusive")
	case schemaFile != "":
		unions, err := schema.LoadFile(schemaFile)
		if err != nil {
			return nil, err
		}
		return schema.Lookup(unions, name)
	case witFile != "":
		f, err := os.Open(witFile)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindNotFound, err, "read WIT file "+witFile)
		}
		defer f.Close()
		return witschema.DecodeJSON(f, name)
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "one of --schema or --wit is required")
	}
}

// compilePlan loads the configuration and the schema and compiles the plan.
func compilePlan(ctx *cli.Context) (*layout.Plan, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	u, err := loadUnion(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.LayoutOptions()
	if err != nil {
		return nil, nil, err
	}
	plan, err := layout.Compile(u, opts)
	if err != nil {
		return nil, nil, err
	}
	return plan, cfg, nil
}

// parseSlot parses a decimal or 0x-hex slot address.
func parseSlot(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok || b.Sign() < 0 || b.BitLen() > 256 {
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("invalid slot address %q", s))
	}
	return new(uint256.Int).SetBytes(b.Bytes()), nil
}
