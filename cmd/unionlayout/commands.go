package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/unionlayout/codec"
	"github.com/wippyai/unionlayout/config"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/store"
	"github.com/wippyai/unionlayout/value"
)

var (
	valueFlag = cli.StringFlag{
		Name:  "value",
		Usage: `union value as YAML, e.g. "C: {xs: [7]}"`,
	}
	hexFlag = cli.StringFlag{
		Name:  "hex",
		Usage: "wire encoding as hex",
	}
	dbFlag = cli.StringFlag{
		Name:  "db",
		Usage: "LevelDB directory; overrides the configured store",
	}
	baseFlag = cli.StringFlag{
		Name:  "base",
		Usage: "base slot of the union (decimal or 0x-hex)",
		Value: "0",
	}

	planCommand = cli.Command{
		Action:      printPlan,
		Name:        "plan",
		Usage:       "Show the compiled layout",
		Description: `The plan command prints every variant's field offsets and the plan fingerprint.`,
	}
	encodeCommand = cli.Command{
		Action: encode,
		Name:   "encode",
		Usage:  "Encode a union value to wire bytes",
		Flags:  []cli.Flag{valueFlag},
	}
	decodeCommand = cli.Command{
		Action: decode,
		Name:   "decode",
		Usage:  "Decode wire bytes to a union value",
		Flags:  []cli.Flag{hexFlag},
	}
	storeCommand = cli.Command{
		Name:  "store",
		Usage: "Read and write a union in a slot store",
		Subcommands: []cli.Command{
			{
				Action: storeWrite,
				Name:   "write",
				Usage:  "Select a variant and write its fields",
				Flags:  []cli.Flag{dbFlag, baseFlag, valueFlag},
			},
			{
				Action: storeRead,
				Name:   "read",
				Usage:  "Read the current variant and its fields",
				Flags:  []cli.Flag{dbFlag, baseFlag},
			},
		},
	}
	schemaCommand = cli.Command{
		Action: printSchema,
		Name:   "schema",
		Usage:  "Print the schema as a YAML document",
	}
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		Description: `The dumpconfig command shows configuration values after flags are applied.`,
	}
	inspectCommand = cli.Command{
		Action: inspect,
		Name:   "inspect",
		Usage:  "Browse the layout and encode values interactively",
	}
)

func printPlan(ctx *cli.Context) error {
	plan, _, err := compilePlan(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, renderPlan(plan, isTerminal(ctx.App.Writer)))
	return err
}

func encode(ctx *cli.Context) error {
	plan, _, err := compilePlan(ctx)
	if err != nil {
		return err
	}
	u, err := parseValue(plan.Schema(), ctx.String(valueFlag.Name))
	if err != nil {
		return err
	}
	buf, err := codec.NewEncoder(plan.WordWidth()).Encode(u)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(ctx.App.Writer, "0x%s\n", hex.EncodeToString(buf))
	return err
}

func decode(ctx *cli.Context) error {
	plan, _, err := compilePlan(ctx)
	if err != nil {
		return err
	}
	buf, err := value.DecodeHex(ctx.String(hexFlag.Name))
	if err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).Cause(err).Detail("invalid hex input").Build()
	}
	u, err := codec.NewDecoder(plan.WordWidth()).Decode(buf, plan.Schema())
	if err != nil {
		return err
	}
	return writeValue(ctx.App.Writer, u)
}

func storeWrite(ctx *cli.Context) error {
	return withStoredUnion(ctx, func(su *store.Union) error {
		u, err := parseValue(su.Plan().Schema(), ctx.String(valueFlag.Name))
		if err != nil {
			return err
		}
		if err := su.Save(u); err != nil {
			return err
		}
		_, err = fmt.Fprintf(ctx.App.Writer, "stored %s at slot %s\n", u.VariantName(), su.Base().Hex())
		return err
	})
}

func storeRead(ctx *cli.Context) error {
	return withStoredUnion(ctx, func(su *store.Union) error {
		u, err := su.Load()
		if err != nil {
			return err
		}
		return writeValue(ctx.App.Writer, u)
	})
}

// withStoredUnion opens the store, binds the union at --base and runs fn.
func withStoredUnion(ctx *cli.Context, fn func(*store.Union) error) error {
	plan, cfg, err := compilePlan(ctx)
	if err != nil {
		return err
	}
	base, err := parseSlot(ctx.String(baseFlag.Name))
	if err != nil {
		return err
	}
	if db := ctx.String(dbFlag.Name); db != "" {
		cfg.Store.Backend = config.BackendLevelDB
		cfg.Store.Path = db
	}
	st, release, err := cfg.OpenStore(context.Background(), plan.WordWidth())
	if err != nil {
		return err
	}
	defer release()

	su, err := store.Bind(plan, st, base)
	if err != nil {
		return err
	}
	return fn(su)
}

func printSchema(ctx *cli.Context) error {
	u, err := loadUnion(ctx)
	if err != nil {
		return err
	}
	out, err := schema.MarshalYAML(u)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	return config.Dump(ctx.App.Writer, cfg)
}

func inspect(ctx *cli.Context) error {
	plan, _, err := compilePlan(ctx)
	if err != nil {
		return err
	}
	return runInteractive(plan)
}

// parseValue reads a one-key YAML mapping from variant name to its fields.
func parseValue(s *schema.Union, literal string) (*value.Union, error) {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal([]byte(literal), &doc); err != nil {
		return nil, errors.ParseFailed("union value", err)
	}
	if len(doc) != 1 {
		return nil, errors.InvalidInput(errors.PhaseEncode,
			fmt.Sprintf("value must name exactly one variant of %s, got %d", s.Name, len(doc)))
	}
	var (
		name   string
		fields map[string]any
	)
	for name, fields = range doc {
	}
	idx := s.VariantIndex(name)
	if idx < 0 {
		return nil, errors.NotFound(errors.PhaseEncode, "variant", name)
	}
	vals, err := value.FieldsFromNative(&s.Variants[idx], fields)
	if err != nil {
		return nil, err
	}
	return value.FromParts(s, idx, vals)
}

func writeValue(w io.Writer, u *value.Union) error {
	v := &u.Schema().Variants[u.Selector()]
	out, err := yaml.Marshal(map[string]any{v.Name: value.FieldsToNative(v, u.Fields())})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// variantRows flattens a variant's field offsets into table rows.
func variantRows(v layout.VariantLayout) [][]string {
	rows := make([][]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		ptr := ""
		if f.Pointer {
			ptr = "yes"
		}
		rows = append(rows, []string{
			v.Name,
			f.Name,
			f.Type.String(),
			f.Region.String(),
			fmt.Sprint(f.Offset),
			fmt.Sprint(f.Slots),
			ptr,
		})
	}
	return rows
}
