package layout

import (
	"fmt"
	"strings"

	"github.com/wippyai/unionlayout"
	"github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/abi"
)

// Strategy selects how variant fields are placed relative to the union's
// base slot.
type Strategy uint8

const (
	// NonOverlapping gives every variant its own slot range after the
	// selector. Footprint is the sum of all variant footprints.
	NonOverlapping Strategy = iota
	// Overlapping starts every variant right after the selector. Footprint is
	// the largest variant footprint.
	Overlapping
	// OverlappingPrefix overlaps the static fields of all variants and gives
	// each variant a private body region for its dynamic pointer slots.
	OverlappingPrefix
	// Indirected keeps only the selector inline and places variant i at
	// keccak256(base ‖ i). Persistent storage only.
	Indirected
)

var strategyNames = [...]string{
	NonOverlapping:    "non-overlapping",
	Overlapping:       "overlapping",
	OverlappingPrefix: "overlapping-prefix",
	Indirected:        "indirected",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// ParseStrategy accepts the names printed by String, case-insensitively, with
// '_' in place of '-' allowed.
func ParseStrategy(s string) (Strategy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if norm == "" {
		return NonOverlapping, nil
	}
	for i, name := range strategyNames {
		if name == norm {
			return Strategy(i), nil
		}
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown layout strategy %q", s))
}

// Options configure compilation. The zero value selects NonOverlapping,
// persistent storage and 32-byte words.
type Options struct {
	Strategy     Strategy
	StorageClass unionlayout.StorageClass
	WordWidth    int
}

func (o Options) withDefaults() Options {
	if o.WordWidth == 0 {
		o.WordWidth = abi.DefaultWordWidth
	}
	return o
}

// Validate checks the options on their own, after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if int(o.Strategy) >= len(strategyNames) {
		return errors.InvalidInput(errors.PhaseCompile, fmt.Sprintf("unknown layout strategy %d", o.Strategy))
	}
	if o.StorageClass != unionlayout.Persistent && o.StorageClass != unionlayout.Transient {
		return errors.InvalidInput(errors.PhaseCompile, fmt.Sprintf("unknown storage class %d", o.StorageClass))
	}
	if !abi.ValidWordWidth(o.WordWidth) {
		return errors.InvalidInput(errors.PhaseCompile,
			fmt.Sprintf("word width %d outside [%d, %d]", o.WordWidth, abi.MinWordWidth, abi.MaxWordWidth))
	}
	if o.Strategy == Indirected && o.StorageClass == unionlayout.Transient {
		return errors.StrategyUnsupported(o.Strategy.String(), o.StorageClass.String())
	}
	return nil
}
