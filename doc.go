// Package unionlayout lays out tagged unions in fixed-width slot storage and
// encodes them on the wire.
//
// A tagged union has a set of named variants, each carrying an ordered list of
// named, typed fields. Exactly one variant is selected at a time; its index is
// the selector.
//
// # Architecture Overview
//
//	unionlayout/         SlotStore, Batcher and StorageClass collaborator interfaces
//	├── schema/          Union, Variant, Field and Type model, YAML documents
//	│   └── witschema/   WIT variant type definitions as union schemas
//	├── layout/          Compiler, layout strategies, Plan and slot addresses
//	├── value/           Field values and the variant-switch state machine
//	├── codec/           Head/tail wire encoder and decoder
//	├── store/           Memory, LevelDB, wazero linear memory and LRU slot stores
//	├── config/          TOML configuration and logger setup
//	├── errors/          Structured error types
//	└── cmd/unionlayout/ CLI: plan, encode, decode, store, inspect
//
// # Quick Start
//
//	unions, err := schema.ParseYAML(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	plan, err := layout.Compile(unions[0], layout.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, _ := value.New(unions[0])
//	_ = v.Select(2, []any{[]any{big.NewInt(7)}})
//
//	wire, err := codec.NewEncoder(32).Encode(v)
//
//	mem, _ := store.NewMemoryStore(32, unionlayout.Persistent)
//	bound, err := store.Bind(plan, mem, uint256.NewInt(0))
//	err = bound.Save(v)
//
// # Layout Strategies
//
// NonOverlapping (the default) gives every variant its own slot range.
// Overlapping starts every variant right after the selector. OverlappingPrefix
// overlaps static fields and gives each variant a private body for dynamic
// pointers. Indirected stores only the selector inline and places each variant
// in a Keccak-256 addressed region; it requires persistent storage.
//
// # Aliasing
//
// Field accessors remember the generation of the union they were issued by.
// A variant switch or ClearAll bumps the generation, and a stale accessor fails
// with errors.ErrVariantMismatch instead of reading the new variant's words.
package unionlayout
