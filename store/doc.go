// Package store provides slot stores and binds compiled layout plans to them.
//
// Stores implement unionlayout.SlotStore and unionlayout.Batcher:
//
//	MemoryStore   map-backed, either storage class
//	LevelDBStore  persistent, goleveldb on disk or in memory
//	LinearStore   transient, the linear memory of a wazero module instance
//	CachedStore   LRU read-through cache over any store
//
// Bind attaches a plan to a store at a base slot and returns a Union that
// reads and writes values through the plan:
//
//	plan, _ := layout.Compile(schema, layout.Options{Strategy: layout.Overlapping})
//	u, _ := store.Bind(plan, st, base)
//	_ = u.Select(1, fields)
//	v, _ := u.Load()
//
// Static fields occupy their planned slots. A dynamic field's slot holds a
// pointer word. Under Indirected the pointer is the byte length of the
// encoded content, stored from keccak256(pointer slot). Otherwise it is the
// offset of the content from the base slot; content starts with a length
// word and is packed from the plan's TailStart.
package store
