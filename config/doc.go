// Package config loads the TOML configuration of the unionlayout command.
//
// Keys are the Go field names and unknown keys are rejected:
//
//	[Layout]
//	Strategy = "overlapping"
//	StorageClass = "persistent"
//	WordWidth = 32
//
//	[Store]
//	Backend = "leveldb"
//	Path = "slots.db"
//	CacheSize = 1024
//
//	[Log]
//	Level = "debug"
//	Development = true
package config
