// Package abi provides internal word arithmetic for slot layouts and the
// head/tail wire codec.
//
// # Contents
//
//   - words.go: word width limits, word counting, overflow-checked arithmetic
//   - coerce.go: coercion of native Go numbers into big integers
//
// This package is internal to the unionlayout module.
package abi
