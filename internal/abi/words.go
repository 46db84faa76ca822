package abi

import (
	"math"
	"reflect"
)

const (
	MinWordWidth     = 8
	MaxWordWidth     = 64
	DefaultWordWidth = 32
)

const (
	MaxBytesLength = 1 << 30 // 1 GB max bytes/string payload
	MaxArrayLength = 1 << 27 // 128M max elements
)

// ValidWordWidth reports whether w is a supported slot width in bytes.
func ValidWordWidth(w int) bool {
	return w >= MinWordWidth && w <= MaxWordWidth
}

// WordsFor returns the number of w-byte words needed to hold n bytes.
func WordsFor(n, w int) int {
	if n <= 0 {
		return 0
	}
	return (n + w - 1) / w
}

// PadTo rounds n up to a multiple of w.
func PadTo(n, w int) int {
	return WordsFor(n, w) * w
}

func SafeMul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func SafeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
