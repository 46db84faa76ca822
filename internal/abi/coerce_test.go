package abi

import (
	"math/big"
	"testing"
)

func TestCoerceToBigInt(t *testing.T) {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)

	tests := []struct {
		name   string
		input  any
		want   string
		wantOK bool
	}{
		{"int", 7, "7", true},
		{"negative int8", int8(-5), "-5", true},
		{"uint64 max", ^uint64(0), "18446744073709551615", true},
		{"float64 integral", float64(42), "42", true},
		{"float64 fraction", 1.5, "", false},
		{"big", huge, huge.String(), true},
		{"nil big", (*big.Int)(nil), "", false},
		{"string", "7", "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceToBigInt(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCoerceToBigIntCopies(t *testing.T) {
	src := big.NewInt(10)
	got, _ := CoerceToBigInt(src)
	got.SetInt64(11)
	if src.Int64() != 10 {
		t.Error("CoerceToBigInt aliased its input")
	}
}

func TestCoerceToInt(t *testing.T) {
	if v, ok := CoerceToInt(uint16(3)); !ok || v != 3 {
		t.Errorf("CoerceToInt(uint16(3)) = %d, %v", v, ok)
	}
	if _, ok := CoerceToInt(-1); ok {
		t.Error("negative accepted")
	}
}
