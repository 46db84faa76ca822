package abi

import (
	"math"
	"math/big"
)

// CoerceToBigInt handles decoded numbers (float64 from JSON, int from YAML)
// and every sized Go integer type. The result is always a fresh value.
func CoerceToBigInt(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case big.Int:
		return new(big.Int).Set(&v), true
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, false
		}
		if v >= -(1<<53) && v <= 1<<53 {
			return big.NewInt(int64(v)), true
		}
		bf := new(big.Float).SetFloat64(v)
		out, _ := bf.Int(nil)
		return out, true
	case float32:
		return CoerceToBigInt(float64(v))
	}
	return nil, false
}

// CoerceToInt returns value as a non-negative int, for lengths and indexes.
func CoerceToInt(value any) (int, bool) {
	b, ok := CoerceToBigInt(value)
	if !ok || b.Sign() < 0 || !b.IsInt64() || b.Int64() > math.MaxInt {
		return 0, false
	}
	return int(b.Int64()), true
}
