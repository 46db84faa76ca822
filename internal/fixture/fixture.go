// Package fixture holds schemas shared by tests across packages.
package fixture

import "github.com/wippyai/unionlayout/schema"

// E is the four-variant union
//
//	E = {A(bytes4,address,uint256), B(bytes4,address,(function,uint256),bytes16),
//	     C(int32[]), D(uint128,uint16[2])}
func E() *schema.Union {
	return &schema.Union{
		Name: "E",
		Variants: []schema.Variant{
			{Name: "A", Fields: []schema.Field{
				{Name: "sel", Type: schema.FixedBytes(4)},
				{Name: "owner", Type: schema.Address()},
				{Name: "amount", Type: schema.Uint(256)},
			}},
			{Name: "B", Fields: []schema.Field{
				{Name: "sel", Type: schema.FixedBytes(4)},
				{Name: "owner", Type: schema.Address()},
				{Name: "s", Type: schema.Tuple(
					schema.Field{Name: "f", Type: schema.Function()},
					schema.Field{Name: "x", Type: schema.Uint(256)},
				)},
				{Name: "tag", Type: schema.FixedBytes(16)},
			}},
			{Name: "C", Fields: []schema.Field{
				{Name: "xs", Type: schema.Slice(schema.Int(32))},
			}},
			{Name: "D", Fields: []schema.Field{
				{Name: "big", Type: schema.Uint(128)},
				{Name: "pair", Type: schema.Array(schema.Uint(16), 2)},
			}},
		},
	}
}

// Mixed has static and dynamic fields in every position, for layout strategy
// tests.
func Mixed() *schema.Union {
	return &schema.Union{
		Name: "M",
		Variants: []schema.Variant{
			{Name: "Empty"},
			{Name: "Named", Fields: []schema.Field{
				{Name: "id", Type: schema.Uint(64)},
				{Name: "label", Type: schema.String()},
				{Name: "flag", Type: schema.Bool()},
			}},
			{Name: "Blob", Fields: []schema.Field{
				{Name: "data", Type: schema.Bytes()},
				{Name: "more", Type: schema.Slice(schema.FixedBytes(2))},
			}},
		},
	}
}
