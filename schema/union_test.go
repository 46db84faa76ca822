package schema_test

import (
	"errors"
	"testing"

	ulerrors "github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/fixture"
	"github.com/wippyai/unionlayout/layout"
	"github.com/wippyai/unionlayout/schema"
	"github.com/wippyai/unionlayout/value"
)

func TestUnionValidate(t *testing.T) {
	tests := []struct {
		name    string
		union   *schema.Union
		width   int
		wantErr bool
	}{
		{"union E", fixture.E(), 32, false},
		{"empty union", &schema.Union{Name: "X", Variants: []schema.Variant{}}, 32, true},
		{"nil variants", &schema.Union{Name: "X"}, 32, true},
		{
			name: "duplicate variant",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A"}, {Name: "A"},
			}},
			width:   32,
			wantErr: true,
		},
		{
			name: "duplicate field",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{
					{Name: "f", Type: schema.Bool()},
					{Name: "f", Type: schema.Uint(8)},
				}},
			}},
			width:   32,
			wantErr: true,
		},
		{
			name: "same field name in different variants",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{{Name: "f", Type: schema.Bool()}}},
				{Name: "B", Fields: []schema.Field{{Name: "f", Type: schema.Bool()}}},
			}},
			width: 32,
		},
		{
			name: "empty variant name",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: ""},
			}},
			width:   32,
			wantErr: true,
		},
		{
			name: "missing field type",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{{Name: "f"}}},
			}},
			width:   32,
			wantErr: true,
		},
		{
			name: "bad integer width",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{{Name: "f", Type: schema.Uint(12)}}},
			}},
			width:   32,
			wantErr: true,
		},
		{
			name: "duplicate tuple component",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{{Name: "t", Type: schema.Tuple(
					schema.Field{Name: "a", Type: schema.Bool()},
					schema.Field{Name: "a", Type: schema.Bool()},
				)}}},
			}},
			width:   32,
			wantErr: true,
		},
		{"address does not fit an 8-byte word", fixture.E(), 8, true},
		{"structure only", fixture.E(), 0, false},
		{
			name: "uint64 fits an 8-byte word",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{{Name: "f", Type: schema.Uint(64)}}},
			}},
			width: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.union.Validate(tt.width)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ulerrors.ErrInvalidSchema) {
				t.Errorf("error %v is not InvalidSchema", err)
			}
		})
	}
}

func TestUnionShape(t *testing.T) {
	e := fixture.E()

	if !e.IsDynamic() {
		t.Error("E must be dynamic")
	}
	if got := e.MaxHeadWords(); got != 5 {
		t.Errorf("MaxHeadWords() = %d, want 5", got)
	}

	heads := []int{3, 5, 1, 3}
	dynamic := []bool{false, false, true, false}
	for i, v := range e.Variants {
		if got := v.HeadWords(); got != heads[i] {
			t.Errorf("variant %s HeadWords() = %d, want %d", v.Name, got, heads[i])
		}
		if got := v.IsDynamic(); got != dynamic[i] {
			t.Errorf("variant %s IsDynamic() = %v, want %v", v.Name, got, dynamic[i])
		}
	}

	if e.VariantIndex("C") != 2 || e.VariantIndex("Z") != -1 {
		t.Error("VariantIndex mismatch")
	}
	if e.Variants[1].FieldIndex("tag") != 3 || e.Variants[1].FieldIndex("nope") != -1 {
		t.Error("FieldIndex mismatch")
	}
}

func TestUnionSignature(t *testing.T) {
	want := "E{A(bytes4 sel,address owner,uint256 amount)|" +
		"B(bytes4 sel,address owner,(function f,uint256 x) s,bytes16 tag)|" +
		"C(int32[] xs)|D(uint128 big,uint16[2] pair)}"
	if got := fixture.E().Signature(); got != want {
		t.Errorf("Signature() =\n%s\nwant\n%s", got, want)
	}
}

func TestTypeProperties(t *testing.T) {
	tests := []struct {
		typ     *schema.Type
		str     string
		dynamic bool
		head    int
		size    int
	}{
		{schema.Uint(256), "uint256", false, 1, 32},
		{schema.Int(32), "int32", false, 1, 4},
		{schema.Bool(), "bool", false, 1, 1},
		{schema.FixedBytes(4), "bytes4", false, 1, 4},
		{schema.Address(), "address", false, 1, 20},
		{schema.Function(), "function", false, 1, 24},
		{schema.Bytes(), "bytes", true, 1, 0},
		{schema.String(), "string", true, 1, 0},
		{schema.Slice(schema.Int(32)), "int32[]", true, 1, 0},
		{schema.Array(schema.Uint(16), 2), "uint16[2]", false, 2, 0},
		{schema.Array(schema.String(), 3), "string[3]", true, 1, 0},
		{schema.Array(schema.Array(schema.Bool(), 2), 3), "bool[2][3]", false, 6, 0},
		{
			schema.Tuple(
				schema.Field{Name: "f", Type: schema.Function()},
				schema.Field{Name: "x", Type: schema.Uint(256)},
			),
			"(function,uint256)", false, 2, 0,
		},
		{
			schema.Tuple(schema.Field{Name: "b", Type: schema.Bytes()}),
			"(bytes)", true, 1, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if got := tt.typ.IsDynamic(); got != tt.dynamic {
				t.Errorf("IsDynamic() = %v, want %v", got, tt.dynamic)
			}
			if got := tt.typ.HeadWords(); got != tt.head {
				t.Errorf("HeadWords() = %d, want %d", got, tt.head)
			}
			if got := tt.typ.ByteSize(); got != tt.size {
				t.Errorf("ByteSize() = %d, want %d", got, tt.size)
			}
		})
	}
}

func TestValidateBoundsArraySizes(t *testing.T) {
	single := func(fields ...schema.Field) *schema.Union {
		return &schema.Union{Name: "X", Variants: []schema.Variant{{Name: "A", Fields: fields}}}
	}
	field := func(name string, typ *schema.Type) schema.Field {
		return schema.Field{Name: name, Type: typ}
	}
	const quarter = 1 << 25

	tests := []struct {
		name    string
		union   *schema.Union
		wantErr bool
	}{
		{"length at limit", single(field("a", schema.Array(schema.Uint(8), 1<<27))), false},
		{"length over limit", single(field("a", schema.Array(schema.Uint(8), 100000000000000))), true},
		{"nested product wraps", single(field("a", schema.Array(schema.Array(schema.Uint(256), 3074457345618258603), 3))), true},
		{"nested product to zero", single(field("a", schema.Array(schema.Array(schema.Uint(256), 1<<62), 4))), true},
		{"nested product over limit", single(field("a", schema.Array(schema.Array(schema.Uint(8), 1<<20), 1<<20))), true},
		{"dynamic elements count", single(field("a", schema.Array(schema.Array(schema.String(), 1<<20), 1<<20))), true},
		{
			name: "tuple sum over limit",
			union: single(field("t", schema.Tuple(
				schema.Field{Name: "x", Type: schema.Array(schema.Uint(8), 1<<27)},
				schema.Field{Name: "y", Type: schema.Uint(8)},
			))),
			wantErr: true,
		},
		{
			name: "variant head over limit",
			union: single(
				field("a", schema.Array(schema.Uint(8), 3*quarter)),
				field("b", schema.Array(schema.Uint(8), 2*quarter)),
			),
			wantErr: true,
		},
		{
			name: "union total over limit",
			union: &schema.Union{Name: "X", Variants: []schema.Variant{
				{Name: "A", Fields: []schema.Field{field("a", schema.Array(schema.Uint(8), 3*quarter))}},
				{Name: "B", Fields: []schema.Field{field("b", schema.Array(schema.Uint(8), 2*quarter))}},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.union.Validate(32)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ulerrors.ErrInvalidSchema) {
				t.Fatalf("Validate = %v, want invalid schema", err)
			}
			if _, err := layout.Compile(tt.union, layout.Options{}); !errors.Is(err, ulerrors.ErrInvalidSchema) {
				t.Errorf("Compile = %v, want invalid schema", err)
			}
			if _, err := value.New(tt.union); err == nil {
				t.Error("value.New accepted an oversized schema")
			}
		})
	}
}

func TestParseTypeBoundsArrayLength(t *testing.T) {
	for _, s := range []string{"uint8[100000000000000]", "uint8[134217729]", "uint8[99999999999999999999999]"} {
		if _, err := schema.ParseType(s); !errors.Is(err, ulerrors.ErrInvalidSchema) {
			t.Errorf("ParseType(%q) = %v, want invalid schema", s, err)
		}
	}
}
