package schema

import (
	"errors"
	"testing"

	ulerrors "github.com/wippyai/unionlayout/errors"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"uint256", "uint256", false},
		{"uint", "uint256", false},
		{"int", "int256", false},
		{"int8", "int8", false},
		{"byte", "bytes1", false},
		{"bytes32", "bytes32", false},
		{"bytes", "bytes", false},
		{"string", "string", false},
		{"address", "address", false},
		{"function", "function", false},
		{"bool", "bool", false},
		{"int32[]", "int32[]", false},
		{"uint16[2]", "uint16[2]", false},
		{"uint8[][3]", "uint8[][3]", false},
		{"(function,uint256)", "(function,uint256)", false},
		{"(bool,(string,uint8[2]))[]", "(bool,(string,uint8[2]))[]", false},
		{"", "", true},
		{"float", "", true},
		{"uint7", "", true},
		{"uint264", "", true},
		{"bytes0", "", true},
		{"bytes33", "", true},
		{"uint8[0]", "", true},
		{"uint8[x]", "", true},
		{"uint8[", "", true},
		{"()", "", true},
		{"(bool", "", true},
		{"(bool;bool)", "", true},
		{"bool extra", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ulerrors.ErrInvalidSchema) {
					t.Errorf("error %v is not InvalidSchema", err)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}

func TestParseTypeTupleComponentNames(t *testing.T) {
	typ, err := ParseType("(bool,uint8)")
	if err != nil {
		t.Fatal(err)
	}
	if typ.Components[0].Name != "0" || typ.Components[1].Name != "1" {
		t.Errorf("unexpected component names %q %q", typ.Components[0].Name, typ.Components[1].Name)
	}
}
