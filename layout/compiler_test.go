package layout

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/wippyai/unionlayout"
	ulerrors "github.com/wippyai/unionlayout/errors"
	"github.com/wippyai/unionlayout/internal/fixture"
	"github.com/wippyai/unionlayout/schema"
)

func TestCompileDeterministic(t *testing.T) {
	for _, s := range []Strategy{NonOverlapping, Overlapping, OverlappingPrefix, Indirected} {
		t.Run(s.String(), func(t *testing.T) {
			// separate compilers so the cache cannot hand back the same plan
			p1, err := NewCompiler().Compile(fixture.E(), Options{Strategy: s})
			if err != nil {
				t.Fatal(err)
			}
			p2, err := NewCompiler().Compile(fixture.E(), Options{Strategy: s})
			if err != nil {
				t.Fatal(err)
			}
			b1, _ := p1.MarshalBinary()
			b2, _ := p2.MarshalBinary()
			if !bytes.Equal(b1, b2) {
				t.Error("MarshalBinary differs between identical compiles")
			}
			if p1.Fingerprint() != p2.Fingerprint() {
				t.Error("fingerprints differ between identical compiles")
			}
		})
	}
}

func TestCompileFingerprintDependsOnInput(t *testing.T) {
	c := NewCompiler()
	seen := map[[32]byte]string{}
	for _, s := range []Strategy{NonOverlapping, Overlapping, OverlappingPrefix, Indirected} {
		p, err := c.Compile(fixture.E(), Options{Strategy: s})
		if err != nil {
			t.Fatal(err)
		}
		if prev, dup := seen[p.Fingerprint()]; dup {
			t.Errorf("%s and %s share a fingerprint", prev, s)
		}
		seen[p.Fingerprint()] = s.String()
	}

	p32, _ := c.Compile(fixture.Mixed(), Options{})
	p64, _ := c.Compile(fixture.Mixed(), Options{WordWidth: 64})
	if p32.Fingerprint() == p64.Fingerprint() {
		t.Error("word width must change the fingerprint")
	}
}

func TestCompileCache(t *testing.T) {
	c := NewCompiler()
	p1, err := c.Compile(fixture.E(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.Compile(fixture.E(), Options{WordWidth: 32})
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("expected the cached plan for equivalent options")
	}
	p3, _ := c.Compile(fixture.E(), Options{Strategy: Overlapping})
	if p1 == p3 {
		t.Error("different strategies must not share a plan")
	}
}

func TestCompileConcurrent(t *testing.T) {
	c := NewCompiler()
	plans := make([]*Plan, 16)
	var wg sync.WaitGroup
	for i := range plans {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Compile(fixture.E(), Options{})
			if err != nil {
				t.Error(err)
				return
			}
			plans[i] = p
		}(i)
	}
	wg.Wait()
	for _, p := range plans[1:] {
		if p != plans[0] {
			t.Fatal("concurrent compiles returned different plans")
		}
	}
}

func TestCompileRejectsEmptySchema(t *testing.T) {
	for _, s := range []Strategy{NonOverlapping, Overlapping, OverlappingPrefix, Indirected} {
		p, err := NewCompiler().Compile(&schema.Union{Name: "Empty", Variants: []schema.Variant{}}, Options{Strategy: s})
		if !errors.Is(err, ulerrors.ErrInvalidSchema) {
			t.Errorf("%s: error = %v, want InvalidSchema", s, err)
		}
		if p != nil {
			t.Errorf("%s: plan returned alongside error", s)
		}
	}
}

func TestCompileRejectsIndirectedTransient(t *testing.T) {
	schemas := []*schema.Union{
		fixture.E(),
		fixture.Mixed(),
		{Name: "One", Variants: []schema.Variant{{Name: "Only"}}},
		{Name: "Empty", Variants: []schema.Variant{}},
	}
	for _, u := range schemas {
		t.Run(u.Name, func(t *testing.T) {
			p, err := Compile(u, Options{Strategy: Indirected, StorageClass: unionlayout.Transient})
			if !errors.Is(err, ulerrors.ErrStrategyUnsupportedForStorageClass) {
				t.Fatalf("error = %v, want StrategyUnsupportedForStorageClass", err)
			}
			if p != nil {
				t.Error("plan returned alongside error")
			}
		})
	}

	for _, s := range []Strategy{NonOverlapping, Overlapping, OverlappingPrefix} {
		if _, err := Compile(fixture.E(), Options{Strategy: s, StorageClass: unionlayout.Transient}); err != nil {
			t.Errorf("%s on transient storage: %v", s, err)
		}
	}
}

func TestCompileOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		kind ulerrors.Kind
	}{
		{"word width too small", Options{WordWidth: 4}, ulerrors.KindInvalidInput},
		{"word width too large", Options{WordWidth: 128}, ulerrors.KindInvalidInput},
		{"unknown strategy", Options{Strategy: Strategy(9)}, ulerrors.KindInvalidInput},
		{"unknown storage class", Options{StorageClass: unionlayout.StorageClass(5)}, ulerrors.KindInvalidInput},
		{"address too wide for word", Options{WordWidth: 16}, ulerrors.KindInvalidSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(fixture.E(), tt.opts)
			var e *ulerrors.Error
			if !errors.As(err, &e) {
				t.Fatalf("error = %v, want *errors.Error", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", e.Kind, tt.kind)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", NonOverlapping, false},
		{"non-overlapping", NonOverlapping, false},
		{"Overlapping", Overlapping, false},
		{"overlapping_prefix", OverlappingPrefix, false},
		{"indirected", Indirected, false},
		{"packed", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStrategy(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if Strategy(7).String() != "Strategy(7)" {
		t.Error("unexpected name for unknown strategy")
	}
}
