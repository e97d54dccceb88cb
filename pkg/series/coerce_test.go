package series

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerce(t *testing.T) {
	mid := 3.0
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"int", 4, Number(4)},
		{"float", 2.5, Number(2.5)},
		{"numeric string", " 12 ", Number(12)},
		{"empty string", "", Number(0)},
		{"blank string", " \t", Number(0)},
		{"text", "abc", Null()},
		{"true", true, Number(1)},
		{"false", false, Number(0)},
		{"json number", json.Number("7"), Number(7)},
		{"nan", math.NaN(), Null()},
		{"inf", math.Inf(-1), Null()},
		{"array", []any{1.0, "x"}, Array([]any{1.0, "x"})},
		{"range", map[string]any{"high": 5.0, "mid": 3.0, "low": 1.0}, RangeValue(Range{High: 5, Mid: &mid, Low: 1})},
		{"zero high", map[string]any{"high": 0.0, "low": -1.0}, Null()},
		{"object", map[string]any{"a": 1.0}, Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Coerce(tt.in)); diff != "" {
				t.Errorf("Coerce(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestIsValue(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{"", false},
		{false, false},
		{math.NaN(), false},
		{0.0, true},
		{"0", true},
		{" ", true},
		{"Mon", true},
	}
	for _, tt := range tests {
		if got := isValue(tt.in); got != tt.want {
			t.Errorf("isValue(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestXFloatOrdering(t *testing.T) {
	if !math.IsInf(NullX().Float(), 1) {
		t.Errorf("NullX().Float() = %v, want +Inf", NullX().Float())
	}
	if NumberX(0).IsNull() {
		t.Error("NumberX(0) should not be null")
	}
}

func TestPointJSON(t *testing.T) {
	p := Point{X: NumberX(2), Value: Null(), ID: "a", Index: 1}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"x":2,"value":null,"id":"a","index":1}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestIDConverter(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"", "Sales A", "Sales A", false},
		{"lower", "Sales A", "sales a", false},
		{"snake", "monthlySales total", "monthly_sales_total", false},
		{"trim", "  a ", "a", false},
		{"camel", "a", "", true},
	}

	for _, tt := range tests {
		fn, err := IDConverter(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("IDConverter(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && fn(tt.in) != tt.want {
			t.Errorf("IDConverter(%q)(%q) = %q, want %q", tt.name, tt.in, fn(tt.in), tt.want)
		}
	}
}
