package util

import "testing"

func TestToInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		expect int64
		ok     bool
	}{
		{name: "float", input: float64(10000), expect: 10000, ok: true},
		{name: "int", input: 7, expect: 7, ok: true},
		{name: "plain string", input: "2500", expect: 2500, ok: true},
		{name: "currency string", input: "$10,000", expect: 10000, ok: true},
		{name: "empty string", input: "   ", expect: 0, ok: false},
		{name: "garbage", input: "soon", expect: 0, ok: false},
		{name: "unsupported type", input: []string{"x"}, expect: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ToInt64(tt.input)
			if ok != tt.ok || got != tt.expect {
				t.Fatalf("expected (%d, %v), got (%d, %v)", tt.expect, tt.ok, got, ok)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "simple", input: "Amber Grant", expect: "amber-grant"},
		{name: "punctuation collapsed", input: "Small  Business: Boost!", expect: "small-business-boost"},
		{name: "surrounding noise", input: "  --Hello--  ", expect: "hello"},
		{name: "empty", input: "   ", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
