package record

import (
	"errors"
	"math"
	"testing"
)

func TestBreakdownRoundTrip(t *testing.T) {
	in := map[string]float64{"engagement": 12.5, "freshness": 0.8, "tags": 2}
	text, err := EncodeBreakdown(in)
	if err != nil {
		t.Fatalf("EncodeBreakdown: %v", err)
	}
	out, err := DecodeBreakdown(text)
	if err != nil {
		t.Fatalf("DecodeBreakdown: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for k, v := range in {
		if out[k] != v {
			t.Errorf("%s = %v, want %v", k, out[k], v)
		}
	}
}

func TestEncodeBreakdownNil(t *testing.T) {
	text, err := EncodeBreakdown(nil)
	if err != nil {
		t.Fatalf("EncodeBreakdown(nil): %v", err)
	}
	if text != "" {
		t.Errorf("nil map encoded to %q, want empty", text)
	}
}

func TestEncodeBreakdownNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := EncodeBreakdown(map[string]float64{"x": v})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("EncodeBreakdown(%v) err = %v, want ErrInvalidInput", v, err)
		}
	}
}

func TestDecodeBreakdownAbsent(t *testing.T) {
	for _, text := range []string{"", "null"} {
		m, err := DecodeBreakdown(text)
		if err != nil {
			t.Fatalf("DecodeBreakdown(%q): %v", text, err)
		}
		if m == nil || len(m) != 0 {
			t.Errorf("DecodeBreakdown(%q) = %v, want empty map", text, m)
		}
	}
}

func TestDecodeBreakdownMalformed(t *testing.T) {
	cases := []string{
		"{not json",
		`["a", "b"]`,
		`{"nested": {"x": 1}}`,
		`{"text": "hello"}`,
	}
	for _, text := range cases {
		if _, err := DecodeBreakdown(text); !errors.Is(err, ErrDecode) {
			t.Errorf("DecodeBreakdown(%q) err = %v, want ErrDecode", text, err)
		}
	}
}

func TestRecordSetBreakdown(t *testing.T) {
	var rec ContentRecord

	if err := rec.SetBreakdown(map[string]float64{"a": 1}); err != nil {
		t.Fatalf("SetBreakdown: %v", err)
	}
	m, err := rec.Breakdown()
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if m["a"] != 1 {
		t.Errorf("breakdown = %v", m)
	}

	if err := rec.SetBreakdown(nil); err != nil {
		t.Fatalf("SetBreakdown(nil): %v", err)
	}
	if rec.ScoreBreakdown != nil {
		t.Error("nil breakdown did not clear column")
	}
	m, err = rec.Breakdown()
	if err != nil {
		t.Fatalf("Breakdown after clear: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("cleared breakdown = %v", m)
	}
}
