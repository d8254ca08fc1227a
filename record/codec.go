package record

import (
	"encoding/json"
	"fmt"
	"math"
)

// EncodeBreakdown encodes a score breakdown as a JSON object string.
// A nil map encodes to the empty string (stored as NULL).
func EncodeBreakdown(m map[string]float64) (string, error) {
	if m == nil {
		return "", nil
	}
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: breakdown component %q is not finite", ErrInvalidInput, k)
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return string(data), nil
}

// DecodeBreakdown decodes a persisted score breakdown. An absent value
// ("" or "null") yields an empty, non-nil map. Malformed text, nested
// structures, and non-numeric values fail with ErrDecode — keys are never
// silently dropped.
func DecodeBreakdown(text string) (map[string]float64, error) {
	if text == "" {
		return map[string]float64{}, nil
	}
	var m map[string]float64
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if m == nil {
		return map[string]float64{}, nil
	}
	return m, nil
}

// Breakdown decodes the record's persisted score breakdown.
// Records without a breakdown return an empty map, not an error.
func (r *ContentRecord) Breakdown() (map[string]float64, error) {
	if r.ScoreBreakdown == nil {
		return map[string]float64{}, nil
	}
	return DecodeBreakdown(*r.ScoreBreakdown)
}

// SetBreakdown encodes m into the record's breakdown column.
// A nil map clears it.
func (r *ContentRecord) SetBreakdown(m map[string]float64) error {
	if m == nil {
		r.ScoreBreakdown = nil
		return nil
	}
	text, err := EncodeBreakdown(m)
	if err != nil {
		return err
	}
	r.ScoreBreakdown = &text
	return nil
}

// encodeOptionalBreakdown maps a draft/patch breakdown to its column value:
// nil map -> NULL, otherwise the encoded JSON text.
func encodeOptionalBreakdown(m map[string]float64) (*string, error) {
	if m == nil {
		return nil, nil
	}
	text, err := EncodeBreakdown(m)
	if err != nil {
		return nil, err
	}
	return &text, nil
}
