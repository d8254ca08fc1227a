package record

import (
	"fmt"
	"math"
	"strings"
)

const (
	maxSourceLen   = 100
	maxSourceIDLen = 255
)

// validateDraft checks a draft before Create or Upsert.
func validateDraft(d *Draft) error {
	if err := validateKey(d.Source, d.SourceID); err != nil {
		return err
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return validateBreakdown(d.Breakdown)
}

// validatePatch checks a partial update before it reaches storage.
func validatePatch(p *Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	return validateBreakdown(p.Breakdown)
}

func validateKey(source, sourceID string) error {
	if source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidInput)
	}
	if len(source) > maxSourceLen {
		return fmt.Errorf("%w: source exceeds %d characters", ErrInvalidInput, maxSourceLen)
	}
	if sourceID == "" {
		return fmt.Errorf("%w: source_id is required", ErrInvalidInput)
	}
	if len(sourceID) > maxSourceIDLen {
		return fmt.Errorf("%w: source_id exceeds %d characters", ErrInvalidInput, maxSourceIDLen)
	}
	return nil
}

func validateBreakdown(m map[string]float64) error {
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: breakdown component %q is not finite", ErrInvalidInput, k)
		}
	}
	return nil
}
