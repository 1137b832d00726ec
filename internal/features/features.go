// internal/features/features.go
package features

import (
	"fmt"
	"strings"
	"time"
)

// UsageRecord is one raw license-to-service assignment as it arrives
// from a dataset row or an API payload. Dates are kept as strings and
// parsed during derivation so malformed values surface as field errors
// rather than decode failures.
type UsageRecord struct {
	LicenseID  string  `json:"license_id"`
	Service    string  `json:"service"`
	Cost       float64 `json:"cost"`
	UsageCount int     `json:"usage_count"`
	StartDate  string  `json:"start_date"`
	LastUsed   string  `json:"last_used"`
}

// FeatureVector is the fixed-shape numeric input the waste model
// consumes. Field order matches training order and must not change.
type FeatureVector struct {
	UsageDays      int     `json:"usage_days"`
	UsageFrequency float64 `json:"usage_frequency"`
	Cost           float64 `json:"cost"`
}

// Width is the number of features in a vector.
const Width = 3

// Names returns the feature names in model input order.
func Names() []string {
	return []string{"usage_days", "usage_frequency", "cost"}
}

// Values returns the vector in model input order.
func (v FeatureVector) Values() []float64 {
	return []float64{float64(v.UsageDays), v.UsageFrequency, v.Cost}
}

// Date layouts accepted for start_date and last_used. The training
// datasets are authored day-first, so day-first layouts come before
// anything ambiguous; ISO dates are accepted because they cannot be
// misread.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
}

// FieldError describes one invalid field in a usage record.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError reports every invalid field of a record in one pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "invalid usage record: " + strings.Join(parts, "; ")
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Derive turns one raw record into the model's feature vector.
//
// usage_days is floor-clamped to 1: identical or inverted date pairs
// are treated as "used immediately" rather than rejected, so the
// frequency denominator is never zero. All field problems are reported
// together in a single *ValidationError.
func Derive(rec UsageRecord) (FeatureVector, error) {
	var verr ValidationError

	if rec.Cost < 0 {
		verr.Fields = append(verr.Fields, FieldError{"cost", "must be non-negative"})
	}
	if rec.UsageCount < 0 {
		verr.Fields = append(verr.Fields, FieldError{"usage_count", "must be non-negative"})
	}

	var start, last time.Time
	if rec.StartDate == "" {
		verr.Fields = append(verr.Fields, FieldError{"start_date", "missing"})
	} else {
		t, err := parseDate(rec.StartDate)
		if err != nil {
			verr.Fields = append(verr.Fields, FieldError{"start_date", err.Error()})
		}
		start = t
	}
	if rec.LastUsed == "" {
		verr.Fields = append(verr.Fields, FieldError{"last_used", "missing"})
	} else {
		t, err := parseDate(rec.LastUsed)
		if err != nil {
			verr.Fields = append(verr.Fields, FieldError{"last_used", err.Error()})
		}
		last = t
	}

	if len(verr.Fields) > 0 {
		return FeatureVector{}, &verr
	}

	days := int(last.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}

	return FeatureVector{
		UsageDays:      days,
		UsageFrequency: float64(rec.UsageCount) / float64(days),
		Cost:           rec.Cost,
	}, nil
}

// DeriveEach derives a vector per record, isolating failures. Both
// returned slices have the same length as records: vectors[i] is valid
// exactly when errs[i] is nil. Callers choose the policy — training
// drops failed rows and continues, batch inference reports them
// per-element.
func DeriveEach(records []UsageRecord) (vectors []FeatureVector, errs []error) {
	vectors = make([]FeatureVector, len(records))
	errs = make([]error, len(records))
	for i, rec := range records {
		vectors[i], errs[i] = Derive(rec)
	}
	return vectors, errs
}
