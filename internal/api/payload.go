package api

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/seatwise/seatwise/internal/features"
)

// Inference payloads arrive in one of two shapes: a raw usage record
// (dates and counts, derived server-side) or an already-derived
// feature triple. The shape is detected explicitly per object — the
// presence of a derived field (usage_days / usage_frequency) selects
// the derived form, otherwise the raw form is assumed. Batches may mix
// shapes.

type inputShape int

const (
	shapeRaw inputShape = iota
	shapeDerived
)

func detectShape(obj map[string]interface{}) inputShape {
	if _, ok := obj["usage_days"]; ok {
		return shapeDerived
	}
	if _, ok := obj["usage_frequency"]; ok {
		return shapeDerived
	}
	return shapeRaw
}

// scoreInput is one validated, derivation-complete input element.
type scoreInput struct {
	Vector features.FeatureVector
	// Service labels the prediction log entry; "unknown" when the
	// payload carried no service field.
	Service string
	// Echo is the original payload object, returned in single-record
	// responses for explanation.
	Echo map[string]interface{}
}

// getNumber reads a numeric field. Numeric strings ("100", "0.5") are
// coerced so clients that serialize numbers as strings still score.
func getNumber(obj map[string]interface{}, key string) (float64, bool, bool) {
	v, present := obj[key]
	if !present || v == nil {
		return 0, false, false
	}
	switch n := v.(type) {
	case float64:
		return n, true, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, true, false
		}
		return f, true, true
	}
	return 0, true, false
}

func getInt(obj map[string]interface{}, key string) (int, bool, bool) {
	f, present, ok := getNumber(obj, key)
	if !present || !ok {
		return 0, present, ok
	}
	if f != math.Trunc(f) {
		return 0, true, false
	}
	return int(f), true, true
}

func getString(obj map[string]interface{}, key string) (string, bool, bool) {
	v, present := obj[key]
	if !present || v == nil {
		return "", false, false
	}
	s, ok := v.(string)
	return s, true, ok
}

// parseInput validates one payload object and produces its feature
// vector. All field problems are collected into a single
// *features.ValidationError; validation never stops at the first bad
// field.
func parseInput(obj map[string]interface{}) (scoreInput, error) {
	if detectShape(obj) == shapeDerived {
		return parseDerived(obj)
	}
	return parseRaw(obj)
}

func parseDerived(obj map[string]interface{}) (scoreInput, error) {
	var verr features.ValidationError
	in := scoreInput{Service: "unknown", Echo: obj}

	days, present, ok := getInt(obj, "usage_days")
	switch {
	case !present:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_days", Reason: "missing"})
	case !ok:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_days", Reason: "must be an integer"})
	}

	freq, present, ok := getNumber(obj, "usage_frequency")
	switch {
	case !present:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_frequency", Reason: "missing"})
	case !ok:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_frequency", Reason: "must be a number"})
	case freq < 0:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_frequency", Reason: "must be non-negative"})
	}

	cost, present, ok := getNumber(obj, "cost")
	switch {
	case !present:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "cost", Reason: "missing"})
	case !ok:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "cost", Reason: "must be a number"})
	case cost < 0:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "cost", Reason: "must be non-negative"})
	}

	if len(verr.Fields) > 0 {
		return in, &verr
	}

	// Pre-derived inputs honor the same floor the deriver applies.
	if days < 1 {
		days = 1
	}
	if svc, _, ok := getString(obj, "service"); ok && svc != "" {
		in.Service = svc
	}
	in.Vector = features.FeatureVector{UsageDays: days, UsageFrequency: freq, Cost: cost}
	return in, nil
}

func parseRaw(obj map[string]interface{}) (scoreInput, error) {
	var verr features.ValidationError
	rec := features.UsageRecord{}
	in := scoreInput{Service: "unknown", Echo: obj}

	count, present, ok := getInt(obj, "usage_count")
	switch {
	case !present:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_count", Reason: "missing"})
	case !ok:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "usage_count", Reason: "must be an integer"})
	default:
		rec.UsageCount = count
	}

	cost, present, ok := getNumber(obj, "cost")
	switch {
	case !present:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "cost", Reason: "missing"})
	case !ok:
		verr.Fields = append(verr.Fields, features.FieldError{Field: "cost", Reason: "must be a number"})
	default:
		rec.Cost = cost
	}

	for _, dateField := range []string{"start_date", "last_used"} {
		v, present, ok := getString(obj, dateField)
		switch {
		case !present:
			verr.Fields = append(verr.Fields, features.FieldError{Field: dateField, Reason: "missing"})
		case !ok:
			verr.Fields = append(verr.Fields, features.FieldError{Field: dateField, Reason: "must be a date string"})
		default:
			if dateField == "start_date" {
				rec.StartDate = v
			} else {
				rec.LastUsed = v
			}
		}
	}

	if id, _, ok := getString(obj, "license_id"); ok {
		rec.LicenseID = id
	}
	if svc, _, ok := getString(obj, "service"); ok && svc != "" {
		rec.Service = svc
		in.Service = svc
	}

	// Derivation still runs when only type-level problems were found
	// above: neutral defaults stand in for the bad fields, so date
	// problems surface in the same single error report.
	if len(verr.Fields) > 0 && (rec.StartDate == "" || rec.LastUsed == "") {
		return in, &verr
	}

	vec, err := features.Derive(rec)
	if err != nil {
		var dverr *features.ValidationError
		if errors.As(err, &dverr) {
			verr.Fields = append(verr.Fields, dverr.Fields...)
		} else {
			verr.Fields = append(verr.Fields, features.FieldError{Field: "record", Reason: err.Error()})
		}
	}
	if len(verr.Fields) > 0 {
		return in, &verr
	}

	in.Vector = vec
	return in, nil
}
