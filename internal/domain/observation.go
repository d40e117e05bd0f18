// Package domain contains the core types and the aggregation logic for the
// scorecard engine. Everything in this package is pure: no I/O, no provider
// SDKs, and deterministic output for identical input.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Observation is a single source's opinion about one company in one
// category. Confidence expresses how much weight the opinion should carry;
// Score is the source's rating, nominally on a 0-100 scale with 50 meaning
// net-neutral. An observation with confidence zero carries no information
// and never moves an aggregate.
//
// Confidence values from different sources are treated as comparable on a
// common 0-100 scale. Neither field is clamped here; sources are trusted to
// emit roughly 0-100 scaled values.
type Observation struct {
	// Confidence is the non-negative weight of this opinion.
	Confidence float64
	// Score is the source's rating for the category.
	Score float64
}

// Validate reports whether the observation may participate in aggregation.
// Negative confidence and non-finite values are rejected; there is no upper
// bound on either field.
func (o Observation) Validate() error {
	if math.IsNaN(o.Confidence) || math.IsInf(o.Confidence, 0) {
		return fmt.Errorf("%w: confidence %v", ErrNonFinite, o.Confidence)
	}
	if math.IsNaN(o.Score) || math.IsInf(o.Score, 0) {
		return fmt.Errorf("%w: score %v", ErrNonFinite, o.Score)
	}
	if o.Confidence < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeConfidence, o.Confidence)
	}
	return nil
}

// MarshalJSON encodes the observation as the two-element array
// [confidence, score], the wire and storage format shared with every
// source and with previously written record files.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{o.Confidence, o.Score})
}

// UnmarshalJSON decodes the [confidence, score] array form. Anything that
// is not a two-element numeric array is an error; callers that must not
// fail on malformed input use ParseObservation instead.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAPair, err)
	}
	parsed, err := ParseObservation(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseObservation normalizes a raw observation into its canonical form.
// The input must be a two-element sequence whose elements convert to
// finite floating-point numbers, with a non-negative first element.
// Everything else is rejected with a descriptive error and must be
// discarded by the caller without affecting any aggregate.
func ParseObservation(raw any) (Observation, error) {
	pair, err := asPair(raw)
	if err != nil {
		return Observation{}, err
	}

	confidence, err := toFloat(pair[0])
	if err != nil {
		return Observation{}, fmt.Errorf("confidence: %w", err)
	}
	score, err := toFloat(pair[1])
	if err != nil {
		return Observation{}, fmt.Errorf("score: %w", err)
	}

	obs := Observation{Confidence: confidence, Score: score}
	if err := obs.Validate(); err != nil {
		return Observation{}, err
	}
	return obs, nil
}

// asPair coerces the supported sequence shapes into a [2]any.
func asPair(raw any) ([2]any, error) {
	switch v := raw.(type) {
	case []any:
		if len(v) != 2 {
			return [2]any{}, fmt.Errorf("%w: got %d elements", ErrNotAPair, len(v))
		}
		return [2]any{v[0], v[1]}, nil
	case []float64:
		if len(v) != 2 {
			return [2]any{}, fmt.Errorf("%w: got %d elements", ErrNotAPair, len(v))
		}
		return [2]any{v[0], v[1]}, nil
	case []json.Number:
		if len(v) != 2 {
			return [2]any{}, fmt.Errorf("%w: got %d elements", ErrNotAPair, len(v))
		}
		return [2]any{v[0], v[1]}, nil
	case [2]float64:
		return [2]any{v[0], v[1]}, nil
	case nil:
		return [2]any{}, fmt.Errorf("%w: nil value", ErrNotAPair)
	default:
		return [2]any{}, fmt.Errorf("%w: %T", ErrNotAPair, raw)
	}
}

// toFloat converts a single raw element to a finite float64.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return checkFinite(n)
	case float32:
		return checkFinite(float64(n))
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNonNumeric, n.String())
		}
		return checkFinite(f)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNonNumeric, n)
		}
		return checkFinite(f)
	case nil:
		return 0, fmt.Errorf("%w: nil", ErrNonNumeric)
	default:
		return 0, fmt.Errorf("%w: %T", ErrNonNumeric, v)
	}
}

func checkFinite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, f)
	}
	return f, nil
}

// ObservationSet maps category codes to observations. One set is produced
// by one source call for one company. A set is never required to cover
// every category; a missing category means the source holds no opinion.
type ObservationSet map[string]Observation

// TotalConfidence returns the sum of all confidences in the set. Useful
// for logging how much signal a source contributed.
func (s ObservationSet) TotalConfidence() float64 {
	var total float64
	for _, obs := range s {
		total += obs.Confidence
	}
	return total
}

// ParseObservationSet normalizes a raw category-to-pair mapping, such as a
// decoded LLM response, into an ObservationSet. Malformed entries are
// collected as RejectionErrors rather than failing the whole set, so a
// single bad pair never discards a source's remaining signal.
func ParseObservationSet(raw map[string]any) (ObservationSet, []*RejectionError) {
	if len(raw) == 0 {
		return ObservationSet{}, nil
	}

	set := make(ObservationSet, len(raw))
	var rejected []*RejectionError
	for category, value := range raw {
		obs, err := ParseObservation(value)
		if err != nil {
			rejected = append(rejected, NewRejectionError(category, value, err))
			continue
		}
		set[category] = obs
	}
	return set, rejected
}
