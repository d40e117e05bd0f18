package domain

import "math"

// aggregatePrecision is the number of decimal digits kept in aggregate
// confidences and scores. Fixed precision keeps output reproducible across
// runs and byte-stable in the record store.
const aggregatePrecision = 3

// Aggregate combines any number of observation sets into one observation
// per category: the entry's Confidence is the total confidence across all
// sources and its Score is the confidence-weighted mean of their scores.
//
// Each category is aggregated independently; there is no cross-category
// interaction, no decay, and no outlier rejection. Sources are
// heterogeneous in reliability, so their confidences are used as-is and
// trusted to be comparably scaled.
//
// Observations that fail Validate are skipped, and a category whose total
// confidence is not positive is omitted entirely: a zero-confidence
// aggregate means "no information", never "score zero". Aggregating zero
// sets, or only empty sets, yields an empty result. The function is pure
// and never fails; malformed input degrades to fewer output categories.
func Aggregate(sets ...ObservationSet) ObservationSet {
	type accumulator struct {
		totalConfidence float64
		weightedSum     float64
	}

	combined := make(map[string]*accumulator)
	for _, set := range sets {
		for category, obs := range set {
			if obs.Validate() != nil {
				continue
			}
			acc, ok := combined[category]
			if !ok {
				acc = &accumulator{}
				combined[category] = acc
			}
			acc.totalConfidence += obs.Confidence
			acc.weightedSum += obs.Confidence * obs.Score
		}
	}

	result := make(ObservationSet, len(combined))
	for category, acc := range combined {
		if acc.totalConfidence <= 0 {
			continue
		}
		result[category] = Observation{
			Confidence: roundTo(acc.totalConfidence, aggregatePrecision),
			Score:      roundTo(acc.weightedSum/acc.totalConfidence, aggregatePrecision),
		}
	}
	return result
}

// roundTo rounds f to the given number of decimal digits, half away from
// zero.
func roundTo(f float64, digits int) float64 {
	shift := math.Pow(10, float64(digits))
	return math.Round(f*shift) / shift
}
