package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAggregate verifies the confidence-weighted mean across observation
// sets: weighting, omission of zero-confidence categories, rounding, and
// independence between categories.
func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		sets     []ObservationSet
		expected ObservationSet
	}{
		{
			name:     "no input sets yields empty result",
			sets:     nil,
			expected: ObservationSet{},
		},
		{
			name:     "all-empty sets yield empty result",
			sets:     []ObservationSet{{}, {}, {}},
			expected: ObservationSet{},
		},
		{
			name: "single observation passes through exactly",
			sets: []ObservationSet{
				{"ENV": {Confidence: 100, Score: 80}},
			},
			expected: ObservationSet{
				"ENV": {Confidence: 100, Score: 80},
			},
		},
		{
			name: "zero-confidence observation does not move the score",
			sets: []ObservationSet{
				{"PAY": {Confidence: 100, Score: 0}},
				{"PAY": {Confidence: 0, Score: 100}},
			},
			expected: ObservationSet{
				"PAY": {Confidence: 100, Score: 0},
			},
		},
		{
			name: "category with only zero-confidence observations is omitted",
			sets: []ObservationSet{
				{"POLI": {Confidence: 0, Score: 40}},
				{"POLI": {Confidence: 0, Score: 90}},
			},
			expected: ObservationSet{},
		},
		{
			name: "equal weights average the scores",
			sets: []ObservationSet{
				{"ENV": {Confidence: 50, Score: 100}},
				{"ENV": {Confidence: 50, Score: 0}},
			},
			expected: ObservationSet{
				"ENV": {Confidence: 100, Score: 50},
			},
		},
		{
			name: "unequal weights pull the mean toward the heavier source",
			sets: []ObservationSet{
				{"QUEER": {Confidence: 75, Score: 80}},
				{"QUEER": {Confidence: 25, Score: 40}},
			},
			expected: ObservationSet{
				"QUEER": {Confidence: 100, Score: 70},
			},
		},
		{
			name: "categories aggregate independently",
			sets: []ObservationSet{
				{
					"ENV": {Confidence: 100, Score: 75},
					"PAY": {Confidence: 50, Score: 65},
				},
				{
					"PAY":   {Confidence: 50, Score: 35},
					"DEI_H": {Confidence: 60, Score: 30},
				},
			},
			expected: ObservationSet{
				"ENV":   {Confidence: 100, Score: 75},
				"PAY":   {Confidence: 100, Score: 50},
				"DEI_H": {Confidence: 60, Score: 30},
			},
		},
		{
			name: "repeating mean is rounded to three decimals",
			sets: []ObservationSet{
				{"CHARITY": {Confidence: 1, Score: 100}},
				{"CHARITY": {Confidence: 1, Score: 100}},
				{"CHARITY": {Confidence: 1, Score: 0}},
			},
			expected: ObservationSet{
				"CHARITY": {Confidence: 3, Score: 66.667},
			},
		},
		{
			name: "total confidence is rounded to three decimals",
			sets: []ObservationSet{
				{"ENV": {Confidence: 150.0001, Score: 50}},
			},
			expected: ObservationSet{
				"ENV": {Confidence: 150, Score: 50},
			},
		},
		{
			name: "invalid observations are skipped without poisoning the rest",
			sets: []ObservationSet{
				{"ENV": {Confidence: -5, Score: 90}},
				{"ENV": {Confidence: 40, Score: 60}},
			},
			expected: ObservationSet{
				"ENV": {Confidence: 40, Score: 60},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.sets...)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestAggregate_MalformedEquivalence checks that mixing malformed
// observations (rejected at parse time) with one valid observation yields
// the same aggregate as the valid observation alone.
func TestAggregate_MalformedEquivalence(t *testing.T) {
	raw := map[string]any{
		"ENV": []any{50.0, 70.0},
	}
	malformed := map[string]any{
		"ENV": []any{"high", 90.0},
	}
	tooLong := map[string]any{
		"ENV": []any{10.0, 20.0, 30.0},
	}
	negative := map[string]any{
		"ENV": []any{-10.0, 40.0},
	}

	validOnly, rejected := ParseObservationSet(raw)
	require.Empty(t, rejected)

	var noisy []ObservationSet
	for _, m := range []map[string]any{raw, malformed, tooLong, negative} {
		set, _ := ParseObservationSet(m)
		noisy = append(noisy, set)
	}

	assert.Equal(t, Aggregate(validOnly), Aggregate(noisy...))
}

// TestAggregate_Deterministic verifies bit-identical output for repeated
// runs over the same input, regardless of map iteration order.
func TestAggregate_Deterministic(t *testing.T) {
	sets := []ObservationSet{
		{
			"ENV":   {Confidence: 33.3, Score: 71.4},
			"PAY":   {Confidence: 12.5, Score: 40.2},
			"DEI_L": {Confidence: 50, Score: 20},
		},
		{
			"PAY": {Confidence: 87.5, Score: 61.8},
			"ENV": {Confidence: 66.7, Score: 55.5},
		},
	}

	first := Aggregate(sets...)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Aggregate(sets...))
	}
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 66.667, roundTo(66.66666666, 3))
	assert.Equal(t, 150.0, roundTo(150.0001, 3))
	assert.Equal(t, -1.5, roundTo(-1.4999, 3)) // half away from zero
	assert.Equal(t, 0.0, roundTo(0.0004, 3))
}
