package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCompanyKey(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectedErr error
	}{
		{name: "simple name", input: "Apple", expected: "apple"},
		{name: "spaces and punctuation stripped", input: "Ben & Jerry's", expected: "benjerrys"},
		{name: "already normalized", input: "tesla", expected: "tesla"},
		{name: "digits kept", input: "7-Eleven", expected: "7eleven"},
		{name: "surrounding whitespace", input: "  Temu  ", expected: "temu"},
		{name: "case folded", input: "IKEA", expected: "ikea"},
		{name: "non-latin characters stripped", input: "Müller GmbH", expected: "mllergmbh"},
		{name: "empty input", input: "", expectedErr: ErrEmptyCompanyKey},
		{name: "punctuation only", input: "&&&", expectedErr: ErrEmptyCompanyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCompanyKey(tt.input)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewCompanyRecord(t *testing.T) {
	metrics := ObservationSet{"ENV": {Confidence: 100, Score: 75}}
	record := NewCompanyRecord(
		metrics,
		"Apple",
		[]string{"Samsung", "Microsoft"},
		[]string{"Apple Inc."},
		[]string{"https://example.com/article"},
	)

	assert.Equal(t, metrics, record.Metrics)
	assert.Equal(t, "Apple", record.FullName)
	assert.Equal(t, []string{"Samsung", "Microsoft"}, record.Competitors)
	assert.Equal(t, []string{"Apple Inc."}, record.AltNames)
	assert.Equal(t, []string{"https://example.com/article"}, record.Sources)
	assert.NotZero(t, record.Date)
}
