package sources

import (
	"context"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

var (
	_ ports.Source   = (*StaticSource)(nil)
	_ ports.Enricher = (*StaticEnricher)(nil)
)

// StaticSource serves canned reports keyed by company name, with a
// fallback report for unknown companies. It stands in for the network
// sources in offline runs and in tests of the surrounding pipeline.
type StaticSource struct {
	name     string
	reports  map[string]ports.Report
	fallback ports.Report
}

// NewStaticSource creates a fixture source. The reports map may be nil,
// in which case every company receives the fallback report.
func NewStaticSource(name string, reports map[string]ports.Report, fallback ports.Report) *StaticSource {
	return &StaticSource{name: name, reports: reports, fallback: fallback}
}

// Name implements ports.Source.
func (s *StaticSource) Name() string { return s.name }

// Fetch implements ports.Source.
func (s *StaticSource) Fetch(ctx context.Context, company domain.Company) (ports.Report, error) {
	if err := ctx.Err(); err != nil {
		return ports.Report{}, err
	}
	if report, ok := s.reports[company.Name]; ok {
		return report, nil
	}
	return s.fallback, nil
}

// StaticEnricher serves fixed enrichment lists for every company.
type StaticEnricher struct {
	CompetitorNames []string
	OtherNames      []string
}

// Competitors implements ports.Enricher.
func (e *StaticEnricher) Competitors(ctx context.Context, company domain.Company) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), e.CompetitorNames...), nil
}

// AlternateNames implements ports.Enricher.
func (e *StaticEnricher) AlternateNames(ctx context.Context, company domain.Company) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), e.OtherNames...), nil
}

// OfflineFixtures returns the default offline-mode sources: a single
// static source producing a plausible mid-range observation set, plus a
// static enricher. Offline runs exercise the full aggregation and
// persistence path without touching the network.
func OfflineFixtures(categories domain.CategorySet) ([]ports.Source, ports.Enricher) {
	observations := make(domain.ObservationSet, categories.Len())
	for _, code := range categories.Codes() {
		observations[code] = domain.Observation{Confidence: 50, Score: 50}
	}
	source := NewStaticSource("offline_fixture", nil, ports.Report{
		Observations: observations,
		Links:        []string{"https://example.com/fixture"},
	})
	enricher := &StaticEnricher{
		CompetitorNames: []string{"Example Competitor"},
		OtherNames:      []string{"Example Alternate Name"},
	}
	return []ports.Source{source}, enricher
}
