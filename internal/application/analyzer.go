package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

// ErrNoSources indicates an analyzer constructed without any sources.
var ErrNoSources = errors.New("at least one source is required")

// SkipFunc decides whether a company should be skipped before any source
// is consulted. existing is the stored record for the company's key, or
// nil when none exists.
type SkipFunc func(key string, existing *domain.CompanyRecord) bool

// SkipFresherThan skips companies whose stored record is younger than
// maxAge, so repeated runs only re-analyze stale entries.
func SkipFresherThan(maxAge time.Duration) SkipFunc {
	return func(key string, existing *domain.CompanyRecord) bool {
		if existing == nil {
			return false
		}
		return time.Since(time.Unix(existing.Date, 0)) < maxAge
	}
}

// AnalyzerConfig assembles an Analyzer's collaborators.
type AnalyzerConfig struct {
	// Sources produce the observation sets that feed the aggregate.
	// Required, at least one.
	Sources []ports.Source
	// Enricher supplies competitors and alternate names. Optional.
	Enricher ports.Enricher
	// Store persists the resulting records. Required.
	Store ports.RecordStore
	// Metrics receives analysis counters and gauges. Optional.
	Metrics ports.MetricsCollector
	// Parallelism bounds concurrent company analyses; values below one
	// run companies one at a time.
	Parallelism int
	// Skip, when set, short-circuits companies that do not need a fresh
	// analysis.
	Skip SkipFunc
}

// Analyzer runs the full pipeline for a batch of companies: fan out to
// every source, combine the observation sets into one weighted aggregate,
// attach enrichment metadata, and merge the records into the store.
type Analyzer struct {
	sources     []ports.Source
	enricher    ports.Enricher
	store       ports.RecordStore
	metrics     ports.MetricsCollector
	logger      *zap.Logger
	parallelism int
	skip        SkipFunc
}

// NewAnalyzer validates the configuration and creates an Analyzer.
func NewAnalyzer(config AnalyzerConfig, logger *zap.Logger) (*Analyzer, error) {
	if len(config.Sources) == 0 {
		return nil, ErrNoSources
	}
	if config.Store == nil {
		return nil, errors.New("record store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parallelism := config.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	return &Analyzer{
		sources:     config.Sources,
		enricher:    config.Enricher,
		store:       config.Store,
		metrics:     config.Metrics,
		logger:      logger,
		parallelism: parallelism,
		skip:        config.Skip,
	}, nil
}

// Run analyzes every company and merges the resulting records into the
// store. Source failures degrade to missing signal; a company producing
// no observations at all is left out of the merge so its prior record,
// if any, survives. The returned map holds only the records written by
// this run, keyed by normalized company identifier.
func (a *Analyzer) Run(ctx context.Context, companies []domain.Company) (map[string]domain.CompanyRecord, error) {
	existing, err := a.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading existing records: %w", err)
	}

	var mu sync.Mutex
	results := make(map[string]domain.CompanyRecord)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.parallelism)

	for _, company := range companies {
		key, keyErr := company.Key()
		if keyErr != nil {
			a.logger.Warn("skipping company with unusable name",
				zap.String("company", company.Name),
				zap.Error(keyErr))
			continue
		}
		if a.skip != nil {
			var prior *domain.CompanyRecord
			if record, ok := existing[key]; ok {
				prior = &record
			}
			if a.skip(key, prior) {
				a.logger.Info("skipping company", zap.String("key", key))
				a.count("companies_skipped_total", 1)
				continue
			}
		}

		group.Go(func() error {
			record, ok := a.analyzeCompany(groupCtx, company, key)
			if !ok {
				return groupCtx.Err()
			}
			mu.Lock()
			results[key] = record
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := a.store.Merge(ctx, results); err != nil {
		return nil, fmt.Errorf("persisting records: %w", err)
	}
	return results, nil
}

// analyzeCompany gathers every source's report for one company and builds
// its record. The second return is false when the company yielded no
// information and no record should be written.
func (a *Analyzer) analyzeCompany(ctx context.Context, company domain.Company, key string) (domain.CompanyRecord, bool) {
	start := time.Now()
	logger := a.logger.With(zap.String("company", company.Name), zap.String("key", key))

	var datasets []domain.ObservationSet
	var links []string
	for _, source := range a.sources {
		if ctx.Err() != nil {
			return domain.CompanyRecord{}, false
		}

		report, err := source.Fetch(ctx, company)
		if err != nil {
			logger.Warn("source failed",
				zap.String("source", source.Name()),
				zap.Error(err))
			if a.metrics != nil {
				a.metrics.RecordCounter("source_failures_total", 1, map[string]string{
					"source": source.Name(),
				})
			}
		}
		if len(report.Observations) > 0 {
			datasets = append(datasets, report.Observations)
		}
		links = append(links, report.Links...)
	}

	metrics := domain.Aggregate(datasets...)
	if len(metrics) == 0 {
		logger.Info("no observations gathered, leaving prior record untouched")
		a.count("companies_without_signal_total", 1)
		return domain.CompanyRecord{}, false
	}

	competitors, altNames := a.enrich(ctx, company, logger)
	record := domain.NewCompanyRecord(metrics, company.Name, competitors, altNames, dedupeLinks(links))

	if a.metrics != nil {
		a.metrics.RecordLatency("company_analysis", time.Since(start), nil)
		a.metrics.RecordGauge("aggregate_confidence", metrics.TotalConfidence(), map[string]string{
			"company": key,
		})
	}
	a.count("companies_analyzed_total", 1)
	logger.Info("company analyzed",
		zap.Int("categories", len(metrics)),
		zap.Int("sources_consulted", len(a.sources)),
		zap.Duration("elapsed", time.Since(start)))
	return record, true
}

// enrich gathers sidecar metadata; failures degrade to empty lists.
func (a *Analyzer) enrich(ctx context.Context, company domain.Company, logger *zap.Logger) (competitors, altNames []string) {
	if a.enricher == nil {
		return nil, nil
	}

	competitors, err := a.enricher.Competitors(ctx, company)
	if err != nil {
		logger.Warn("competitor enrichment failed", zap.Error(err))
		competitors = nil
	}
	altNames, err = a.enricher.AlternateNames(ctx, company)
	if err != nil {
		logger.Warn("alternate-name enrichment failed", zap.Error(err))
		altNames = nil
	}
	return competitors, altNames
}

func (a *Analyzer) count(metric string, value float64) {
	if a.metrics != nil {
		a.metrics.RecordCounter(metric, value, nil)
	}
}

func dedupeLinks(links []string) []string {
	if len(links) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}
