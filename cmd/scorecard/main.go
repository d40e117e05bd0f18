// Command scorecard analyzes the companies in a run configuration and
// merges the resulting records into the JSON record store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/openboycott/scorecard/infrastructure/llm"
	"github.com/openboycott/scorecard/infrastructure/middleware"
	"github.com/openboycott/scorecard/infrastructure/sources"
	"github.com/openboycott/scorecard/infrastructure/storage"
	"github.com/openboycott/scorecard/internal/application"
	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to the run configuration")
		offline    = flag.Bool("offline", false, "Use canned fixture data instead of live providers")
		maxAge     = flag.Duration("max-age", 0, "Skip companies analyzed more recently than this (0 analyzes everything)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is unactionable

	if err := run(*configPath, *offline, *maxAge, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(configPath string, offline bool, maxAge time.Duration, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	config, err := loader.LoadFromFile(configPath)
	if err != nil {
		return err
	}
	categories, err := config.CategorySet()
	if err != nil {
		return err
	}

	metrics := middleware.NewPrometheusMetrics(nil)

	store, err := storage.NewJSONStore(config.StorePath, logger)
	if err != nil {
		return err
	}

	var runSources []ports.Source
	var enricher ports.Enricher
	if offline {
		logger.Info("offline mode, using fixture data")
		runSources, enricher = sources.OfflineFixtures(categories)
	} else {
		runSources, enricher, err = buildLiveSources(ctx, config, categories, metrics, logger)
		if err != nil {
			return err
		}
	}

	analyzerConfig := application.AnalyzerConfig{
		Sources:     runSources,
		Enricher:    enricher,
		Store:       store,
		Metrics:     metrics,
		Parallelism: config.Parallelism,
	}
	if maxAge > 0 {
		analyzerConfig.Skip = application.SkipFresherThan(maxAge)
	}

	analyzer, err := application.NewAnalyzer(analyzerConfig, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := analyzer.Run(ctx, config.Companies)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.Int("companies_requested", len(config.Companies)),
		zap.Int("records_written", len(results)),
		zap.String("store", config.StorePath),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// buildLiveSources wires the provider-backed sources: grounded research
// always, the article pipeline when search credentials are configured,
// and the ESG disclosure source when its API key is present.
func buildLiveSources(
	ctx context.Context,
	config *application.Config,
	categories domain.CategorySet,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) ([]ports.Source, ports.Enricher, error) {
	if config.LLM.Provider == "" || config.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("llm provider and api_key are required unless running with -offline")
	}

	llmClient, err := buildLLMClient(config.LLM, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("building LLM client: %w", err)
	}

	retry := sources.DefaultRetryPolicy()
	if config.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = config.Retry.MaxAttempts
	}
	if baseWait, maxWait := config.Retry.RetryDurations(); baseWait > 0 || maxWait > 0 {
		if baseWait > 0 {
			retry.BaseDelay = baseWait
		}
		if maxWait > 0 {
			retry.MaxDelay = maxWait
		}
	}

	research, err := sources.NewGroundedResearchSource(llmClient, sources.ResearchConfig{
		Categories: categories,
		Retry:      &retry,
		Metrics:    metrics,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	runSources := []ports.Source{research}

	if config.ESG.APIKey != "" {
		esg, err := sources.NewESGSource(sources.ESGConfig{
			BaseURL: config.ESG.BaseURL,
			APIKey:  config.ESG.APIKey,
			Retry:   &retry,
			Metrics: metrics,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		runSources = append(runSources, esg)
	} else {
		logger.Info("no ESG API key configured, skipping disclosure source")
	}

	if config.Search.APIKey != "" {
		searchClient, err := sources.NewGoogleSearchClient(ctx, config.Search.APIKey, config.Search.EngineID)
		if err != nil {
			return nil, nil, err
		}
		articles, err := sources.NewArticleSource(searchClient, llmClient, sources.ArticleConfig{
			Categories: categories,
			Retry:      &retry,
			Metrics:    metrics,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		runSources = append(runSources, articles)
	} else {
		logger.Info("no search API key configured, skipping article source")
	}

	enricher, err := sources.NewLLMEnricher(llmClient, &retry, logger)
	if err != nil {
		return nil, nil, err
	}
	return runSources, enricher, nil
}

// buildLLMClient assembles the shared completion client with metrics and
// request pacing applied as middleware.
func buildLLMClient(config application.LLMConfig, metrics ports.MetricsCollector) (ports.LLMClient, error) {
	var chain []llm.Middleware
	if metrics != nil {
		chain = append(chain, llm.MetricsMiddleware(metrics))
	}
	if config.RequestsPerMinute > 0 {
		limit := rate.Limit(float64(config.RequestsPerMinute) / 60.0)
		chain = append(chain, llm.RateLimitMiddleware(limit, 1))
	}

	timeout := 2 * time.Minute
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return llm.NewClient(config.Provider, llm.ClientConfig{
		APIKey:     config.APIKey,
		Model:      config.Model,
		Timeout:    timeout,
		Middleware: chain,
	})
}
