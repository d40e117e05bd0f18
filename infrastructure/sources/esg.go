package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/openboycott/scorecard/infrastructure/llm"
	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

// DefaultESGBaseURL is the Financial Modeling Prep ESG disclosure endpoint.
const DefaultESGBaseURL = "https://financialmodelingprep.com/stable/esg-disclosures"

// Fixed confidences assigned to disclosure-derived observations. The
// environmental score is the disclosure's own subject and gets full
// weight; the social score only proxies for fair pay and gets half. Both
// live on the same 0-100 confidence scale every other source uses.
const (
	esgEnvironmentalConfidence = 100
	esgSocialConfidence        = 50
)

// Categories the disclosure maps onto.
const (
	esgEnvironmentalCategory = "ENV"
	esgSocialCategory        = "PAY"
)

var _ ports.Source = (*ESGSource)(nil)

// ESGSource derives observations from a company's ESG disclosure at
// Financial Modeling Prep. It contributes at most two categories:
// the environmental score and, as a fair-pay proxy, the social score.
type ESGSource struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	retry           RetryPolicy
	logger          *zap.Logger
	metrics         ports.MetricsCollector
	errorClassifier *llm.ErrorClassifier
}

// ESGConfig configures an ESGSource.
type ESGConfig struct {
	// BaseURL overrides the disclosure endpoint, mainly for tests.
	BaseURL string
	// APIKey authenticates requests. Required.
	APIKey string
	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
	// Retry overrides the default retry policy.
	Retry *RetryPolicy
	// Metrics receives rejection and failure counters. Optional.
	Metrics ports.MetricsCollector
}

// NewESGSource creates the disclosure-backed source.
func NewESGSource(config ESGConfig, logger *zap.Logger) (*ESGSource, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("ESG API key cannot be empty")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultESGBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	retry := DefaultRetryPolicy()
	if config.Retry != nil {
		retry = *config.Retry
	}

	return &ESGSource{
		baseURL:         baseURL,
		apiKey:          config.APIKey,
		httpClient:      httpClient,
		retry:           retry,
		logger:          logger,
		metrics:         config.Metrics,
		errorClassifier: &llm.ErrorClassifier{Provider: "fmp"},
	}, nil
}

// Name implements ports.Source.
func (s *ESGSource) Name() string { return "esg_disclosure" }

// esgDisclosure is the subset of the provider response we consume.
type esgDisclosure struct {
	EnvironmentalScore *float64 `json:"environmentalScore"`
	SocialScore        *float64 `json:"socialScore"`
}

// Fetch implements ports.Source. A symbol without disclosures yields an
// empty report, not an error.
func (s *ESGSource) Fetch(ctx context.Context, company domain.Company) (ports.Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ESGSource.Fetch")
	span.SetAttributes(attribute.String("company", company.Name))
	defer span.End()

	var disclosures []esgDisclosure
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var attemptErr error
		disclosures, attemptErr = s.fetchDisclosures(ctx, company.TickerSymbol())
		return attemptErr
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ports.Report{}, fmt.Errorf("ESG disclosure lookup for %q: %w", company.TickerSymbol(), err)
	}

	if len(disclosures) == 0 {
		s.logger.Info("no ESG disclosures found",
			zap.String("symbol", company.TickerSymbol()))
		return ports.Report{Observations: domain.ObservationSet{}}, nil
	}

	observations := make(domain.ObservationSet, 2)
	latest := disclosures[0]
	if latest.EnvironmentalScore != nil {
		observations[esgEnvironmentalCategory] = domain.Observation{
			Confidence: esgEnvironmentalConfidence,
			Score:      *latest.EnvironmentalScore,
		}
	}
	if latest.SocialScore != nil {
		observations[esgSocialCategory] = domain.Observation{
			Confidence: esgSocialConfidence,
			Score:      *latest.SocialScore,
		}
	}

	span.SetAttributes(attribute.Int("observations", len(observations)))
	return ports.Report{Observations: observations}, nil
}

func (s *ESGSource) fetchDisclosures(ctx context.Context, symbol string) ([]esgDisclosure, error) {
	endpoint := fmt.Sprintf("%s?symbol=%s&apikey=%s",
		s.baseURL, url.QueryEscape(symbol), url.QueryEscape(s.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building ESG request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ESG request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, s.errorClassifier.ClassifyHTTPError(resp.StatusCode, truncate(string(body), 120), nil)
	}

	var disclosures []esgDisclosure
	if err := json.NewDecoder(resp.Body).Decode(&disclosures); err != nil {
		return nil, fmt.Errorf("decoding ESG response: %w", err)
	}
	return disclosures, nil
}
