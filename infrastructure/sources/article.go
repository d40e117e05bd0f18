package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

// Article pipeline limits. Individual articles are truncated before
// prompting, and the combined prompt is bounded as a second line of
// defense against model context limits.
const (
	defaultMaxArticleChars = 10000
	defaultMaxPromptChars  = 30000
)

// defaultSearchRate paces search queries at one per second, matching the
// provider's per-second quota.
const defaultSearchRate = rate.Limit(1)

var _ ports.Source = (*ArticleSource)(nil)

// ArticleSource scores a company from recent news coverage: one web
// search per category, article fetch and text extraction, then LLM
// analysis of each category's articles. The per-category analysis sets
// are pre-combined with the same weighted mean used for the cross-source
// aggregate, so this source contributes a single observation set whose
// confidences reflect how much coverage each category actually received.
type ArticleSource struct {
	search     ports.SearchClient
	llmClient  ports.LLMClient
	categories domain.CategorySet
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *zap.Logger
	metrics    ports.MetricsCollector

	maxArticleChars int
	maxPromptChars  int
}

// ArticleConfig configures an ArticleSource.
type ArticleConfig struct {
	// Categories is the fixed category set used to build search queries
	// and the analysis prompt. Required.
	Categories domain.CategorySet
	// HTTPClient fetches article bodies; defaults to a 10s-timeout client.
	HTTPClient *http.Client
	// SearchRate paces search queries; zero uses one query per second.
	SearchRate rate.Limit
	// Retry overrides the default retry policy for search and LLM calls.
	Retry *RetryPolicy
	// MaxArticleChars truncates each article before prompting.
	MaxArticleChars int
	// MaxPromptChars bounds the combined article text per prompt.
	MaxPromptChars int
	// Metrics receives rejection and failure counters. Optional.
	Metrics ports.MetricsCollector
}

// NewArticleSource creates the search-and-analyze source.
func NewArticleSource(
	search ports.SearchClient,
	llmClient ports.LLMClient,
	config ArticleConfig,
	logger *zap.Logger,
) (*ArticleSource, error) {
	if search == nil {
		return nil, fmt.Errorf("search client is required")
	}
	if llmClient == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if config.Categories.Len() == 0 {
		return nil, fmt.Errorf("category set cannot be empty")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	searchRate := config.SearchRate
	if searchRate <= 0 {
		searchRate = defaultSearchRate
	}
	retry := DefaultRetryPolicy()
	if config.Retry != nil {
		retry = *config.Retry
	}
	maxArticleChars := config.MaxArticleChars
	if maxArticleChars <= 0 {
		maxArticleChars = defaultMaxArticleChars
	}
	maxPromptChars := config.MaxPromptChars
	if maxPromptChars <= 0 {
		maxPromptChars = defaultMaxPromptChars
	}

	return &ArticleSource{
		search:          search,
		llmClient:       llmClient,
		categories:      config.Categories,
		httpClient:      httpClient,
		limiter:         rate.NewLimiter(searchRate, 1),
		retry:           retry,
		logger:          logger,
		metrics:         config.Metrics,
		maxArticleChars: maxArticleChars,
		maxPromptChars:  maxPromptChars,
	}, nil
}

// Name implements ports.Source.
func (s *ArticleSource) Name() string { return "article_analysis" }

// Fetch implements ports.Source. Search or analysis failures for one
// category never block the others; the report holds whatever signal
// survived plus every consulted link.
func (s *ArticleSource) Fetch(ctx context.Context, company domain.Company) (ports.Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ArticleSource.Fetch")
	span.SetAttributes(attribute.String("company", company.Name))
	defer span.End()

	articlesByCategory, links, err := s.collectArticles(ctx, company)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ports.Report{}, err
	}

	var datasets []domain.ObservationSet
	for _, category := range sortedKeys(articlesByCategory) {
		set, analysisErr := s.analyzeArticles(ctx, company, category, articlesByCategory[category])
		if analysisErr != nil {
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, ctx.Err().Error())
				return ports.Report{}, ctx.Err()
			}
			s.logger.Warn("article analysis failed",
				zap.String("company", company.Name),
				zap.String("category", category),
				zap.Error(analysisErr))
			s.countFailure("analysis")
			continue
		}
		if len(set) > 0 {
			datasets = append(datasets, set)
		}
	}

	observations := domain.Aggregate(datasets...)
	span.SetAttributes(
		attribute.Int("links", len(links)),
		attribute.Int("observations", len(observations)),
	)
	return ports.Report{Observations: observations, Links: links}, nil
}

// collectArticles runs one search per category and fetches the article
// bodies, deduplicating links across categories.
func (s *ArticleSource) collectArticles(ctx context.Context, company domain.Company) (map[string][]string, []string, error) {
	articlesByCategory := make(map[string][]string)
	seen := make(map[string]bool)
	var links []string

	for _, code := range s.categories.Codes() {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		description, _ := s.categories.Description(code)
		query := fmt.Sprintf("%q %q", company.Name, description)

		var results []ports.SearchResult
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			var searchErr error
			results, searchErr = s.search.Search(ctx, query)
			return searchErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			s.logger.Warn("search failed",
				zap.String("company", company.Name),
				zap.String("category", code),
				zap.Error(err))
			s.countFailure("search")
			continue
		}

		for _, result := range results {
			if seen[result.Link] {
				continue
			}
			seen[result.Link] = true
			links = append(links, result.Link)

			text := s.fetchArticle(ctx, result.Link)
			if text == "" {
				continue
			}
			articlesByCategory[code] = append(articlesByCategory[code], truncateAtRune(text, s.maxArticleChars))
		}
	}

	return articlesByCategory, links, nil
}

// fetchArticle retrieves one article body and reduces it to plain text.
// Unreachable or unreadable pages yield an empty string.
func (s *ArticleSource) fetchArticle(ctx context.Context, link string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "ScorecardBot/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("article fetch failed", zap.String("link", link), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}
	return extractText(string(body))
}

// analyzeArticles asks the LLM to score the company across all categories
// given one category's articles, and normalizes the response.
func (s *ArticleSource) analyzeArticles(
	ctx context.Context,
	company domain.Company,
	category string,
	articles []string,
) (domain.ObservationSet, error) {
	combined := truncateAtRune(strings.Join(articles, "\n\n---\n\n"), s.maxPromptChars)

	description, _ := s.categories.Description(category)
	prompt := buildArticlePrompt(company.Name, description, combined, s.categories)

	var response string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var llmErr error
		response, llmErr = s.llmClient.Complete(ctx, prompt, map[string]any{
			"temperature": 0.0,
			"top_p":       0.1,
			"top_k":       1,
		})
		return llmErr
	})
	if err != nil {
		return nil, err
	}

	payload, err := extractJSONObject(response)
	if err != nil {
		return nil, err
	}
	return decodeObservations(payload, s.Name(), s.logger, s.metrics), nil
}

func (s *ArticleSource) countFailure(stage string) {
	if s.metrics != nil {
		s.metrics.RecordCounter("source_stage_failures_total", 1, map[string]string{
			"source": s.Name(),
			"stage":  stage,
		})
	}
}

// buildArticlePrompt renders the scoring instructions for one batch of
// articles. The model must answer with a single JSON object mapping
// category codes to [weight, score] pairs; weight expresses how strongly
// the articles relate to that category for this company (0-100), and
// score rates the company in the category (0 lasting damage, 50 neutral,
// 100 world leader). Categories the articles do not touch are omitted.
func buildArticlePrompt(companyName, searchTopic, articleText string, categories domain.CategorySet) string {
	var b strings.Builder
	b.WriteString("COMPANY NAME: ")
	b.WriteString(companyName)
	b.WriteString("\nSEARCH TOPIC: ")
	b.WriteString(searchTopic)
	b.WriteString("\n\nCATEGORIES:\n")
	for _, code := range categories.Codes() {
		description, _ := categories.Description(code)
		fmt.Fprintf(&b, "  %s: %s\n", code, description)
	}
	b.WriteString(`
For each category the article(s) below meaningfully discuss in regard to
the company named above, produce a [weight, score] pair. The weight is a
number from 0-100 expressing how strongly the article(s) relate to that
category for this company: 0 means the category is not mentioned at all,
100 means it is the only thing the article(s) talk about. The score rates
the company in that category from 0-100, where 50 means net-neutral
impact, 100 means the company is a world leader, and 0 means it is doing
extensive, lasting damage. Omit categories with weight 0.

Respond with exactly one JSON object and nothing else, for example:
{"ENV": [70, 35], "PAY": [20, 60]}

ARTICLE(S):
`)
	b.WriteString(articleText)
	return b.String()
}

// truncateAtRune cuts s to at most n bytes without splitting a multi-byte
// rune, backing up to the nearest rune boundary.
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
