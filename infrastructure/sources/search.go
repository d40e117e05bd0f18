package sources

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/openboycott/scorecard/infrastructure/llm"
	"github.com/openboycott/scorecard/internal/ports"
)

// GoogleSearchClient implements ports.SearchClient on Google's Custom
// Search JSON API.
type GoogleSearchClient struct {
	service         *customsearch.Service
	engineID        string
	errorClassifier *llm.ErrorClassifier
}

// NewGoogleSearchClient creates a search client for the given API key and
// programmable search engine ID.
func NewGoogleSearchClient(ctx context.Context, apiKey, engineID string) (*GoogleSearchClient, error) {
	if apiKey == "" {
		return nil, errors.New("search API key cannot be empty")
	}
	if engineID == "" {
		return nil, errors.New("search engine ID cannot be empty")
	}

	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}

	return &GoogleSearchClient{
		service:         service,
		engineID:        engineID,
		errorClassifier: &llm.ErrorClassifier{Provider: "customsearch"},
	}, nil
}

// Search runs one query and returns the result items. Rate-limit and
// server errors come back classified so the caller's retry policy can
// distinguish them from fatal request errors.
func (c *GoogleSearchClient) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	resp, err := c.service.Cse.List().Q(query).Cx(c.engineID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, c.errorClassifier.ClassifyHTTPError(apiErr.Code, apiErr.Message, err)
		}
		return nil, fmt.Errorf("custom search request failed: %w", err)
	}

	results := make([]ports.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, ports.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
