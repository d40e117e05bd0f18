package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

var _ ports.Enricher = (*LLMEnricher)(nil)

// backtickList matches the single-backtick-wrapped answer the enrichment
// prompts demand, so chatter around the list can be discarded.
var backtickList = regexp.MustCompile("`([^`]+)`")

// nearDuplicateDistance is the maximum edit distance (on case-folded
// names) at which two entries are considered the same company.
const nearDuplicateDistance = 2

// LLMEnricher fills in the contextual fields of a company record that no
// structured feed provides: who the company competes with, and what other
// names it trades under.
type LLMEnricher struct {
	llmClient ports.LLMClient
	retry     RetryPolicy
	logger    *zap.Logger
}

// NewLLMEnricher creates an enricher backed by the given client.
func NewLLMEnricher(llmClient ports.LLMClient, retry *RetryPolicy, logger *zap.Logger) (*LLMEnricher, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	policy := DefaultRetryPolicy()
	if retry != nil {
		policy = *retry
	}
	return &LLMEnricher{
		llmClient: llmClient,
		retry:     policy,
		logger:    logger,
	}, nil
}

// Competitors implements ports.Enricher.
func (e *LLMEnricher) Competitors(ctx context.Context, company domain.Company) ([]string, error) {
	prompt := fmt.Sprintf(
		"List between 1 and 10 major competitors of the company %q. "+
			"Respond with only a comma-separated list of company names "+
			"wrapped in single backticks, for example: `Acme Corp, Globex, Initech`. "+
			"If the company has no notable competitors, respond with `none`.",
		company.Name,
	)
	return e.askForList(ctx, company, prompt, "competitors")
}

// AlternateNames implements ports.Enricher.
func (e *LLMEnricher) AlternateNames(ctx context.Context, company domain.Company) ([]string, error) {
	prompt := fmt.Sprintf(
		"List the alternate names, former names, common abbreviations, and "+
			"well-known consumer brand names of the company %q. "+
			"Respond with only a comma-separated list wrapped in single "+
			"backticks, for example: `Acme, Acme Corporation, ACME Holdings`. "+
			"If there are none, respond with `none`.",
		company.Name,
	)
	return e.askForList(ctx, company, prompt, "alternate names")
}

func (e *LLMEnricher) askForList(ctx context.Context, company domain.Company, prompt, what string) ([]string, error) {
	var response string
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		var llmErr error
		response, llmErr = e.llmClient.Complete(ctx, prompt, map[string]any{
			"temperature": 0.0,
		})
		return llmErr
	})
	if err != nil {
		return nil, fmt.Errorf("requesting %s for %q: %w", what, company.Name, err)
	}

	names := e.parseList(response, company.Name)
	e.logger.Debug("enrichment list parsed",
		zap.String("company", company.Name),
		zap.String("field", what),
		zap.Int("count", len(names)))
	return names, nil
}

// parseList extracts the backtick-wrapped list, splits on commas, and
// drops empties, "none", the company's own name, and near-duplicate
// entries left over from model repetition.
func (e *LLMEnricher) parseList(response, companyName string) []string {
	match := backtickList.FindStringSubmatch(response)
	if match == nil {
		return nil
	}

	// Casers carry internal state, so each call folds with its own.
	fold := cases.Fold()
	foldedCompany := fold.String(companyName)
	var names []string
	var folded []string

	for _, part := range strings.Split(match[1], ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		foldedName := fold.String(name)
		if foldedName == "none" || foldedName == foldedCompany {
			continue
		}
		duplicate := false
		for _, existing := range folded {
			if levenshtein.ComputeDistance(existing, foldedName) <= nearDuplicateDistance {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		names = append(names, name)
		folded = append(folded, foldedName)
	}
	return names
}
