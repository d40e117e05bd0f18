// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer. These interfaces
// enable dependency inversion and make the analysis pipeline testable
// without live providers.
package ports

import (
	"context"

	"github.com/openboycott/scorecard/internal/domain"
)

// Report is the result of one source call for one company: the source's
// observations plus the URLs it consulted, if any. Either part may be
// empty; an empty report simply contributes nothing to the aggregate.
type Report struct {
	// Observations maps category codes to the source's opinions.
	Observations domain.ObservationSet

	// Links lists the URLs the source consulted, deduplicated. Sources
	// without a browsable trail leave this nil.
	Links []string
}

// Source produces observation sets from one external data source, such as
// a web-search pipeline, a financial ESG API, or a grounded LLM.
//
// Implementations must degrade rather than fail: provider errors such as
// network failures, quota exhaustion, or malformed responses are absorbed
// after the source's own retry policy is spent, and an empty Report is
// returned. A returned error is diagnostic; the analyzer logs and counts
// it but still scores the company from whichever sources succeeded.
// Confidence values are expected on a 0-100 scale comparable across
// sources.
type Source interface {
	// Name returns a stable identifier for this source, used in logs,
	// metrics labels, and trace spans.
	Name() string

	// Fetch gathers this source's observations for one company.
	// Implementations must respect context cancellation between provider
	// calls and backoff sleeps.
	Fetch(ctx context.Context, company domain.Company) (Report, error)
}

// Enricher supplies the sidecar metadata attached to a company record.
// Like Source, implementations degrade to empty results on failure.
type Enricher interface {
	// Competitors returns competitor or product entities for the company.
	Competitors(ctx context.Context, company domain.Company) ([]string, error)

	// AlternateNames returns other names the company operates under.
	AlternateNames(ctx context.Context, company domain.Company) ([]string, error)
}
