package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// CompanyRecord is the immutable result of one analysis run for one
// company: the aggregated metrics plus sidecar metadata. Records are
// created once per run and merged into the store keyed by the normalized
// company identifier, overwriting any prior record for the same key.
type CompanyRecord struct {
	// Metrics maps category codes to aggregated
	// [total_confidence, weighted_score] observations.
	Metrics ObservationSet `json:"metrics"`

	// FullName is the company's display name as it was given to the run.
	FullName string `json:"full_name"`

	// Competitors lists competitor or product entities discovered during
	// enrichment.
	Competitors []string `json:"competitors"`

	// AltNames lists alternate names the company operates under.
	AltNames []string `json:"alt_names"`

	// Sources lists the URLs consulted while gathering observations.
	Sources []string `json:"sources"`

	// Date is the completion time of the analysis in epoch seconds.
	Date int64 `json:"date"`
}

// NewCompanyRecord assembles a record from an aggregated result and its
// metadata, stamped with the current time.
func NewCompanyRecord(metrics ObservationSet, fullName string, competitors, altNames, sources []string) CompanyRecord {
	return CompanyRecord{
		Metrics:     metrics,
		FullName:    fullName,
		Competitors: competitors,
		AltNames:    altNames,
		Sources:     sources,
		Date:        time.Now().Unix(),
	}
}

// NormalizeCompanyKey reduces a company name to the stable identifier used
// to key records in the store: Unicode case folding followed by removal of
// everything outside [a-z0-9]. "Ben & Jerry's" and "ben and jerrys" do not
// collide, but spacing, punctuation, and case variants of the same name do.
func NormalizeCompanyKey(name string) (string, error) {
	// Folding rather than lowercasing keeps keys stable for names like
	// "İstanbul Tekstil". Casers carry state, so build one per call.
	folded := cases.Fold().String(name)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyCompanyKey
	}
	return b.String(), nil
}
