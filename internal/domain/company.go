package domain

// Company identifies one company to analyze. Name is the display name fed
// to search queries and prompts; Symbol is the stock ticker used by
// financial-disclosure lookups and defaults to Name when unset.
type Company struct {
	Name   string `yaml:"name" json:"name" validate:"required,min=1"`
	Symbol string `yaml:"symbol,omitempty" json:"symbol,omitempty"`
}

// TickerSymbol returns the symbol to use for financial data lookups.
func (c Company) TickerSymbol() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	return c.Name
}

// Key returns the normalized identifier under which this company's record
// is stored.
func (c Company) Key() (string, error) { return NormalizeCompanyKey(c.Name) }
