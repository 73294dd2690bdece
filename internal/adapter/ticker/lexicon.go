// Package ticker infers a stock ticker from company names in free text.
package ticker

import "strings"

// Alias maps a lower-case company name fragment to its ticker.
type Alias struct {
	Alias  string `yaml:"alias"`
	Ticker string `yaml:"ticker"`
}

// Lexicon scans aliases in declaration order; the first match wins.
type Lexicon struct {
	aliases []Alias
}

// DefaultAliases lists the covered companies. Order matters: "alphabet"
// precedes "google", and both precede the rest.
func DefaultAliases() []Alias {
	return []Alias{
		{Alias: "alphabet", Ticker: "GOOGL"},
		{Alias: "google", Ticker: "GOOGL"},
		{Alias: "apple", Ticker: "AAPL"},
		{Alias: "microsoft", Ticker: "MSFT"},
		{Alias: "amazon", Ticker: "AMZN"},
		{Alias: "meta", Ticker: "META"},
		{Alias: "tesla", Ticker: "TSLA"},
		{Alias: "nvidia", Ticker: "NVDA"},
	}
}

func NewLexicon(aliases []Alias) *Lexicon {
	if len(aliases) == 0 {
		aliases = DefaultAliases()
	}
	normalized := make([]Alias, 0, len(aliases))
	for _, a := range aliases {
		name := strings.ToLower(strings.TrimSpace(a.Alias))
		if name == "" || a.Ticker == "" {
			continue
		}
		normalized = append(normalized, Alias{Alias: name, Ticker: strings.ToUpper(a.Ticker)})
	}
	return &Lexicon{aliases: normalized}
}

// Infer returns the ticker of the first alias contained in query.
// Matching is a plain substring test, so "metadata" matches "meta".
func (l *Lexicon) Infer(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, a := range l.aliases {
		if strings.Contains(q, a.Alias) {
			return a.Ticker, true
		}
	}
	return "", false
}
