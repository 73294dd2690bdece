package usecase

import (
	"strconv"
	"strings"
	"text/template"

	"tinyrag/internal/domain"
)

// contextSeparator sits between numbered passages.
const contextSeparator = "\n\n---\n\n"

var promptTemplate = template.Must(template.New("rag").Parse(
	`Use the following context to answer the question. Cite sources with [1], [2], etc.

Context:
{{.Context}}

Question: {{.Query}}

Answer (with citations):`))

type promptData struct {
	Context string
	Query   string
}

// ComposePrompt numbers the passages from 1 in the order given, so [i]
// cites the i-th retrieved passage. Length is not checked.
func ComposePrompt(query string, contexts []domain.ContextResult) string {
	parts := make([]string, len(contexts))
	for i, c := range contexts {
		ticker := c.Ticker
		if ticker == "" {
			ticker = "?"
		}
		parts[i] = "[" + strconv.Itoa(i+1) + "] (" + ticker + ")\n" + strings.TrimSpace(c.Content)
	}

	var b strings.Builder
	// The template is constant and the data is plain strings; Execute
	// cannot fail on a strings.Builder.
	_ = promptTemplate.Execute(&b, promptData{
		Context: strings.Join(parts, contextSeparator),
		Query:   query,
	})
	return b.String()
}
