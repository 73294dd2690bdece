package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyrag/internal/domain"
)

type scriptedAnswerer struct {
	answers map[string]string
	err     error
	tickers []string
}

func (s *scriptedAnswerer) Answer(_ context.Context, query string, _ int, ticker string) (domain.Answer, error) {
	s.tickers = append(s.tickers, ticker)
	if s.err != nil {
		return domain.Answer{}, s.err
	}
	return domain.Answer{
		Text:    s.answers[query],
		Sources: []domain.Source{{Ticker: ticker}},
	}, nil
}

func TestEval_Verdicts(t *testing.T) {
	ans := &scriptedAnswerer{answers: map[string]string{
		"apple revenue":  "Total net sales were $383 billion, driven by iPhone.",
		"nvidia risks":   "Export controls are a risk.",
		"tesla anything": "Something.",
	}}
	uc := NewEvalUseCase(ans, staticTickers{"nvidia risks": "NVDA"}, nil)

	results, err := uc.Run(context.Background(), []QAPair{
		{Q: "apple revenue", Ticker: "AAPL", ExpectedKeywords: []string{"IPHONE", "net sales"}},
		{Q: "nvidia risks", ExpectedKeywords: []string{"export", "supply chain"}},
		{Q: "tesla anything"},
	}, 6)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, VerdictPass, results[0].Verdict)
	assert.Equal(t, []string{"IPHONE", "net sales"}, results[0].KeywordsFound)

	assert.Equal(t, VerdictFail, results[1].Verdict)
	assert.Equal(t, "NVDA", results[1].Ticker)
	assert.Equal(t, []string{"supply chain"}, results[1].KeywordsMissed)

	assert.Equal(t, VerdictNA, results[2].Verdict)
	assert.Equal(t, []string{"AAPL", "NVDA", ""}, ans.tickers)

	s := uc.Summarize(results)
	assert.Equal(t, EvalSummary{Total: 3, Passed: 1, Failed: 1, NA: 1}, s)
}

func TestEval_StopsOnError(t *testing.T) {
	boom := errors.New("ollama down")
	uc := NewEvalUseCase(&scriptedAnswerer{err: boom}, nil, nil)

	results, err := uc.Run(context.Background(), []QAPair{{Q: "a"}, {Q: "b"}}, 6)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, results)
}

func TestLoadQAPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval_qa.json")
	data := `[{"q": "What was Apple's revenue?", "ticker": "AAPL", "expected_keywords": ["revenue"]},
	          {"q": "Risks?"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	pairs, err := LoadQAPairs(path)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "AAPL", pairs[0].Ticker)
	assert.Equal(t, []string{"revenue"}, pairs[0].ExpectedKeywords)
	assert.Empty(t, pairs[1].Ticker)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadQAPairs(path)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []EvalResult{{
		Question:       "q, with comma",
		Answer:         "line one\nline two",
		Ticker:         "AAPL",
		SourcesCount:   3,
		KeywordsFound:  []string{"a", "b"},
		KeywordsMissed: nil,
		Verdict:        VerdictPass,
	}})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"q, with comma", "line one\nline two", "AAPL", "3", "0.00", "PASS", "a, b", ""}, rows[1])
}
