package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

// Verdict values for an evaluated question.
const (
	VerdictPass = "PASS"
	VerdictFail = "FAIL"
	VerdictNA   = "N/A"
)

// QAPair is one evaluation question. An empty Ticker is inferred from Q.
type QAPair struct {
	Q                string   `json:"q"`
	Ticker           string   `json:"ticker,omitempty"`
	ExpectedKeywords []string `json:"expected_keywords,omitempty"`
}

// EvalResult is the outcome of answering one QAPair.
type EvalResult struct {
	Question       string
	Answer         string
	Ticker         string
	SourcesCount   int
	Elapsed        time.Duration
	KeywordsFound  []string
	KeywordsMissed []string
	Verdict        string
}

// EvalSummary counts verdicts.
type EvalSummary struct {
	Total  int
	Passed int
	Failed int
	NA     int
}

// Answerer is satisfied by AnswerUseCase.
type Answerer interface {
	Answer(ctx context.Context, query string, k int, ticker string) (domain.Answer, error)
}

// EvalUseCase runs a fixed question set through the answer pipeline and
// checks each answer for expected keywords.
type EvalUseCase struct {
	answerer Answerer
	tickers  port.TickerInferer
	logger   *slog.Logger
}

func NewEvalUseCase(answerer Answerer, tickers port.TickerInferer, logger *slog.Logger) *EvalUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EvalUseCase{
		answerer: answerer,
		tickers:  tickers,
		logger:   logger,
	}
}

// LoadQAPairs reads a JSON array of QAPair from path.
func LoadQAPairs(path string) ([]QAPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pairs []QAPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return pairs, nil
}

// Run answers every pair in order. An answer failure stops the run and
// returns the results gathered so far.
func (u *EvalUseCase) Run(ctx context.Context, pairs []QAPair, k int) ([]EvalResult, error) {
	results := make([]EvalResult, 0, len(pairs))
	u.logger.Info("eval_start", "questions", len(pairs))

	for i, p := range pairs {
		ticker := ResolveTicker(u.tickers, p.Ticker, p.Q)
		u.logger.Info("eval_progress", "index", i+1, "total", len(pairs), "question", Preview(p.Q, 60))

		start := time.Now()
		ans, err := u.answerer.Answer(ctx, p.Q, k, ticker)
		if err != nil {
			return results, fmt.Errorf("question %d: %w", i+1, err)
		}
		elapsed := time.Since(start)
		u.logger.Info("eval_done", "index", i+1, "elapsed", elapsed.Round(100*time.Millisecond))

		found, missed := checkKeywords(ans.Text, p.ExpectedKeywords)
		results = append(results, EvalResult{
			Question:       p.Q,
			Answer:         ans.Text,
			Ticker:         ticker,
			SourcesCount:   len(ans.Sources),
			Elapsed:        elapsed,
			KeywordsFound:  found,
			KeywordsMissed: missed,
			Verdict:        verdict(p.ExpectedKeywords, missed),
		})
	}
	return results, nil
}

// Summarize counts verdicts and logs the report.
func (u *EvalUseCase) Summarize(results []EvalResult) EvalSummary {
	s := EvalSummary{Total: len(results)}
	for _, r := range results {
		switch r.Verdict {
		case VerdictPass:
			s.Passed++
		case VerdictFail:
			s.Failed++
		default:
			s.NA++
		}
	}

	u.logger.Info("eval_report", "total", s.Total, "passed", s.Passed, "failed", s.Failed, "no_check", s.NA)
	for i, r := range results {
		u.logger.Info("eval_result",
			"index", i+1,
			"question", r.Question,
			"ticker", r.Ticker,
			"sources", r.SourcesCount,
			"time_sec", r.Elapsed.Seconds(),
			"passed", r.Verdict,
			"answer_preview", Preview(r.Answer, 150),
		)
	}
	return s
}

var csvHeader = []string{
	"question", "answer", "ticker", "sources_count", "time_sec",
	"passed", "keywords_found", "keywords_missed",
}

// WriteCSV writes one row per result with a header row.
func WriteCSV(w io.Writer, results []EvalResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Question,
			r.Answer,
			r.Ticker,
			strconv.Itoa(r.SourcesCount),
			strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 2, 64),
			r.Verdict,
			strings.Join(r.KeywordsFound, ", "),
			strings.Join(r.KeywordsMissed, ", "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func checkKeywords(answer string, expected []string) (found, missed []string) {
	lower := strings.ToLower(answer)
	for _, kw := range expected {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		} else {
			missed = append(missed, kw)
		}
	}
	return found, missed
}

func verdict(expected, missed []string) string {
	switch {
	case len(expected) == 0:
		return VerdictNA
	case len(missed) == 0:
		return VerdictPass
	default:
		return VerdictFail
	}
}
