package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyrag/internal/domain"
)

type stubAnswerer struct {
	answer domain.Answer
	err    error

	calls  int
	k      int
	ticker string
}

func (s *stubAnswerer) Answer(_ context.Context, _ string, k int, ticker string) (domain.Answer, error) {
	s.calls++
	s.k, s.ticker = k, ticker
	return s.answer, s.err
}

type stubHealth domain.HealthReport

func (h stubHealth) Check(context.Context) domain.HealthReport {
	return domain.HealthReport(h)
}

type aliases map[string]string

func (a aliases) Infer(q string) (string, bool) {
	t, ok := a[q]
	return t, ok
}

var errTransient = errors.New("connection refused")

func newTestServer(ans *stubAnswerer, opts Options) http.Handler {
	opts.Transient = func(err error) bool { return errors.Is(err, errTransient) }
	health := stubHealth{
		Database:   domain.ComponentStatus{Name: "database"},
		Generation: domain.ComponentStatus{Name: "ollama"},
	}
	return New(ans, health, aliases{"What are Alphabet's risks?": "GOOGL"}, opts, nil).Handler()
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRoot(t *testing.T) {
	rec := get(t, newTestServer(&stubAnswerer{}, Options{}), "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestAsk_ReturnsAnswerWithInferredTicker(t *testing.T) {
	ans := &stubAnswerer{answer: domain.Answer{
		Text:    "Test answer.",
		Sources: []domain.Source{{Ticker: "GOOGL"}},
	}}
	rec := get(t, newTestServer(ans, Options{}), "/ask?q=What+are+Alphabet%27s+risks%3F", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Test answer.", body["answer"])
	assert.Equal(t, float64(1), body["sources_count"])
	assert.Equal(t, "GOOGL", body["ticker_filter"])
	assert.Equal(t, 6, ans.k)
	assert.Equal(t, "GOOGL", ans.ticker)
}

func TestAsk_NullTickerFilter(t *testing.T) {
	ans := &stubAnswerer{answer: domain.Answer{Text: "A", Sources: []domain.Source{}}}
	rec := get(t, newTestServer(ans, Options{}), "/ask?q=test&k=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "ticker_filter")
	assert.Nil(t, body["ticker_filter"])
	assert.Equal(t, 10, ans.k)
}

func TestAsk_ExplicitTicker(t *testing.T) {
	ans := &stubAnswerer{}
	get(t, newTestServer(ans, Options{}), "/ask?q=What+are+Alphabet%27s+risks%3F&ticker=MSFT", nil)
	assert.Equal(t, "MSFT", ans.ticker)
}

func TestAsk_LowercaseTickerNormalized(t *testing.T) {
	ans := &stubAnswerer{answer: domain.Answer{Text: "A", Sources: []domain.Source{}}}
	rec := get(t, newTestServer(ans, Options{}), "/ask?q=revenue&ticker=aapl", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", ans.ticker)
	assert.Equal(t, "AAPL", decode(t, rec)["ticker_filter"])
}

func TestAsk_Validation(t *testing.T) {
	for _, target := range []string{
		"/ask",
		"/ask?q=",
		"/ask?q=%20%20",
		"/ask?q=x&k=0",
		"/ask?q=x&k=21",
		"/ask?q=x&k=abc",
	} {
		t.Run(target, func(t *testing.T) {
			ans := &stubAnswerer{}
			rec := get(t, newTestServer(ans, Options{}), target, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, float64(422), decode(t, rec)["code"])
			assert.Zero(t, ans.calls)
		})
	}
}

func TestAsk_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"transient", errTransient, http.StatusServiceUnavailable},
		{"wrapped transient", errors.Join(errors.New("generation failed"), errTransient), http.StatusServiceUnavailable},
		{"permanent", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(&stubAnswerer{err: tt.err}, Options{}), "/ask?q=x", nil)
			assert.Equal(t, tt.want, rec.Code)
			body := decode(t, rec)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestAsk_APIKey(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, Options{APIKey: "s3cret"})

	rec := get(t, h, "/ask?q=x", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(t, h, "/ask?q=x", http.Header{"X-Api-Key": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(t, h, "/ask?q=x", http.Header{"X-Api-Key": {"s3cret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health stays open")
}

func TestHealth(t *testing.T) {
	down := stubHealth{
		Database:   domain.ComponentStatus{Name: "database", Error: errors.New("connection refused")},
		Generation: domain.ComponentStatus{Name: "ollama"},
	}
	h := New(&stubAnswerer{}, down, nil, Options{}, nil).Handler()

	rec := get(t, h, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "connection refused", body["database"])
	assert.Equal(t, "ok", body["ollama"])

	rec = get(t, newTestServer(&stubAnswerer{}, Options{}), "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestRequestID(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, Options{})

	rec := get(t, h, "/", http.Header{"X-Request-Id": {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = get(t, h, "/", nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, Options{RateLimitRPS: 0.001, RateBurst: 2})

	assert.Equal(t, http.StatusOK, get(t, h, "/", nil).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/", nil).Code)

	rec := get(t, h, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := New(&stubAnswerer{}, stubHealth{}, nil, Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
