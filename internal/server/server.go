// Package server exposes the answer pipeline over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
	"tinyrag/internal/usecase"
)

// Answerer produces a cited answer for a question.
type Answerer interface {
	Answer(ctx context.Context, query string, k int, ticker string) (domain.Answer, error)
}

// HealthChecker probes the backing services.
type HealthChecker interface {
	Check(ctx context.Context) domain.HealthReport
}

// Options configure a Server. Zero values disable the API key and the rate
// limit.
type Options struct {
	APIKey       string
	RateLimitRPS float64
	RateBurst    int
	DefaultK     int
	MaxK         int

	// Transient reports whether a failure is worth retrying later. Such
	// failures are answered with 503 instead of 500.
	Transient func(error) bool
}

type Server struct {
	answerer Answerer
	health   HealthChecker
	tickers  port.TickerInferer
	opts     Options
	logger   *slog.Logger
}

func New(answerer Answerer, health HealthChecker, tickers port.TickerInferer, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = 6
	}
	if opts.MaxK <= 0 {
		opts.MaxK = 20
	}
	if opts.Transient == nil {
		opts.Transient = func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }
	}
	return &Server{
		answerer: answerer,
		health:   health,
		tickers:  tickers,
		opts:     opts,
		logger:   logger,
	}
}

// Handler returns the routed handler wrapped in request-id, access-log and
// rate-limit middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.Handle("GET /ask", s.requireAPIKey(http.HandlerFunc(s.handleAsk)))
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.logMiddleware(s.rateLimitMiddleware(mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.logger.Info("server_start", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.logger.Info("server_shutdown")
		return srv.Shutdown(shutdownCtx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type askResponse struct {
	Answer       string  `json:"answer"`
	SourcesCount int     `json:"sources_count"`
	TickerFilter *string `json:"ticker_filter"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := strings.TrimSpace(params.Get("q"))
	if q == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "q is required")
		return
	}

	k := s.opts.DefaultK
	if raw := params.Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.opts.MaxK {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request",
				"k must be an integer between 1 and "+strconv.Itoa(s.opts.MaxK))
			return
		}
		k = n
	}

	ticker := usecase.ResolveTicker(s.tickers, strings.TrimSpace(params.Get("ticker")), q)

	ans, err := s.answerer.Answer(r.Context(), q, k, ticker)
	if err != nil {
		s.logger.Error("ask_failed", "req_id", requestID(r.Context()), "error", err)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		case s.opts.Transient(err):
			writeError(w, http.StatusServiceUnavailable, "unavailable", "backend temporarily unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to answer question")
		}
		return
	}

	resp := askResponse{Answer: ans.Text, SourcesCount: len(ans.Sources)}
	if ticker != "" {
		resp.TickerFilter = &ticker
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status, code := "healthy", http.StatusOK
	if !report.Healthy() {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status":   status,
		"database": componentMessage(report.Database),
		"ollama":   componentMessage(report.Generation),
	})
}

func componentMessage(c domain.ComponentStatus) string {
	if c.OK() {
		return "ok"
	}
	return c.Error.Error()
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	if s.opts.APIKey == "" {
		return next
	}
	want := []byte(s.opts.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("X-API-Key"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.opts.RateLimitRPS <= 0 {
		return next
	}
	burst := max(s.opts.RateBurst, 1)
	limiter := rate.NewLimiter(rate.Limit(s.opts.RateLimitRPS), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	nbytes int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.nbytes += n
	return n, err
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqID)))

		s.logger.Info("http_request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", rec.nbytes,
			"remote", r.RemoteAddr,
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, errStr, message string) {
	writeJSON(w, status, apiError{Error: errStr, Message: message, Code: status})
}
