// Package server implements the HTTP front end of the rug checker. It exposes
// POST /check plus liveness, readiness, and Prometheus endpoints, and is
// started by the `rugcheck serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/rugcheck-go/internal/checker"
	"github.com/54b3r/rugcheck-go/internal/history"
	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/profile"
	"github.com/54b3r/rugcheck-go/internal/prompt"
	"github.com/54b3r/rugcheck-go/internal/rag"
	"github.com/54b3r/rugcheck-go/internal/synth"
)

// maxRequestBody caps the size of a POST /check body.
const maxRequestBody = 1 << 20

// New constructs a Server from the provided checker and config.
func New(c Checker, cfg *Config) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("server: checker must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must outlast the slowest check.
		cfg.WriteTimeout = cfg.CheckTimeout + 30*time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		checker: c,
		history: cfg.History,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stop

	mux := http.NewServeMux()
	mux.Handle("POST /check", s.instrument("check", rl.middleware(http.HandlerFunc(s.handleCheck))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	s.handler = requestLogger(cfg.Logger, mux)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("rugcheck server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleCheck handles POST /check. It runs the full pipeline for one
// question and returns the answer with its sources, or a JSON error.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req checkRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.checkRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, log, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.metrics.checkRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, log, http.StatusBadRequest, "query is required")
		return
	}

	s.metrics.checkInFlight.Inc()
	defer s.metrics.checkInFlight.Dec()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CheckTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.checker.Check(ctx, checker.Request{
		Question:     req.Query,
		TokenAddress: req.TokenAddress,
		Mode:         checker.Mode(req.Mode),
	})
	elapsed := time.Since(start)

	if err != nil {
		status, outcome, msg := classify(err)
		s.metrics.checkRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.checkDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
		log.Error("check failed",
			slog.String("outcome", outcome),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		writeError(w, log, status, msg)
		return
	}

	s.metrics.checkRequestsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.checkDurationSeconds.WithLabelValues(outcomeOK).Observe(elapsed.Seconds())
	s.metrics.observeStages(res.Timings)
	s.metrics.checkSources.Observe(float64(len(res.Answer.Sources)))

	s.record(r.Context(), req, res, elapsed)

	resp := checkResponse{Answer: res.Answer.Text, Sources: make([]sourceJSON, 0, len(res.Answer.Sources))}
	for _, h := range res.Answer.Sources {
		resp.Sources = append(resp.Sources, sourceJSON{
			Text:     h.Chunk.Text,
			Origin:   string(h.Chunk.Origin),
			Source:   h.Chunk.Source,
			Position: h.Chunk.Position,
			Score:    h.Score,
		})
	}
	writeJSON(w, log, http.StatusOK, resp)
}

// record appends the answered check to history. Failures are logged only.
func (s *Server) record(ctx context.Context, req checkRequest, res *checker.Result, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	err := s.history.Append(ctx, history.Entry{
		Question:     req.Query,
		TokenAddress: req.TokenAddress,
		Mode:         string(res.Mode),
		Answer:       res.Answer.Text,
		Sources:      len(res.Answer.Sources),
		Profiles:     res.Profiles,
		Duration:     elapsed,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("history append failed", slog.Any("error", err))
	}
}

// classify maps a pipeline error to an HTTP status, a metrics outcome, and
// the message returned to the client. Only request errors echo their detail;
// every other outcome gets a fixed message because the wrapped chain can name
// backend hosts or connection settings. Timeouts are checked first because
// generation and embedding failures wrap their cause.
func classify(err error) (status int, outcome, msg string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, outcomeTimeout, "check timed out"
	case errors.Is(err, checker.ErrInvalidRequest), errors.Is(err, prompt.ErrPromptOverflow):
		return http.StatusBadRequest, outcomeInvalid, err.Error()
	case errors.Is(err, rag.ErrEmbedding):
		return http.StatusBadGateway, outcomeUpstream, "embedding backend failed"
	case errors.Is(err, synth.ErrGeneration):
		return http.StatusBadGateway, outcomeUpstream, "model backend failed"
	case errors.Is(err, profile.ErrDataSource):
		return http.StatusServiceUnavailable, outcomeUnavailable, "token profile store unavailable"
	default:
		return http.StatusInternalServerError, outcomeError, "internal error"
	}
}
