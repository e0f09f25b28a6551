package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/rugcheck-go/internal/checker"
	"github.com/54b3r/rugcheck-go/internal/history"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// CheckTimeout bounds one POST /check pipeline run (default: 2m).
	CheckTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency checks run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on POST /check
	// (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// History records answered checks. Optional.
	History history.Store
	// MetricsRegistry is where server metrics are registered. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Checker answers rug-check requests. *checker.Checker satisfies it; tests
// inject a fake.
type Checker interface {
	Check(ctx context.Context, req checker.Request) (*checker.Result, error)
}

// Server is the HTTP front end of the rug checker.
type Server struct {
	// checker runs the pipeline for POST /check.
	checker Checker
	// history records answered checks; nil disables it.
	history history.Store
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// handler is the fully wrapped mux served by httpServer.
	handler http.Handler
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency checks for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// checkRequest is the JSON body for POST /check.
type checkRequest struct {
	// Query is the free-text question. Required.
	Query string `json:"query"`
	// TokenAddress optionally restricts evidence to one token.
	TokenAddress string `json:"token_address,omitempty"`
	// Mode optionally selects the request shape ("qa" or "explicit").
	Mode string `json:"mode,omitempty"`
}

// sourceJSON is one retrieved chunk in a check response.
type sourceJSON struct {
	Text     string  `json:"text"`
	Origin   string  `json:"origin"`
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Score    float32 `json:"score"`
}

// checkResponse is the JSON response for POST /check.
type checkResponse struct {
	// Answer is the model's answer, unmodified.
	Answer string `json:"answer"`
	// Sources are the chunks the answer was grounded on, best first.
	Sources []sourceJSON `json:"sources"`
}

// errorResponse is the JSON body of every non-2xx response from POST /check.
type errorResponse struct {
	Error string `json:"error"`
}
