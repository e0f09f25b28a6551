// Package goplus fetches token security reports from the GoPlus API and maps
// them onto profile snapshots.
package goplus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/54b3r/rugcheck-go/internal/logging"
	"github.com/54b3r/rugcheck-go/internal/profile"
)

const (
	// DefaultBaseURL is the public GoPlus API.
	DefaultBaseURL = "https://api.gopluslabs.io"
	// DefaultChainID is Base mainnet.
	DefaultChainID = "8453"
	// DefaultRPS paces requests below the public API's free-tier limit.
	DefaultRPS = 0.5

	// codeOK is the GoPlus envelope code for success.
	codeOK = 1
	// maxBody caps how much of a response body is read.
	maxBody = 4 << 20
)

// ErrNotFound reports that GoPlus has no report for the address.
var ErrNotFound = errors.New("goplus: token not found")

// Config holds the client settings. Zero values select defaults.
type Config struct {
	// BaseURL is the API root (default: https://api.gopluslabs.io).
	BaseURL string
	// RPS is the sustained request rate (default 0.5).
	RPS float64
	// Timeout bounds each HTTP request (default 30s).
	Timeout time.Duration
	// HTTPClient overrides the HTTP client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client is a paced GoPlus token-security client. It is safe for
// concurrent use; the limiter is shared by all callers.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a Client from cfg.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = DefaultRPS
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: base,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// envelope is the GoPlus response wrapper.
type envelope struct {
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Result  map[string]json.RawMessage `json:"result"`
}

// TokenSecurity fetches the report for address on chainID and converts it to
// a snapshot ready for profile.Writer.
func (c *Client) TokenSecurity(ctx context.Context, chainID, address string) (*profile.Snapshot, error) {
	if chainID == "" {
		chainID = DefaultChainID
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("goplus: address must not be empty")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("goplus: rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/token_security/%s?contract_addresses=%s",
		c.baseURL, url.PathEscape(chainID), url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("goplus: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log := logging.FromContext(ctx)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("goplus: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("goplus: read response: %w", err)
	}
	log.Debug("goplus: response received",
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("goplus: HTTP %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("goplus: decode response: %w", err)
	}
	if env.Code != codeOK {
		return nil, fmt.Errorf("goplus: API error %d: %s", env.Code, env.Message)
	}

	raw, ok := lookup(env.Result, address)
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %s on chain %s", ErrNotFound, address, chainID)
	}
	snap, err := toSnapshot(raw)
	if err != nil {
		return nil, err
	}
	snap.Address = address
	snap.ChainID = chainID
	return snap, nil
}

// lookup finds address in result, which GoPlus keys by lowercase address.
func lookup(result map[string]json.RawMessage, address string) (json.RawMessage, bool) {
	if raw, ok := result[strings.ToLower(address)]; ok {
		return raw, true
	}
	for k, raw := range result {
		if strings.EqualFold(k, address) {
			return raw, true
		}
	}
	return nil, false
}
