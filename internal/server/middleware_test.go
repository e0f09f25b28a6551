package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/54b3r/rugcheck-go/internal/logging"
)

func TestRequestLogger_AssignsID(t *testing.T) {
	t.Parallel()

	var seen *slog.Logger
	h := requestLogger(quietLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if _, err := uuid.Parse(w.Header().Get(requestIDHeader)); err != nil {
		t.Errorf("response %s is not a UUID: %v", requestIDHeader, err)
	}
	if seen == nil || seen == slog.Default() {
		t.Error("handler should receive a request-scoped logger")
	}
}

func TestRequestLogger_ReusesCallerID(t *testing.T) {
	t.Parallel()

	const id = "6f1c7e0a-2f59-4a38-9d3c-1b1f3f4b5a6c"
	cases := map[string]bool{
		id:                   true,
		"not-a-uuid":         false,
		"":                   false,
		"<script>x</script>": false,
	}
	for in, reused := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, in)
		got := requestID(req)
		if reused && got != id {
			t.Errorf("%q: want caller ID reused, got %q", in, got)
		}
		if !reused && got == in {
			t.Errorf("%q: malformed ID must be replaced", in)
		}
	}
}

func TestRequestLogger_LogsOutcome(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	h := requestLogger(base, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/check", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["level"] != "WARN" {
		t.Errorf("5xx should log at WARN, got %v", entry["level"])
	}
	if entry["status"] != float64(http.StatusBadGateway) || entry["bytes"] != float64(len("upstream")) {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["path"] != "/check" || entry["method"] != http.MethodPost {
		t.Errorf("request attrs missing: %v", entry)
	}
}
