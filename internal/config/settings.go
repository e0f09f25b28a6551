package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/54b3r/rugcheck-go/internal/chunker"
	"github.com/54b3r/rugcheck-go/internal/profile"
)

// Default values for settings that have no env var set.
const (
	DefaultReferenceDocs   = "rugcheck.pdf,whatisarugpull.txt"
	DefaultTopK            = 4
	DefaultMode            = "qa"
	DefaultPromptMaxTokens = 6000
	DefaultQdrantPort      = 6334
	DefaultCheckTimeout    = 2 * time.Minute
)

// Settings is the resolved view of the environment used to assemble the
// pipeline. Backend-specific model and embedding settings are resolved by
// the provider and embedder packages.
type Settings struct {
	PostgresDSN string

	ReferenceDocs []string
	ChunkSize     int
	ChunkOverlap  int

	TopK            int
	MaxProfiles     int
	Mode            string
	PromptMaxTokens int

	// QdrantHost enables the embedding cache when non-empty.
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	QdrantAPIKey     string
	QdrantTLS        bool

	GoPlusBaseURL string
	GoPlusChainID string
	GoPlusRPS     float64

	HistoryDB string
}

// CacheEnabled reports whether the Qdrant embedding cache is configured.
func (s *Settings) CacheEnabled() bool { return s.QdrantHost != "" }

// FromEnv resolves Settings from the environment, applying defaults. It
// fails on values that are present but malformed.
func FromEnv() (*Settings, error) {
	s := &Settings{
		PostgresDSN:      os.Getenv("POSTGRES_CONNECTION_STRING"),
		ReferenceDocs:    splitList(envOr("REFERENCE_DOCS", DefaultReferenceDocs)),
		Mode:             strings.ToLower(envOr("RETRIEVAL_MODE", DefaultMode)),
		QdrantHost:       os.Getenv("QDRANT_HOST"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "rugcheck-embeddings"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		GoPlusBaseURL:    os.Getenv("GOPLUS_BASE_URL"),
		GoPlusChainID:    os.Getenv("GOPLUS_CHAIN_ID"),
		HistoryDB:        os.Getenv("RUGCHECK_HISTORY_DB"),
	}

	var err error
	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"CHUNK_SIZE", chunker.DefaultChunkSize, &s.ChunkSize},
		{"CHUNK_OVERLAP", chunker.DefaultChunkOverlap, &s.ChunkOverlap},
		{"RETRIEVAL_TOP_K", DefaultTopK, &s.TopK},
		{"RETRIEVAL_MAX_PROFILES", profile.DefaultLimit, &s.MaxProfiles},
		{"PROMPT_MAX_TOKENS", DefaultPromptMaxTokens, &s.PromptMaxTokens},
		{"QDRANT_PORT", DefaultQdrantPort, &s.QdrantPort},
	}
	for _, i := range ints {
		if *i.dest, err = envInt(i.key, i.def); err != nil {
			return nil, err
		}
	}

	if s.QdrantTLS, err = envBool("QDRANT_TLS"); err != nil {
		return nil, err
	}
	if v := os.Getenv("GOPLUS_RPS"); v != "" {
		if s.GoPlusRPS, err = strconv.ParseFloat(v, 64); err != nil || s.GoPlusRPS <= 0 {
			return nil, fmt.Errorf("config: GOPLUS_RPS must be a positive number, got %q", v)
		}
	}
	if len(s.ReferenceDocs) == 0 {
		return nil, fmt.Errorf("config: REFERENCE_DOCS must name at least one document")
	}
	return s, nil
}

// envOr returns the env var or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt parses a positive integer env var, returning def when unset.
func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("config: %s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

// envBool parses a boolean env var, returning false when unset.
func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean, got %q", key, v)
	}
	return b, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// floatStr converts a float to its shortest string form, returning "" for
// zero values.
func floatStr(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(float32Round(v), 'f', -1, 64)
}

// float32Round drops the float32 widening noise (0.3 -> 0.30000001192...).
func float32Round(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	return f
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
