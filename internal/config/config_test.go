package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	path, err := Load("/nonexistent/path/config.yaml", slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: azure
  max_tokens: 1024
  temperature: 0.3
  azure:
    endpoint: https://my-resource.openai.azure.com
    deployment: gpt-4o
    api_version: "2025-04-01-preview"
embedding:
  provider: ollama
  model: nomic-embed-text
postgres:
  connection_string: postgres://rug:secret@db:5432/tokens
corpus:
  documents: [rugcheck.pdf, notes/whatisarugpull.txt]
  chunk_size: 1024
retrieval:
  top_k: 6
  mode: explicit
goplus:
  chain_id: "56"
  rps: 0.25
history:
  db_path: disabled
logging:
  level: debug
  format: text
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	checks := map[string]string{
		"MODEL_PROVIDER":             "azure",
		"MODEL_MAX_TOKENS":           "1024",
		"MODEL_TEMPERATURE":          "0.3",
		"AZURE_OPENAI_ENDPOINT":      "https://my-resource.openai.azure.com",
		"AZURE_OPENAI_DEPLOYMENT":    "gpt-4o",
		"AZURE_OPENAI_API_VERSION":   "2025-04-01-preview",
		"EMBEDDING_PROVIDER":         "ollama",
		"EMBEDDING_MODEL":            "nomic-embed-text",
		"POSTGRES_CONNECTION_STRING": "postgres://rug:secret@db:5432/tokens",
		"REFERENCE_DOCS":             "rugcheck.pdf,notes/whatisarugpull.txt",
		"CHUNK_SIZE":                 "1024",
		"RETRIEVAL_TOP_K":            "6",
		"RETRIEVAL_MODE":             "explicit",
		"GOPLUS_CHAIN_ID":            "56",
		"GOPLUS_RPS":                 "0.25",
		"RUGCHECK_HISTORY_DB":        "disabled",
		"LOG_LEVEL":                  "debug",
		"LOG_FORMAT":                 "text",
	}
	keys := make([]string, 0, len(checks))
	for k := range checks {
		keys = append(keys, k)
	}
	clearEnv(t, keys...)

	loaded, err := Load(cfgPath, slog.Default())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	for k, want := range checks {
		if got := os.Getenv(k); got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: ollama
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MODEL_PROVIDER", "azure")

	if _, err := Load(cfgPath, slog.Default()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := os.Getenv("MODEL_PROVIDER"); got != "azure" {
		t.Errorf("MODEL_PROVIDER: expected env override %q, got %q", "azure", got)
	}
}

func TestLoad_ConfigEnvVar(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rug.yaml")
	if err := os.WriteFile(cfgPath, []byte("retrieval:\n  top_k: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RUGCHECK_CONFIG", cfgPath)
	clearEnv(t, "RETRIEVAL_TOP_K")

	loaded, err := Load("", slog.Default())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}
	if got := os.Getenv("RETRIEVAL_TOP_K"); got != "9" {
		t.Errorf("RETRIEVAL_TOP_K: got %q", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath, slog.Default()); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "POSTGRES_CONNECTION_STRING=postgres://from-dotenv\nOLLAMA_MODEL=mistral\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	clearEnv(t, "POSTGRES_CONNECTION_STRING")
	t.Setenv("OLLAMA_MODEL", "llama3")

	if err := LoadDotEnv(envPath, slog.Default()); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("POSTGRES_CONNECTION_STRING"); got != "postgres://from-dotenv" {
		t.Errorf("POSTGRES_CONNECTION_STRING: got %q", got)
	}
	if got := os.Getenv("OLLAMA_MODEL"); got != "llama3" {
		t.Errorf("OLLAMA_MODEL: .env must not override the environment, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	t.Parallel()

	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"), slog.Default()); err != nil {
		t.Errorf("missing .env should not be an error, got %v", err)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t,
		"POSTGRES_CONNECTION_STRING", "REFERENCE_DOCS", "CHUNK_SIZE", "CHUNK_OVERLAP",
		"RETRIEVAL_TOP_K", "RETRIEVAL_MAX_PROFILES", "RETRIEVAL_MODE", "PROMPT_MAX_TOKENS",
		"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION", "QDRANT_TLS", "GOPLUS_RPS",
	)

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !reflect.DeepEqual(s.ReferenceDocs, []string{"rugcheck.pdf", "whatisarugpull.txt"}) {
		t.Errorf("ReferenceDocs: got %v", s.ReferenceDocs)
	}
	if s.ChunkSize != 2048 || s.ChunkOverlap != 80 {
		t.Errorf("chunking: got %d/%d", s.ChunkSize, s.ChunkOverlap)
	}
	if s.TopK != 4 || s.MaxProfiles != 2 || s.Mode != "qa" || s.PromptMaxTokens != 6000 {
		t.Errorf("retrieval: got %+v", s)
	}
	if s.CacheEnabled() {
		t.Error("cache should be disabled without QDRANT_HOST")
	}
	if s.QdrantPort != 6334 {
		t.Errorf("QdrantPort: got %d", s.QdrantPort)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("REFERENCE_DOCS", " a.pdf , ,b.md ")
	t.Setenv("RETRIEVAL_MODE", "EXPLICIT")
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("QDRANT_TLS", "true")
	t.Setenv("GOPLUS_RPS", "2")

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !reflect.DeepEqual(s.ReferenceDocs, []string{"a.pdf", "b.md"}) {
		t.Errorf("ReferenceDocs: got %v", s.ReferenceDocs)
	}
	if s.Mode != "explicit" {
		t.Errorf("Mode: got %q", s.Mode)
	}
	if !s.CacheEnabled() || !s.QdrantTLS {
		t.Errorf("cache: got %+v", s)
	}
	if s.GoPlusRPS != 2 {
		t.Errorf("GoPlusRPS: got %v", s.GoPlusRPS)
	}
}

func TestFromEnv_Malformed(t *testing.T) {
	cases := map[string]string{
		"CHUNK_SIZE":      "big",
		"RETRIEVAL_TOP_K": "-1",
		"QDRANT_TLS":      "maybe",
		"GOPLUS_RPS":      "0",
		"REFERENCE_DOCS":  " , ",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := FromEnv(); err == nil {
				t.Errorf("%s=%q: expected error", key, val)
			}
		})
	}
}

func TestFloatStr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float64
		want string
	}{
		{0, ""},
		{float64(float32(0.2)), "0.2"},
		{float64(float32(0.75)), "0.75"},
		{1, "1"},
		{0.5, "0.5"},
	}
	for _, tt := range tests {
		if got := floatStr(tt.in); got != tt.want {
			t.Errorf("floatStr(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
