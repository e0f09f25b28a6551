package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
)

func TestSanitiseKey_Secret(t *testing.T) {
	t.Parallel()
	if got := SanitiseKey("OPENAI_API_KEY", "sk-abc123"); got != "set" {
		t.Errorf("expected 'set', got %q", got)
	}
	if got := SanitiseKey("OPENAI_API_KEY", ""); got != "unset" {
		t.Errorf("expected 'unset', got %q", got)
	}
}

func TestSanitiseKey_PostgresDSNIsSecret(t *testing.T) {
	t.Parallel()
	if got := SanitiseKey("POSTGRES_CONNECTION_STRING", "postgres://rug:hunter2@db/tokens"); got != "set" {
		t.Errorf("connection string must be redacted, got %q", got)
	}
}

func TestSanitiseKey_NonSecret(t *testing.T) {
	t.Parallel()
	if got := SanitiseKey("MODEL_PROVIDER", "azure"); got != "azure" {
		t.Errorf("expected 'azure', got %q", got)
	}
	if got := SanitiseKey("MODEL_PROVIDER", ""); got != "unset" {
		t.Errorf("expected 'unset', got %q", got)
	}
}

func TestDisplayPath(t *testing.T) {
	t.Parallel()
	if got := displayPath(""); got != "none" {
		t.Errorf("expected 'none', got %q", got)
	}
	if got := displayPath("/tmp/config.yaml"); got != "/tmp/config.yaml" {
		t.Errorf("expected '/tmp/config.yaml', got %q", got)
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "/" {
		p := home + "/.rugcheck/config.yaml"
		if got := displayPath(p); got != "~/.rugcheck/config.yaml" {
			t.Errorf("expected '~/.rugcheck/config.yaml', got %q", got)
		}
	}
}

func TestAuditKeysMarkedSecretAreRedacted(t *testing.T) {
	t.Parallel()
	for _, k := range auditKeys {
		if k.secret != secretKeys[k.name] {
			t.Errorf("%s: audit secret=%v but SanitiseKey secret=%v", k.name, k.secret, secretKeys[k.name])
		}
	}
	if !secretKeys["AWS_SECRET_ACCESS_KEY"] {
		t.Error("unaudited credentials must still be redacted")
	}
}

func TestLogCommandStart_RedactsSecrets(t *testing.T) {
	t.Setenv("POSTGRES_CONNECTION_STRING", "postgres://rug:hunter2@db/tokens")
	t.Setenv("MODEL_PROVIDER", "ollama")

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	LogCommandStart(context.Background(), log, "check", "")

	if bytes.Contains(buf.Bytes(), []byte("hunter2")) {
		t.Fatalf("secret leaked into audit log: %s", buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode audit entry: %v", err)
	}
	if entry["command"] != "check" {
		t.Errorf("command: got %v", entry["command"])
	}
	if entry["POSTGRES_CONNECTION_STRING"] != "set" {
		t.Errorf("POSTGRES_CONNECTION_STRING: got %v", entry["POSTGRES_CONNECTION_STRING"])
	}
	if entry["MODEL_PROVIDER"] != "ollama" {
		t.Errorf("MODEL_PROVIDER: got %v", entry["MODEL_PROVIDER"])
	}
	if entry["config_file"] != "none" {
		t.Errorf("config_file: got %v", entry["config_file"])
	}
}
