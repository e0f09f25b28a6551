// Package audit emits one structured log entry per CLI command invocation,
// recording the command, the config file in use, and the operational
// environment. Secrets are logged as "set" or "unset", never by value.
package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// envKey is one environment variable recorded in the audit entry.
type envKey struct {
	name   string
	secret bool
}

// auditKeys is the ordered set of variables in every audit entry. The
// Postgres DSN counts as a secret because it embeds the password.
var auditKeys = []envKey{
	{"MODEL_PROVIDER", false},
	{"OLLAMA_HOST", false},
	{"OLLAMA_MODEL", false},
	{"OPENAI_API_KEY", true},
	{"OPENAI_MODEL", false},
	{"AZURE_OPENAI_API_KEY", true},
	{"AZURE_OPENAI_ENDPOINT", false},
	{"AZURE_OPENAI_DEPLOYMENT", false},
	{"GOOGLE_API_KEY", true},
	{"GEMINI_MODEL", false},
	{"AWS_REGION", false},
	{"BEDROCK_MODEL_ID", false},
	{"EMBEDDING_PROVIDER", false},
	{"EMBEDDING_MODEL", false},
	{"EMBEDDING_API_KEY", true},
	{"POSTGRES_CONNECTION_STRING", true},
	{"REFERENCE_DOCS", false},
	{"RETRIEVAL_MODE", false},
	{"RETRIEVAL_TOP_K", false},
	{"QDRANT_HOST", false},
	{"QDRANT_COLLECTION", false},
	{"QDRANT_API_KEY", true},
	{"GOPLUS_CHAIN_ID", false},
	{"RUGCHECK_HISTORY_DB", false},
	{"LOG_LEVEL", false},
	{"LANGFUSE_PUBLIC_KEY", true},
	{"LANGFUSE_SECRET_KEY", true},
}

// secretKeys holds every secret in auditKeys plus credentials that are read
// by backends but never audited.
var secretKeys = func() map[string]bool {
	m := map[string]bool{
		"BEDROCK_API_KEY":       true,
		"AWS_SECRET_ACCESS_KEY": true,
		"AWS_SESSION_TOKEN":     true,
	}
	for _, k := range auditKeys {
		if k.secret {
			m[k.name] = true
		}
	}
	return m
}()

// LogCommandStart logs the command name, the config file it loaded, and the
// audited environment at info level.
func LogCommandStart(ctx context.Context, log *slog.Logger, command, configPath string) {
	attrs := make([]slog.Attr, 0, len(auditKeys)+2)
	attrs = append(attrs,
		slog.String("command", command),
		slog.String("config_file", displayPath(configPath)),
	)
	for _, k := range auditKeys {
		attrs = append(attrs, slog.String(k.name, SanitiseKey(k.name, os.Getenv(k.name))))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns the value of a non-secret variable, or only whether a
// secret is present. Empty values of either kind read "unset".
func SanitiseKey(key, value string) string {
	switch {
	case value == "":
		return "unset"
	case secretKeys[key]:
		return "set"
	default:
		return value
	}
}

// displayPath shortens a config path under the home directory to ~/... and
// reports an absent file as "none".
func displayPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" || home == "/" {
		return p
	}
	if rel, err := filepath.Rel(home, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Join("~", rel)
	}
	return p
}
