package embedder

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// chatModelMarkers are name fragments of generative models. Embedding with
// one of these "works" but ranks evidence badly, which surfaces as vague
// answers rather than an error.
var chatModelMarkers = []string{
	"gpt-4", "gpt-3.5", "gpt-35", "o1", "o3",
	"llama3", "llama2", "llama-3", "llama-2",
	"mistral", "mixtral", "gemma", "phi-", "phi3",
	"claude", "command-r", "deepseek", "qwen",
	"solar", "vicuna", "falcon", "yi-",
}

func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, m := range chatModelMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// requirement is a setting a backend cannot start without. The first
// variable that is set wins.
type requirement struct {
	what string
	vars []string
}

var requirements = map[string][]requirement{
	"ollama": nil,
	"openai": {
		{"OpenAI API key", []string{"EMBEDDING_API_KEY", "OPENAI_API_KEY"}},
	},
	"azure": {
		{"Azure API key", []string{"EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY"}},
		{"Azure endpoint", []string{"EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT"}},
	},
}

// Validate checks the embedding configuration before any request embeds.
// A missing credential or an unsupported backend is an error; a chat model
// configured as the embedding model, or a backend silently inherited from
// MODEL_PROVIDER, is only a warning.
func Validate(log *slog.Logger) error {
	backend := Backend()

	if backend != "ollama" && os.Getenv("EMBEDDING_PROVIDER") == "" {
		log.Warn("embedder: EMBEDDING_PROVIDER is not set, inheriting MODEL_PROVIDER as embedding backend",
			slog.String("backend", backend),
			slog.String("hint", "set EMBEDDING_PROVIDER=ollama (or openai/azure) to be explicit"),
		)
	}

	reqs, ok := requirements[backend]
	if !ok {
		return fmt.Errorf("embedder: %s cannot embed; set EMBEDDING_PROVIDER to ollama, openai, or azure", backend)
	}
	for _, r := range reqs {
		if firstSet(r.vars...) == "" {
			return fmt.Errorf("embedder: no %s found; set %s", r.what, strings.Join(r.vars, " or "))
		}
	}

	if model := os.Getenv("EMBEDDING_MODEL"); model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, retrieval quality will suffer",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}
	return nil
}

// firstSet returns the value of the first non-empty variable in vars.
func firstSet(vars ...string) string {
	for _, v := range vars {
		if val := os.Getenv(v); val != "" {
			return val
		}
	}
	return ""
}
