// Package budget provides token budget estimation for prompts sent to the
// generative backend. Because rugcheck supports multiple LLM backends with
// different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose and code).
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxPromptTokens is the default input budget in tokens. It fits
	// within 8k-context models (Llama 3 8B) while leaving room for the answer.
	DefaultMaxPromptTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Fits reports whether s is within maxTokens.
func Fits(s string, maxTokens int) bool {
	return Estimate(s) <= maxTokens
}

// FitPrefix returns the largest n such that render(items[:n]) fits within
// maxTokens, scanning from the front and stopping at the first prefix that
// overflows. Items are assumed ordered by priority, so only a prefix is ever
// kept. It returns -1 when even the empty prefix overflows.
func FitPrefix[T any](items []T, maxTokens int, render func([]T) string) int {
	if !Fits(render(items[:0]), maxTokens) {
		return -1
	}
	n := 0
	for n < len(items) && Fits(render(items[:n+1]), maxTokens) {
		n++
	}
	return n
}
