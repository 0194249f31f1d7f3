// Package llm answers a transcribed prompt with a short spoken-style reply.
package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingAPIKey is returned by constructors when no usable key is set.
	ErrMissingAPIKey = errors.New("llm: missing or placeholder API key")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// DefaultSystemPrompt keeps answers short enough to speak.
const DefaultSystemPrompt = "You are a helpful voice assistant running on Jetson Nano. " +
	"Keep responses brief, conversational, and natural."

// placeholderAPIKey is the value shipped in the sample .env file.
const placeholderAPIKey = "your_api_key_here"

// LanguageModel answers one prompt. The reply is trimmed; an empty reply is
// reported as ErrEmptyResponse.
type LanguageModel interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted by configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

func usableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholderAPIKey
}

// MaskKey shortens a key for display, keeping the first 6 and last 4
// characters. Short keys are fully masked.
func MaskKey(key string) string {
	if len(key) <= 10 {
		return strings.Repeat("*", len(key))
	}
	return key[:6] + "..." + key[len(key)-4:]
}
