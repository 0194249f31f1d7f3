package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiConfig configures a GeminiModel.
type GeminiConfig struct {
	APIKey string
	Model  string
	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string
}

// GeminiModel asks Google's Gemini API.
type GeminiModel struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *slog.Logger
}

// NewGeminiModel creates a Gemini model.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiModel, error) {
	if !usableKey(cfg.APIKey) {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGoogleAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiModel{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "llm", "provider", ProviderGemini),
	}, nil
}

// Name returns the provider name.
func (m *GeminiModel) Name() string {
	return ProviderGemini
}

// Model returns the configured model name.
func (m *GeminiModel) Model() string {
	return m.cfg.Model
}

// Ask implements LanguageModel.
func (m *GeminiModel) Ask(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: m.cfg.SystemPrompt}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	reply := strings.TrimSpace(collectGeminiText(resp))
	if reply == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	m.logger.Debug("completion received", "model", m.cfg.Model, "latency", time.Since(start))
	return reply, nil
}

func collectGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

var _ LanguageModel = (*GeminiModel)(nil)
