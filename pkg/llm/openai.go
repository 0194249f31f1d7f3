package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const openAIDefaultModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAIModel.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string
	Timeout      time.Duration
	// MaxRetries overrides the client's retry count when non-nil.
	MaxRetries *int
}

// OpenAIModel asks an OpenAI-compatible chat completion endpoint.
type OpenAIModel struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIModel creates an OpenAI chat model.
func NewOpenAIModel(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIModel, error) {
	if !usableKey(cfg.APIKey) {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}
	client := openai.NewClient(opts...)

	return &OpenAIModel{
		client: &client,
		cfg:    cfg,
		logger: logger.With("component", "llm", "provider", ProviderOpenAI),
	}, nil
}

// Name returns the provider name.
func (m *OpenAIModel) Name() string {
	return ProviderOpenAI
}

// Model returns the configured model name.
func (m *OpenAIModel) Model() string {
	return m.cfg.Model
}

// Ask implements LanguageModel.
func (m *OpenAIModel) Ask(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(m.cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
		Model: shared.ChatModel(m.cfg.Model),
	}

	start := time.Now()
	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	m.logger.Debug("completion received",
		"model", m.cfg.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"latency", time.Since(start))
	return reply, nil
}

var _ LanguageModel = (*OpenAIModel)(nil)
