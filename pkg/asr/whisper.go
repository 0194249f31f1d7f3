package asr

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// WhisperConfig configures a WhisperProvider.
type WhisperConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. a local whisper server.
	BaseURL string
	// Model defaults to whisper-1.
	Model string
	// Language is an ISO-639-1 hint; empty lets the service detect it.
	Language string
	// Prompt biases the transcription toward expected vocabulary.
	Prompt  string
	Timeout time.Duration
}

// WhisperProvider transcribes through the OpenAI audio transcription API.
type WhisperProvider struct {
	client *openai.Client
	cfg    WhisperConfig
	logger *slog.Logger
}

// NewWhisperProvider creates a Whisper transcriber.
func NewWhisperProvider(cfg WhisperConfig, logger *slog.Logger) (*WhisperProvider, error) {
	if cfg.APIKey == "" {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: "OpenAI API key is required",
		}
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "whisper")

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
		logger.Info("using custom base URL", "base_url", cfg.BaseURL)
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &WhisperProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Name returns the provider name.
func (w *WhisperProvider) Name() string {
	return "openai-whisper"
}

// Transcribe implements Transcriber.
func (w *WhisperProvider) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if len(pcm) == 0 {
		return "", &Error{
			Code:    ErrCodeInvalidAudio,
			Message: "audio data is empty",
		}
	}

	wav, err := audio.EncodeWAV(pcm, sampleRate)
	if err != nil {
		return "", &Error{
			Code:    ErrCodeInvalidAudio,
			Message: "failed to convert PCM to WAV",
			Err:     err,
		}
	}

	req := openai.AudioRequest{
		Model:    w.cfg.Model,
		FilePath: "audio.wav", // filename hint for the API
		Reader:   bytes.NewReader(wav),
		Prompt:   w.cfg.Prompt,
		Language: w.cfg.Language,
	}

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", &Error{
			Code:    ErrCodeProviderError,
			Message: "Whisper API request failed",
			Err:     err,
		}
	}

	w.logger.Debug("transcription complete",
		"model", w.cfg.Model,
		"audio_bytes", len(pcm),
		"latency", time.Since(start))
	return resp.Text, nil
}

var _ Transcriber = (*WhisperProvider)(nil)
