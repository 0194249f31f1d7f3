// Package app builds the assistant's collaborators from a config.Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/realtime-ai/jetvoice/pkg/asr"
	"github.com/realtime-ai/jetvoice/pkg/config"
	"github.com/realtime-ai/jetvoice/pkg/llm"
	"github.com/realtime-ai/jetvoice/pkg/tts"
)

// NewTranscriber builds the Whisper transcriber.
func NewTranscriber(cfg config.Config, logger *slog.Logger) (*asr.WhisperProvider, error) {
	return asr.NewWhisperProvider(asr.WhisperConfig{
		APIKey:   cfg.OpenAIAPIKey,
		BaseURL:  cfg.OpenAIBaseURL,
		Model:    cfg.STTModel,
		Language: cfg.STTLanguage,
		Timeout:  cfg.HTTPTimeout,
	}, logger)
}

// NewLanguageModel builds the model named by cfg.LLMProvider.
func NewLanguageModel(ctx context.Context, cfg config.Config, logger *slog.Logger) (llm.LanguageModel, error) {
	switch cfg.LLMProvider {
	case config.LLMOpenAI:
		baseURL := cfg.OpenAIBaseURL
		if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		return llm.NewOpenAIModel(llm.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      baseURL,
			Model:        cfg.LLMModel,
			SystemPrompt: cfg.LLMSystemPrompt,
			Timeout:      cfg.HTTPTimeout,
		}, logger)
	case config.LLMGemini:
		return llm.NewGeminiModel(ctx, llm.GeminiConfig{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.LLMModel,
			SystemPrompt: cfg.LLMSystemPrompt,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", config.ErrInvalid, cfg.LLMProvider)
	}
}

// NewSynthesizer builds the fallback chain named by cfg.TTSChain. Network
// providers play through player.
func NewSynthesizer(cfg config.Config, player tts.Player, logger *slog.Logger) (*tts.Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}

	synths := make([]tts.Synthesizer, 0, len(cfg.TTSChain))
	for _, name := range cfg.TTSChain {
		s, err := newSynthesizer(name, cfg, player, logger)
		if err != nil {
			return nil, fmt.Errorf("tts %s: %w", name, err)
		}
		synths = append(synths, s)
	}
	return tts.NewChain(logger, synths...)
}

func newSynthesizer(name string, cfg config.Config, player tts.Player, logger *slog.Logger) (tts.Synthesizer, error) {
	if name == config.TTSEspeak {
		return tts.NewEspeakSynthesizer(tts.EspeakConfig{
			Rate:   cfg.TTSRate,
			Volume: cfg.TTSVolume,
		})
	}

	var (
		provider tts.TTSProvider
		voice    = voiceFor(name, cfg)
		err      error
	)
	switch name {
	case config.TTSOpenAI:
		endpoint := ""
		if cfg.OpenAIBaseURL != "" {
			endpoint = strings.TrimSuffix(cfg.OpenAIBaseURL, "/") + "/audio/speech"
		}
		provider = tts.NewOpenAITTSProvider(tts.OpenAITTSConfig{
			APIKey:   cfg.OpenAIAPIKey,
			Endpoint: endpoint,
			Voice:    voice,
			Timeout:  cfg.HTTPTimeout,
		})
	case config.TTSElevenLabs:
		provider, err = tts.NewElevenLabsHTTPTTSProvider(tts.ElevenLabsHTTPTTSConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: voice,
			Timeout: cfg.HTTPTimeout,
		})
	case config.TTSAzure:
		provider, err = tts.NewAzureTTSProvider(tts.AzureTTSConfig{
			SubscriptionKey: cfg.AzureSpeechKey,
			Region:          cfg.AzureSpeechRegion,
			Voice:           voice,
			Timeout:         cfg.HTTPTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: unknown synthesizer", config.ErrInvalid)
	}
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}

	return tts.NewPlaybackSynthesizer(provider, player, tts.PlaybackOptions{
		Voice:  voice,
		Volume: cfg.TTSVolume,
		Logger: logger,
	})
}

// voiceFor returns the voice configured for the named synthesizer. Voices are
// provider specific, so each provider has its own variable.
func voiceFor(name string, cfg config.Config) string {
	switch name {
	case config.TTSOpenAI:
		return cfg.OpenAITTSVoice
	case config.TTSElevenLabs:
		return cfg.ElevenLabsVoiceID
	case config.TTSAzure:
		return cfg.AzureSpeechVoice
	default:
		return ""
	}
}
