package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/jetvoice/pkg/config"
	"github.com/realtime-ai/jetvoice/pkg/llm"
)

type nopPlayer struct{}

func (nopPlayer) Play(context.Context, []byte, int) error { return nil }

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.OpenAIAPIKey = "sk-test"
	return cfg
}

func TestNewSynthesizer_ChainOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.TTSChain = []string{"openai", "elevenlabs", "azure", "espeak"}
	cfg.ElevenLabsAPIKey = "el-key"
	cfg.ElevenLabsVoiceID = "voice-1"
	cfg.AzureSpeechKey = "az-key"
	cfg.AzureSpeechRegion = "eastus"

	chain, err := NewSynthesizer(cfg, nopPlayer{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai>elevenlabs>azure>espeak", chain.Name())
}

func TestVoiceFor_KeepsProviderVoicesApart(t *testing.T) {
	cfg := baseConfig()
	cfg.OpenAITTSVoice = "alloy"
	cfg.ElevenLabsVoiceID = "voice-1"
	cfg.AzureSpeechVoice = "en-GB-SoniaNeural"

	assert.Equal(t, "alloy", voiceFor(config.TTSOpenAI, cfg))
	assert.Equal(t, "voice-1", voiceFor(config.TTSElevenLabs, cfg))
	assert.Equal(t, "en-GB-SoniaNeural", voiceFor(config.TTSAzure, cfg))
	assert.Empty(t, voiceFor(config.TTSEspeak, cfg))
}

func TestNewSynthesizer_Errors(t *testing.T) {
	cfg := baseConfig()
	cfg.TTSChain = []string{"elevenlabs"}
	_, err := NewSynthesizer(cfg, nopPlayer{}, nil)
	assert.Error(t, err, "missing elevenlabs key")

	cfg.TTSChain = []string{"festival"}
	_, err = NewSynthesizer(cfg, nopPlayer{}, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg.TTSChain = nil
	_, err = NewSynthesizer(cfg, nopPlayer{}, nil)
	assert.Error(t, err)
}

func TestNewLanguageModel(t *testing.T) {
	cfg := baseConfig()
	m, err := NewLanguageModel(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIModel{}, m)

	cfg.LLMProvider = "gemini"
	cfg.GeminiAPIKey = "g-key"
	m, err = NewLanguageModel(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &llm.GeminiModel{}, m)

	cfg.LLMProvider = "llama"
	_, err = NewLanguageModel(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewTranscriber(t *testing.T) {
	w, err := NewTranscriber(baseConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "openai-whisper", w.Name())
}
