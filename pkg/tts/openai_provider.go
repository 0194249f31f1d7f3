package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAITTSEndpoint       = "https://api.openai.com/v1/audio/speech"
	openAIDefaultModel      = "tts-1"
	openAIDefaultVoice      = "coral"
	openAIDefaultSampleRate = 24000
)

var openAIVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable",
	"nova", "onyx", "sage", "shimmer", "verse", "marin", "cedar",
}

// OpenAITTSConfig configures an OpenAITTSProvider.
type OpenAITTSConfig struct {
	APIKey string
	// Endpoint overrides the speech endpoint URL.
	Endpoint string
	// Model is "tts-1" (default) or "tts-1-hd".
	Model string
	Voice string
	// Speed ranges from 0.25 to 4.0; 0 means 1.0.
	Speed   float64
	Timeout time.Duration
}

// OpenAITTSProvider implements TTSProvider over the OpenAI speech API. It
// requests raw PCM so no decoder is needed on the device.
type OpenAITTSProvider struct {
	cfg        OpenAITTSConfig
	httpClient *http.Client
}

type openAITTSRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// NewOpenAITTSProvider creates an OpenAI TTS provider.
func NewOpenAITTSProvider(cfg OpenAITTSConfig) *OpenAITTSProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = openAITTSEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = openAIDefaultVoice
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	return &OpenAITTSProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name
func (p *OpenAITTSProvider) Name() string {
	return "openai"
}

// Synthesize converts text to 24 kHz mono PCM.
func (p *OpenAITTSProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	voice := req.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}

	payload, err := json.Marshal(openAITTSRequest{
		Model:          p.cfg.Model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: "pcm",
		Speed:          p.cfg.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI TTS request failed with status %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &SynthesizeResponse{
		AudioData:   audioData,
		AudioFormat: pcmFormat(openAIDefaultSampleRate),
	}, nil
}

// GetSupportedVoices returns the list of supported OpenAI voices
func (p *OpenAITTSProvider) GetSupportedVoices() []string {
	return openAIVoices
}

// GetDefaultVoice returns the configured voice.
func (p *OpenAITTSProvider) GetDefaultVoice() string {
	return p.cfg.Voice
}

// ValidateConfig validates the provider configuration
func (p *OpenAITTSProvider) ValidateConfig() error {
	if p.cfg.APIKey == "" {
		return fmt.Errorf("OpenAI API key is not set")
	}
	return nil
}

var _ TTSProvider = (*OpenAITTSProvider)(nil)
