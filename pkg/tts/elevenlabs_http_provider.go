package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	elevenLabsHTTPEndpoint        = "https://api.elevenlabs.io/v1/text-to-speech"
	elevenLabsHTTPDefaultModel    = "eleven_multilingual_v2"
	elevenLabsHTTPOutputFormat    = "pcm_16000"
	elevenLabsHTTPSampleRate      = 16000
	elevenLabsHTTPLatencyOptimize = 3
)

// A few premade voices; the account may have more.
var elevenLabsHTTPVoices = []string{
	"21m00Tcm4TlvDq8ikWAM", // Rachel
	"AZnzlk1XvdvUeBnXmlld", // Domi
	"EXAVITQu4vr4xnSDxMaL", // Bella
	"ErXwobaYiN019PkySvjV", // Antoni
	"TxGEqnHWrfWFTfGW9XjX", // Josh
	"pNInz6obpgDQGcFmaJgB", // Adam
}

// ElevenLabsHTTPTTSConfig configures an ElevenLabsHTTPTTSProvider.
type ElevenLabsHTTPTTSConfig struct {
	APIKey  string
	VoiceID string
	// Endpoint overrides the text-to-speech base URL.
	Endpoint string
	Model    string
	// Speed ranges from 0.7 to 1.2; 0 means 1.0.
	Speed float64
	// LatencyOptimization ranges from 0 to 4; 0 means 3.
	LatencyOptimization int
	Stability           float64
	SimilarityBoost     float64
	Timeout             time.Duration
}

// ElevenLabsHTTPTTSProvider implements TTSProvider over the ElevenLabs HTTP
// streaming endpoint, collecting the whole response as 16 kHz PCM.
type ElevenLabsHTTPTTSProvider struct {
	cfg        ElevenLabsHTTPTTSConfig
	httpClient *http.Client
}

type elevenLabsHTTPRequestBody struct {
	Text          string                       `json:"text"`
	ModelID       string                       `json:"model_id,omitempty"`
	VoiceSettings *elevenLabsHTTPVoiceSettings `json:"voice_settings,omitempty"`
	LanguageCode  string                       `json:"language_code,omitempty"`
}

type elevenLabsHTTPVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// NewElevenLabsHTTPTTSProvider creates an ElevenLabs provider.
func NewElevenLabsHTTPTTSProvider(cfg ElevenLabsHTTPTTSConfig) (*ElevenLabsHTTPTTSProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key is required")
	}
	if cfg.VoiceID == "" {
		return nil, fmt.Errorf("ElevenLabs Voice ID is required")
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = elevenLabsHTTPEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = elevenLabsHTTPDefaultModel
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	if cfg.LatencyOptimization == 0 {
		cfg.LatencyOptimization = elevenLabsHTTPLatencyOptimize
	}
	if cfg.Stability == 0 {
		cfg.Stability = 0.5
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = 0.75
	}

	return &ElevenLabsHTTPTTSProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider name
func (p *ElevenLabsHTTPTTSProvider) Name() string {
	return "elevenlabs"
}

// Synthesize converts text to 16 kHz mono PCM.
func (p *ElevenLabsHTTPTTSProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	voiceID := req.Voice
	if voiceID == "" {
		voiceID = p.cfg.VoiceID
	}

	params := url.Values{}
	params.Set("output_format", elevenLabsHTTPOutputFormat)
	params.Set("optimize_streaming_latency", strconv.Itoa(p.cfg.LatencyOptimization))
	requestURL := fmt.Sprintf("%s/%s/stream?%s", p.cfg.Endpoint, url.PathEscape(voiceID), params.Encode())

	body, err := json.Marshal(elevenLabsHTTPRequestBody{
		Text:    req.Text,
		ModelID: p.cfg.Model,
		VoiceSettings: &elevenLabsHTTPVoiceSettings{
			Stability:       p.cfg.Stability,
			SimilarityBoost: p.cfg.SimilarityBoost,
			Speed:           p.cfg.Speed,
		},
		LanguageCode: req.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API request failed with status %d: %s", resp.StatusCode, string(msg))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &SynthesizeResponse{
		AudioData:   audioData,
		AudioFormat: pcmFormat(elevenLabsHTTPSampleRate),
	}, nil
}

// GetSupportedVoices returns a list of known voice IDs
func (p *ElevenLabsHTTPTTSProvider) GetSupportedVoices() []string {
	return elevenLabsHTTPVoices
}

// GetDefaultVoice returns the configured voice ID
func (p *ElevenLabsHTTPTTSProvider) GetDefaultVoice() string {
	return p.cfg.VoiceID
}

// ValidateConfig validates the provider configuration
func (p *ElevenLabsHTTPTTSProvider) ValidateConfig() error {
	if p.cfg.APIKey == "" {
		return fmt.Errorf("ElevenLabs API key is not set")
	}
	if p.cfg.VoiceID == "" {
		return fmt.Errorf("ElevenLabs Voice ID is not set")
	}
	return nil
}

var _ TTSProvider = (*ElevenLabsHTTPTTSProvider)(nil)
