package tts

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	azureDefaultVoice      = "en-US-JennyNeural"
	azureOutputFormat      = "raw-24khz-16bit-mono-pcm"
	azureDefaultSampleRate = 24000
)

var azureVoices = []string{
	"en-US-JennyNeural",
	"en-US-GuyNeural",
	"en-US-AriaNeural",
	"en-US-DavisNeural",
	"en-GB-SoniaNeural",
}

// AzureTTSConfig configures an AzureTTSProvider.
type AzureTTSConfig struct {
	SubscriptionKey string
	Region          string
	// Endpoint overrides the regional synthesis URL.
	Endpoint string
	Voice    string
	Timeout  time.Duration
}

// AzureTTSProvider implements TTSProvider over the Azure Cognitive Services
// speech REST API.
type AzureTTSProvider struct {
	cfg        AzureTTSConfig
	httpClient *http.Client
}

// NewAzureTTSProvider creates an Azure provider.
func NewAzureTTSProvider(cfg AzureTTSConfig) (*AzureTTSProvider, error) {
	if cfg.SubscriptionKey == "" {
		return nil, fmt.Errorf("azure speech key is required")
	}
	if cfg.Endpoint == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("azure speech region is required")
		}
		cfg.Endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}
	if cfg.Voice == "" {
		cfg.Voice = azureDefaultVoice
	}
	return &AzureTTSProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider name
func (p *AzureTTSProvider) Name() string {
	return "azure"
}

// Synthesize converts text to 24 kHz mono PCM.
func (p *AzureTTSProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	voice := req.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}
	lang := req.Language
	if lang == "" {
		lang = voiceLocale(voice)
	}

	ssml, err := buildSSML(req.Text, voice, lang)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", p.cfg.SubscriptionKey)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	httpReq.Header.Set("User-Agent", "jetvoice")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure TTS request failed with status %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &SynthesizeResponse{
		AudioData:   audioData,
		AudioFormat: pcmFormat(azureDefaultSampleRate),
	}, nil
}

// voiceLocale extracts "en-US" from "en-US-JennyNeural".
func voiceLocale(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

func buildSSML(text, voice, lang string) (string, error) {
	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("failed to escape text: %w", err)
	}
	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		lang, voice, escaped.String(),
	), nil
}

// GetSupportedVoices returns a few common neural voices.
func (p *AzureTTSProvider) GetSupportedVoices() []string {
	return azureVoices
}

// GetDefaultVoice returns the configured voice.
func (p *AzureTTSProvider) GetDefaultVoice() string {
	return p.cfg.Voice
}

// ValidateConfig validates the provider configuration
func (p *AzureTTSProvider) ValidateConfig() error {
	if p.cfg.SubscriptionKey == "" {
		return fmt.Errorf("azure speech key is not set")
	}
	return nil
}

var _ TTSProvider = (*AzureTTSProvider)(nil)
