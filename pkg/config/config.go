// Package config loads the assistant's settings from the environment and an
// optional .env file. Values are parsed strictly: a malformed number is an
// error, never a silent default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/logging"
	"github.com/realtime-ai/jetvoice/pkg/vad"
)

// ErrInvalid is wrapped by every parse and validation error.
var ErrInvalid = errors.New("config: invalid")

// Provider names.
const (
	LLMOpenAI = "openai"
	LLMGemini = "gemini"

	TTSOpenAI     = "openai"
	TTSElevenLabs = "elevenlabs"
	TTSAzure      = "azure"
	TTSEspeak     = "espeak"
)

const placeholderKey = "your_api_key_here"

// Config is an immutable snapshot of the process configuration.
type Config struct {
	SampleRate      int
	FrameDurationMs int
	Aggressiveness  int
	NStreak         int
	NSilence        int

	// AudioDevice is a capture device index; -1 selects the system default.
	AudioDevice    int
	CaptureBlockMs int
	QueueMaxChunks int

	VADBackend      string
	SileroModelPath string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	STTModel      string
	STTLanguage   string

	LLMProvider     string
	LLMModel        string
	LLMSystemPrompt string
	GeminiAPIKey    string

	TTSChain           []string
	OpenAITTSVoice     string
	TTSRate            int
	TTSVolume          float64
	PlaybackSampleRate int
	ElevenLabsAPIKey   string
	ElevenLabsVoiceID  string
	AzureSpeechKey     string
	AzureSpeechRegion  string
	AzureSpeechVoice   string

	HTTPTimeout time.Duration

	LogLevel      string
	LogFormat     string
	TraceExporter string
	OTLPEndpoint  string
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		SampleRate:      16000,
		FrameDurationMs: 20,
		Aggressiveness:  2,
		NStreak:         3,
		NSilence:        5,
		AudioDevice:     -1,
		CaptureBlockMs:  20,
		VADBackend:      vad.BackendWebRTC,
		STTModel:        "whisper-1",
		LLMProvider:     LLMOpenAI,
		TTSChain:        []string{TTSOpenAI, TTSEspeak},
		TTSRate:         125,
		TTSVolume:       1.0,
		HTTPTimeout:     30 * time.Second,
		LogLevel:        "info",
		LogFormat:       logging.FormatText,
		TraceExporter:   "none",
		OTLPEndpoint:    "localhost:4317",
	}
}

// Load reads .env from the working directory when present, then parses and
// validates the environment. Variables already set win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: reading .env: %v", ErrInvalid, err)
	}

	cfg, err := FromLookup(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromLookup parses configuration from lookup without validating it.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.intVar("SAMPLE_RATE", &cfg.SampleRate)
	p.intVar("VAD_FRAME_DURATION_MS", &cfg.FrameDurationMs)
	p.intVar("VAD_AGGRESSIVENESS", &cfg.Aggressiveness)
	p.intVar("VAD_N_STREAK_FRAMES", &cfg.NStreak)
	p.intVar("VAD_N_SILENCE_FRAMES", &cfg.NSilence)
	p.intVar("AUDIO_DEVICE", &cfg.AudioDevice)
	cfg.CaptureBlockMs = cfg.FrameDurationMs
	p.intVar("CAPTURE_BLOCK_MS", &cfg.CaptureBlockMs)
	p.intVar("QUEUE_MAX_CHUNKS", &cfg.QueueMaxChunks)

	p.strVar("VAD_BACKEND", &cfg.VADBackend)
	p.strVar("SILERO_MODEL_PATH", &cfg.SileroModelPath)

	p.strVar("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	p.strVar("OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	p.strVar("STT_MODEL", &cfg.STTModel)
	p.strVar("STT_LANGUAGE", &cfg.STTLanguage)

	p.strVar("LLM_PROVIDER", &cfg.LLMProvider)
	p.strVar("LLM_MODEL", &cfg.LLMModel)
	p.strVar("LLM_SYSTEM_PROMPT", &cfg.LLMSystemPrompt)
	p.strVar("GEMINI_API_KEY", &cfg.GeminiAPIKey)

	p.listVar("TTS_CHAIN", &cfg.TTSChain)
	p.strVar("OPENAI_TTS_VOICE", &cfg.OpenAITTSVoice)
	p.intVar("TTS_RATE", &cfg.TTSRate)
	p.floatVar("TTS_VOLUME", &cfg.TTSVolume)
	p.intVar("PLAYBACK_SAMPLE_RATE", &cfg.PlaybackSampleRate)
	p.strVar("ELEVENLABS_API_KEY", &cfg.ElevenLabsAPIKey)
	p.strVar("ELEVENLABS_VOICE_ID", &cfg.ElevenLabsVoiceID)
	p.strVar("AZURE_SPEECH_KEY", &cfg.AzureSpeechKey)
	p.strVar("AZURE_SPEECH_REGION", &cfg.AzureSpeechRegion)
	p.strVar("AZURE_SPEECH_VOICE", &cfg.AzureSpeechVoice)

	p.durationVar("HTTP_TIMEOUT", &cfg.HTTPTimeout)

	p.strVar("LOG_LEVEL", &cfg.LogLevel)
	p.strVar("LOG_FORMAT", &cfg.LogFormat)
	p.strVar("TRACE_EXPORTER", &cfg.TraceExporter)
	p.strVar("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLPEndpoint)

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

// VAD returns the classifier configuration.
func (c Config) VAD() vad.Config {
	return vad.Config{
		SampleRate:      c.SampleRate,
		FrameDurationMs: c.FrameDurationMs,
		Aggressiveness:  c.Aggressiveness,
	}
}

// FrameSize returns the number of bytes in one classification frame.
func (c Config) FrameSize() int {
	return audio.FrameBytes(c.SampleRate, c.FrameDurationMs)
}

// Validate reports every inconsistency in c. Each error wraps ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if err := c.VAD().Validate(); err != nil {
		fail("%v", err)
	}
	if c.NStreak <= 0 {
		fail("VAD_N_STREAK_FRAMES must be positive, got %d", c.NStreak)
	}
	if c.NSilence <= 0 {
		fail("VAD_N_SILENCE_FRAMES must be positive, got %d", c.NSilence)
	}
	if c.AudioDevice < -1 {
		fail("AUDIO_DEVICE must be -1 or a device index, got %d", c.AudioDevice)
	}
	if c.CaptureBlockMs <= 0 {
		fail("CAPTURE_BLOCK_MS must be positive, got %d", c.CaptureBlockMs)
	}
	if c.QueueMaxChunks < 0 {
		fail("QUEUE_MAX_CHUNKS must not be negative, got %d", c.QueueMaxChunks)
	}

	switch c.VADBackend {
	case vad.BackendWebRTC, vad.BackendEnergy:
	case vad.BackendSilero:
		if c.SileroModelPath == "" {
			fail("SILERO_MODEL_PATH is required for the silero backend")
		}
	default:
		fail("unknown VAD_BACKEND %q", c.VADBackend)
	}

	if !hasKey(c.OpenAIAPIKey) {
		fail("OPENAI_API_KEY is required for transcription")
	}

	switch c.LLMProvider {
	case LLMOpenAI:
	case LLMGemini:
		if !hasKey(c.GeminiAPIKey) {
			fail("GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
	default:
		fail("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if len(c.TTSChain) == 0 {
		fail("TTS_CHAIN must name at least one synthesizer")
	}
	for _, name := range c.TTSChain {
		switch name {
		case TTSOpenAI, TTSEspeak:
		case TTSElevenLabs:
			if !hasKey(c.ElevenLabsAPIKey) || c.ElevenLabsVoiceID == "" {
				fail("ELEVENLABS_API_KEY and ELEVENLABS_VOICE_ID are required for the elevenlabs synthesizer")
			}
		case TTSAzure:
			if !hasKey(c.AzureSpeechKey) || c.AzureSpeechRegion == "" {
				fail("AZURE_SPEECH_KEY and AZURE_SPEECH_REGION are required for the azure synthesizer")
			}
		default:
			fail("unknown TTS_CHAIN entry %q", name)
		}
	}
	if c.TTSRate <= 0 {
		fail("TTS_RATE must be positive, got %d", c.TTSRate)
	}
	if c.TTSVolume <= 0 || c.TTSVolume > 2 {
		fail("TTS_VOLUME must be within (0, 2], got %g", c.TTSVolume)
	}
	if c.PlaybackSampleRate < 0 {
		fail("PLAYBACK_SAMPLE_RATE must not be negative, got %d", c.PlaybackSampleRate)
	}
	if c.HTTPTimeout <= 0 {
		fail("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		fail("LOG_LEVEL: %v", err)
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		fail("unknown LOG_FORMAT %q", c.LogFormat)
	}
	switch c.TraceExporter {
	case "none", "stdout", "otlp":
	default:
		fail("unknown TRACE_EXPORTER %q", c.TraceExporter)
	}

	return errors.Join(errs...)
}

func hasKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholderKey
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) value(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) strVar(key string, dst *string) {
	if v, ok := p.value(key); ok {
		*dst = v
	}
}

func (p *parser) intVar(key string, dst *int) {
	v, ok := p.value(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v))
		return
	}
	*dst = n
}

func (p *parser) floatVar(key string, dst *float64) {
	v, ok := p.value(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v))
		return
	}
	*dst = f
}

func (p *parser) durationVar(key string, dst *time.Duration) {
	v, ok := p.value(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, v))
		return
	}
	*dst = d
}

func (p *parser) listVar(key string, dst *[]string) {
	v, ok := p.value(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
