// Package tts speaks assistant responses.
//
// A TTSProvider turns text into PCM. A Synthesizer speaks text and returns
// once the audio has finished playing; PlaybackSynthesizer joins a provider
// with the speaker, EspeakSynthesizer shells out to espeak, and Chain tries
// several synthesizers in order.
package tts

import "context"

// AudioFormat describes synthesized audio.
type AudioFormat struct {
	SampleRate int
	Channels   int
	// Encoding is always pcm_s16le for providers in this package.
	Encoding string
}

// SynthesizeRequest is a request to synthesize speech.
type SynthesizeRequest struct {
	Text string
	// Voice overrides the provider's configured voice.
	Voice    string
	Language string
}

// SynthesizeResponse carries synthesized audio.
type SynthesizeResponse struct {
	AudioData   []byte
	AudioFormat AudioFormat
}

// TTSProvider is a text-to-speech service returning raw PCM.
type TTSProvider interface {
	// Name returns the provider name, e.g. "openai" or "azure".
	Name() string

	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// GetSupportedVoices returns known voice names. It may be incomplete.
	GetSupportedVoices() []string

	GetDefaultVoice() string

	// ValidateConfig reports missing credentials or settings.
	ValidateConfig() error
}

func pcmFormat(sampleRate int) AudioFormat {
	return AudioFormat{SampleRate: sampleRate, Channels: 1, Encoding: "pcm_s16le"}
}
