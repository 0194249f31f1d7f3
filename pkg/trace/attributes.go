package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on assistant spans.
const (
	AttrUtteranceID     = "utterance.id"
	AttrUtteranceFrames = "utterance.frames"

	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioDataSize   = "audio.data_size"

	AttrSTTProvider = "stt.provider"
	AttrLLMProvider = "llm.provider"
	AttrLLMModel    = "llm.model"
	AttrTTSProvider = "tts.provider"

	AttrTextLength = "text.length"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// UtteranceAttrs describes the utterance a turn was started for.
func UtteranceAttrs(id string, frames, dataSize, sampleRate int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrUtteranceID, id),
		attribute.Int(AttrUtteranceFrames, frames),
		attribute.Int(AttrAudioDataSize, dataSize),
		attribute.Int(AttrAudioSampleRate, sampleRate),
	}
}

// LLMAttrs creates attributes for LLM operations
func LLMAttrs(provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrLLMProvider, provider),
		attribute.String(AttrLLMModel, model),
	}
}

// ErrorAttrs creates attributes for errors
func ErrorAttrs(errType, errMsg string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, errMsg),
	}
}
