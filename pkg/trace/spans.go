package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names for the stages of one turn.
const (
	SpanTurn = "assistant.turn"
	SpanSTT  = "stt.request"
	SpanLLM  = "llm.request"
	SpanTTS  = "tts.request"
)

// InstrumentTurn starts the root span for one finalized utterance.
func InstrumentTurn(ctx context.Context, utteranceID string, frames, dataSize, sampleRate int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanTurn,
		trace.WithAttributes(UtteranceAttrs(utteranceID, frames, dataSize, sampleRate)...),
	)
}

// InstrumentSTTRequest creates a span for STT (Speech-to-Text) requests
func InstrumentSTTRequest(ctx context.Context, provider string, audioSize int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSTT,
		trace.WithAttributes(
			attribute.String(AttrSTTProvider, provider),
			attribute.Int(AttrAudioDataSize, audioSize),
		),
	)
}

// InstrumentLLMRequest creates a span for LLM requests
func InstrumentLLMRequest(ctx context.Context, provider, model string, promptLen int) (context.Context, trace.Span) {
	attrs := LLMAttrs(provider, model)
	attrs = append(attrs, attribute.Int(AttrTextLength, promptLen))
	return StartSpan(ctx, SpanLLM, trace.WithAttributes(attrs...))
}

// InstrumentTTSRequest creates a span for TTS (Text-to-Speech) requests
func InstrumentTTSRequest(ctx context.Context, provider, text string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanTTS,
		trace.WithAttributes(
			attribute.String(AttrTTSProvider, provider),
			attribute.Int(AttrTextLength, len(text)),
		),
	)
}
