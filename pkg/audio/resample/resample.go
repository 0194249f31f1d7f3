// Package resample converts mono 16-bit PCM between sample rates with
// libswresample. It needs the FFmpeg development libraries; only playback
// imports it.
package resample

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// Resampler converts between two fixed rates. TTS providers answer at 16 or
// 24 kHz while some boards only open their speaker at a fixed rate.
//
// A Resampler is not safe for concurrent use. Call Free when done.
type Resampler struct {
	from, to int

	swr      *astiav.SoftwareResampleContext
	src, dst *astiav.Frame
}

// New creates a resampler from rate from to rate to. Equal rates are
// allowed and make Resample a copy.
func New(from, to int) (*Resampler, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", from, to)
	}

	r := &Resampler{from: from, to: to}
	if from == to {
		return r, nil
	}

	r.swr = astiav.AllocSoftwareResampleContext()
	r.src = astiav.AllocFrame()
	r.dst = astiav.AllocFrame()
	if r.swr == nil || r.src == nil || r.dst == nil {
		r.Free()
		return nil, errors.New("failed to allocate resampler")
	}
	return r, nil
}

// Free releases the ffmpeg objects. It is safe to call more than once.
func (r *Resampler) Free() {
	if r.swr != nil {
		r.swr.Free()
		r.swr = nil
	}
	for _, f := range []**astiav.Frame{&r.src, &r.dst} {
		if *f != nil {
			(*f).Free()
			*f = nil
		}
	}
}

// Resample converts pcm in one call. A trailing odd byte is dropped.
func (r *Resampler) Resample(pcm []byte) ([]byte, error) {
	samples := len(pcm) / audio.BytesPerSample
	if samples == 0 {
		return nil, errors.New("resample: empty input")
	}
	if r.from == r.to {
		return append([]byte(nil), pcm[:samples*audio.BytesPerSample]...), nil
	}
	if r.swr == nil {
		return nil, errors.New("resample: resampler freed")
	}

	r.src.Unref()
	r.dst.Unref()
	if err := prepareFrame(r.src, r.from, samples); err != nil {
		return nil, fmt.Errorf("resample input: %w", err)
	}
	if err := prepareFrame(r.dst, r.to, max(1, samples*r.to/r.from)); err != nil {
		return nil, fmt.Errorf("resample output: %w", err)
	}
	if err := r.src.MakeWritable(); err != nil {
		return nil, fmt.Errorf("resample input not writable: %w", err)
	}

	// The frame buffer may be padded for alignment.
	size, err := r.src.SamplesBufferSize(0)
	if err != nil {
		return nil, fmt.Errorf("resample input size: %w", err)
	}
	in := pcm
	if len(in) < size {
		in = make([]byte, size)
		copy(in, pcm)
	}
	if err := r.src.Data().SetBytes(in[:size], 0); err != nil {
		return nil, fmt.Errorf("resample input data: %w", err)
	}

	if err := r.swr.ConvertFrame(r.src, r.dst); err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", r.from, r.to, err)
	}
	out, err := r.dst.Data().Bytes(0)
	if err != nil {
		return nil, fmt.Errorf("resample output data: %w", err)
	}
	return out, nil
}

func prepareFrame(f *astiav.Frame, rate, samples int) error {
	f.SetChannelLayout(astiav.ChannelLayoutMono)
	f.SetSampleFormat(astiav.SampleFormatS16)
	f.SetSampleRate(rate)
	f.SetNbSamples(samples)
	return f.AllocBuffer(0)
}
