package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/realtime-ai/jetvoice/pkg/audio"
	"github.com/realtime-ai/jetvoice/pkg/audio/resample"
)

// PlaybackConfig configures a Player.
type PlaybackConfig struct {
	// SampleRate forces the output rate; 0 opens the device at the rate of
	// each buffer. Buffers at other rates are resampled.
	SampleRate int
	// Device is an index into the playback device list, or DefaultDevice.
	Device int
}

// Player plays PCM buffers on the speaker, one at a time.
type Player struct {
	cfg    PlaybackConfig
	logger *slog.Logger

	mu   sync.Mutex // serializes Play
	mctx *malgo.AllocatedContext
}

// NewPlayer initializes the audio context used for playback.
func NewPlayer(cfg PlaybackConfig, logger *slog.Logger) (*Player, error) {
	if cfg.SampleRate < 0 {
		return nil, fmt.Errorf("invalid playback sample rate %d", cfg.SampleRate)
	}
	if logger == nil {
		logger = slog.Default()
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &Player{
		cfg:    cfg,
		logger: logger.With("component", "playback"),
		mctx:   mctx,
	}, nil
}

// Play writes pcm to the speaker and blocks until it has drained or ctx is
// done.
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) < audio.BytesPerSample {
		return nil
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mctx == nil {
		return ErrClosed
	}

	outRate := sampleRate
	if p.cfg.SampleRate > 0 && p.cfg.SampleRate != sampleRate {
		outRate = p.cfg.SampleRate
		r, err := resample.New(sampleRate, outRate)
		if err != nil {
			return err
		}
		pcm, err = r.Resample(pcm)
		r.Free()
		if err != nil {
			return fmt.Errorf("resample %d -> %d Hz: %w", sampleRate, outRate, err)
		}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.PeriodSizeInMilliseconds = 20
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = audio.Channels
	deviceConfig.SampleRate = uint32(outRate)
	deviceConfig.Alsa.NoMMap = 1

	if p.cfg.Device != DefaultDevice {
		infos, err := p.mctx.Devices(malgo.Playback)
		if err != nil {
			return fmt.Errorf("failed to list playback devices: %w", err)
		}
		if p.cfg.Device < 0 || p.cfg.Device >= len(infos) {
			return fmt.Errorf("playback device %d out of range (%d available)", p.cfg.Device, len(infos))
		}
		deviceConfig.Playback.DeviceID = infos[p.cfg.Device].ID.Pointer()
	}

	var (
		bufMu   sync.Mutex
		pending = pcm
		drained = make(chan struct{})
		once    sync.Once
	)
	dev, err := malgo.InitDevice(p.mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(output, _ []byte, _ uint32) {
			bufMu.Lock()
			n := copy(output, pending)
			pending = pending[n:]
			left := len(pending)
			bufMu.Unlock()

			clear(output[n:])
			if left == 0 {
				once.Do(func() { close(drained) })
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	defer dev.Stop()

	start := time.Now()
	select {
	case <-drained:
		// let the last period reach the speaker
		time.Sleep(time.Duration(deviceConfig.PeriodSizeInMilliseconds) * time.Millisecond)
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.Debug("playback finished",
		"bytes", len(pcm),
		"sample_rate", outRate,
		"elapsed", time.Since(start))
	return nil
}

// Close releases the audio context.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mctx == nil {
		return nil
	}
	p.mctx.Uninit()
	p.mctx.Free()
	p.mctx = nil
	return nil
}
