package device

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/realtime-ai/jetvoice/pkg/audio"
)

// DefaultDevice selects the system default input or output.
const DefaultDevice = -1

// CaptureConfig configures a MalgoSource.
type CaptureConfig struct {
	SampleRate int
	// BlockMs is the device period; chunks arrive roughly this often.
	BlockMs int
	// Device is an index into the capture device list, or DefaultDevice.
	Device int
}

// MalgoSource captures microphone audio through miniaudio.
type MalgoSource struct {
	cfg    CaptureConfig
	logger *slog.Logger

	mu     sync.Mutex
	mctx   *malgo.AllocatedContext
	dev    *malgo.Device
	closed bool

	paused atomic.Bool
}

// NewMalgoSource initializes the audio context. The device itself is opened
// by Start.
func NewMalgoSource(cfg CaptureConfig, logger *slog.Logger) (*MalgoSource, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid capture sample rate %d", cfg.SampleRate)
	}
	if cfg.BlockMs <= 0 {
		return nil, fmt.Errorf("invalid capture block %dms", cfg.BlockMs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &MalgoSource{
		cfg:    cfg,
		logger: logger.With("component", "capture"),
		mctx:   mctx,
	}, nil
}

// Start opens the capture device and begins delivering chunks.
func (s *MalgoSource) Start(onChunk func(chunk []byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.dev != nil {
		return fmt.Errorf("capture already started")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.PeriodSizeInMilliseconds = uint32(s.cfg.BlockMs)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = audio.Channels
	deviceConfig.SampleRate = uint32(s.cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if s.cfg.Device != DefaultDevice {
		infos, err := s.mctx.Devices(malgo.Capture)
		if err != nil {
			return fmt.Errorf("failed to list capture devices: %w", err)
		}
		if s.cfg.Device < 0 || s.cfg.Device >= len(infos) {
			return fmt.Errorf("capture device %d out of range (%d available)", s.cfg.Device, len(infos))
		}
		deviceConfig.Capture.DeviceID = infos[s.cfg.Device].ID.Pointer()
		s.logger.Info("using capture device", "index", s.cfg.Device, "name", infos[s.cfg.Device].Name())
	}

	dev, err := malgo.InitDevice(s.mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if s.paused.Load() || len(input) == 0 {
				return
			}
			// miniaudio reuses input after the callback returns
			chunk := make([]byte, len(input))
			copy(chunk, input)
			onChunk(chunk)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	s.dev = dev
	s.logger.Info("capture started", "sample_rate", s.cfg.SampleRate, "block_ms", s.cfg.BlockMs)
	return nil
}

// Pause stops the device. Chunks already queued by the caller are not
// affected.
func (s *MalgoSource) Pause() error {
	s.paused.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.dev == nil || !s.dev.IsStarted() {
		return nil
	}
	if err := s.dev.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

// Resume restarts the device after Pause.
func (s *MalgoSource) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.dev != nil && !s.dev.IsStarted() {
		if err := s.dev.Start(); err != nil {
			return fmt.Errorf("failed to restart capture device: %w", err)
		}
	}
	s.paused.Store(false)
	return nil
}

// Paused reports whether capture is paused.
func (s *MalgoSource) Paused() bool {
	return s.paused.Load()
}

// Close stops capture and releases the device and context.
func (s *MalgoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.dev != nil {
		s.dev.Stop()
		s.dev.Uninit()
		s.dev = nil
	}
	if s.mctx != nil {
		s.mctx.Uninit()
		s.mctx.Free()
		s.mctx = nil
	}
	return nil
}

// ListCaptureDevices returns the names of available capture devices in index
// order.
func ListCaptureDevices() ([]string, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		mctx.Uninit()
		mctx.Free()
	}()

	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

var _ Source = (*MalgoSource)(nil)
