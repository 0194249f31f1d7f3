//go:build vad

// Silero speech detector over ONNX Runtime. Build with -tags vad and make
// libonnxruntime available (ONNXRUNTIME_LIB or a standard library path).

package vad

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const stateLen = 2 * 1 * 128

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// WindowSamples returns the input size Silero expects at sampleRate.
func WindowSamples(sampleRate int) int {
	if sampleRate == 8000 {
		return 256
	}
	return 512
}

// ContextSamples returns how many trailing samples of one window Silero
// prepends to the next at sampleRate.
func ContextSamples(sampleRate int) int {
	if sampleRate == 8000 {
		return 32
	}
	return 64
}

// initRuntime loads the ONNX Runtime shared library once per process.
func initRuntime() error {
	runtimeOnce.Do(func() {
		if lib := findONNXRuntimeLibrary(); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			runtimeErr = fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	})
	return runtimeErr
}

func findONNXRuntimeLibrary() string {
	candidates := []string{
		os.Getenv("ONNXRUNTIME_LIB"),
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/aarch64-linux-gnu/libonnxruntime.so",
		"/opt/onnxruntime/lib/libonnxruntime.so",
	}
	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		for _, dir := range filepath.SplitList(ldPath) {
			candidates = append(candidates, filepath.Join(dir, "libonnxruntime.so"))
		}
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DetectorConfig configures a Silero detector.
type DetectorConfig struct {
	ModelPath string
	// SampleRate must be 8000 or 16000; the model supports nothing else.
	SampleRate int
}

// IsValid validates the detector configuration.
func (c DetectorConfig) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("silero model path is empty")
	}
	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("silero supports 8000 or 16000 Hz, got %d", c.SampleRate)
	}
	return nil
}

// Detector runs the Silero VAD model. It is not safe for concurrent use.
type Detector struct {
	session    *ort.DynamicAdvancedSession
	sampleRate int

	// LSTM state carried between calls
	state [stateLen]float32
	// tail of the previous input, prepended to the next one
	ctx    []float32
	primed bool
}

// NewDetector loads the model at cfg.ModelPath.
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	if err := initRuntime(); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization level: %w", err)
	}
	// One thread each; the board is shared with capture and playback.
	if err := options.SetIntraOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load silero model %s: %w", cfg.ModelPath, err)
	}

	return &Detector{
		session:    session,
		sampleRate: cfg.SampleRate,
		ctx:        make([]float32, ContextSamples(cfg.SampleRate)),
	}, nil
}

// Infer implements SpeechModel.
func (d *Detector) Infer(samples []float32) (float32, error) {
	if d == nil || d.session == nil {
		return 0, fmt.Errorf("detector is closed")
	}

	pcm := samples
	if d.primed {
		pcm = append(slices.Clip(d.ctx), samples...)
	}
	if n := len(d.ctx); len(samples) >= n {
		copy(d.ctx, samples[len(samples)-n:])
	}
	d.primed = true

	input, err := ort.NewTensor(ort.NewShape(1, int64(len(pcm))), pcm)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	state, err := ort.NewTensor(ort.NewShape(2, 1, 128), d.state[:])
	if err != nil {
		return 0, fmt.Errorf("failed to create state tensor: %w", err)
	}
	defer state.Destroy()

	sr, err := ort.NewTensor(ort.NewShape(1), []int64{int64(d.sampleRate)})
	if err != nil {
		return 0, fmt.Errorf("failed to create sr tensor: %w", err)
	}
	defer sr.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	stateN, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 128))
	if err != nil {
		return 0, fmt.Errorf("failed to create stateN tensor: %w", err)
	}
	defer stateN.Destroy()

	if err := d.session.Run([]ort.Value{input, state, sr}, []ort.Value{output, stateN}); err != nil {
		return 0, fmt.Errorf("silero inference: %w", err)
	}

	copy(d.state[:], stateN.GetData())

	out := output.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("silero returned no output")
	}
	return out[0], nil
}

// Reset implements SpeechModel.
func (d *Detector) Reset() error {
	if d == nil {
		return fmt.Errorf("detector is nil")
	}
	clear(d.state[:])
	clear(d.ctx)
	d.primed = false
	return nil
}

// Destroy implements SpeechModel.
func (d *Detector) Destroy() error {
	if d == nil {
		return fmt.Errorf("detector is nil")
	}
	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

var _ SpeechModel = (*Detector)(nil)
