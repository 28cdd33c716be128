package device

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/timeutil"
)

// MockProvider implements Provider with synthetic depth and intensity planes.
// It backs dev mode and tests: frame pacing is driven by a timeutil.Clock so
// tests can advance time manually, and the exported error fields allow
// injecting device failures.
type MockProvider struct {
	mu         sync.Mutex
	cfg        CaptureConfig
	intr       geometry.Intrinsics
	clock      timeutil.Clock
	handler    func(*Frame)
	handlerGen int
	running    bool
	stopCh     chan struct{}
	wg         sync.WaitGroup
	seq        uint64

	// ConfigErr, when set, is returned by Config (wrapped in
	// ErrDeviceUnavailable).
	ConfigErr error

	// SetConfigErr, when set, makes SetConfig refuse the pushed snapshot
	// (wrapped in ErrConfigurationRejected).
	SetConfigErr error

	// StartErr, when set, is returned by Start.
	StartErr error
}

// DefaultMockConfig returns the power-on configuration of the synthetic
// camera: full sensor read-out, no binning, ~30 fps, all filters disabled
// with device-default parameters.
func DefaultMockConfig() CaptureConfig {
	return CaptureConfig{
		FramePeriodUs: 33333,
		ROI:           ROI{Enabled: false, X: 0, Y: 0, Width: 176, Height: 144},
		Binning:       Binning{X: 1, Y: 1},
		Distance:      RangeFilter{Min: 0.5, Max: 7.5},
		Intensity:     RangeFilter{Min: 0.05, Max: 1.0},
		Remission:     RangeFilter{Min: 0.0, Max: 1.0},
		IsolatedPixel: ScalarFilter{Value: 3},
		Ambiguity:     ScalarFilter{Value: 0.5},
	}
}

// DefaultMockIntrinsics is the synthetic sensor calibration used when no
// intrinsics are supplied.
var DefaultMockIntrinsics = geometry.Intrinsics{
	FocalX:  180.0,
	FocalY:  180.0,
	CenterX: 88.0,
	CenterY: 72.0,
}

// NewMockProvider returns a stopped synthetic camera using the given clock
// for frame pacing.
func NewMockProvider(clock timeutil.Clock) *MockProvider {
	return &MockProvider{
		cfg:   DefaultMockConfig(),
		intr:  DefaultMockIntrinsics,
		clock: clock,
	}
}

func (m *MockProvider) Config() (CaptureConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return CaptureConfig{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, m.ConfigErr)
	}
	return m.cfg, nil
}

func (m *MockProvider) SetConfig(cfg CaptureConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetConfigErr != nil {
		return fmt.Errorf("%w: %v", ErrConfigurationRejected, m.SetConfigErr)
	}
	// The real device refuses snapshots violating its geometry constraints;
	// mirror that rather than validating client-side.
	if err := ValidateGeometry(cfg.ROI, cfg.Binning); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigurationRejected, err)
	}
	if cfg.FramePeriodUs <= 0 {
		return fmt.Errorf("%w: frame period %d µs", ErrConfigurationRejected, cfg.FramePeriodUs)
	}
	m.cfg = cfg
	return nil
}

func (m *MockProvider) InitialCameraModel() (*geometry.CameraModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, m.ConfigErr)
	}
	return geometry.Derive(m.intr, geometry.Capture{
		OffsetX: m.cfg.ROI.X,
		OffsetY: m.cfg.ROI.Y,
		Width:   m.cfg.BinnedWidth(),
		Height:  m.cfg.BinnedHeight(),
		BinX:    m.cfg.Binning.X,
		BinY:    m.cfg.Binning.Y,
	})
}

func (m *MockProvider) OnNewFrame(fn func(*Frame)) func() {
	m.mu.Lock()
	m.handlerGen++
	gen := m.handlerGen
	m.handler = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Only clear if a later registration has not replaced this one.
		if m.handlerGen == gen {
			m.handler = nil
		}
	}
}

// HasHandler reports whether a frame handler is currently registered.
func (m *MockProvider) HasHandler() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler != nil
}

func (m *MockProvider) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	if m.running {
		return nil
	}
	m.running = true
	m.stopCh = make(chan struct{})

	period := time.Duration(m.cfg.FramePeriodUs) * time.Microsecond
	stopCh := m.stopCh
	m.wg.Add(1)
	go m.acquire(period, stopCh)
	return nil
}

func (m *MockProvider) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

func (m *MockProvider) acquire(period time.Duration, stopCh chan struct{}) {
	defer m.wg.Done()
	ticker := m.clock.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C():
			m.emit(now)
		}
	}
}

// Emit generates and delivers one synthetic frame immediately, bypassing the
// ticker. Tests use it to produce frames deterministically.
func (m *MockProvider) Emit() {
	m.emit(m.clock.Now())
}

func (m *MockProvider) emit(now time.Time) {
	m.mu.Lock()
	cfg := m.cfg
	handler := m.handler
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	if handler == nil {
		return
	}

	w, h := cfg.BinnedWidth(), cfg.BinnedHeight()
	depth := make([]float32, w*h)
	intensity := make([]float32, w*h)

	// A slowly breathing radial depth field with a brighter centre spot in
	// the intensity plane; enough structure for sinks to render something
	// recognisable.
	phase := float64(now.UnixNano()%2e9) / 2e9 * 2 * math.Pi
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			dx := float64(u)/float64(w) - 0.5
			dy := float64(v)/float64(h) - 0.5
			r := math.Sqrt(dx*dx + dy*dy)
			depth[v*w+u] = float32(2.0 + 3.0*r + 0.2*math.Sin(phase))
			intensity[v*w+u] = float32(math.Max(0.02, 1.0-2.0*r))
		}
	}

	handler(&Frame{
		Seq:            seq,
		TimestampNanos: now.UnixNano(),
		Width:          w,
		Height:         h,
		Planes: map[string][]float32{
			PlaneDepth:     depth,
			PlaneIntensity: intensity,
		},
	})
}
