// Package session owns the capture lifecycle against the device provider:
// applying frame period, ROI and binning, deriving the camera's geometric
// model, and starting/stopping acquisition.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/monitoring"
)

// State is the controller lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateConfiguring
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Controller drives one capture session on one device. All configuration
// applies go through the shared Editor so they serialize against the filter
// model's read-modify-write cycles.
//
// The derived CameraModel is published through an atomic pointer: frame
// dispatch observes either the previous or the new model in full, never a
// partially updated one. Every configuration path that touches ROI or binning
// re-derives the model before returning, so no frame captured under the new
// geometry can be interpreted with a stale model.
type Controller struct {
	dev device.Provider
	ed  *device.Editor

	mu         sync.Mutex // serializes Start/Stop/ApplyGeometry
	state      atomic.Int32
	model      atomic.Pointer[geometry.CameraModel]
	deregister func()
	forward    atomic.Value // of func(*device.Frame)
}

// New returns a stopped Controller for dev. Configuration applies are routed
// through ed, which must be the same Editor the filter model uses.
func New(dev device.Provider, ed *device.Editor) *Controller {
	return &Controller{dev: dev, ed: ed}
}

// SetFrameSink sets the consumer that receives the device's frame-ready
// events once the session is running.
func (c *Controller) SetFrameSink(fn func(*device.Frame)) {
	c.forward.Store(fn)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Model returns the camera model for the currently applied geometry, or nil
// before the first successful Start.
func (c *Controller) Model() *geometry.CameraModel {
	return c.model.Load()
}

// Start configures the device and begins acquisition: stop if running, apply
// frame period, ROI and binning in one snapshot push, derive the camera
// model from the applied state, start the device and register the
// frame-ready callback.
//
// A rejected configuration push is fatal to the start attempt: it is logged
// as severe, the session stays stopped, no callback is registered, and
// nothing is retried.
func (c *Controller) Start(roi device.ROI, binning device.Binning, framePeriodUs int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if State(c.state.Load()) == StateRunning {
		c.stopLocked()
	}

	if err := device.ValidateGeometry(roi, binning); err != nil {
		return err
	}
	if framePeriodUs <= 0 {
		return fmt.Errorf("%w: frame period %d µs", device.ErrInvalidParameter, framePeriodUs)
	}

	c.state.Store(int32(StateConfiguring))

	err := c.ed.Update(func(cfg *device.CaptureConfig) error {
		cfg.FramePeriodUs = framePeriodUs
		cfg.ROI = roi
		cfg.Binning = binning
		return nil
	})
	if err != nil {
		c.state.Store(int32(StateStopped))
		monitoring.Logf("[Session] SEVERE: device rejected capture configuration, acquisition not started: %v", err)
		return fmt.Errorf("apply capture configuration: %w", err)
	}

	model, err := c.dev.InitialCameraModel()
	if err != nil {
		c.state.Store(int32(StateStopped))
		return fmt.Errorf("derive camera model: %w", err)
	}
	c.model.Store(model)

	if err := c.dev.Start(); err != nil {
		c.state.Store(int32(StateStopped))
		return fmt.Errorf("start acquisition: %w", err)
	}

	c.deregister = c.dev.OnNewFrame(c.handleFrame)
	c.state.Store(int32(StateRunning))
	monitoring.Logf("[Session] running: period=%dµs roi=%+v binning=%dx%d model=%dx%d",
		framePeriodUs, roi, binning.X, binning.Y, model.Width, model.Height)
	return nil
}

// ApplyGeometry changes ROI and binning on a configured device and re-derives
// the camera model before returning. On a rejected push the previous geometry
// and model stay in effect.
func (c *Controller) ApplyGeometry(roi device.ROI, binning device.Binning) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := device.ValidateGeometry(roi, binning); err != nil {
		return err
	}

	err := c.ed.Update(func(cfg *device.CaptureConfig) error {
		cfg.ROI = roi
		cfg.Binning = binning
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply geometry: %w", err)
	}

	model, err := c.dev.InitialCameraModel()
	if err != nil {
		return fmt.Errorf("derive camera model: %w", err)
	}
	c.model.Store(model)
	monitoring.Logf("[Session] geometry applied: roi=%+v binning=%dx%d model=%dx%d",
		roi, binning.X, binning.Y, model.Width, model.Height)
	return nil
}

// Stop halts acquisition and deregisters the frame callback. Stopping a
// stopped session is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if State(c.state.Load()) == StateStopped {
		return
	}
	if err := c.dev.Stop(); err != nil {
		monitoring.Logf("[Session] device stop failed: %v", err)
	}
	if c.deregister != nil {
		c.deregister()
		c.deregister = nil
	}
	c.state.Store(int32(StateStopped))
	monitoring.Logf("[Session] stopped")
}

func (c *Controller) handleFrame(f *device.Frame) {
	// Read through the atomic so the device's acquisition goroutine never
	// contends on the lifecycle lock.
	if fn, ok := c.forward.Load().(func(*device.Frame)); ok && fn != nil {
		fn(f)
	}
}
