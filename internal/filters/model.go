// Package filters holds the remotely configurable capture-configuration
// model: six measurement filters plus the frame period, each read and written
// against the device as a whole-snapshot read-modify-write cycle.
//
// Writing a filter's numeric parameters always enables that filter in the
// same write; the legacy remote protocol has no way to change a value while
// leaving the enable flag untouched, and callers depend on it. Only the
// dedicated enable setters toggle state without touching values.
package filters

import (
	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/units"
)

// Options configures model behaviour.
type Options struct {
	// LegacyIsolatedPixelWrite preserves the historical behaviour of the
	// isolated-pixel value setter, which wrote the intensity filter's scalar
	// slot instead of its own. Remote callers calibrated against the old
	// firmware depend on the misrouted write, so it defaults to on; turn it
	// off to route the value to the isolated-pixel filter itself.
	LegacyIsolatedPixelWrite bool
}

// DefaultOptions returns the compatibility-preserving defaults.
func DefaultOptions() Options {
	return Options{LegacyIsolatedPixelWrite: true}
}

// Model exposes per-filter get/set pairs over the device configuration. All
// operations go through the shared Editor, which serializes them against each
// other and against the session controller's configuration applies.
type Model struct {
	ed   *device.Editor
	opts Options
}

// NewModel returns a Model operating through ed.
func NewModel(ed *device.Editor, opts Options) *Model {
	return &Model{ed: ed, opts: opts}
}

// Distance filter

func (m *Model) DistanceEnabled() (bool, error) {
	var enabled bool
	err := m.ed.View(func(c device.CaptureConfig) { enabled = c.Distance.Enabled })
	return enabled, err
}

func (m *Model) SetDistanceEnabled(enabled bool) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Distance.Enabled = enabled
		return nil
	})
}

// DistanceRange returns the distance filter bounds in metres.
func (m *Model) DistanceRange() (min, max float64, err error) {
	err = m.ed.View(func(c device.CaptureConfig) {
		min, max = c.Distance.Min, c.Distance.Max
	})
	return min, max, err
}

// SetDistanceRange sets the distance bounds and enables the filter.
func (m *Model) SetDistanceRange(min, max float64) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Distance.Enabled = true
		c.Distance.Min = min
		c.Distance.Max = max
		return nil
	})
}

// Intensity filter. The device stores linear ratios; the model surfaces
// decibels in both directions.

func (m *Model) IntensityEnabled() (bool, error) {
	var enabled bool
	err := m.ed.View(func(c device.CaptureConfig) { enabled = c.Intensity.Enabled })
	return enabled, err
}

func (m *Model) SetIntensityEnabled(enabled bool) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Intensity.Enabled = enabled
		return nil
	})
}

// IntensityRange returns the intensity bounds in dB.
func (m *Model) IntensityRange() (minDb, maxDb float64, err error) {
	err = m.ed.View(func(c device.CaptureConfig) {
		minDb = units.LinearToDb(c.Intensity.Min)
		maxDb = units.LinearToDb(c.Intensity.Max)
	})
	return minDb, maxDb, err
}

// SetIntensityRange sets the intensity bounds from dB values and enables the
// filter.
func (m *Model) SetIntensityRange(minDb, maxDb float64) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Intensity.Enabled = true
		c.Intensity.Min = units.DbToLinear(minDb)
		c.Intensity.Max = units.DbToLinear(maxDb)
		return nil
	})
}

// Isolated-pixel (flying cluster) filter

func (m *Model) IsolatedPixelEnabled() (bool, error) {
	var enabled bool
	err := m.ed.View(func(c device.CaptureConfig) { enabled = c.IsolatedPixel.Enabled })
	return enabled, err
}

func (m *Model) SetIsolatedPixelEnabled(enabled bool) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.IsolatedPixel.Enabled = enabled
		return nil
	})
}

func (m *Model) IsolatedPixelValue() (float64, error) {
	var v float64
	err := m.ed.View(func(c device.CaptureConfig) { v = c.IsolatedPixel.Value })
	return v, err
}

// SetIsolatedPixelValue writes the cluster-size threshold and enables the
// isolated-pixel filter. In legacy mode the value lands in the intensity
// filter's scalar slot; see Options.LegacyIsolatedPixelWrite.
func (m *Model) SetIsolatedPixelValue(v float64) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.IsolatedPixel.Enabled = true
		if m.opts.LegacyIsolatedPixelWrite {
			c.Intensity.Min = v
			return nil
		}
		c.IsolatedPixel.Value = v
		return nil
	})
}

// Ambiguity filter

func (m *Model) AmbiguityEnabled() (bool, error) {
	var enabled bool
	err := m.ed.View(func(c device.CaptureConfig) { enabled = c.Ambiguity.Enabled })
	return enabled, err
}

func (m *Model) SetAmbiguityEnabled(enabled bool) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Ambiguity.Enabled = enabled
		return nil
	})
}

func (m *Model) AmbiguityValue() (float64, error) {
	var v float64
	err := m.ed.View(func(c device.CaptureConfig) { v = c.Ambiguity.Value })
	return v, err
}

// SetAmbiguityValue writes the ambiguity threshold and enables the filter.
func (m *Model) SetAmbiguityValue(v float64) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Ambiguity.Enabled = true
		c.Ambiguity.Value = v
		return nil
	})
}

// Remission filter

func (m *Model) RemissionEnabled() (bool, error) {
	var enabled bool
	err := m.ed.View(func(c device.CaptureConfig) { enabled = c.Remission.Enabled })
	return enabled, err
}

func (m *Model) SetRemissionEnabled(enabled bool) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Remission.Enabled = enabled
		return nil
	})
}

func (m *Model) RemissionRange() (min, max float64, err error) {
	err = m.ed.View(func(c device.CaptureConfig) {
		min, max = c.Remission.Min, c.Remission.Max
	})
	return min, max, err
}

// SetRemissionRange sets the remission bounds and enables the filter.
func (m *Model) SetRemissionRange(min, max float64) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.Remission.Enabled = true
		c.Remission.Min = min
		c.Remission.Max = max
		return nil
	})
}

// Edge-correction filter: toggle only, no parameter.

// EdgeCorrection reports the toggle state plus the device's two reserved
// fields, which are carried through unread.
func (m *Model) EdgeCorrection() (device.ToggleFilter, error) {
	var t device.ToggleFilter
	err := m.ed.View(func(c device.CaptureConfig) { t = c.EdgeCorrection })
	return t, err
}

func (m *Model) SetEdgeCorrectionEnabled(enabled bool) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.EdgeCorrection.Enabled = enabled
		return nil
	})
}

// Frame period. Stored in microseconds on the device, surfaced in
// milliseconds.

func (m *Model) FramePeriodMs() (float64, error) {
	var ms float64
	err := m.ed.View(func(c device.CaptureConfig) {
		ms = units.MicrosToMillis(c.FramePeriodUs)
	})
	return ms, err
}

func (m *Model) SetFramePeriodMs(ms float64) error {
	return m.ed.Update(func(c *device.CaptureConfig) error {
		c.FramePeriodUs = units.MillisToMicros(ms)
		return nil
	})
}
