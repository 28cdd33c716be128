package filters

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/timeutil"
)

func newTestModel(t *testing.T, opts Options) (*Model, *device.MockProvider) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	dev := device.NewMockProvider(clock)
	return NewModel(device.NewEditor(dev), opts), dev
}

// Every parameter write must leave its filter enabled, whatever the prior
// state was.
func TestParameterWriteEnablesFilter(t *testing.T) {
	tests := []struct {
		name    string
		write   func(*Model) error
		enabled func(*Model) (bool, error)
	}{
		{
			"distance range",
			func(m *Model) error { return m.SetDistanceRange(0.8, 6.0) },
			(*Model).DistanceEnabled,
		},
		{
			"intensity range",
			func(m *Model) error { return m.SetIntensityRange(-20, 0) },
			(*Model).IntensityEnabled,
		},
		{
			"remission range",
			func(m *Model) error { return m.SetRemissionRange(0.1, 0.9) },
			(*Model).RemissionEnabled,
		},
		{
			"isolated pixel value",
			func(m *Model) error { return m.SetIsolatedPixelValue(5) },
			(*Model).IsolatedPixelEnabled,
		},
		{
			"ambiguity value",
			func(m *Model) error { return m.SetAmbiguityValue(0.25) },
			(*Model).AmbiguityEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, DefaultOptions())

			enabled, err := tt.enabled(m)
			require.NoError(t, err)
			require.False(t, enabled, "filter should start disabled")

			require.NoError(t, tt.write(m))

			enabled, err = tt.enabled(m)
			require.NoError(t, err)
			assert.True(t, enabled, "parameter write must enable the filter")
		})
	}
}

func TestEnableSetterDoesNotTouchValues(t *testing.T) {
	m, dev := newTestModel(t, DefaultOptions())

	require.NoError(t, m.SetDistanceRange(1.0, 4.0))
	require.NoError(t, m.SetDistanceEnabled(false))

	enabled, err := m.DistanceEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	min, max, err := m.DistanceRange()
	require.NoError(t, err)
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 4.0, max)

	cfg, err := dev.Config()
	require.NoError(t, err)
	assert.False(t, cfg.Distance.Enabled)
}

func TestIntensityRangeDbConversion(t *testing.T) {
	m, dev := newTestModel(t, Options{}) // corrected mode, intensity slot untouched by isolated writes

	require.NoError(t, m.SetIntensityRange(-20, 0))

	cfg, err := dev.Config()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, cfg.Intensity.Min, 1e-12, "stored bound should be linear")
	assert.InDelta(t, 1.0, cfg.Intensity.Max, 1e-12)

	minDb, maxDb, err := m.IntensityRange()
	require.NoError(t, err)
	assert.InDelta(t, -20.0, minDb, 1e-9)
	assert.InDelta(t, 0.0, maxDb, 1e-9)
}

func TestIsolatedPixelLegacyCrossWrite(t *testing.T) {
	m, dev := newTestModel(t, DefaultOptions())

	before, err := m.IsolatedPixelValue()
	require.NoError(t, err)

	require.NoError(t, m.SetIsolatedPixelValue(7))

	cfg, err := dev.Config()
	require.NoError(t, err)

	// Legacy mode: the value lands in the intensity filter's scalar slot,
	// the isolated-pixel slot keeps its old value, and the enable flag
	// still lands on the isolated-pixel filter.
	assert.Equal(t, 7.0, cfg.Intensity.Min)
	assert.Equal(t, before, cfg.IsolatedPixel.Value)
	assert.True(t, cfg.IsolatedPixel.Enabled)
	assert.False(t, cfg.Intensity.Enabled)
}

func TestIsolatedPixelCorrectedWrite(t *testing.T) {
	m, dev := newTestModel(t, Options{LegacyIsolatedPixelWrite: false})

	require.NoError(t, m.SetIsolatedPixelValue(7))

	cfg, err := dev.Config()
	require.NoError(t, err)
	assert.Equal(t, 7.0, cfg.IsolatedPixel.Value)
	assert.True(t, cfg.IsolatedPixel.Enabled)

	v, err := m.IsolatedPixelValue()
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestFramePeriodMillisecondSurface(t *testing.T) {
	m, dev := newTestModel(t, DefaultOptions())

	require.NoError(t, m.SetFramePeriodMs(30))

	cfg, err := dev.Config()
	require.NoError(t, err)
	assert.Equal(t, 30000, cfg.FramePeriodUs)

	ms, err := m.FramePeriodMs()
	require.NoError(t, err)
	assert.Equal(t, 30.0, ms)
}

func TestEdgeCorrectionToggle(t *testing.T) {
	m, _ := newTestModel(t, DefaultOptions())

	require.NoError(t, m.SetEdgeCorrectionEnabled(true))
	tf, err := m.EdgeCorrection()
	require.NoError(t, err)
	assert.True(t, tf.Enabled)

	require.NoError(t, m.SetEdgeCorrectionEnabled(false))
	tf, err = m.EdgeCorrection()
	require.NoError(t, err)
	assert.False(t, tf.Enabled)
}

func TestGettersSurfaceDeviceUnavailable(t *testing.T) {
	m, dev := newTestModel(t, DefaultOptions())
	dev.ConfigErr = errors.New("handle lost")

	_, _, err := m.DistanceRange()
	assert.ErrorIs(t, err, device.ErrDeviceUnavailable)

	_, err = m.AmbiguityValue()
	assert.ErrorIs(t, err, device.ErrDeviceUnavailable)

	_, err = m.FramePeriodMs()
	assert.ErrorIs(t, err, device.ErrDeviceUnavailable)

	err = m.SetDistanceRange(1, 2)
	assert.ErrorIs(t, err, device.ErrDeviceUnavailable)
}

func TestAmbiguityRoundTrip(t *testing.T) {
	m, _ := newTestModel(t, DefaultOptions())

	require.NoError(t, m.SetAmbiguityValue(0.75))
	v, err := m.AmbiguityValue()
	require.NoError(t, err)
	if math.Abs(v-0.75) > 1e-12 {
		t.Errorf("AmbiguityValue = %f, want 0.75", v)
	}
}
