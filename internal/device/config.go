// Package device defines the contract to the depth-camera provider: the
// capture configuration snapshot, the frame type delivered on acquisition,
// and the Provider interface the rest of the system programs against. A
// synthetic provider backs dev mode and tests.
package device

import "fmt"

// ROI describes the sensor read-out window in unbinned sensor pixels.
type ROI struct {
	Enabled bool `json:"enabled"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
}

// Binning describes the pixel-combining factors applied by the sensor.
// Supported factors are 1, 2 and 4 on each axis.
type Binning struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RangeFilter gates a measurement plane to [Min, Max]. Bounds are stored in
// device-native linear units; the intensity filter is surfaced in dB by the
// configuration model but stored linear here.
type RangeFilter struct {
	Enabled bool    `json:"enabled"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ScalarFilter holds a single threshold value.
type ScalarFilter struct {
	Enabled bool    `json:"enabled"`
	Value   float64 `json:"value"`
}

// ToggleFilter has no parameter. The device reports two reserved fields
// alongside the enable flag; they are carried but never interpreted.
type ToggleFilter struct {
	Enabled   bool `json:"enabled"`
	Reserved0 int  `json:"reserved0"`
	Reserved1 int  `json:"reserved1"`
}

// CaptureConfig is the device-held capture configuration, modelled as a value
// type: fetch a snapshot, copy, mutate the copy, push the whole snapshot
// back. There are no partial-field device writes.
type CaptureConfig struct {
	// FramePeriodUs is the acquisition period in microseconds, > 0.
	FramePeriodUs int     `json:"frame_period_us"`
	ROI           ROI     `json:"roi"`
	Binning       Binning `json:"binning"`

	Distance       RangeFilter  `json:"distance"`
	Intensity      RangeFilter  `json:"intensity"`
	Remission      RangeFilter  `json:"remission"`
	IsolatedPixel  ScalarFilter `json:"isolated_pixel"`
	Ambiguity      ScalarFilter `json:"ambiguity"`
	EdgeCorrection ToggleFilter `json:"edge_correction"`
}

// validBinning reports whether f is a supported binning factor.
func validBinning(f int) bool {
	return f == 1 || f == 2 || f == 4
}

// ValidateGeometry checks the ROI/binning constraints the device enforces:
// binning factors in {1,2,4}, positive ROI dimensions, and ROI width
// divisible by 4 after horizontal binning. It reports the violation rather
// than adjusting the inputs.
func ValidateGeometry(roi ROI, binning Binning) error {
	if !validBinning(binning.X) || !validBinning(binning.Y) {
		return fmt.Errorf("%w: binning %dx%d, factors must be 1, 2 or 4", ErrInvalidParameter, binning.X, binning.Y)
	}
	if roi.Width <= 0 || roi.Height <= 0 {
		return fmt.Errorf("%w: roi %dx%d, dimensions must be positive", ErrInvalidParameter, roi.Width, roi.Height)
	}
	if roi.X < 0 || roi.Y < 0 {
		return fmt.Errorf("%w: roi offset (%d,%d) must be non-negative", ErrInvalidParameter, roi.X, roi.Y)
	}
	if (roi.Width/binning.X)%4 != 0 {
		return fmt.Errorf("%w: roi width %d with binning %d yields %d binned columns, must be divisible by 4",
			ErrInvalidParameter, roi.Width, binning.X, roi.Width/binning.X)
	}
	return nil
}

// BinnedWidth returns the logical image width after horizontal binning.
func (c CaptureConfig) BinnedWidth() int {
	if c.Binning.X == 0 {
		return c.ROI.Width
	}
	return c.ROI.Width / c.Binning.X
}

// BinnedHeight returns the logical image height after vertical binning.
func (c CaptureConfig) BinnedHeight() int {
	if c.Binning.Y == 0 {
		return c.ROI.Height
	}
	return c.ROI.Height / c.Binning.Y
}
