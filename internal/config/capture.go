// Package config loads startup configuration for the depth camera service.
// All fields are pointers so a partial JSON file overrides only what it
// names; Get* methods supply the defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/depthview/internal/device"
)

// CaptureDefaults describes the initial capture and filter state pushed to
// the device at startup. The schema mirrors the remote control surface so
// the same values can be set over RPC later.
type CaptureDefaults struct {
	// Geometry
	ROIOffsetX *int `json:"roi_offset_x,omitempty"`
	ROIOffsetY *int `json:"roi_offset_y,omitempty"`
	ROIWidth   *int `json:"roi_width,omitempty"`
	ROIHeight  *int `json:"roi_height,omitempty"`
	BinX       *int `json:"bin_x,omitempty"`
	BinY       *int `json:"bin_y,omitempty"`

	// Acquisition
	FramePeriod *string `json:"frame_period,omitempty"` // duration string like "33ms"

	// Filter startup values. Leaving a filter unset keeps it disabled.
	DistanceFilterMin *float64 `json:"distance_filter_min,omitempty"`
	DistanceFilterMax *float64 `json:"distance_filter_max,omitempty"`
	IntensityFilterDb *float64 `json:"intensity_filter_db,omitempty"`
	EdgeCorrection    *bool    `json:"edge_correction,omitempty"`

	// Compatibility switch for the historical isolated-pixel write path.
	LegacyIsolatedPixelWrite *bool `json:"legacy_isolated_pixel_write,omitempty"`

	// Outputs
	MQTTBroker *string  `json:"mqtt_broker,omitempty"`
	MQTTPrefix *string  `json:"mqtt_prefix,omitempty"`
	PlotDir    *string  `json:"plot_dir,omitempty"`
	PlotStride *int     `json:"plot_stride,omitempty"`
	MinDepth   *float64 `json:"min_depth,omitempty"`
	MaxDepth   *float64 `json:"max_depth,omitempty"`
}

// EmptyCaptureDefaults returns a CaptureDefaults with all fields nil.
func EmptyCaptureDefaults() *CaptureDefaults {
	return &CaptureDefaults{}
}

// Load reads a CaptureDefaults from a JSON file. Fields omitted from the
// file keep their built-in defaults, so partial configs are safe.
func Load(path string) (*CaptureDefaults, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCaptureDefaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that set values are usable before anything is pushed to
// the device. Geometry divisibility is the device layer's job; this only
// rejects values no device could accept.
func (c *CaptureDefaults) Validate() error {
	if c.FramePeriod != nil && *c.FramePeriod != "" {
		d, err := time.ParseDuration(*c.FramePeriod)
		if err != nil {
			return fmt.Errorf("invalid frame_period %q: %w", *c.FramePeriod, err)
		}
		if d <= 0 {
			return fmt.Errorf("frame_period must be positive, got %s", d)
		}
	}
	if c.ROIWidth != nil && *c.ROIWidth <= 0 {
		return fmt.Errorf("roi_width must be positive, got %d", *c.ROIWidth)
	}
	if c.ROIHeight != nil && *c.ROIHeight <= 0 {
		return fmt.Errorf("roi_height must be positive, got %d", *c.ROIHeight)
	}
	if c.BinX != nil {
		switch *c.BinX {
		case 1, 2, 4:
		default:
			return fmt.Errorf("bin_x must be 1, 2 or 4, got %d", *c.BinX)
		}
	}
	if c.BinY != nil {
		switch *c.BinY {
		case 1, 2, 4:
		default:
			return fmt.Errorf("bin_y must be 1, 2 or 4, got %d", *c.BinY)
		}
	}
	if c.DistanceFilterMin != nil && c.DistanceFilterMax != nil &&
		*c.DistanceFilterMin > *c.DistanceFilterMax {
		return fmt.Errorf("distance filter min %f exceeds max %f",
			*c.DistanceFilterMin, *c.DistanceFilterMax)
	}
	if c.PlotStride != nil && *c.PlotStride <= 0 {
		return fmt.Errorf("plot_stride must be positive, got %d", *c.PlotStride)
	}
	return nil
}

// GetROI returns the configured region of interest or the full sensor.
func (c *CaptureDefaults) GetROI() device.ROI {
	roi := device.ROI{Width: 176, Height: 144}
	if c.ROIOffsetX != nil {
		roi.X = *c.ROIOffsetX
	}
	if c.ROIOffsetY != nil {
		roi.Y = *c.ROIOffsetY
	}
	if c.ROIWidth != nil {
		roi.Width = *c.ROIWidth
	}
	if c.ROIHeight != nil {
		roi.Height = *c.ROIHeight
	}
	return roi
}

// GetBinning returns the configured binning or no binning.
func (c *CaptureDefaults) GetBinning() device.Binning {
	b := device.Binning{X: 1, Y: 1}
	if c.BinX != nil {
		b.X = *c.BinX
	}
	if c.BinY != nil {
		b.Y = *c.BinY
	}
	return b
}

// GetFramePeriod returns the configured frame period or the sensor's
// native 30 fps rate.
func (c *CaptureDefaults) GetFramePeriod() time.Duration {
	if c.FramePeriod == nil || *c.FramePeriod == "" {
		return 33333 * time.Microsecond
	}
	d, err := time.ParseDuration(*c.FramePeriod)
	if err != nil {
		return 33333 * time.Microsecond
	}
	return d
}

// GetLegacyIsolatedPixelWrite defaults to the historical write path so
// existing deployments keep their observed behaviour.
func (c *CaptureDefaults) GetLegacyIsolatedPixelWrite() bool {
	if c.LegacyIsolatedPixelWrite == nil {
		return true
	}
	return *c.LegacyIsolatedPixelWrite
}

// GetMQTTBroker returns the broker URL, empty when MQTT output is off.
func (c *CaptureDefaults) GetMQTTBroker() string {
	if c.MQTTBroker == nil {
		return ""
	}
	return *c.MQTTBroker
}

// GetMQTTPrefix returns the topic prefix for MQTT output.
func (c *CaptureDefaults) GetMQTTPrefix() string {
	if c.MQTTPrefix == nil {
		return "depthview"
	}
	return *c.MQTTPrefix
}

// GetPlotDir returns the heatmap output directory, empty when disabled.
func (c *CaptureDefaults) GetPlotDir() string {
	if c.PlotDir == nil {
		return ""
	}
	return *c.PlotDir
}

// GetPlotStride returns how many presented frames to skip between heatmaps.
func (c *CaptureDefaults) GetPlotStride() int {
	if c.PlotStride == nil {
		return 30
	}
	return *c.PlotStride
}

// GetMinDepth returns the lower bound of the heatmap colour range in metres.
func (c *CaptureDefaults) GetMinDepth() float64 {
	if c.MinDepth == nil {
		return 0
	}
	return *c.MinDepth
}

// GetMaxDepth returns the upper bound of the heatmap colour range in metres.
func (c *CaptureDefaults) GetMaxDepth() float64 {
	if c.MaxDepth == nil {
		return 5.0
	}
	return *c.MaxDepth
}
