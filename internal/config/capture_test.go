package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsWhenUnset(t *testing.T) {
	cfg := EmptyCaptureDefaults()

	roi := cfg.GetROI()
	if roi.Width != 176 || roi.Height != 144 || roi.X != 0 || roi.Y != 0 {
		t.Errorf("default ROI = %+v", roi)
	}
	if b := cfg.GetBinning(); b.X != 1 || b.Y != 1 {
		t.Errorf("default binning = %+v", b)
	}
	if d := cfg.GetFramePeriod(); d != 33333*time.Microsecond {
		t.Errorf("default frame period = %s", d)
	}
	if !cfg.GetLegacyIsolatedPixelWrite() {
		t.Error("legacy isolated-pixel write should default on")
	}
	if cfg.GetMQTTBroker() != "" {
		t.Error("MQTT output should default off")
	}
	if cfg.GetPlotStride() != 30 {
		t.Errorf("default plot stride = %d", cfg.GetPlotStride())
	}
	if cfg.GetMaxDepth() != 5.0 {
		t.Errorf("default max depth = %f", cfg.GetMaxDepth())
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{
		"roi_offset_x": 16,
		"roi_offset_y": 8,
		"roi_width": 88,
		"roi_height": 72,
		"bin_x": 2,
		"bin_y": 2,
		"frame_period": "50ms",
		"mqtt_broker": "tcp://localhost:1883",
		"legacy_isolated_pixel_write": false
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	roi := cfg.GetROI()
	if roi.Width != 88 || roi.Height != 72 {
		t.Errorf("ROI = %+v, want 88x72", roi)
	}
	if roi.X != 16 || roi.Y != 8 {
		t.Errorf("ROI origin = (%d, %d), want (16, 8)", roi.X, roi.Y)
	}
	if b := cfg.GetBinning(); b.X != 2 || b.Y != 2 {
		t.Errorf("binning = %+v, want 2x2", b)
	}
	if d := cfg.GetFramePeriod(); d != 50*time.Millisecond {
		t.Errorf("frame period = %s, want 50ms", d)
	}
	if cfg.GetMQTTBroker() != "tcp://localhost:1883" {
		t.Errorf("broker = %q", cfg.GetMQTTBroker())
	}
	if cfg.GetLegacyIsolatedPixelWrite() {
		t.Error("legacy write explicitly disabled, getter says enabled")
	}

	// Fields the file omits keep their defaults.
	if cfg.GetMQTTPrefix() != "depthview" {
		t.Errorf("prefix = %q, want depthview", cfg.GetMQTTPrefix())
	}
	if cfg.GetPlotStride() != 30 {
		t.Errorf("plot stride = %d, want 30", cfg.GetPlotStride())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad frame period", `{"frame_period": "fast"}`},
		{"negative frame period", `{"frame_period": "-10ms"}`},
		{"zero width", `{"roi_width": 0}`},
		{"bad binning", `{"bin_x": 3}`},
		{"inverted distance range", `{"distance_filter_min": 4.0, "distance_filter_max": 1.0}`},
		{"zero plot stride", `{"plot_stride": 0}`},
		{"not json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted %s", tc.body)
			}
		})
	}
}

func TestLoadRejectsNonJSONPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted non-.json extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load succeeded on missing file")
	}
}
