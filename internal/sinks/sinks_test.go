package sinks

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/fsutil"
	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/router"
)

func testFrame(seq uint64) *device.Frame {
	w, h := 8, 8
	depth := make([]float32, w*h)
	intensity := make([]float32, w*h)
	for i := range depth {
		depth[i] = float32(1 + i%7)
		intensity[i] = 0.5
	}
	return &device.Frame{
		Seq:    seq,
		Width:  w,
		Height: h,
		Planes: map[string][]float32{
			device.PlaneDepth:     depth,
			device.PlaneIntensity: intensity,
		},
	}
}

func testModel(t *testing.T) *geometry.CameraModel {
	t.Helper()
	m, err := geometry.Derive(geometry.Intrinsics{FocalX: 10, FocalY: 10, CenterX: 4, CenterY: 4},
		geometry.Capture{Width: 8, Height: 8, BinX: 1, BinY: 1})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	return m
}

func TestPlotSinkWritesHeatmap(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	dir := "plots"
	sink, err := NewPlotSink(fs, dir, 1)
	if err != nil {
		t.Fatalf("NewPlotSink: %v", err)
	}

	planes := []string{device.PlaneDepth, device.PlaneIntensity}
	if err := sink.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := sink.AddDepthmap(testFrame(7), testModel(t), router.RenderOptions{}, planes); err != nil {
		t.Fatalf("AddDepthmap: %v", err)
	}
	if err := sink.Present(); err != nil {
		t.Fatalf("Present: %v", err)
	}

	out := filepath.Join(dir, "depth_000007.png")
	data, err := fs.ReadFile(out)
	if err != nil {
		t.Fatalf("expected heatmap at %s: %v", out, err)
	}
	if len(data) == 0 {
		t.Error("heatmap file is empty")
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Error("heatmap is not a PNG")
	}
}

func TestPlotSinkStride(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	dir := "plots"
	sink, err := NewPlotSink(fs, dir, 3)
	if err != nil {
		t.Fatalf("NewPlotSink: %v", err)
	}

	planes := []string{device.PlaneDepth, device.PlaneIntensity}
	for seq := uint64(1); seq <= 6; seq++ {
		sink.Clear()
		if err := sink.AddDepthmap(testFrame(seq), testModel(t), router.RenderOptions{}, planes); err != nil {
			t.Fatalf("AddDepthmap: %v", err)
		}
		if err := sink.Present(); err != nil {
			t.Fatalf("Present: %v", err)
		}
	}

	var wrote int
	for seq := uint64(1); seq <= 6; seq++ {
		name := filepath.Join(dir, fmt.Sprintf("depth_%06d.png", seq))
		if fs.Exists(name) {
			wrote++
		}
	}
	if wrote != 2 {
		t.Errorf("wrote %d plots for 6 frames at stride 3, want 2", wrote)
	}
}

func TestPlotSinkRejectsFrameWithoutDepth(t *testing.T) {
	sink, err := NewPlotSink(fsutil.NewMemoryFileSystem(), "plots", 1)
	if err != nil {
		t.Fatalf("NewPlotSink: %v", err)
	}
	f := &device.Frame{Seq: 1, Width: 4, Height: 4, Planes: map[string][]float32{}}
	if err := sink.AddDepthmap(f, testModel(t), router.RenderOptions{}, nil); err == nil {
		t.Error("expected error for frame without depth plane")
	}
}

func TestPlotSinkPresentWithoutStagedFrame(t *testing.T) {
	sink, err := NewPlotSink(fsutil.NewMemoryFileSystem(), "plots", 1)
	if err != nil {
		t.Fatalf("NewPlotSink: %v", err)
	}
	sink.Clear()
	if err := sink.Present(); err != nil {
		t.Errorf("Present with nothing staged: %v", err)
	}
}

func TestFrameStats(t *testing.T) {
	f := testFrame(9)
	st := frameStats(f, testModel(t))

	if st.Seq != 9 || st.Width != 8 || st.Height != 8 {
		t.Errorf("stats header mismatch: %+v", st)
	}
	if st.DepthMin != 1 || st.DepthMax != 7 {
		t.Errorf("depth range = [%f, %f], want [1, 7]", st.DepthMin, st.DepthMax)
	}
	if st.DepthMean < 1 || st.DepthMean > 7 {
		t.Errorf("depth mean %f outside range", st.DepthMean)
	}
	if st.ModelWidth != 8 || st.ModelHeight != 8 {
		t.Errorf("model dims = %dx%d, want 8x8", st.ModelWidth, st.ModelHeight)
	}
}

func TestEncodePlaneRoundTrip(t *testing.T) {
	plane := []float32{0, 1.5, -2.25, 1e-3}
	encoded := encodePlane(plane)

	raw, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 4*len(plane) {
		t.Fatalf("decoded %d bytes, want %d", len(raw), 4*len(plane))
	}
	for i, want := range plane {
		got := math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		if got != want {
			t.Errorf("plane[%d] = %f, want %f", i, got, want)
		}
	}
}
