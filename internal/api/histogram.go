package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/httputil"
	"github.com/banshee-data/depthview/internal/router"
)

// histogramBins buckets span the [0, 1] linear intensity range.
const histogramBins = 32

// HistogramSink aggregates the intensity plane of each dispatched frame into
// a fixed histogram for the debug chart. It retains only the aggregated bins,
// never the frame itself.
type HistogramSink struct {
	mu     sync.Mutex
	staged [histogramBins]uint64
	bins   [histogramBins]uint64
	seq    uint64
	have   bool
}

// NewHistogramSink returns an empty histogram sink.
func NewHistogramSink() *HistogramSink {
	return &HistogramSink{}
}

// Clear resets the staging buffer.
func (h *HistogramSink) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staged = [histogramBins]uint64{}
	return nil
}

// AddDepthmap buckets the frame's intensity plane into the staging buffer.
func (h *HistogramSink) AddDepthmap(f *device.Frame, _ *geometry.CameraModel, _ router.RenderOptions, _ []string) error {
	plane := f.Plane(device.PlaneIntensity)
	if plane == nil {
		return fmt.Errorf("frame %d has no intensity plane", f.Seq)
	}

	var staged [histogramBins]uint64
	for _, v := range plane {
		bin := int(v * histogramBins)
		if bin < 0 {
			bin = 0
		}
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		staged[bin]++
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.staged = staged
	h.seq = f.Seq
	return nil
}

// Present publishes the staged bins.
func (h *HistogramSink) Present() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bins = h.staged
	h.have = true
	return nil
}

// Snapshot returns the last published bins and the frame they came from.
func (h *HistogramSink) Snapshot() (bins [histogramBins]uint64, seq uint64, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bins, h.seq, h.have
}

// handleIntensityChart renders the published histogram as an echarts bar
// chart. Debugging-only endpoint, served under /debug/.
func (s *Server) handleIntensityChart(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		httputil.NotFound(w, "histogram sink not configured")
		return
	}
	bins, seq, ok := s.hist.Snapshot()
	if !ok {
		httputil.NotFound(w, "no frame dispatched yet")
		return
	}

	labels := make([]string, histogramBins)
	data := make([]opts.BarData, histogramBins)
	for i := range bins {
		labels[i] = fmt.Sprintf("%.2f", float64(i)/histogramBins)
		data[i] = opts.BarData{Value: bins[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Intensity distribution",
			Subtitle: fmt.Sprintf("frame %d, %d bins over [0,1]", seq, histogramBins),
		}),
	)
	bar.SetXAxis(labels).AddSeries("pixels", data)

	if err := bar.Render(w); err != nil {
		httputil.InternalServerError(w, "failed to render chart")
	}
}
