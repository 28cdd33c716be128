// Package sinks provides the presentation surfaces frames are fanned out to:
// a PNG heatmap plotter and an MQTT publisher. Each implements router.Sink
// and is driven through clear/add/present per frame.
package sinks

import (
	"fmt"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/fsutil"
	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/router"
)

// PlotSink renders the depth plane of every Nth presented frame to a PNG
// heatmap under an output directory. Rendering every frame at 30 fps would
// be pure disk churn, so the stride defaults to one plot per 30 frames.
type PlotSink struct {
	mu        sync.Mutex
	fs        fsutil.FileSystem
	outputDir string
	stride    uint64
	presented uint64

	staged      *device.Frame
	stagedModel *geometry.CameraModel
	stagedOpts  router.RenderOptions
}

// NewPlotSink creates the output directory on fs and returns a PlotSink
// writing into it. A stride of 0 defaults to 30.
func NewPlotSink(fs fsutil.FileSystem, outputDir string, stride uint64) (*PlotSink, error) {
	if err := fs.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if stride == 0 {
		stride = 30
	}
	return &PlotSink{fs: fs, outputDir: outputDir, stride: stride}, nil
}

// Clear discards any staged frame.
func (p *PlotSink) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = nil
	p.stagedModel = nil
	return nil
}

// AddDepthmap stages the frame for the next Present.
func (p *PlotSink) AddDepthmap(f *device.Frame, model *geometry.CameraModel, opts router.RenderOptions, planes []string) error {
	if f.Plane(device.PlaneDepth) == nil {
		return fmt.Errorf("frame %d has no depth plane", f.Seq)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = f
	p.stagedModel = model
	p.stagedOpts = opts
	return nil
}

// Present renders the staged frame when the stride elapses.
func (p *PlotSink) Present() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.staged == nil {
		return nil
	}
	p.presented++
	if p.presented%p.stride != 0 {
		return nil
	}
	return p.render(p.staged, p.stagedOpts)
}

func (p *PlotSink) render(f *device.Frame, opts router.RenderOptions) error {
	grid := &depthGrid{frame: f, plane: f.Plane(device.PlaneDepth)}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("depth frame %d", f.Seq)
	pl.X.Label.Text = "u (px)"
	pl.Y.Label.Text = "v (px)"

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	if opts.MinDepth != 0 || opts.MaxDepth != 0 {
		hm.Min = opts.MinDepth
		hm.Max = opts.MaxDepth
	}
	pl.Add(hm)

	wt, err := pl.WriterTo(6*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	name := filepath.Join(p.outputDir, fmt.Sprintf("depth_%06d.png", f.Seq))
	w, err := p.fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to save heatmap: %w", err)
	}
	return w.Close()
}

// depthGrid adapts a depth plane to plotter.GridXYZ. The v axis is flipped
// so row 0 plots at the top, matching image orientation.
type depthGrid struct {
	frame *device.Frame
	plane []float32
}

func (g *depthGrid) Dims() (c, r int) { return g.frame.Width, g.frame.Height }

func (g *depthGrid) Z(c, r int) float64 {
	row := g.frame.Height - 1 - r
	return float64(g.plane[row*g.frame.Width+c])
}

func (g *depthGrid) X(c int) float64 { return float64(c) }
func (g *depthGrid) Y(r int) float64 { return float64(r) }
