// Package router fans acquired frames out to presentation sinks. A bounded
// single-slot queue sits between the device's frame-ready notification and
// the dispatch goroutine: at most one frame is ever pending, a newer frame
// replaces an undelivered older one, and the notifier never blocks.
package router

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/monitoring"
)

// RenderOptions carries per-dispatch rendering hints for sinks.
type RenderOptions struct {
	// MinDepth/MaxDepth bound the colour scale in metres; zero values let
	// the sink autoscale.
	MinDepth float64
	MaxDepth float64
}

// Sink is one presentation surface. The router drives each sink through
// Clear, AddDepthmap, Present per frame, in registration order.
type Sink interface {
	Clear() error
	AddDepthmap(f *device.Frame, model *geometry.CameraModel, opts RenderOptions, planes []string) error
	Present() error
}

// ModelSource supplies the camera model valid for the frames currently being
// dispatched. The source must publish replacements atomically.
type ModelSource interface {
	Model() *geometry.CameraModel
}

// Stats is a snapshot of router counters.
type Stats struct {
	// Dispatched counts frames delivered to the sink set.
	Dispatched uint64 `json:"dispatched"`

	// Dropped counts frames discarded because a newer one arrived before
	// the previous was consumed.
	Dropped uint64 `json:"dropped"`

	// SinkErrors counts per-sink render failures that were isolated.
	SinkErrors uint64 `json:"sink_errors"`

	// Sinks is the number of registered sinks.
	Sinks int `json:"sinks"`
}

type registration struct {
	id   string
	sink Sink
}

// Router owns the single-slot frame queue and the registered sink set.
type Router struct {
	source ModelSource
	opts   RenderOptions

	slot chan *device.Frame

	mu    sync.Mutex
	sinks []registration

	dispatched atomic.Uint64
	dropped    atomic.Uint64
	sinkErrors atomic.Uint64
}

// New returns a Router pairing dispatched frames with models from source.
func New(source ModelSource, opts RenderOptions) *Router {
	return &Router{
		source: source,
		opts:   opts,
		slot:   make(chan *device.Frame, 1),
	}
}

// AddSink registers a sink and returns its registration ID. Sinks are
// dispatched in registration order.
func (r *Router) AddSink(s Sink) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, registration{id: id, sink: s})
	return id
}

// RemoveSink deregisters the sink with the given ID.
func (r *Router) RemoveSink(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, reg := range r.sinks {
		if reg.id == id {
			r.sinks = append(r.sinks[:i], r.sinks[i+1:]...)
			return
		}
	}
}

// Publish offers a frame to the dispatch loop. It never blocks: when the
// previous frame is still pending it is discarded and replaced, so the
// backlog never exceeds one frame.
func (r *Router) Publish(f *device.Frame) {
	for {
		select {
		case r.slot <- f:
			return
		default:
		}
		// Slot full: evict the stale frame and retry. The retry loop covers
		// the dispatcher draining the slot between our eviction and send.
		select {
		case old := <-r.slot:
			r.dropped.Add(1)
			monitoring.Logf("[Router] dropped frame %d (undelivered, superseded by %d)", old.Seq, f.Seq)
		default:
		}
	}
}

// Run consumes pending frames and dispatches them to the sinks until ctx is
// cancelled. Run returns ctx.Err.
func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-r.slot:
			r.dispatch(f)
		}
	}
}

// DispatchPending synchronously dispatches the pending frame, if any. Tests
// and single-step tools use it in place of Run.
func (r *Router) DispatchPending() bool {
	select {
	case f := <-r.slot:
		r.dispatch(f)
		return true
	default:
		return false
	}
}

// dispatch drives every sink through clear/add/present for one frame. A
// failing step skips the remaining steps of that sink only; later sinks
// still receive the frame.
func (r *Router) dispatch(f *device.Frame) {
	model := r.source.Model()

	r.mu.Lock()
	sinks := make([]registration, len(r.sinks))
	copy(sinks, r.sinks)
	r.mu.Unlock()

	planes := []string{device.PlaneDepth, device.PlaneIntensity}
	for _, reg := range sinks {
		if err := reg.sink.Clear(); err != nil {
			r.sinkErrors.Add(1)
			monitoring.Logf("[Router] sink %s clear failed on frame %d: %v", reg.id, f.Seq, err)
			continue
		}
		if err := reg.sink.AddDepthmap(f, model, r.opts, planes); err != nil {
			r.sinkErrors.Add(1)
			monitoring.Logf("[Router] sink %s render failed on frame %d: %v", reg.id, f.Seq, err)
			continue
		}
		if err := reg.sink.Present(); err != nil {
			r.sinkErrors.Add(1)
			monitoring.Logf("[Router] sink %s present failed on frame %d: %v", reg.id, f.Seq, err)
		}
	}
	r.dispatched.Add(1)
}

// Stats returns a snapshot of the router counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	n := len(r.sinks)
	r.mu.Unlock()
	return Stats{
		Dispatched: r.dispatched.Load(),
		Dropped:    r.dropped.Load(),
		SinkErrors: r.sinkErrors.Load(),
		Sinks:      n,
	}
}
