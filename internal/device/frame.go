package device

// Plane names present in every depthmap frame. Providers may attach
// additional planes (confidence, noise) under their own names.
const (
	PlaneDepth     = "Depth"
	PlaneIntensity = "Intensity"
)

// Frame is one acquired depthmap: a set of named image planes sharing the
// same binned dimensions. Frames are event-scoped; the router owns a frame
// only for the duration of one dispatch and nothing retains it afterwards.
type Frame struct {
	// Seq increases by one per frame emitted by the provider, including
	// frames later dropped by the event queue.
	Seq uint64

	// TimestampNanos is the provider-assigned acquisition time.
	TimestampNanos int64

	// Width and Height are the post-binning plane dimensions.
	Width  int
	Height int

	// Planes maps plane name to row-major samples, len = Width*Height.
	Planes map[string][]float32
}

// Plane returns the named plane, or nil when the provider did not attach it.
func (f *Frame) Plane(name string) []float32 {
	if f == nil {
		return nil
	}
	return f.Planes[name]
}
