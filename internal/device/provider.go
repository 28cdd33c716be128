package device

import "github.com/banshee-data/depthview/internal/geometry"

// Provider is the opaque depth-camera driver the acquisition core programs
// against. Calls are synchronous: they either succeed or fail immediately,
// with no cancellation or retry semantics.
//
// Configuration follows whole-snapshot read-modify-write: Config returns a
// copy of the device-held snapshot and SetConfig replaces it entirely.
// Provider implementations do not serialize concurrent modify cycles; that is
// the Editor's job.
type Provider interface {
	// Start begins frame acquisition.
	Start() error

	// Stop halts frame acquisition. Stopping a stopped device is a no-op.
	Stop() error

	// Config fetches the current capture configuration snapshot. A failure
	// wraps ErrDeviceUnavailable.
	Config() (CaptureConfig, error)

	// SetConfig pushes a full snapshot to the device. A device-side refusal
	// wraps ErrConfigurationRejected.
	SetConfig(CaptureConfig) error

	// InitialCameraModel derives the geometric projection model from the
	// device state as currently configured.
	InitialCameraModel() (*geometry.CameraModel, error)

	// OnNewFrame registers the frame-ready handler and returns a function
	// that deregisters it. At most one handler is active at a time; the
	// provider invokes it from its acquisition goroutine.
	OnNewFrame(func(*Frame)) (deregister func())
}
