package device

import "errors"

// Sentinel errors for device interactions. Call sites wrap these with
// fmt.Errorf("...: %w", err) so callers can branch with errors.Is while the
// message keeps the local context.
var (
	// ErrDeviceUnavailable indicates the device handle is missing or did not
	// respond to a configuration fetch or push.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrConfigurationRejected indicates the device refused a pushed
	// configuration snapshot. The attempted operation is not retried.
	ErrConfigurationRejected = errors.New("configuration rejected by device")

	// ErrInvalidParameter indicates a caller-supplied ROI, binning or range
	// violates device constraints. Inputs are never silently corrected.
	ErrInvalidParameter = errors.New("invalid parameter")
)
