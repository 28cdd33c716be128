package device

import (
	"fmt"
	"sync"
)

// Editor serializes all read-modify-write cycles against the device
// configuration. The filter model and the session controller both mutate the
// same device-held snapshot; two interleaved fetch/mutate/push sequences
// would silently lose one writer's fields, so every cycle goes through one
// Editor and one mutex.
type Editor struct {
	mu  sync.Mutex
	dev Provider
}

// NewEditor returns an Editor bound to dev.
func NewEditor(dev Provider) *Editor {
	return &Editor{dev: dev}
}

// Update runs one serialized fetch → mutate → push cycle. fn receives a copy
// of the current snapshot; when it returns nil the mutated copy is pushed
// back whole. An fn error aborts the cycle without a push.
func (e *Editor) Update(fn func(*CaptureConfig) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.dev.Config()
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	if err := e.dev.SetConfig(cfg); err != nil {
		return fmt.Errorf("push config: %w", err)
	}
	return nil
}

// View runs fn against a copy of the current snapshot without writing back.
func (e *Editor) View(fn func(CaptureConfig)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.dev.Config()
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	fn(cfg)
	return nil
}
