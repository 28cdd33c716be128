// Package control adapts the filter configuration model to a generic named
// endpoint registry. It is a pure pass-through layer: arguments are decoded,
// the model operation is invoked, and its result or error is returned to the
// caller unchanged.
package control

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/filters"
)

// Func is one remotely callable operation. Arguments arrive as a JSON array;
// the returned value is serialized back to the caller.
type Func func(args json.RawMessage) (interface{}, error)

// Registry registers named callables. The HTTP server implements it; other
// transports can too.
type Registry interface {
	ServeFunction(name string, fn Func)
}

// RangeResult is the getter payload for range filters.
type RangeResult struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bind registers every configuration-model operation on reg under
// "<namespace>.<op>".
func Bind(reg Registry, namespace string, m *filters.Model) {
	serve := func(op string, fn Func) {
		reg.ServeFunction(namespace+"."+op, fn)
	}

	// Frame period (milliseconds on the wire, microseconds on the device).
	serve("getFramePeriod", getFloat(m.FramePeriodMs))
	serve("setFramePeriod", setFloat(m.SetFramePeriodMs))

	// Distance filter
	serve("getDistanceFilterRange", getRange(m.DistanceRange))
	serve("setDistanceFilterRange", setRange(m.SetDistanceRange))
	serve("getDistanceFilterEnabled", getBool(m.DistanceEnabled))
	serve("setDistanceFilterEnabled", setBool(m.SetDistanceEnabled))

	// Intensity filter (dB on the wire, linear on the device)
	serve("getIntensityFilterRange", getRange(m.IntensityRange))
	serve("setIntensityFilterRange", setRange(m.SetIntensityRange))
	serve("getIntensityFilterEnabled", getBool(m.IntensityEnabled))
	serve("setIntensityFilterEnabled", setBool(m.SetIntensityEnabled))

	// Remission filter
	serve("getRemissionFilterRange", getRange(m.RemissionRange))
	serve("setRemissionFilterRange", setRange(m.SetRemissionRange))
	serve("getRemissionFilterEnabled", getBool(m.RemissionEnabled))
	serve("setRemissionFilterEnabled", setBool(m.SetRemissionEnabled))

	// Isolated-pixel filter
	serve("getIsolatedPixelFilterValue", getFloat(m.IsolatedPixelValue))
	serve("setIsolatedPixelFilterValue", setFloat(m.SetIsolatedPixelValue))
	serve("getIsolatedPixelFilterEnabled", getBool(m.IsolatedPixelEnabled))
	serve("setIsolatedPixelFilterEnabled", setBool(m.SetIsolatedPixelEnabled))

	// Ambiguity filter
	serve("getAmbiguityFilterValue", getFloat(m.AmbiguityValue))
	serve("setAmbiguityFilterValue", setFloat(m.SetAmbiguityValue))
	serve("getAmbiguityFilterEnabled", getBool(m.AmbiguityEnabled))
	serve("setAmbiguityFilterEnabled", setBool(m.SetAmbiguityEnabled))

	// Edge correction (toggle only; the getter carries the device's two
	// reserved fields through)
	serve("getEdgeCorrection", func(json.RawMessage) (interface{}, error) {
		return m.EdgeCorrection()
	})
	serve("setEdgeCorrectionEnabled", setBool(m.SetEdgeCorrectionEnabled))
}

func decodeArgs(args json.RawMessage, want int, into interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expected %d argument(s)", device.ErrInvalidParameter, want)
	}
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("%w: %v", device.ErrInvalidParameter, err)
	}
	return nil
}

func getFloat(fn func() (float64, error)) Func {
	return func(json.RawMessage) (interface{}, error) {
		return fn()
	}
}

func setFloat(fn func(float64) error) Func {
	return func(args json.RawMessage) (interface{}, error) {
		var vals []float64
		if err := decodeArgs(args, 1, &vals); err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("%w: expected 1 argument, got %d", device.ErrInvalidParameter, len(vals))
		}
		return nil, fn(vals[0])
	}
}

func getBool(fn func() (bool, error)) Func {
	return func(json.RawMessage) (interface{}, error) {
		return fn()
	}
}

func setBool(fn func(bool) error) Func {
	return func(args json.RawMessage) (interface{}, error) {
		var vals []bool
		if err := decodeArgs(args, 1, &vals); err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("%w: expected 1 argument, got %d", device.ErrInvalidParameter, len(vals))
		}
		return nil, fn(vals[0])
	}
}

func getRange(fn func() (float64, float64, error)) Func {
	return func(json.RawMessage) (interface{}, error) {
		min, max, err := fn()
		if err != nil {
			return nil, err
		}
		return RangeResult{Min: min, Max: max}, nil
	}
}

func setRange(fn func(float64, float64) error) Func {
	return func(args json.RawMessage) (interface{}, error) {
		var vals []float64
		if err := decodeArgs(args, 2, &vals); err != nil {
			return nil, err
		}
		if len(vals) != 2 {
			return nil, fmt.Errorf("%w: expected 2 arguments, got %d", device.ErrInvalidParameter, len(vals))
		}
		return nil, fn(vals[0], vals[1])
	}
}
