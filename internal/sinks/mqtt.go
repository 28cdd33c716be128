package sinks

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/geometry"
	"github.com/banshee-data/depthview/internal/router"
)

// MQTTSink publishes presented frames to an MQTT broker: a JSON stats
// message on <prefix>/stats and the raw planes, base64-encoded little-endian
// float32, on <prefix>/planes/<name>.
type MQTTSink struct {
	client mqtt.Client
	prefix string

	mu          sync.Mutex
	staged      *device.Frame
	stagedModel *geometry.CameraModel
}

// FrameStats is the JSON payload published per presented frame.
type FrameStats struct {
	Seq            uint64  `json:"seq"`
	TimestampNanos int64   `json:"timestamp_nanos"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	DepthMin       float64 `json:"depth_min"`
	DepthMax       float64 `json:"depth_max"`
	DepthMean      float64 `json:"depth_mean"`
	ModelWidth     int     `json:"model_width"`
	ModelHeight    int     `json:"model_height"`
}

// NewMQTTSink connects to broker and returns a sink publishing under
// topicPrefix.
func NewMQTTSink(broker, clientID, topicPrefix string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(2 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", broker, token.Error())
	}
	return &MQTTSink{client: client, prefix: topicPrefix}, nil
}

// Clear discards any staged frame.
func (s *MQTTSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = nil
	s.stagedModel = nil
	return nil
}

// AddDepthmap stages the frame for the next Present.
func (s *MQTTSink) AddDepthmap(f *device.Frame, model *geometry.CameraModel, _ router.RenderOptions, planes []string) error {
	for _, name := range planes {
		if f.Plane(name) == nil {
			return fmt.Errorf("frame %d missing plane %q", f.Seq, name)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = f
	s.stagedModel = model
	return nil
}

// Present publishes the staged frame.
func (s *MQTTSink) Present() error {
	s.mu.Lock()
	f := s.staged
	model := s.stagedModel
	s.mu.Unlock()
	if f == nil {
		return nil
	}

	stats := frameStats(f, model)
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal frame stats: %w", err)
	}
	if token := s.client.Publish(s.prefix+"/stats", 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish stats: %w", token.Error())
	}

	for name, plane := range f.Planes {
		if token := s.client.Publish(s.prefix+"/planes/"+name, 0, false, encodePlane(plane)); token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to publish plane %q: %w", name, token.Error())
		}
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}

func frameStats(f *device.Frame, model *geometry.CameraModel) FrameStats {
	st := FrameStats{
		Seq:            f.Seq,
		TimestampNanos: f.TimestampNanos,
		Width:          f.Width,
		Height:         f.Height,
	}
	if model != nil {
		st.ModelWidth = model.Width
		st.ModelHeight = model.Height
	}

	depth := f.Plane(device.PlaneDepth)
	if len(depth) == 0 {
		return st
	}
	min, max, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, d := range depth {
		v := float64(d)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	st.DepthMin = min
	st.DepthMax = max
	st.DepthMean = sum / float64(len(depth))
	return st
}

// encodePlane serializes a plane as base64 over little-endian float32.
func encodePlane(plane []float32) []byte {
	raw := make([]byte, 4*len(plane))
	for i, v := range plane {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out
}
