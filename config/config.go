package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/counter"
	"gonum.org/v1/gonum/spatial/r2"
)

// Detector kinds
const (
	DetectorONNX   = "onnx"
	DetectorRemote = "remote"
	DetectorReplay = "replay"
)

// maxFileSize is the largest configuration file accepted
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration of the counting service
type Config struct {
	// Labels are the class names of the detector in class index order
	Labels []string `json:"labels"`
	// LabelsFile replaces Labels with one class name per line when set.
	// Relative paths are resolved against the configuration file
	LabelsFile string `json:"labels_file,omitempty"`

	Detector   DetectorConfig   `json:"detector"`
	Tracking   TrackingConfig   `json:"tracking"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	Boundaries []BoundaryConfig `json:"boundaries"`
	Journal    JournalConfig    `json:"journal"`
	MQTT       MQTTConfig       `json:"mqtt"`
	HTTP       HTTPConfig       `json:"http"`
}

// DetectorConfig selects and configures the detection source
type DetectorConfig struct {
	// Kind is one of onnx, remote or replay
	Kind string `json:"kind"`
	// Model is the ONNX model file
	Model string `json:"model,omitempty"`
	// Addr is the websocket URL of a remote detector
	Addr string `json:"addr,omitempty"`
	// Replay is a JSON lines file of recorded detections
	Replay       string  `json:"replay,omitempty"`
	InputSize    int     `json:"input_size"`
	BoxThreshold float32 `json:"box_threshold"`
	NMSThreshold float32 `json:"nms_threshold"`
}

// TrackingConfig configures filtering and the centroid tracker
type TrackingConfig struct {
	MaxDistance    float64  `json:"max_distance"`
	ShrinkFraction float64  `json:"shrink_fraction"`
	AllowLabels    []string `json:"allow_labels"`
	TrailLength    int      `json:"trail_length"`
}

// PipelineConfig configures the worker loop
type PipelineConfig struct {
	// Interval is the target duration of one iteration, eg. "33ms"
	Interval      string `json:"interval"`
	ProcessWidth  int    `json:"process_width"`
	ProcessHeight int    `json:"process_height"`
}

// BoundaryConfig is a counting boundary in processing frame coordinates
type BoundaryConfig struct {
	P1         [2]float64 `json:"p1"`
	P2         [2]float64 `json:"p2"`
	Label      string     `json:"label"`
	Checkpoint bool       `json:"checkpoint"`
	// Color is a #rrggbb hex color
	Color string `json:"color"`
}

// JournalConfig configures the sqlite crossing journal.  An empty path
// disables the journal
type JournalConfig struct {
	Path string `json:"path"`
}

// MQTTConfig configures crossing notifications.  An empty broker disables
// them
type MQTTConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Addr string `json:"addr"`
	// StreamInterval is how often the MJPEG stream checks for a new frame
	StreamInterval string `json:"stream_interval"`
}

// DefaultConfig returns the configuration used for any value not set in a
// configuration file
func DefaultConfig() *Config {
	return &Config{
		Labels: []string{"person", "bicycle", "car", "motorcycle", "bus", "truck"},
		Detector: DetectorConfig{
			Kind:         DetectorONNX,
			Model:        "yolov8n.onnx",
			InputSize:    640,
			BoxThreshold: 0.25,
			NMSThreshold: 0.45,
		},
		Tracking: TrackingConfig{
			MaxDistance: 100,
			TrailLength: 30,
		},
		Pipeline: PipelineConfig{
			Interval: "33ms",
		},
		Boundaries: []BoundaryConfig{{
			P1:         [2]float64{0, 400},
			P2:         [2]float64{1280, 400},
			Label:      "demo",
			Checkpoint: true,
			Color:      "#ff0000",
		}},
		MQTT: MQTTConfig{
			Topic: "crosscount",
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			StreamInterval: "50ms",
		},
	}
}

// Load reads a JSON configuration file over the defaults and validates it
func Load(path string) (*Config, error) {

	cleanPath := filepath.Clean(path)

	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)

	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if cfg.LabelsFile != "" {

		labelsPath := cfg.LabelsFile

		if !filepath.IsAbs(labelsPath) {
			labelsPath = filepath.Join(filepath.Dir(cleanPath), labelsPath)
		}

		cfg.Labels, err = crosscount.LoadLabels(labelsPath)

		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid
func (c *Config) Validate() error {

	if len(c.Labels) == 0 {
		return fmt.Errorf("labels must not be empty")
	}

	switch c.Detector.Kind {
	case DetectorONNX:
		if c.Detector.Model == "" {
			return fmt.Errorf("detector.model is required for the onnx detector")
		}
	case DetectorRemote:
		if c.Detector.Addr == "" {
			return fmt.Errorf("detector.addr is required for the remote detector")
		}
	case DetectorReplay:
		if c.Detector.Replay == "" {
			return fmt.Errorf("detector.replay is required for the replay detector")
		}
	default:
		return fmt.Errorf("unknown detector.kind %q", c.Detector.Kind)
	}

	if c.Detector.Kind == DetectorONNX && c.Detector.InputSize <= 0 {
		return fmt.Errorf("detector.input_size must be positive, got %d", c.Detector.InputSize)
	}

	if c.Tracking.MaxDistance <= 0 {
		return fmt.Errorf("tracking.max_distance must be positive, got %f", c.Tracking.MaxDistance)
	}

	if c.Tracking.ShrinkFraction < 0 || c.Tracking.ShrinkFraction >= 1 {
		return fmt.Errorf("tracking.shrink_fraction must be in [0, 1), got %f", c.Tracking.ShrinkFraction)
	}

	if c.Tracking.TrailLength < 0 {
		return fmt.Errorf("tracking.trail_length must be non-negative, got %d", c.Tracking.TrailLength)
	}

	labels := crosscount.Labels(c.Labels)

	for _, l := range c.Tracking.AllowLabels {
		if !labels.Contains(l) {
			return fmt.Errorf("tracking.allow_labels entry %q is not a known label", l)
		}
	}

	if d, err := parseDuration("pipeline.interval", c.Pipeline.Interval); err != nil {
		return err
	} else if d < 0 {
		return fmt.Errorf("pipeline.interval must be non-negative, got %s", d)
	}

	if c.Pipeline.ProcessWidth < 0 || c.Pipeline.ProcessHeight < 0 {
		return fmt.Errorf("pipeline process size must be non-negative")
	}

	if _, err := parseDuration("http.stream_interval", c.HTTP.StreamInterval); err != nil {
		return err
	}

	if _, err := c.CounterBoundaries(); err != nil {
		return err
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic is required when a broker is set")
	}

	return nil
}

// Interval returns the target iteration duration
func (c *Config) Interval() time.Duration {
	d, _ := parseDuration("pipeline.interval", c.Pipeline.Interval)
	return d
}

// StreamInterval returns the MJPEG frame polling interval
func (c *Config) StreamInterval() time.Duration {

	d, _ := parseDuration("http.stream_interval", c.HTTP.StreamInterval)

	if d <= 0 {
		return 50 * time.Millisecond // default
	}

	return d
}

// CounterBoundaries converts the configured boundaries for the counter
func (c *Config) CounterBoundaries() ([]counter.Boundary, error) {

	out := make([]counter.Boundary, 0, len(c.Boundaries))

	for i, bc := range c.Boundaries {

		clr, err := ParseColor(bc.Color)

		if err != nil {
			return nil, fmt.Errorf("boundaries[%d]: %w", i, err)
		}

		b := counter.Boundary{
			P1:         r2.Vec{X: bc.P1[0], Y: bc.P1[1]},
			P2:         r2.Vec{X: bc.P2[0], Y: bc.P2[1]},
			Label:      bc.Label,
			Checkpoint: bc.Checkpoint,
			Color:      clr,
		}

		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("boundaries[%d]: %w", i, err)
		}

		out = append(out, b)
	}

	return out, nil
}

// ParseColor parses a #rrggbb hex color.  An empty string is red
func ParseColor(s string) (color.RGBA, error) {

	if s == "" {
		return color.RGBA{R: 255, A: 255}, nil
	}

	var r, g, b uint8

	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q, expected #rrggbb", s)
	}

	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func parseDuration(field, s string) (time.Duration, error) {

	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)

	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", field, s, err)
	}

	return d, nil
}
