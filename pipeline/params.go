package pipeline

import (
	"time"

	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/config"
	"github.com/swdee/go-crosscount/counter"
)

// Params configures a pipeline
type Params struct {
	// Labels are the detector class names in class index order.  Detections
	// with a class outside of the list are dropped
	Labels crosscount.Labels
	// AllowLabels restricts tracking to these class names when not empty
	AllowLabels []string
	// ShrinkFraction reduces each box symmetrically before tracking
	ShrinkFraction float64
	// MaxDistance is the tracker match distance in pixels
	MaxDistance float64
	// TrailLength is the number of centroids drawn per identity
	TrailLength int
	// Interval is the target duration of one iteration
	Interval time.Duration
	// ProcessWidth and ProcessHeight resize every frame when both are set
	ProcessWidth  int
	ProcessHeight int
	// Boundaries are the counting and display lines
	Boundaries []counter.Boundary
}

// DefaultParams returns the pipeline parameters of the default configuration
func DefaultParams() Params {
	p, _ := ParamsFromConfig(config.DefaultConfig())
	return p
}

// ParamsFromConfig builds pipeline parameters from a loaded configuration
func ParamsFromConfig(cfg *config.Config) (Params, error) {

	boundaries, err := cfg.CounterBoundaries()

	if err != nil {
		return Params{}, err
	}

	return Params{
		Labels:         crosscount.Labels(cfg.Labels),
		AllowLabels:    cfg.Tracking.AllowLabels,
		ShrinkFraction: cfg.Tracking.ShrinkFraction,
		MaxDistance:    cfg.Tracking.MaxDistance,
		TrailLength:    cfg.Tracking.TrailLength,
		Interval:       cfg.Interval(),
		ProcessWidth:   cfg.Pipeline.ProcessWidth,
		ProcessHeight:  cfg.Pipeline.ProcessHeight,
		Boundaries:     boundaries,
	}, nil
}

// checkpointLabels returns the distinct labels of counting boundaries
func (p Params) checkpointLabels() []string {

	var labels []string
	seen := map[string]bool{}

	for _, b := range p.Boundaries {
		if b.Checkpoint && !seen[b.Label] {
			seen[b.Label] = true
			labels = append(labels, b.Label)
		}
	}

	return labels
}
