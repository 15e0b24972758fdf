// Package detect provides the detection sources that feed the tracker with
// per frame bounding boxes.
package detect

import (
	"fmt"

	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/config"
	"github.com/swdee/go-crosscount/postprocess"
	"gocv.io/x/gocv"
)

// Detector returns the objects detected in a frame.  Box coordinates are in
// the pixel space of the frame passed in
type Detector interface {
	Detect(img gocv.Mat) ([]postprocess.DetectResult, error)
	Close() error
}

// New returns the detector selected by the configuration
func New(cfg config.DetectorConfig, labels crosscount.Labels) (Detector, error) {

	switch cfg.Kind {
	case config.DetectorONNX:
		params := postprocess.YOLOv8COCOParams()
		params.ObjectClassNum = len(labels)
		params.BoxThreshold = cfg.BoxThreshold
		params.NMSThreshold = cfg.NMSThreshold

		return NewONNX(cfg.Model, cfg.InputSize, params)

	case config.DetectorRemote:
		return NewRemote(cfg.Addr, labels), nil

	case config.DetectorReplay:
		return NewReplay(cfg.Replay, labels)
	}

	return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
}
