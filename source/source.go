// Package source opens the video file or camera the pipeline reads frames
// from.
package source

import (
	"fmt"
	"os"
	"strconv"

	"gocv.io/x/gocv"
)

// Source yields frames.  Read returns false at the end of the stream or when
// the source can no longer be read
type Source interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// Capture is a Source backed by an OpenCV video capture
type Capture struct {
	capture *gocv.VideoCapture
	name    string
}

// Open returns a capture for path.  A path that exists on disk is opened as a
// video file, otherwise it must be a numeric camera device id
func Open(path string) (*Capture, error) {

	var capture *gocv.VideoCapture
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		capture, err = gocv.VideoCaptureFile(path)
	} else {
		id, convErr := strconv.Atoi(path)

		if convErr != nil {
			return nil, fmt.Errorf("source %q is neither a file nor a camera id", path)
		}

		capture, err = gocv.VideoCaptureDevice(id)
	}

	if err != nil {
		return nil, fmt.Errorf("error opening source %q: %w", path, err)
	}

	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("source %q could not be opened", path)
	}

	return &Capture{
		capture: capture,
		name:    path,
	}, nil
}

// Read the next frame into dst.  An empty frame is treated as the end of the
// stream
func (c *Capture) Read(dst *gocv.Mat) bool {

	if ok := c.capture.Read(dst); !ok {
		return false
	}

	return !dst.Empty()
}

// FPS returns the frame rate reported by the capture, or 0 if unknown
func (c *Capture) FPS() float64 {
	return c.capture.Get(gocv.VideoCaptureFPS)
}

// Name returns the path the capture was opened with
func (c *Capture) Name() string {
	return c.name
}

// Close the capture
func (c *Capture) Close() error {
	return c.capture.Close()
}
