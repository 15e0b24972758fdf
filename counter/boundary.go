package counter

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// Boundary is a line segment that objects are counted crossing
type Boundary struct {
	// P1 and P2 are the segment end points in processing frame coordinates
	P1, P2 r2.Vec
	// Label is the name the crossing is counted under.  Boundaries may share
	// a label, an identity is still only counted once per label
	Label string
	// Checkpoint marks the boundary as counting.  Boundaries that are not
	// checkpoints are only drawn
	Checkpoint bool
	// Color is the color to draw the boundary in
	Color color.RGBA
}

// NewBoundary returns a checkpoint boundary between two points
func NewBoundary(p1, p2 r2.Vec, label string) Boundary {
	return Boundary{
		P1:         p1,
		P2:         p2,
		Label:      label,
		Checkpoint: true,
		Color:      color.RGBA{R: 255, A: 255},
	}
}

// Validate checks the boundary can register a crossing
func (b Boundary) Validate() error {

	if b.Label == "" {
		return fmt.Errorf("boundary has no label")
	}

	if b.P1 == b.P2 {
		return fmt.Errorf("boundary %q end points are the same", b.Label)
	}

	return nil
}

// Side returns +1 when p lies to the left of the boundary walking from P1 to
// P2, -1 when to the right and 0 when on the line
func (b Boundary) Side(p r2.Vec) int {

	o := orientation(b.P1, b.P2, p)

	switch {
	case o > 0:
		return 1
	case o < 0:
		return -1
	}

	return 0
}
