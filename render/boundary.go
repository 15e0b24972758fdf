package render

import (
	"image"

	"github.com/swdee/go-crosscount/counter"
	"gocv.io/x/gocv"
)

// Boundaries draws each boundary line with its label.  Checkpoint lines are
// drawn thicker than display only lines
func Boundaries(img *gocv.Mat, boundaries []counter.Boundary, font Font,
	lineThickness int) {

	for _, b := range boundaries {

		p1 := image.Pt(int(b.P1.X), int(b.P1.Y))
		p2 := image.Pt(int(b.P2.X), int(b.P2.Y))

		thickness := lineThickness

		if b.Checkpoint {
			thickness *= 2
		}

		gocv.Line(img, p1, p2, b.Color, thickness)

		// label sits above the left most end point
		left := p1
		right := p2

		if p2.X < p1.X {
			left, right = p2, p1
		}

		newTag(b.Label, left.X, right.X, left.Y-thickness, b.Color, font,
			thickness).draw(img, font)
	}
}
