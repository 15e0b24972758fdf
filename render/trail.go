package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-crosscount/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle configures how path history is drawn
type TrailStyle struct {
	// LineColor is the path color, nil draws each path in its identity color
	LineColor *color.RGBA
	Thickness int
	// HeadRadius is the radius of the filled circle on the current centroid,
	// which is always drawn in the identity color
	HeadRadius int
}

// DefaultTrailStyle draws yellow paths with identity colored heads
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineColor:  &Yellow,
		Thickness:  1,
		HeadRadius: 3,
	}
}

// Trail draws the path history of each tracked object ending with a circle
// on its current centroid
func Trail(img *gocv.Mat, objs []tracker.TrackedObject,
	trail *tracker.Trail, style TrailStyle) {

	for _, obj := range objs {

		clr := IdentityColor(obj.ID)
		lineClr := clr

		if style.LineColor != nil {
			lineClr = *style.LineColor
		}

		points := trail.GetPoints(obj.ID)

		for i := 1; i < len(points); i++ {
			gocv.Line(img, image.Pt(points[i-1].X, points[i-1].Y),
				image.Pt(points[i].X, points[i].Y), lineClr, style.Thickness)
		}

		head := image.Pt(int(obj.Centroid.X), int(obj.Centroid.Y))
		gocv.Circle(img, head, style.HeadRadius, clr, -1)
	}
}
