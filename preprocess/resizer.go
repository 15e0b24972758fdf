package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Resizer letterboxes frames of one source size into the square input of a
// detection model and maps model coordinates back onto the source frame
type Resizer struct {
	src  image.Point
	dest image.Point
	// fit is the scaled source size inside dest
	fit image.Point
	// pad is the top left border added around the scaled frame
	pad   image.Point
	scale float32
	// scaled holds the resized frame before the border is added
	scaled gocv.Mat
}

// NewResizer returns a resizer from srcWidth x srcHeight frames to
// destWidth x destHeight model inputs
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		src:    image.Pt(srcWidth, srcHeight),
		dest:   image.Pt(destWidth, destHeight),
		scaled: gocv.NewMat(),
	}

	// the smaller axis ratio keeps the whole frame inside dest
	scaleW := float32(destWidth) / float32(srcWidth)
	scaleH := float32(destHeight) / float32(srcHeight)

	r.scale = min(scaleW, scaleH)
	r.fit = r.dest

	if scaleW < scaleH {
		r.fit.Y = int(float32(srcHeight) * r.scale)
	} else {
		r.fit.X = int(float32(srcWidth) * r.scale)
	}

	r.pad = r.dest.Sub(r.fit).Div(2)

	return r
}

// Close frees the intermediate Mat
func (r *Resizer) Close() error {
	return r.scaled.Close()
}

// Matches reports if the resizer was calculated for the given source size
func (r *Resizer) Matches(srcWidth, srcHeight int) bool {
	return r.src == image.Pt(srcWidth, srcHeight)
}

// LetterBoxResize scales src into dest keeping its aspect ratio and fills the
// remaining border with color
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.scaled, r.fit, 0, 0, gocv.InterpolationArea)

	bottom := r.dest.Y - r.fit.Y - r.pad.Y
	right := r.dest.X - r.fit.X - r.pad.X

	gocv.CopyMakeBorder(r.scaled, dest, r.pad.Y, bottom, r.pad.X, right,
		gocv.BorderConstant, color)
}

// ToSource maps a point in letterboxed model coordinates back onto the
// source frame, clamped to the frame bounds
func (r *Resizer) ToSource(x, y float32) (float32, float32) {

	sx := (x - float32(r.pad.X)) / r.scale
	sy := (y - float32(r.pad.Y)) / r.scale

	return clampf(sx, 0, float32(r.src.X)), clampf(sy, 0, float32(r.src.Y))
}

// ScaleFactor is the source to model scale
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad is the left border width
func (r *Resizer) XPad() int {
	return r.pad.X
}

// YPad is the top border height
func (r *Resizer) YPad() int {
	return r.pad.Y
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
