package tracker

import "gonum.org/v1/gonum/spatial/r2"

// Rect represents a rectangle in top, left, width, height format
type Rect struct {
	x, y, width, height float64
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float64) Rect {
	return Rect{
		x:      x,
		y:      y,
		width:  width,
		height: height,
	}
}

// X returns the x coordinate of the rectangle
func (r Rect) X() float64 {
	return r.x
}

// Y returns the y coordinate of the rectangle
func (r Rect) Y() float64 {
	return r.y
}

// Width returns the width of the rectangle
func (r Rect) Width() float64 {
	return r.width
}

// Height returns the height of the rectangle
func (r Rect) Height() float64 {
	return r.height
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r Rect) BRX() float64 {
	return r.x + r.width
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r Rect) BRY() float64 {
	return r.y + r.height
}

// Center returns the centroid of the rectangle
func (r Rect) Center() r2.Vec {
	return r2.Vec{
		X: r.x + r.width/2,
		Y: r.y + r.height/2,
	}
}

// Shrink returns the rectangle reduced by fraction f of its width and height,
// split evenly between both sides so the center is unchanged.  Fractions
// outside of [0,1) return the rectangle as is
func (r Rect) Shrink(f float64) Rect {

	if f <= 0 || f >= 1 {
		return r
	}

	dw := r.width * f
	dh := r.height * f

	return NewRect(r.x+dw/2, r.y+dh/2, r.width-dw, r.height-dh)
}
