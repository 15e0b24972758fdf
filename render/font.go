package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment of a text tag relative to the box it labels
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// tag is a filled text label
type tag struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// newTag positions a text label above the horizontal span left to right
// with its baseline at top
func newTag(text string, left, right, top int, clr color.RGBA, font Font,
	lineThickness int) tag {

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (left + right) / 2

	case Right:
		centerX = right - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = left + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	return tag{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
			top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, top),
		clr:     clr,
		text:    text,
		textPos: image.Pt(centerX-textSize.X/2, top-font.BottomPad),
	}
}

// draw renders the tag background then its text
func (t tag) draw(img *gocv.Mat, font Font) {
	gocv.Rectangle(img, t.rect, t.clr, -1)

	gocv.PutTextWithParams(img, t.text, t.textPos,
		font.Face, font.Scale, font.Color, font.Thickness,
		font.LineType, false)
}
