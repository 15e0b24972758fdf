package render

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"
)

// CountsPanel draws the aggregate counts in the top left corner of the image,
// one line per label in label order
func CountsPanel(img *gocv.Mat, counts map[string]int, font Font) {

	if len(counts) == 0 {
		return
	}

	labels := make([]string, 0, len(counts))

	for l := range counts {
		labels = append(labels, l)
	}

	sort.Strings(labels)

	lines := make([]string, len(labels))
	width := 0
	lineHeight := 0

	for i, l := range labels {
		lines[i] = fmt.Sprintf("%s: %d", l, counts[l])
		size := gocv.GetTextSize(lines[i], font.Face, font.Scale, font.Thickness)

		if size.X > width {
			width = size.X
		}

		if size.Y > lineHeight {
			lineHeight = size.Y
		}
	}

	step := lineHeight + font.TopPad + font.BottomPad

	gocv.Rectangle(img, image.Rect(0, 0,
		width+font.LeftPad+font.RightPad, step*len(lines)+font.TopPad),
		panelColor, -1)

	for i, line := range lines {
		gocv.PutTextWithParams(img, line,
			image.Pt(font.LeftPad, step*(i+1)-font.BottomPad+font.TopPad),
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
