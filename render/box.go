package render

import (
	"fmt"
	"image"

	"github.com/swdee/go-crosscount/tracker"
	"gocv.io/x/gocv"
)

// TrackerBoxes renders the bounding box of every tracked object with a tag
// of its class label and identity.  classLabel resolves class indexes to
// names
func TrackerBoxes(img *gocv.Mat, objs []tracker.TrackedObject,
	classLabel func(int) string, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	tags := make([]tag, 0, len(objs))

	for _, obj := range objs {

		rect := obj.Object.Rect
		boxLeft := int(rect.X())
		boxTop := int(rect.Y())
		boxRight := int(rect.BRX())
		boxBottom := int(rect.BRY())

		useClr := IdentityColor(obj.ID)

		// draw rectangle around tracked object
		gocv.Rectangle(img, image.Rect(boxLeft, boxTop, boxRight, boxBottom),
			useClr, lineThickness)

		text := fmt.Sprintf("%s %d", classLabel(obj.Object.Label), obj.ID)
		tags = append(tags, newTag(text, boxLeft, boxRight, boxTop, useClr,
			font, lineThickness))
	}

	// draw tags last so they are the top most layer and are not crossed by
	// other boxes
	for _, t := range tags {
		t.draw(img, font)
	}
}
