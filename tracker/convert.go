package tracker

import "github.com/swdee/go-crosscount/postprocess"

// DetectionsToObjects takes a postprocess object detection results and
// converts it into a tracker object
func DetectionsToObjects(dets []postprocess.DetectResult) []Object {

	objs := make([]Object, 0, len(dets))

	for _, det := range dets {

		x := float64(det.Box.Left)
		y := float64(det.Box.Top)
		width := float64(det.Box.Width())
		height := float64(det.Box.Height())

		// a malformed box is treated as a point at its corner
		if width < 0 {
			width = 0
		}

		if height < 0 {
			height = 0
		}

		objs = append(objs, NewObject(NewRect(x, y, width, height),
			det.Class, det.Probability, det.ID))
	}

	return objs
}
