package tracker

import "gonum.org/v1/gonum/spatial/r2"

// Object represents an object detected in a frame and passed to the tracker
type Object struct {
	// Rect is the bounding box representation of the detected object
	Rect Rect
	// Label is the class label of the object detected
	Label int
	// Prob is the confidence/probability of the object detected
	Prob float32
	// ID is a unique ID to give this object which can be used to match
	// the input detection object and tracked object
	ID int64
}

// NewObject is a constructor function for the Object struct
func NewObject(rect Rect, label int, prob float32, id int64) Object {
	return Object{
		Rect:  rect,
		Label: label,
		Prob:  prob,
		ID:    id,
	}
}

// TrackedObject is an identity assigned by the tracker for the current frame
// along with the detection it was matched to
type TrackedObject struct {
	// ID is the tracker identity, stable across frames while the object
	// remains within matching distance
	ID int64
	// Centroid is the center of the detection's bounding box
	Centroid r2.Vec
	// Object is the detection the identity was matched to in this frame
	Object Object
}
