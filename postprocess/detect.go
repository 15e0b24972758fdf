package postprocess

// BoxRect are the dimensions of the bounding box of a detect object
type BoxRect struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Width returns the width of the box
func (b BoxRect) Width() int {
	return b.Right - b.Left
}

// Height returns the height of the box
func (b BoxRect) Height() int {
	return b.Bottom - b.Top
}

// DetectResult defines the attributes of a single object detected
type DetectResult struct {
	// Class is the line number in the labels file the Model was trained on
	// defining the Class of the detected object
	Class int `json:"class"`
	// Box are the bounding box dimensions of the object location
	Box BoxRect `json:"box"`
	// Probability is the confidence score of the object detected
	Probability float32 `json:"probability"`
	// ID is a unique ID assigned to the detection result
	ID int64 `json:"id"`
}
