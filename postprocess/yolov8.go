package postprocess

import (
	"image"
	"sort"

	"github.com/swdee/go-crosscount/preprocess"
	"gocv.io/x/gocv"
)

// YOLOv8 defines the struct for YOLOv8 ONNX model output post processing
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
	// idGen is a counter that increments and provides the next number
	// for each detection result ID
	idGen *IDGenerator
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with
	ObjectClassNum int
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// YOLOv8COCOParams returns an instance of YOLOv8Params configured with
// default values for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Box Threshold: 0.25
// - NMS Threshold: 0.45
// - Maximum Object Number: 64
func YOLOv8COCOParams() YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:    0.25,
		NMSThreshold:    0.45,
		ObjectClassNum:  80,
		MaxObjectNumber: 64,
	}
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor
func NewYOLOv8(p YOLOv8Params) *YOLOv8 {
	return &YOLOv8{
		Params: p,
		idGen:  NewIDGenerator(),
	}
}

// candidate is a box that passed the score threshold, in model input
// coordinates
type candidate struct {
	class int
	score float32
	rect  image.Rectangle
	// float corners kept for mapping back to the source image
	x1, y1, x2, y2 float32
}

// DetectObjects takes the raw model output and runs the object detection
// process then returns the results in source image coordinates.  The output
// tensor has the shape [1, 4+classes, anchors] where the first four rows hold
// the box centre x, centre y, width and height of every anchor.
func (y *YOLOv8) DetectObjects(data []float32, resizer *preprocess.Resizer) []DetectResult {

	rows := 4 + y.Params.ObjectClassNum

	if len(data) == 0 || len(data)%rows != 0 {
		return nil
	}

	anchors := len(data) / rows
	byClass := make(map[int][]candidate)

	for a := 0; a < anchors; a++ {

		// find class with highest score for this anchor
		maxClass := -1
		maxScore := float32(0)

		for c := 0; c < y.Params.ObjectClassNum; c++ {
			score := data[(4+c)*anchors+a]

			if score > maxScore {
				maxScore = score
				maxClass = c
			}
		}

		if maxClass < 0 || maxScore < y.Params.BoxThreshold {
			continue
		}

		cx := data[a]
		cy := data[anchors+a]
		w := data[2*anchors+a]
		h := data[3*anchors+a]

		x1 := cx - w/2
		y1 := cy - h/2
		x2 := cx + w/2
		y2 := cy + h/2

		byClass[maxClass] = append(byClass[maxClass], candidate{
			class: maxClass,
			score: maxScore,
			rect:  image.Rect(int(x1), int(y1), int(x2), int(y2)),
			x1:    x1, y1: y1, x2: x2, y2: y2,
		})
	}

	if len(byClass) == 0 {
		// no object detected
		return nil
	}

	// run non-maximum suppression per class so overlapping objects of
	// different classes are both kept
	kept := make([]candidate, 0)

	for _, cands := range byClass {

		rects := make([]image.Rectangle, len(cands))
		scores := make([]float32, len(cands))

		for i, c := range cands {
			rects[i] = c.rect
			scores[i] = c.score
		}

		indices := gocv.NMSBoxes(rects, scores, y.Params.BoxThreshold,
			y.Params.NMSThreshold)

		for _, idx := range indices {
			kept = append(kept, cands[idx])
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > y.Params.MaxObjectNumber {
		kept = kept[:y.Params.MaxObjectNumber]
	}

	results := make([]DetectResult, 0, len(kept))

	for _, c := range kept {

		x1, y1 := c.x1, c.y1
		x2, y2 := c.x2, c.y2

		if resizer != nil {
			x1, y1 = resizer.ToSource(x1, y1)
			x2, y2 = resizer.ToSource(x2, y2)
		} else {
			x1 = clamp(x1, 0, x2)
			y1 = clamp(y1, 0, y2)
		}

		results = append(results, DetectResult{
			Class: c.class,
			Box: BoxRect{
				Left:   int(x1),
				Top:    int(y1),
				Right:  int(x2),
				Bottom: int(y2),
			},
			Probability: c.score,
			ID:          y.idGen.GetNext(),
		})
	}

	return results
}
