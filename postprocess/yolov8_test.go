package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-crosscount/preprocess"
)

// tensor builds a [4+classes, anchors] output with the given anchors set
type anchor struct {
	cx, cy, w, h float32
	class        int
	score        float32
}

func tensor(classes, anchors int, set []anchor) []float32 {
	data := make([]float32, (4+classes)*anchors)

	for a, an := range set {
		data[a] = an.cx
		data[anchors+a] = an.cy
		data[2*anchors+a] = an.w
		data[3*anchors+a] = an.h
		data[(4+an.class)*anchors+a] = an.score
	}

	return data
}

func testParams() YOLOv8Params {
	p := YOLOv8COCOParams()
	p.ObjectClassNum = 3
	return p
}

func TestYOLOv8DetectObjects(t *testing.T) {

	yolo := NewYOLOv8(testParams())

	data := tensor(3, 8, []anchor{
		{cx: 100, cy: 100, w: 40, h: 40, class: 2, score: 0.9},
		// heavy overlap with the first box, same class, suppressed
		{cx: 102, cy: 101, w: 40, h: 40, class: 2, score: 0.6},
		// same location different class, kept
		{cx: 100, cy: 100, w: 40, h: 40, class: 0, score: 0.7},
		// below threshold
		{cx: 300, cy: 300, w: 20, h: 20, class: 1, score: 0.1},
	})

	results := yolo.DetectObjects(data, nil)
	require.Len(t, results, 2)

	assert.Equal(t, 2, results[0].Class)
	assert.InDelta(t, 0.9, results[0].Probability, 0.0001)
	assert.Equal(t, BoxRect{Left: 80, Top: 80, Right: 120, Bottom: 120}, results[0].Box)
	assert.Equal(t, 0, results[1].Class)

	// ids keep increasing across calls
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, int64(2), results[1].ID)
	again := yolo.DetectObjects(data, nil)
	require.Len(t, again, 2)
	assert.Equal(t, int64(3), again[0].ID)
}

func TestYOLOv8MaxObjects(t *testing.T) {

	p := testParams()
	p.MaxObjectNumber = 2
	yolo := NewYOLOv8(p)

	data := tensor(3, 4, []anchor{
		{cx: 50, cy: 50, w: 10, h: 10, class: 0, score: 0.5},
		{cx: 150, cy: 50, w: 10, h: 10, class: 0, score: 0.8},
		{cx: 250, cy: 50, w: 10, h: 10, class: 0, score: 0.6},
	})

	results := yolo.DetectObjects(data, nil)
	require.Len(t, results, 2)
	assert.InDelta(t, 0.8, results[0].Probability, 0.0001)
	assert.InDelta(t, 0.6, results[1].Probability, 0.0001)
}

func TestYOLOv8ResizerMapping(t *testing.T) {

	resizer := preprocess.NewResizer(1280, 720, 640, 640)
	defer resizer.Close()

	yolo := NewYOLOv8(testParams())

	// box centred in model input, ypad of 140
	data := tensor(3, 2, []anchor{
		{cx: 320, cy: 320, w: 100, h: 100, class: 1, score: 0.9},
	})

	results := yolo.DetectObjects(data, resizer)
	require.Len(t, results, 1)
	assert.Equal(t, BoxRect{Left: 540, Top: 260, Right: 740, Bottom: 460}, results[0].Box)
}

func TestYOLOv8BadTensor(t *testing.T) {
	yolo := NewYOLOv8(testParams())
	assert.Nil(t, yolo.DetectObjects(nil, nil))
	assert.Nil(t, yolo.DetectObjects(make([]float32, 5), nil))
}
