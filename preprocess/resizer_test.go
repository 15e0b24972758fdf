package preprocess

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

var (
	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

func TestLetterBoxResize(t *testing.T) {

	tests := []struct {
		srcWidth      int
		srcHeight     int
		resizeWidth   int
		resizeHeight  int
		expectedXPad  int
		expectedYPad  int
		expectedScale float32
	}{
		{1280, 720, 640, 640, 0, 140, 0.50},
		{800, 1000, 640, 640, 64, 0, 0.64},
		{800, 800, 640, 640, 0, 0, 0.8},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC1)

		resizedImg := gocv.NewMat()

		resizer := NewResizer(tc.srcWidth, tc.srcHeight, tc.resizeWidth, tc.resizeHeight)

		resizer.LetterBoxResize(img, &resizedImg, black)

		assert.Equal(t, tc.expectedXPad, resizer.XPad(), "xpad for src (%d, %d)", tc.srcWidth, tc.srcHeight)
		assert.Equal(t, tc.expectedYPad, resizer.YPad(), "ypad for src (%d, %d)", tc.srcWidth, tc.srcHeight)
		assert.Equal(t, tc.expectedScale, resizer.ScaleFactor(), "scale for src (%d, %d)", tc.srcWidth, tc.srcHeight)
		assert.Equal(t, tc.resizeWidth, resizedImg.Cols())
		assert.Equal(t, tc.resizeHeight, resizedImg.Rows())

		img.Close()
		resizedImg.Close()
		resizer.Close()
	}
}

func TestResizerToSource(t *testing.T) {
	resizer := NewResizer(1280, 720, 640, 640)
	defer resizer.Close()

	// centre of the model input maps to the centre of the frame
	x, y := resizer.ToSource(320, 320)
	assert.InDelta(t, 640, x, 0.01)
	assert.InDelta(t, 360, y, 0.01)

	// points inside the letterbox padding clamp to the frame edge
	x, y = resizer.ToSource(0, 10)
	assert.InDelta(t, 0, x, 0.01)
	assert.InDelta(t, 0, y, 0.01)

	assert.True(t, resizer.Matches(1280, 720))
	assert.False(t, resizer.Matches(720, 1280))
}

func TestFrameScaler(t *testing.T) {
	src := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	NewFrameScaler(640, 360).Scale(src, &dst)
	assert.Equal(t, 640, dst.Cols())
	assert.Equal(t, 360, dst.Rows())

	disabled := NewFrameScaler(0, 0)
	assert.False(t, disabled.Enabled())
	disabled.Scale(src, &dst)
	assert.Equal(t, 1280, dst.Cols())
	assert.Equal(t, 720, dst.Rows())
}
