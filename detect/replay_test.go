package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-crosscount"
	"github.com/swdee/go-crosscount/postprocess"
	"gocv.io/x/gocv"
)

var testLabels = crosscount.Labels{"person", "bicycle", "car"}

func writeReplay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dets.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReplayFrames(t *testing.T) {
	path := writeReplay(t, `[{"class": 2, "confidence": 0.9, "box": [10, 20, 50, 80]}]

{"frame": 3, "detections": [{"label": "person", "probability": 0.5, "box": {"left": 1, "top": 2, "right": 3, "bottom": 4}}, {"label": "boat", "box": [0, 0, 1, 1]}, {"class": 0, "box": [1, 2]}]}
`)

	r, err := NewReplay(path, testLabels)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 3, r.Frames())

	img := gocv.NewMat()
	defer img.Close()

	dets, err := r.Detect(img)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, 2, dets[0].Class)
	assert.Equal(t, postprocess.BoxRect{Left: 10, Top: 20, Right: 50, Bottom: 80}, dets[0].Box)
	assert.InDelta(t, 0.9, dets[0].Probability, 1e-6)

	dets, err = r.Detect(img)
	require.NoError(t, err)
	assert.Empty(t, dets)

	dets, err = r.Detect(img)
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, 0, dets[0].Class)
	assert.Equal(t, postprocess.BoxRect{Left: 1, Top: 2, Right: 3, Bottom: 4}, dets[0].Box)
	// unknown label is kept with an invalid class for the filter to drop
	assert.Equal(t, -1, dets[1].Class)

	// past the end there are no detections
	dets, err = r.Detect(img)
	require.NoError(t, err)
	assert.Nil(t, dets)

	r.Rewind()
	dets, _ = r.Detect(img)
	assert.Len(t, dets, 1)
}

func TestReplayInvalid(t *testing.T) {
	_, err := NewReplay(writeReplay(t, "[{\"class\": 1\n"), testLabels)
	assert.Error(t, err)

	_, err = NewReplay(filepath.Join(t.TempDir(), "none.jsonl"), testLabels)
	assert.Error(t, err)
}
