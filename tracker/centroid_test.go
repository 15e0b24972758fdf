package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// box returns an object whose centroid is at x,y
func box(x, y float64) Object {
	return NewObject(NewRect(x-10, y-10, 20, 20), 0, 0.9, 0)
}

func ids(tracked []TrackedObject) []int64 {
	out := make([]int64, len(tracked))
	for i, t := range tracked {
		out[i] = t.ID
	}
	return out
}

func TestCentroidTrackerRegistersAll(t *testing.T) {
	tr := NewCentroidTracker(DefaultCentroidParams())

	res := tr.Update([]Object{box(10, 10), box(500, 500)})
	require.Len(t, res, 2)
	assert.Equal(t, []int64{1, 2}, ids(res))
	assert.Equal(t, r2.Vec{X: 10, Y: 10}, res[0].Centroid)
	assert.Equal(t, []int64{1, 2}, tr.Active())
}

func TestCentroidTrackerMatchesNearest(t *testing.T) {
	tr := NewCentroidTracker(DefaultCentroidParams())

	tr.Update([]Object{box(100, 100), box(400, 100)})

	// detections arrive in a different order and moved slightly
	res := tr.Update([]Object{box(410, 105), box(95, 120)})
	require.Len(t, res, 2)

	assert.Equal(t, int64(1), res[0].ID)
	assert.Equal(t, r2.Vec{X: 95, Y: 120}, res[0].Centroid)
	assert.Equal(t, int64(2), res[1].ID)
	assert.Equal(t, r2.Vec{X: 410, Y: 105}, res[1].Centroid)
}

func TestCentroidTrackerEmptyFrameDropsAll(t *testing.T) {
	tr := NewCentroidTracker(DefaultCentroidParams())

	tr.Update([]Object{box(100, 100), box(200, 200)})

	res := tr.Update(nil)
	assert.Empty(t, res)
	assert.Empty(t, tr.Active())

	// object reappears at the same place with a new identity
	res = tr.Update([]Object{box(100, 100)})
	require.Len(t, res, 1)
	assert.Equal(t, int64(3), res[0].ID)
}

func TestCentroidTrackerFarDetectionsAreNew(t *testing.T) {
	tr := NewCentroidTracker(DefaultCentroidParams())

	tr.Update([]Object{box(100, 100)})

	res := tr.Update([]Object{box(300, 100), box(100, 300)})
	require.Len(t, res, 2)
	assert.Equal(t, []int64{2, 3}, ids(res))
	assert.NotContains(t, tr.Active(), int64(1))
}

func TestCentroidTrackerStrictDistance(t *testing.T) {
	tr := NewCentroidTracker(CentroidParams{MaxDistance: 100})

	tr.Update([]Object{box(100, 100)})

	// exactly max distance away is not a match
	res := tr.Update([]Object{box(200, 100)})
	require.Len(t, res, 1)
	assert.Equal(t, int64(2), res[0].ID)

	// just inside is
	res = tr.Update([]Object{box(299.5, 100)})
	require.Len(t, res, 1)
	assert.Equal(t, int64(2), res[0].ID)
}

func TestCentroidTrackerGreedyOrder(t *testing.T) {
	tr := NewCentroidTracker(CentroidParams{MaxDistance: 50})

	// identity 1 at x=100, identity 2 at x=140
	tr.Update([]Object{box(100, 100), box(140, 100)})

	// a single detection at x=130 is nearer to identity 2 but identity 1
	// is considered first and claims it
	res := tr.Update([]Object{box(130, 100)})
	require.Len(t, res, 1)
	assert.Equal(t, int64(1), res[0].ID)
	assert.Equal(t, []int64{1}, tr.Active())
}

func TestCentroidTrackerNoDuplicates(t *testing.T) {
	tr := NewCentroidTracker(DefaultCentroidParams())

	tr.Update([]Object{box(100, 100), box(110, 100), box(120, 100)})
	res := tr.Update([]Object{box(105, 100), box(115, 100), box(125, 100), box(135, 100)})

	seen := map[int64]bool{}
	for _, r := range res {
		assert.False(t, seen[r.ID], "duplicate identity %d", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, res, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(res))
}

func TestCentroidTrackerReset(t *testing.T) {
	tr := NewCentroidTracker(DefaultCentroidParams())

	tr.Update([]Object{box(100, 100)})
	tr.Reset()

	assert.Empty(t, tr.Active())
	res := tr.Update([]Object{box(100, 100)})
	assert.Equal(t, []int64{1}, ids(res))
}

func TestRectShrink(t *testing.T) {
	r := NewRect(100, 100, 50, 20)

	s := r.Shrink(0.2)
	assert.InDelta(t, 40, s.Width(), 1e-9)
	assert.InDelta(t, 16, s.Height(), 1e-9)
	assert.Equal(t, r.Center(), s.Center())

	assert.Equal(t, r, r.Shrink(0))
	assert.Equal(t, r, r.Shrink(1))
}
