package tracker

import (
	"math"
	"sort"

	"github.com/bmharper/flatbush-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// CentroidParams defines the parameters for the centroid tracker
type CentroidParams struct {
	// MaxDistance is the pixel distance a centroid may move between frames
	// and still be matched to the same identity.  A match requires the
	// distance to be strictly less than this value
	MaxDistance float64
}

// DefaultCentroidParams returns the default tracker parameters
func DefaultCentroidParams() CentroidParams {
	return CentroidParams{
		MaxDistance: 100,
	}
}

// CentroidTracker assigns stable identities to detections across frames by
// greedy nearest centroid matching.
//
// Existing identities are considered in ascending identity order and each
// claims the closest still unmatched detection.  This is not a globally
// optimal assignment, an earlier identity can take the detection that was
// the best match for a later one.  Identities that find no match are dropped
// and never reused.
//
// CentroidTracker is not safe for concurrent use.
type CentroidTracker struct {
	params CentroidParams
	// nextID is the last identity issued
	nextID int64
	// state is the last known centroid of every live identity
	state map[int64]r2.Vec
}

// NewCentroidTracker returns a tracker with no identities
func NewCentroidTracker(p CentroidParams) *CentroidTracker {
	return &CentroidTracker{
		params: p,
		state:  make(map[int64]r2.Vec),
	}
}

// Reset drops all identities and restarts identity numbering at 1
func (t *CentroidTracker) Reset() {
	t.nextID = 0
	t.state = make(map[int64]r2.Vec)
}

// Active returns the live identities in ascending order
func (t *CentroidTracker) Active() []int64 {
	return sortedIDs(t.state)
}

// Centroid returns the last known centroid of an identity
func (t *CentroidTracker) Centroid(id int64) (r2.Vec, bool) {
	c, ok := t.state[id]
	return c, ok
}

// Update matches the detections of one frame to existing identities and
// returns the matched identities in ascending order followed by any new
// identities in detection order
func (t *CentroidTracker) Update(objs []Object) []TrackedObject {

	centroids := make([]r2.Vec, len(objs))

	for i, obj := range objs {
		centroids[i] = obj.Rect.Center()
	}

	matched := make([]bool, len(objs))
	results := make([]TrackedObject, 0, len(objs))
	next := make(map[int64]r2.Vec, len(objs))

	if len(t.state) > 0 && len(objs) > 0 {

		// spatial index over the new centroids so each identity only
		// tests detections within its search box
		fb := flatbush.NewFlatbush[int32]()
		fb.Reserve(len(centroids))

		for _, c := range centroids {
			fb.Add(int32(math.Floor(c.X)), int32(math.Floor(c.Y)),
				int32(math.Ceil(c.X)), int32(math.Ceil(c.Y)))
		}

		fb.Finish()

		maxDist := t.params.MaxDistance
		nearby := []int{}

		for _, id := range sortedIDs(t.state) {

			prev := t.state[id]

			nearby = fb.SearchFast(
				int32(math.Floor(prev.X-maxDist)), int32(math.Floor(prev.Y-maxDist)),
				int32(math.Ceil(prev.X+maxDist)), int32(math.Ceil(prev.Y+maxDist)),
				nearby)

			best := -1
			bestDist := maxDist

			for _, i := range nearby {

				if matched[i] {
					continue
				}

				d := r2.Norm(r2.Sub(centroids[i], prev))

				// ties go to the earlier detection
				if d < bestDist || (d == bestDist && best != -1 && i < best) {
					best = i
					bestDist = d
				}
			}

			if best == -1 {
				// no detection close enough, identity is dropped
				continue
			}

			matched[best] = true
			next[id] = centroids[best]

			results = append(results, TrackedObject{
				ID:       id,
				Centroid: centroids[best],
				Object:   objs[best],
			})
		}
	}

	// register unmatched detections as new identities
	for i, obj := range objs {

		if matched[i] {
			continue
		}

		t.nextID++
		next[t.nextID] = centroids[i]

		results = append(results, TrackedObject{
			ID:       t.nextID,
			Centroid: centroids[i],
			Object:   obj,
		})
	}

	t.state = next

	return results
}

func sortedIDs(m map[int64]r2.Vec) []int64 {

	ids := make([]int64, 0, len(m))

	for id := range m {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
