package counter

import (
	"time"

	"github.com/swdee/go-crosscount/tracker"
	"gonum.org/v1/gonum/spatial/r2"
)

// CountSink receives a count increment for each first time crossing
type CountSink interface {
	Increment(label string)
}

// Crossing describes an identity crossing a boundary for the first time
type Crossing struct {
	// ID is the tracker identity
	ID int64 `json:"id"`
	// Boundary is the label of the boundary crossed
	Boundary string `json:"boundary"`
	// Class is the class label of the detection
	Class string `json:"class"`
	// From and To are the centroids of the motion that crossed
	From r2.Vec `json:"from"`
	To   r2.Vec `json:"to"`
	// Direction is +1 when the motion ended on the left of the boundary
	// walking from P1 to P2, otherwise -1
	Direction int `json:"direction"`
	// Time is when the frame was processed
	Time time.Time `json:"time"`
}

// Counter detects identities crossing checkpoint boundaries and credits each
// identity at most once per boundary label.
//
// Per identity state is kept only while the identity is reported by the
// tracker.  An identity missing from a frame's tracker output is forgotten,
// which is exact as the tracker never reissues an identity.
//
// Counter is not safe for concurrent use.
type Counter struct {
	boundaries []Boundary
	sink       CountSink
	// prev is the centroid of each identity in the previous frame
	prev map[int64]r2.Vec
	// counted is the set of labels already credited to each identity
	counted map[int64]map[string]struct{}
}

// NewCounter returns a counter over the given boundaries reporting to sink
func NewCounter(boundaries []Boundary, sink CountSink) *Counter {

	b := make([]Boundary, len(boundaries))
	copy(b, boundaries)

	return &Counter{
		boundaries: b,
		sink:       sink,
		prev:       make(map[int64]r2.Vec),
		counted:    make(map[int64]map[string]struct{}),
	}
}

// Boundaries returns the boundaries the counter tests against
func (c *Counter) Boundaries() []Boundary {
	return c.boundaries
}

// Reset forgets all identities
func (c *Counter) Reset() {
	c.prev = make(map[int64]r2.Vec)
	c.counted = make(map[int64]map[string]struct{})
}

// Counted reports if an identity has been credited for label
func (c *Counter) Counted(id int64, label string) bool {
	_, ok := c.counted[id][label]
	return ok
}

// Tracked returns the number of identities the counter holds state for
func (c *Counter) Tracked() int {
	return len(c.prev)
}

// Observe processes the tracker output of one frame.  The motion of each
// identity from its previous centroid is tested against every checkpoint
// boundary, and first time crossings are sent to the sink and returned.
// classLabel resolves the class name of a detection for the returned
// crossings and may be nil.
func (c *Counter) Observe(objs []tracker.TrackedObject, classLabel func(int) string,
	at time.Time) []Crossing {

	var crossings []Crossing
	seen := make(map[int64]struct{}, len(objs))

	for _, obj := range objs {

		seen[obj.ID] = struct{}{}
		prev, ok := c.prev[obj.ID]
		c.prev[obj.ID] = obj.Centroid

		if !ok {
			// first sighting, no motion segment yet
			continue
		}

		for _, b := range c.boundaries {

			if !b.Checkpoint {
				continue
			}

			if c.Counted(obj.ID, b.Label) {
				continue
			}

			if !SegmentsIntersect(prev, obj.Centroid, b.P1, b.P2) {
				continue
			}

			labels, exists := c.counted[obj.ID]

			if !exists {
				labels = make(map[string]struct{})
				c.counted[obj.ID] = labels
			}

			labels[b.Label] = struct{}{}

			if c.sink != nil {
				c.sink.Increment(b.Label)
			}

			class := ""

			if classLabel != nil {
				class = classLabel(obj.Object.Label)
			}

			dir := 1

			if b.Side(obj.Centroid) < 0 {
				dir = -1
			}

			crossings = append(crossings, Crossing{
				ID:        obj.ID,
				Boundary:  b.Label,
				Class:     class,
				From:      prev,
				To:        obj.Centroid,
				Direction: dir,
				Time:      at,
			})
		}
	}

	// reclaim state of identities the tracker no longer reports
	for id := range c.prev {
		if _, ok := seen[id]; !ok {
			delete(c.prev, id)
			delete(c.counted, id)
		}
	}

	return crossings
}
