package tracker

import (
	"math"
	"sync"

	"github.com/bmharper/ringbuffer"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point represents the x,y coordinates of a centroid in a trail
type Point struct {
	X, Y int
}

// track represents a track history
type track struct {
	points ringbuffer.RingP[Point]
}

// Trail is the struct to keep a history of centroids per identity used for
// drawing a trail
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// capacity of each ring buffer.  A RingP of capacity n holds n-1 items
	// and n must be a power of two of at least 2
	capacity int
	// history of tracked points
	history map[int64]*track
	sync.Mutex
}

// NewTrail returns a new trail history track instance.  Size is the number
// of most recent points to keep and specifies the maximum length of the trail
// to maintain
func NewTrail(size int) *Trail {

	if size < 1 {
		size = 1
	}

	return &Trail{
		size:     size,
		capacity: nextPowerOf2(size + 1),
		history:  make(map[int64]*track),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int64]*track)
}

// Add a centroid to the history of the given identity
func (t *Trail) Add(id int64, c r2.Vec) {
	t.Lock()
	defer t.Unlock()

	// init ring if no history exists yet for track id
	tr, exists := t.history[id]

	if !exists {
		tr = &track{
			points: ringbuffer.NewRingP[Point](t.capacity),
		}
		t.history[id] = tr
	}

	tr.points.Add(Point{
		X: int(math.Round(c.X)),
		Y: int(math.Round(c.Y)),
	})
}

// GetPoints gets the point history for a specific identity, oldest first
func (t *Trail) GetPoints(id int64) []Point {
	t.Lock()
	defer t.Unlock()

	tr, exists := t.history[id]

	if !exists {
		// no history yet
		return nil
	}

	n := tr.points.Len()
	start := 0

	if n > t.size {
		start = n - t.size
	}

	points := make([]Point, 0, n-start)

	for i := start; i < n; i++ {
		points = append(points, tr.points.Peek(i))
	}

	return points
}

// Prune removes the history of every identity not in active
func (t *Trail) Prune(active []int64) {
	t.Lock()
	defer t.Unlock()

	keep := make(map[int64]bool, len(active))

	for _, id := range active {
		keep[id] = true
	}

	for id := range t.history {
		if !keep[id] {
			delete(t.history, id)
		}
	}
}

// Len returns the number of identities with history
func (t *Trail) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.history)
}

func nextPowerOf2(n int) int {
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
