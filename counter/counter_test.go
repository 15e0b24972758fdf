package counter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-crosscount/tracker"
	"gonum.org/v1/gonum/spatial/r2"
)

type mapSink map[string]int

func (m mapSink) Increment(label string) {
	m[label]++
}

func at(id int64, x, y float64) tracker.TrackedObject {
	return tracker.TrackedObject{
		ID:       id,
		Centroid: r2.Vec{X: x, Y: y},
		Object:   tracker.NewObject(tracker.NewRect(x-5, y-5, 10, 10), 2, 0.9, 0),
	}
}

func demoBoundary() Boundary {
	return NewBoundary(r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, "demo")
}

func TestSegmentsIntersect(t *testing.T) {

	tests := []struct {
		name           string
		p1, p2, q1, q2 r2.Vec
		expected       bool
	}{
		{"crossing", r2.Vec{X: 50, Y: 90}, r2.Vec{X: 50, Y: 410}, r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, true},
		{"parallel", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 100, Y: 0}, r2.Vec{X: 0, Y: 10}, r2.Vec{X: 100, Y: 10}, false},
		{"ends on line", r2.Vec{X: 50, Y: 300}, r2.Vec{X: 50, Y: 400}, r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, false},
		{"touches end point", r2.Vec{X: 100, Y: 300}, r2.Vec{X: 100, Y: 500}, r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, false},
		{"collinear overlap", r2.Vec{X: 20, Y: 400}, r2.Vec{X: 80, Y: 400}, r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, false},
		{"misses past end", r2.Vec{X: 150, Y: 300}, r2.Vec{X: 150, Y: 500}, r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, false},
		{"diagonal", r2.Vec{X: 0, Y: 0}, r2.Vec{X: 10, Y: 10}, r2.Vec{X: 0, Y: 10}, r2.Vec{X: 10, Y: 0}, true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, SegmentsIntersect(tc.p1, tc.p2, tc.q1, tc.q2), tc.name)
		// symmetric in both segment order and direction
		assert.Equal(t, tc.expected, SegmentsIntersect(tc.q1, tc.q2, tc.p1, tc.p2), tc.name)
		assert.Equal(t, tc.expected, SegmentsIntersect(tc.p2, tc.p1, tc.q2, tc.q1), tc.name)
	}
}

func TestCounterDemoCrossing(t *testing.T) {
	sink := mapSink{}
	c := NewCounter([]Boundary{demoBoundary()}, sink)
	now := time.Now()

	// first sighting cannot count
	assert.Empty(t, c.Observe([]tracker.TrackedObject{at(1, 50, 90)}, nil, now))
	assert.Equal(t, 0, sink["demo"])

	cr := c.Observe([]tracker.TrackedObject{at(1, 50, 410)}, nil, now)
	require.Len(t, cr, 1)
	assert.Equal(t, 1, sink["demo"])
	assert.Equal(t, int64(1), cr[0].ID)
	assert.Equal(t, "demo", cr[0].Boundary)
	assert.Equal(t, r2.Vec{X: 50, Y: 90}, cr[0].From)
	assert.Equal(t, r2.Vec{X: 50, Y: 410}, cr[0].To)

	// later frames and re-crossings for the same identity never count again
	c.Observe([]tracker.TrackedObject{at(1, 50, 420)}, nil, now)
	c.Observe([]tracker.TrackedObject{at(1, 50, 300)}, nil, now)
	c.Observe([]tracker.TrackedObject{at(1, 50, 450)}, nil, now)
	assert.Equal(t, 1, sink["demo"])
	assert.True(t, c.Counted(1, "demo"))
}

func TestCounterNewIdentityCountsAgain(t *testing.T) {
	sink := mapSink{}
	c := NewCounter([]Boundary{demoBoundary()}, sink)
	now := time.Now()

	c.Observe([]tracker.TrackedObject{at(1, 50, 350)}, nil, now)
	c.Observe([]tracker.TrackedObject{at(1, 50, 450)}, nil, now)

	// identity 1 lost, identity 2 takes its place and crosses back
	c.Observe([]tracker.TrackedObject{at(2, 50, 450)}, nil, now)
	assert.False(t, c.Counted(1, "demo"))
	c.Observe([]tracker.TrackedObject{at(2, 50, 350)}, nil, now)

	assert.Equal(t, 2, sink["demo"])
}

func TestCounterCheckpointOnly(t *testing.T) {
	sink := mapSink{}
	display := demoBoundary()
	display.Label = "display"
	display.Checkpoint = false

	c := NewCounter([]Boundary{display}, sink)
	now := time.Now()

	c.Observe([]tracker.TrackedObject{at(1, 50, 350)}, nil, now)
	assert.Empty(t, c.Observe([]tracker.TrackedObject{at(1, 50, 450)}, nil, now))
	assert.Empty(t, sink)
}

func TestCounterSharedLabelAndDirection(t *testing.T) {
	sink := mapSink{}
	gate := []Boundary{
		NewBoundary(r2.Vec{X: 0, Y: 400}, r2.Vec{X: 100, Y: 400}, "gate"),
		NewBoundary(r2.Vec{X: 0, Y: 420}, r2.Vec{X: 100, Y: 420}, "gate"),
		NewBoundary(r2.Vec{X: 0, Y: 410}, r2.Vec{X: 100, Y: 410}, "inner"),
	}
	c := NewCounter(gate, sink)
	now := time.Now()

	c.Observe([]tracker.TrackedObject{at(1, 50, 450)}, func(int) string { return "car" }, now)
	cr := c.Observe([]tracker.TrackedObject{at(1, 50, 350)}, func(int) string { return "car" }, now)

	require.Len(t, cr, 2)
	assert.Equal(t, 1, sink["gate"])
	assert.Equal(t, 1, sink["inner"])
	assert.Equal(t, "car", cr[0].Class)

	// ends with a negative cross product against the P1->P2 direction
	assert.Equal(t, -1, cr[0].Direction)
	assert.Equal(t, -1, gate[0].Side(r2.Vec{X: 50, Y: 350}))
	assert.Equal(t, 1, gate[0].Side(r2.Vec{X: 50, Y: 450}))
}

func TestCounterReclaimsDroppedIdentities(t *testing.T) {
	c := NewCounter([]Boundary{demoBoundary()}, mapSink{})
	now := time.Now()

	c.Observe([]tracker.TrackedObject{at(1, 50, 350), at(2, 60, 350)}, nil, now)
	c.Observe([]tracker.TrackedObject{at(1, 50, 450), at(2, 60, 360)}, nil, now)
	assert.Equal(t, 2, c.Tracked())

	c.Observe([]tracker.TrackedObject{at(2, 60, 370)}, nil, now)
	assert.Equal(t, 1, c.Tracked())
	assert.False(t, c.Counted(1, "demo"))

	c.Reset()
	assert.Equal(t, 0, c.Tracked())
}

func TestBoundaryValidate(t *testing.T) {
	assert.NoError(t, demoBoundary().Validate())

	b := demoBoundary()
	b.P2 = b.P1
	assert.Error(t, b.Validate())

	b = demoBoundary()
	b.Label = ""
	assert.Error(t, b.Validate())
}
