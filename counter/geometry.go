package counter

import "gonum.org/v1/gonum/spatial/r2"

// orientation returns the signed area of the triangle a, b, c.  It is
// positive when c is counter clockwise of a->b, negative when clockwise and
// zero when the points are collinear
func orientation(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// SegmentsIntersect reports if segment p1-p2 properly crosses segment q1-q2.
// Each segment must strictly straddle the line of the other, so segments
// that only touch at an end point, or overlap while collinear, do not
// intersect
func SegmentsIntersect(p1, p2, q1, q2 r2.Vec) bool {

	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
