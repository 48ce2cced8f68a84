package geometry

import (
	"math"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// SnapDistance is the closing-gesture radius around the first vertex, in display pixels.
const SnapDistance = 20.0

// Distance returns the Euclidean distance between a and b.
func Distance(a, b types.Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// WithinSnap reports whether p is strictly closer than SnapDistance to anchor.
func WithinSnap(p, anchor types.Point2D) bool {
	return Distance(p, anchor) < SnapDistance
}

// SnapsToFirst reports whether p would close the loop of vertices:
// at least two vertices are committed and p is within snap distance of the first.
func SnapsToFirst(p types.Point2D, vertices []types.Point2D) bool {
	return len(vertices) >= 2 && WithinSnap(p, vertices[0])
}

// Contains reports whether p lies inside poly (even-odd rule). Polygons with
// fewer than three vertices contain nothing.
func Contains(poly types.Polygon, p types.Point2D) bool {
	if !poly.Defined() {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := range poly {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
		j = i
	}
	return inside
}
