package types

import (
	"encoding/json"
	"fmt"
)

// MinPolygonVertices is the smallest vertex count of a defined region.
const MinPolygonVertices = 3

// Point2D is a coordinate in either display space or source-video space.
// Which space applies is decided by the caller, never by the value.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D { return Point2D{X: x, Y: y} }

// Polygon is an ordered vertex list; the closing edge from last to first is implied.
// A polygon with zero vertices means "no region configured".
// On the wire it is an array of [x, y] pairs.
type Polygon []Point2D

// Defined reports whether the polygon has enough vertices to be used for
// persistence or zone testing.
func (p Polygon) Defined() bool { return len(p) >= MinPolygonVertices }

// Clone returns an independent copy (nil stays nil).
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both polygons have the same vertices in the same order.
func (p Polygon) Equal(o Polygon) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the polygon as [[x, y], ...]. A nil polygon encodes as [].
func (p Polygon) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(p))
	for i, v := range p {
		pairs[i] = [2]float64{v.X, v.Y}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes [[x, y], ...]. Each pair must have exactly two numbers.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("polygon: %w", err)
	}
	out := make(Polygon, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("polygon: vertex %d has %d coordinates, want 2", i, len(pair))
		}
		out = append(out, Point2D{X: pair[0], Y: pair[1]})
	}
	*p = out
	return nil
}

// DisplayGeometry is the size of the on-screen rendering surface.
type DisplayGeometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (d DisplayGeometry) Valid() bool { return d.Width > 0 && d.Height > 0 }

// FrameMetadata is the natural size of the most recently decoded frame.
// The zero value means no frame has been observed yet.
type FrameMetadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Known reports whether a frame resolution has been recorded.
func (f FrameMetadata) Known() bool { return f.Width > 0 && f.Height > 0 }
