// Package geometry converts between display space and source-video space and
// provides the distance primitives used by the region editor.
package geometry

import "github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"

// Scale holds the display/source ratios for one (display, frame) pair.
// It must be recomputed whenever either side changes size.
type Scale struct {
	SX float64 // display width / source width
	SY float64 // display height / source height
}

// ScaleFor returns the scale factors and whether the mapping is defined,
// i.e. both the display and the frame have positive dimensions.
func ScaleFor(display types.DisplayGeometry, frame types.FrameMetadata) (Scale, bool) {
	if !display.Valid() || !frame.Known() {
		return Scale{}, false
	}
	return Scale{
		SX: float64(display.Width) / float64(frame.Width),
		SY: float64(display.Height) / float64(frame.Height),
	}, true
}

// ToSource maps a display-space point into source-video space.
// The result is undefined unless both display and frame are known.
func ToSource(p types.Point2D, display types.DisplayGeometry, frame types.FrameMetadata) types.Point2D {
	return types.Point2D{
		X: p.X * float64(frame.Width) / float64(display.Width),
		Y: p.Y * float64(frame.Height) / float64(display.Height),
	}
}

// ToDisplay maps a source-video point into display space. Same preconditions as ToSource.
func ToDisplay(p types.Point2D, display types.DisplayGeometry, frame types.FrameMetadata) types.Point2D {
	return types.Point2D{
		X: p.X * float64(display.Width) / float64(frame.Width),
		Y: p.Y * float64(display.Height) / float64(frame.Height),
	}
}

// PolygonToSource maps every vertex with ToSource.
func PolygonToSource(poly types.Polygon, display types.DisplayGeometry, frame types.FrameMetadata) types.Polygon {
	out := make(types.Polygon, len(poly))
	for i, p := range poly {
		out[i] = ToSource(p, display, frame)
	}
	return out
}

// PolygonToDisplay maps every vertex with ToDisplay.
func PolygonToDisplay(poly types.Polygon, display types.DisplayGeometry, frame types.FrameMetadata) types.Polygon {
	out := make(types.Polygon, len(poly))
	for i, p := range poly {
		out[i] = ToDisplay(p, display, frame)
	}
	return out
}
