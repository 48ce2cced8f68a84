// Package overlay draws the region overlay: the in-progress drawing session,
// the committed zone and the current detections. Every call starts from a
// cleared surface.
package overlay

import (
	"fmt"
	"image"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/editor"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/geometry"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// Scene is everything one overlay redraw depends on.
type Scene struct {
	Session    *editor.Session // nil when idle
	Committed  types.Polygon   // source space
	Detections []types.Detection
	Display    types.DisplayGeometry
	Frame      types.FrameMetadata
}

// Render clears dst and draws sc. dst is expected to match sc.Display.
func Render(dst *image.RGBA, sc Scene, st Style) {
	if dst == nil || dst.Bounds().Empty() {
		return
	}
	c := newCanvas(dst)
	c.clear()

	_, mappable := geometry.ScaleFor(sc.Display, sc.Frame)

	if sc.Session != nil {
		drawSession(c, sc.Session, st)
	} else if sc.Committed.Defined() && mappable {
		drawZone(c, geometry.PolygonToDisplay(sc.Committed, sc.Display, sc.Frame), st)
	}

	if mappable {
		for _, d := range sc.Detections {
			drawDetection(c, d, sc.Display, sc.Frame, st)
		}
	}
}

func drawSession(c *canvas, s *editor.Session, st Style) {
	verts := s.Vertices
	snapping := s.Snapping()
	draw := st.Draw.NRGBA(1)
	snap := st.Snap.NRGBA(1)

	for i := 1; i < len(verts); i++ {
		c.line(verts[i-1], verts[i], st.LineWidth, draw)
	}

	if len(verts) > 0 {
		last := verts[len(verts)-1]
		preview := draw
		if snapping {
			preview = snap
			c.line(last, verts[0], st.LineWidth, snap)
		}
		c.dashed(last, s.Cursor, st.LineWidth, st.Dash, preview)
	}

	for i, v := range verts {
		if i == 0 {
			c.fillCircle(v, st.VertexRadius, snap)
			c.text(types.Pt(v.X+st.VertexRadius+3, v.Y-st.VertexRadius), st.AnchorLabel, st.Text.NRGBA(1))
			continue
		}
		c.fillCircle(v, st.VertexRadius, draw)
	}

	cursor := draw
	if snapping {
		cursor = snap
	}
	c.fillCircle(s.Cursor, st.CursorRadius, cursor)
	if snapping {
		c.text(types.Pt(s.Cursor.X+st.CursorRadius+4, s.Cursor.Y+4), st.CloseHint, snap)
	}
}

func drawZone(c *canvas, poly types.Polygon, st Style) {
	c.fillPolygon(poly, st.Zone.NRGBA(st.ZoneFillAlpha))
	stroke := st.Zone.NRGBA(1)
	for i := range poly {
		c.line(poly[i], poly[(i+1)%len(poly)], st.LineWidth, stroke)
	}
	for _, v := range poly {
		c.fillCircle(v, st.CommittedVertexRadius, stroke)
	}
}

func drawDetection(c *canvas, d types.Detection, display types.DisplayGeometry, frame types.FrameMetadata, st Style) {
	col := st.Detection.NRGBA(1)
	if d.InZone {
		col = st.Alert.NRGBA(1)
	}

	if d.BBox[2] > d.BBox[0] && d.BBox[3] > d.BBox[1] {
		tl := geometry.ToDisplay(types.Pt(d.BBox[0], d.BBox[1]), display, frame)
		br := geometry.ToDisplay(types.Pt(d.BBox[2], d.BBox[3]), display, frame)
		c.rect([4]float64{tl.X, tl.Y, br.X, br.Y}, st.LineWidth, col)
	}

	center := geometry.ToDisplay(d.Center, display, frame)
	c.fillCircle(center, st.DetectionRadius, col)

	label := fmt.Sprintf("%s %.0f%%", d.Label(), d.Confidence*100)
	if d.InZone {
		label = "! " + label
	}
	c.text(types.Pt(center.X+st.DetectionRadius+3, center.Y-st.DetectionRadius), label, col)
}
