// Package editor implements the two-state polygon drawing machine.
//
// Pointer input arrives in display space. A finished polygon leaves the editor
// in source-video space, mapped with the geometry reported by the Geometry
// provider at the moment of finalization.
package editor

import (
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/geometry"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// State is the editor mode.
type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Geometry supplies the current display and frame sizes used to map vertices.
type Geometry interface {
	Geometry() (types.DisplayGeometry, types.FrameMetadata)
}

// GeometryFunc adapts a function to Geometry.
type GeometryFunc func() (types.DisplayGeometry, types.FrameMetadata)

func (f GeometryFunc) Geometry() (types.DisplayGeometry, types.FrameMetadata) { return f() }

// Session is a read-only copy of the in-progress drawing.
type Session struct {
	Vertices []types.Point2D // display space
	Cursor   types.Point2D   // display space
}

// Snapping reports whether the cursor sits inside the closing radius of the first vertex.
func (s *Session) Snapping() bool {
	return s != nil && geometry.SnapsToFirst(s.Cursor, s.Vertices)
}

// Editor owns the drawing session. It is not safe for concurrent use; the
// feed controller drives it from a single goroutine.
type Editor struct {
	geo      Geometry
	state    State
	vertices []types.Point2D
	cursor   types.Point2D
}

// New creates an idle editor.
func New(geo Geometry) *Editor {
	return &Editor{geo: geo}
}

// State returns the current mode.
func (e *Editor) State() State { return e.state }

// Drawing reports whether a session is active.
func (e *Editor) Drawing() bool { return e.state == Drawing }

// Session returns a copy of the active session, or nil when idle.
func (e *Editor) Session() *Session {
	if e.state != Drawing {
		return nil
	}
	verts := make([]types.Point2D, len(e.vertices))
	copy(verts, e.vertices)
	return &Session{Vertices: verts, Cursor: e.cursor}
}

// Start enters Drawing with an empty vertex list. The cursor keeps its last
// known position. Start while already drawing is ignored so that a stray
// button press cannot discard unfinished work.
func (e *Editor) Start() {
	if e.state == Drawing {
		return
	}
	e.vertices = e.vertices[:0]
	e.state = Drawing
	logger.Debug("Editor", "session started")
}

// Click appends p, or finalizes when p closes the loop on the first vertex.
// A non-nil polygon is returned only on a successful finalize.
func (e *Editor) Click(p types.Point2D) (types.Polygon, error) {
	if e.state != Drawing {
		return nil, nil
	}
	e.cursor = p
	if geometry.SnapsToFirst(p, e.vertices) {
		return e.Finalize()
	}
	e.vertices = append(e.vertices, p)
	return nil, nil
}

// Move updates the preview cursor.
func (e *Editor) Move(p types.Point2D) {
	if e.state != Drawing {
		return
	}
	e.cursor = p
}

// DoubleClick finalizes regardless of snap distance.
func (e *Editor) DoubleClick() (types.Polygon, error) {
	if e.state != Drawing {
		return nil, nil
	}
	return e.Finalize()
}

// Finalize maps the vertices to source space and returns to Idle.
// With fewer than three vertices it returns a *ValidationError and stays in
// Drawing with the vertices unchanged.
func (e *Editor) Finalize() (types.Polygon, error) {
	if e.state != Drawing {
		return nil, ErrNotDrawing
	}
	if len(e.vertices) < types.MinPolygonVertices {
		return nil, &ValidationError{Vertices: len(e.vertices), Min: types.MinPolygonVertices}
	}

	display, frame := e.geo.Geometry()
	if _, ok := geometry.ScaleFor(display, frame); !ok {
		return nil, ErrMappingUndefined
	}

	out := geometry.PolygonToSource(types.Polygon(e.vertices), display, frame)
	e.vertices = nil
	e.state = Idle
	logger.Info("Editor", "polygon finalized with %d vertices", len(out))
	return out, nil
}

// Cancel discards the session. Calling it while idle does nothing.
func (e *Editor) Cancel() {
	if e.state != Drawing {
		return
	}
	e.vertices = nil
	e.state = Idle
	logger.Debug("Editor", "session cancelled")
}
