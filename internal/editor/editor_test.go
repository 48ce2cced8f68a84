package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

func fixedGeometry(dw, dh, fw, fh int) Geometry {
	return GeometryFunc(func() (types.DisplayGeometry, types.FrameMetadata) {
		return types.DisplayGeometry{Width: dw, Height: dh}, types.FrameMetadata{Width: fw, Height: fh}
	})
}

func TestClickNearFirstVertexFinalizes(t *testing.T) {
	e := New(fixedGeometry(640, 360, 1280, 720))
	e.Start()
	for _, p := range []types.Point2D{{X: 10, Y: 10}, {X: 100, Y: 10}, {X: 100, Y: 100}} {
		if poly, err := e.Click(p); poly != nil || err != nil {
			t.Fatalf("Click(%v) = %v, %v; want append", p, poly, err)
		}
	}

	poly, err := e.Click(types.Pt(12, 11))
	if err != nil {
		t.Fatalf("closing click: %v", err)
	}
	want := types.Polygon{{X: 20, Y: 20}, {X: 200, Y: 20}, {X: 200, Y: 200}}
	if !poly.Equal(want) {
		t.Fatalf("polygon = %v, want %v", poly, want)
	}
	if e.State() != Idle {
		t.Fatalf("state = %v, want idle", e.State())
	}
	if e.Session() != nil {
		t.Fatalf("session must be discarded after finalize")
	}
}

func TestDoubleClickWithTooFewVerticesKeepsDrawing(t *testing.T) {
	e := New(fixedGeometry(640, 360, 640, 360))
	e.Start()
	e.Click(types.Pt(10, 10))
	e.Click(types.Pt(200, 10))

	poly, err := e.DoubleClick()
	if poly != nil {
		t.Fatalf("expected no polygon, got %v", poly)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "at least 3 vertices required") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if e.State() != Drawing {
		t.Fatalf("state = %v, want drawing", e.State())
	}
	if got := e.Session().Vertices; len(got) != 2 {
		t.Fatalf("vertices changed: %v", got)
	}

	// operator keeps adding points and can then close
	e.Click(types.Pt(200, 200))
	if poly, err := e.DoubleClick(); err != nil || len(poly) != 3 {
		t.Fatalf("finalize after adding = %v, %v", poly, err)
	}
}

func TestSnapWithTwoVerticesIsValidationError(t *testing.T) {
	e := New(fixedGeometry(100, 100, 100, 100))
	e.Start()
	e.Click(types.Pt(10, 10))
	e.Click(types.Pt(90, 10))

	_, err := e.Click(types.Pt(11, 11))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(e.Session().Vertices); n != 2 {
		t.Fatalf("closing click must not append, have %d vertices", n)
	}
}

func TestCancelThenStartIsClean(t *testing.T) {
	e := New(fixedGeometry(100, 100, 100, 100))
	e.Start()
	e.Click(types.Pt(1, 1))
	e.Click(types.Pt(50, 1))
	e.Move(types.Pt(70, 70))

	e.Cancel()
	if e.State() != Idle || e.Session() != nil {
		t.Fatalf("cancel must return to idle")
	}
	e.Cancel() // idempotent
	if e.State() != Idle {
		t.Fatalf("second cancel changed state")
	}

	e.Start()
	s := e.Session()
	if len(s.Vertices) != 0 {
		t.Fatalf("new session has stale vertices %v", s.Vertices)
	}
	if s.Cursor != types.Pt(70, 70) {
		t.Fatalf("cursor = %v, want last known position", s.Cursor)
	}
}

func TestEventsIgnoredWhileIdle(t *testing.T) {
	e := New(fixedGeometry(100, 100, 100, 100))
	if poly, err := e.Click(types.Pt(5, 5)); poly != nil || err != nil {
		t.Fatalf("idle click = %v, %v", poly, err)
	}
	e.Move(types.Pt(5, 5))
	if poly, err := e.DoubleClick(); poly != nil || err != nil {
		t.Fatalf("idle double click = %v, %v", poly, err)
	}
	if _, err := e.Finalize(); !errors.Is(err, ErrNotDrawing) {
		t.Fatalf("Finalize while idle = %v", err)
	}
	if e.State() != Idle {
		t.Fatalf("state = %v", e.State())
	}
}

func TestMoveDoesNotMutateVertices(t *testing.T) {
	e := New(fixedGeometry(100, 100, 100, 100))
	e.Start()
	e.Click(types.Pt(10, 10))
	e.Move(types.Pt(40, 40))
	s := e.Session()
	if len(s.Vertices) != 1 || s.Cursor != types.Pt(40, 40) {
		t.Fatalf("session = %+v", s)
	}
	if s.Snapping() {
		t.Fatalf("one vertex is never a snap target")
	}
}

func TestFinalizeBeforeFirstFrame(t *testing.T) {
	e := New(fixedGeometry(640, 480, 0, 0))
	e.Start()
	e.Click(types.Pt(1, 1))
	e.Click(types.Pt(100, 1))
	e.Click(types.Pt(100, 100))
	if _, err := e.DoubleClick(); !errors.Is(err, ErrMappingUndefined) {
		t.Fatalf("expected ErrMappingUndefined, got %v", err)
	}
	if !e.Drawing() {
		t.Fatalf("session must survive an unmappable finalize")
	}
}
