package feed

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/editor"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/overlay"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

type recordingRequests struct {
	saves   []types.Polygon
	deletes int
	fetches int
}

func (r *recordingRequests) RequestSave(p types.Polygon) { r.saves = append(r.saves, p) }
func (r *recordingRequests) RequestDelete()              { r.deletes++ }
func (r *recordingRequests) RequestFetch()               { r.fetches++ }

type fixture struct {
	ctrl    *Controller
	video   *RGBASurface
	overlay *RGBASurface
	reqs    *recordingRequests
	metrics *metrics.Metrics
}

func newFixture(d types.DisplayGeometry) *fixture {
	f := &fixture{
		video:   NewRGBASurface(d),
		overlay: NewRGBASurface(d),
		reqs:    &recordingRequests{},
		metrics: metrics.New(),
	}
	f.ctrl = NewController(UIHandles{Video: f.video, Overlay: f.overlay}, d, overlay.DefaultStyle(), f.reqs, f.metrics)
	return f
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func overlayAt(f *fixture, x, y int) color.RGBA {
	img, _ := f.overlay.Snapshot()
	return img.RGBAAt(x, y)
}

var (
	p1 = types.Polygon{{X: 40, Y: 40}, {X: 360, Y: 40}, {X: 360, Y: 360}, {X: 40, Y: 360}}
	p2 = types.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
)

func TestPushedPolygonIgnoredWhileDrawing(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 200, Height: 200})
	f.ctrl.FrameArrived(solid(400, 400, color.Black), 400, 400)

	if !f.ctrl.ServerPolygonArrived(p1) {
		t.Fatalf("P1 must apply while idle")
	}
	f.ctrl.StartDrawing()
	if f.ctrl.ServerPolygonArrived(p2) {
		t.Fatalf("P2 must be ignored while drawing")
	}
	if got := f.ctrl.Committed(); !got.Equal(p1) {
		t.Fatalf("committed = %v, want P1", got)
	}

	f.ctrl.CancelDrawing()
	if got := f.ctrl.Committed(); !got.Equal(p1) {
		t.Fatalf("committed after cancel = %v, want P1", got)
	}
}

func TestOutOfOrderDecodeKeepsNewestFrame(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	s1 := f.ctrl.AcceptFrame()
	s2 := f.ctrl.AcceptFrame()

	if !f.ctrl.FrameDecoded(s2, solid(200, 100, color.RGBA{R: 255, A: 255}), 200, 100) {
		t.Fatalf("frame 2 must apply")
	}
	if f.ctrl.FrameDecoded(s1, solid(100, 50, color.RGBA{B: 255, A: 255}), 100, 50) {
		t.Fatalf("frame 1 must be discarded")
	}

	st := f.ctrl.Snapshot()
	if st.Frame != (types.FrameMetadata{Width: 200, Height: 100}) || st.FrameSeq != s2 {
		t.Fatalf("state = %+v", st)
	}
	img, _ := f.video.Snapshot()
	if px := img.RGBAAt(50, 50); px.R < 200 || px.B > 50 {
		t.Fatalf("video shows stale frame: %+v", px)
	}
	if f.metrics.FramesStale.Load() != 1 {
		t.Fatalf("stale counter = %d", f.metrics.FramesStale.Load())
	}
}

func TestDeclaredSizeFallsBackToImageBounds(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	f.ctrl.FrameArrived(solid(320, 240, color.White), 0, 0)
	if got := f.ctrl.Snapshot().Frame; got != (types.FrameMetadata{Width: 320, Height: 240}) {
		t.Fatalf("frame = %+v", got)
	}
}

func TestResizeOnlyMovesDisplayPositions(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 200, Height: 200})
	f.ctrl.FrameArrived(solid(400, 400, color.Black), 400, 400)
	f.ctrl.ServerPolygonArrived(p1)
	zone := overlay.DefaultStyle().Zone.NRGBA(1)

	if px := overlayAt(f, 20, 20); px.G != zone.G || px.A != 0xff {
		t.Fatalf("vertex at 200px display = %+v", px)
	}

	f.ctrl.Resize(types.DisplayGeometry{Width: 400, Height: 400})
	if got := f.ctrl.Committed(); !got.Equal(p1) {
		t.Fatalf("source polygon changed on resize: %v", got)
	}
	if px := overlayAt(f, 40, 40); px.G != zone.G || px.A != 0xff {
		t.Fatalf("vertex at 400px display = %+v", px)
	}
	if px := overlayAt(f, 20, 20); px.A != 0 {
		t.Fatalf("old vertex position still painted: %+v", px)
	}
}

func TestResizeKeepsSessionVertices(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 200, Height: 200})
	f.ctrl.FrameArrived(solid(400, 400, color.Black), 400, 400)
	f.ctrl.StartDrawing()
	f.ctrl.PointerClick(types.Pt(50, 50))
	f.ctrl.Resize(types.DisplayGeometry{Width: 400, Height: 400})
	s := f.ctrl.Snapshot().Session
	if s == nil || len(s.Vertices) != 1 || s.Vertices[0] != types.Pt(50, 50) {
		t.Fatalf("session = %+v", s)
	}
}

func TestFinalizeSubmitsSourcePolygon(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 200, Height: 200})
	f.ctrl.FrameArrived(solid(400, 400, color.Black), 400, 400)
	f.ctrl.StartDrawing()
	for _, p := range []types.Point2D{{X: 10, Y: 10}, {X: 100, Y: 10}, {X: 100, Y: 100}, {X: 12, Y: 11}} {
		if err := f.ctrl.PointerClick(p); err != nil {
			t.Fatalf("click %v: %v", p, err)
		}
	}

	want := types.Polygon{{X: 20, Y: 20}, {X: 200, Y: 20}, {X: 200, Y: 200}}
	if len(f.reqs.saves) != 1 || !f.reqs.saves[0].Equal(want) {
		t.Fatalf("saves = %v, want [%v]", f.reqs.saves, want)
	}
	st := f.ctrl.Snapshot()
	if st.Mode != "idle" || !st.Saving || st.ZoneStatus != "zone set (3 vertices)" {
		t.Fatalf("state = %+v", st)
	}
}

func TestShortDoubleClickDoesNotSave(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 200, Height: 200})
	f.ctrl.FrameArrived(solid(200, 200, color.Black), 200, 200)
	f.ctrl.StartDrawing()
	f.ctrl.PointerClick(types.Pt(10, 10))
	f.ctrl.PointerClick(types.Pt(150, 10))

	err := f.ctrl.PointerDoubleClick()
	if !editor.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.reqs.saves) != 0 {
		t.Fatalf("save requested for %d vertices", 2)
	}
	st := f.ctrl.Snapshot()
	if st.Mode != "drawing" || len(st.Session.Vertices) != 2 || st.Hint != DrawingHint {
		t.Fatalf("state = %+v", st)
	}
}

func TestFailedSaveCanBeRetried(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	f.ctrl.FrameArrived(solid(100, 100, color.Black), 100, 100)
	f.ctrl.StartDrawing()
	f.ctrl.PointerClick(types.Pt(10, 10))
	f.ctrl.PointerClick(types.Pt(90, 10))
	f.ctrl.PointerClick(types.Pt(90, 90))
	f.ctrl.PointerDoubleClick()

	f.ctrl.SaveCompleted(f.reqs.saves[0], errors.New("connection refused"))
	st := f.ctrl.Snapshot()
	if !st.CanRetry || st.Saving {
		t.Fatalf("state after failure = %+v", st)
	}
	if !f.ctrl.Committed().Defined() {
		t.Fatalf("local polygon lost after failed save")
	}

	if err := f.ctrl.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if len(f.reqs.saves) != 2 || !f.reqs.saves[1].Equal(f.reqs.saves[0]) {
		t.Fatalf("retry saves = %v", f.reqs.saves)
	}
	f.ctrl.SaveCompleted(f.reqs.saves[1], nil)
	if st := f.ctrl.Snapshot(); st.CanRetry || st.Notice != "zone saved" {
		t.Fatalf("state after success = %+v", st)
	}
	if err := f.ctrl.Retry(); err == nil {
		t.Fatalf("nothing should be left to retry")
	}
}

func TestSaveCommittedRequiresZone(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	if err := f.ctrl.SaveCommitted(); err == nil {
		t.Fatalf("expected refusal without a zone")
	}
	f.ctrl.ServerPolygonArrived(p2)
	if err := f.ctrl.SaveCommitted(); err != nil || len(f.reqs.saves) != 1 {
		t.Fatalf("SaveCommitted = %v, saves %d", err, len(f.reqs.saves))
	}
}

func TestClearDropsZoneOnlyOnSuccess(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	f.ctrl.ServerPolygonArrived(p2)

	f.ctrl.Clear()
	if f.reqs.deletes != 1 {
		t.Fatalf("deletes = %d", f.reqs.deletes)
	}
	f.ctrl.DeleteCompleted(errors.New("timeout"))
	if !f.ctrl.Committed().Defined() {
		t.Fatalf("zone dropped after failed delete")
	}
	f.ctrl.DeleteCompleted(nil)
	if f.ctrl.Committed() != nil {
		t.Fatalf("zone kept after delete")
	}
	if st := f.ctrl.Snapshot(); st.ZoneStatus != "no zone" {
		t.Fatalf("zone status = %q", st.ZoneStatus)
	}
}

func TestFrameWhileDrawingKeepsSessionOverlay(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	f.ctrl.FrameArrived(solid(100, 100, color.Black), 100, 100)
	f.ctrl.StartDrawing()
	f.ctrl.PointerClick(types.Pt(30, 30))
	f.ctrl.PointerMove(types.Pt(80, 80))

	f.ctrl.FrameArrived(solid(100, 100, color.White), 100, 100)
	snap := overlay.DefaultStyle().Snap.NRGBA(1)
	if px := overlayAt(f, 30, 30); px.R != snap.R || px.G != snap.G || px.A != 0xff {
		t.Fatalf("anchor vertex lost after frame: %+v", px)
	}
	img, _ := f.video.Snapshot()
	if px := img.RGBAAt(30, 30); px.R != 0xff {
		t.Fatalf("video not repainted: %+v", px)
	}
}

func TestShortServerPolygonMeansNoZone(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	f.ctrl.ServerPolygonArrived(p1)
	f.ctrl.ServerPolygonArrived(types.Polygon{{X: 1, Y: 1}})
	if f.ctrl.Committed() != nil {
		t.Fatalf("short polygon must clear the zone")
	}
}

func TestClearWhileDrawingDropsZone(t *testing.T) {
	f := newFixture(types.DisplayGeometry{Width: 100, Height: 100})
	f.ctrl.ServerPolygonArrived(p2)
	f.ctrl.StartDrawing()

	f.ctrl.Clear()
	f.ctrl.DeleteCompleted(nil)
	if f.ctrl.Committed() != nil {
		t.Fatalf("deleted zone still committed: %v", f.ctrl.Committed())
	}
	if !f.ctrl.Drawing() {
		t.Fatalf("clear ended the drawing session")
	}
}
