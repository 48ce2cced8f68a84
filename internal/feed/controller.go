// Package feed coordinates the live view: it owns the display and frame
// geometry, orders frame/detection/polygon updates and decides whether the
// editor or the server-pushed polygon owns the overlay.
package feed

import (
	"errors"
	"fmt"
	"image"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/editor"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/overlay"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// Requests starts collaborator calls. Implementations must not block; the
// outcome comes back through SaveCompleted, DeleteCompleted or FetchCompleted.
type Requests interface {
	RequestSave(types.Polygon)
	RequestDelete()
	RequestFetch()
}

// Controller is the single writer of live-view state. It is not safe for
// concurrent use: every handler runs to completion on the Loop goroutine.
type Controller struct {
	ui       UIHandles
	style    overlay.Style
	requests Requests
	metrics  *metrics.Metrics

	editor     *editor.Editor
	display    types.DisplayGeometry
	frame      types.FrameMetadata
	committed  types.Polygon
	detections []types.Detection
	lastImage  image.Image
	fps        float64

	accepted uint64 // last sequence handed out by AcceptFrame
	applied  uint64 // highest sequence painted

	unsaved types.Polygon // last finalized polygon not yet confirmed by the collaborator
	saving  bool
	notice  string
}

// NewController wires the controller to its surfaces. requests and m may be nil.
func NewController(ui UIHandles, display types.DisplayGeometry, style overlay.Style, requests Requests, m *metrics.Metrics) *Controller {
	c := &Controller{
		ui:       ui,
		style:    style,
		requests: requests,
		metrics:  m,
		display:  display,
	}
	c.editor = editor.New(editor.GeometryFunc(func() (types.DisplayGeometry, types.FrameMetadata) {
		return c.display, c.frame
	}))
	if ui.Video != nil {
		ui.Video.Resize(display)
	}
	if ui.Overlay != nil {
		ui.Overlay.Resize(display)
	}
	return c
}

// Resize updates the display geometry and repaints both layers.
// Vertices of an unfinished session stay where they are in display space.
func (c *Controller) Resize(d types.DisplayGeometry) {
	if !d.Valid() || d == c.display {
		return
	}
	logger.Debug("Controller", "display resized %dx%d -> %dx%d", c.display.Width, c.display.Height, d.Width, d.Height)
	c.display = d
	if c.ui.Video != nil {
		c.ui.Video.Resize(d)
		if c.lastImage != nil {
			img := c.lastImage
			c.ui.Video.Paint(func(dst *image.RGBA) { paintFrame(dst, img) })
		}
	}
	if c.ui.Overlay != nil {
		c.ui.Overlay.Resize(d)
	}
	c.repaintOverlay()
}

// AcceptFrame reserves the sequence number for a payload about to be decoded.
func (c *Controller) AcceptFrame() uint64 {
	c.accepted++
	if c.metrics != nil {
		c.metrics.FramesAccepted.Add(1)
	}
	return c.accepted
}

// FrameDecoded applies a decode completion. Completions older than the last
// applied frame have no visual effect and return false. A declared size of
// zero falls back to the decoded image bounds.
func (c *Controller) FrameDecoded(seq uint64, img image.Image, declaredWidth, declaredHeight int) bool {
	if seq <= c.applied {
		logger.Debug("Controller", "discarding stale frame %d (applied %d)", seq, c.applied)
		if c.metrics != nil {
			c.metrics.FramesStale.Add(1)
		}
		return false
	}
	c.applied = seq

	meta := types.FrameMetadata{Width: declaredWidth, Height: declaredHeight}
	if !meta.Known() && img != nil {
		meta = types.FrameMetadata{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	}
	if meta.Known() && meta != c.frame {
		logger.Info("Controller", "source resolution %dx%d", meta.Width, meta.Height)
		c.frame = meta
	}

	c.lastImage = img
	if c.ui.Video != nil {
		c.ui.Video.Paint(func(dst *image.RGBA) { paintFrame(dst, img) })
	}
	if c.metrics != nil {
		c.metrics.FramesApplied.Add(1)
	}
	c.repaintOverlay()
	return true
}

// FrameArrived accepts and applies a frame that is already decoded.
func (c *Controller) FrameArrived(img image.Image, declaredWidth, declaredHeight int) bool {
	return c.FrameDecoded(c.AcceptFrame(), img, declaredWidth, declaredHeight)
}

// DecodeFailed records a payload that could not be decoded.
func (c *Controller) DecodeFailed(seq uint64, err error) {
	logger.Warn("Controller", "frame %d decode failed: %v", seq, err)
	if c.metrics != nil {
		c.metrics.DecodeErrors.Add(1)
	}
}

// SetFPS records the rate reported by the frame source.
func (c *Controller) SetFPS(fps float64) { c.fps = fps }

// DetectionsArrived replaces the detection set. Only the overlay is repainted.
func (c *Controller) DetectionsArrived(list []types.Detection) {
	c.detections = append([]types.Detection(nil), list...)
	if c.metrics != nil {
		c.metrics.DetectionsReceived.Add(uint64(len(list)))
	}
	c.repaintOverlay()
}

// ServerPolygonArrived replaces the committed polygon unless a session is
// active, in which case the update is dropped and false is returned.
// Fewer than three vertices means no zone is configured.
func (c *Controller) ServerPolygonArrived(p types.Polygon) bool {
	if c.editor.Drawing() {
		logger.Debug("Controller", "ignoring pushed polygon while drawing")
		return false
	}
	if p.Defined() {
		c.committed = p.Clone()
	} else {
		c.committed = nil
	}
	c.repaintOverlay()
	return true
}

// StartDrawing enters the editor session.
func (c *Controller) StartDrawing() {
	c.editor.Start()
	c.notice = ""
	c.repaintOverlay()
}

// PointerClick forwards a display-space click to the editor. A
// *editor.ValidationError is returned when a closing click has too few vertices.
func (c *Controller) PointerClick(p types.Point2D) error {
	if !c.editor.Drawing() {
		return nil
	}
	poly, err := c.editor.Click(p)
	return c.finish(poly, err)
}

// PointerMove updates the preview cursor.
func (c *Controller) PointerMove(p types.Point2D) {
	if !c.editor.Drawing() {
		return
	}
	c.editor.Move(p)
	c.repaintOverlay()
}

// PointerDoubleClick closes the polygon regardless of snap distance.
func (c *Controller) PointerDoubleClick() error {
	if !c.editor.Drawing() {
		return nil
	}
	poly, err := c.editor.DoubleClick()
	return c.finish(poly, err)
}

// CancelDrawing discards the session. Idempotent.
func (c *Controller) CancelDrawing() {
	if !c.editor.Drawing() {
		return
	}
	c.editor.Cancel()
	c.notice = "drawing cancelled"
	c.repaintOverlay()
}

// Escape is the keyboard cancel.
func (c *Controller) Escape() { c.CancelDrawing() }

func (c *Controller) finish(poly types.Polygon, err error) error {
	if err != nil {
		c.notice = err.Error()
		c.repaintOverlay()
		return err
	}
	if poly == nil {
		c.repaintOverlay()
		return nil
	}
	c.committed = poly
	c.submit(poly)
	c.repaintOverlay()
	return nil
}

func (c *Controller) submit(poly types.Polygon) {
	c.unsaved = poly.Clone()
	if c.requests == nil {
		return
	}
	c.saving = true
	c.notice = "saving zone"
	c.requests.RequestSave(c.unsaved.Clone())
}

// SaveCommitted resubmits the committed polygon.
func (c *Controller) SaveCommitted() error {
	if !c.committed.Defined() {
		c.notice = "no zone to save"
		return errors.New(c.notice)
	}
	c.submit(c.committed)
	return nil
}

// Retry resubmits the last polygon whose save failed.
func (c *Controller) Retry() error {
	if c.unsaved == nil || c.saving {
		c.notice = "nothing to retry"
		return errors.New(c.notice)
	}
	c.submit(c.unsaved)
	return nil
}

// SaveCompleted applies the collaborator's answer to a save.
// On failure the polygon is kept for Retry.
func (c *Controller) SaveCompleted(poly types.Polygon, err error) {
	c.saving = false
	if err != nil {
		logger.Warn("Controller", "zone save failed: %v", err)
		c.notice = fmt.Sprintf("save failed: %v", err)
		if c.metrics != nil {
			c.metrics.SaveFailures.Add(1)
		}
		return
	}
	if c.unsaved.Equal(poly) {
		c.unsaved = nil
	}
	c.notice = "zone saved"
	if c.metrics != nil {
		c.metrics.PolygonsSaved.Add(1)
	}
	logger.Info("Controller", "zone saved (%d vertices)", len(poly))
}

// Clear asks the collaborator to delete the zone.
func (c *Controller) Clear() {
	if c.requests == nil {
		return
	}
	c.notice = "clearing zone"
	c.requests.RequestDelete()
}

// DeleteCompleted drops the committed polygon when the delete succeeded.
func (c *Controller) DeleteCompleted(err error) {
	if err != nil {
		logger.Warn("Controller", "zone delete failed: %v", err)
		c.notice = fmt.Sprintf("clear failed: %v", err)
		return
	}
	c.notice = "zone cleared"
	if c.metrics != nil {
		c.metrics.PolygonsCleared.Add(1)
	}
	c.unsaved = nil
	c.committed = nil
	c.repaintOverlay()
}

// Refresh asks the collaborator for the stored polygon.
func (c *Controller) Refresh() {
	if c.requests != nil {
		c.requests.RequestFetch()
	}
}

// FetchCompleted applies a fetched polygon through the server-push path.
func (c *Controller) FetchCompleted(poly types.Polygon, err error) {
	if err != nil {
		logger.Warn("Controller", "zone fetch failed: %v", err)
		c.notice = fmt.Sprintf("load failed: %v", err)
		return
	}
	c.ServerPolygonArrived(poly)
}

// Drawing reports whether the editor owns the overlay.
func (c *Controller) Drawing() bool { return c.editor.Drawing() }

// Committed returns a copy of the committed source-space polygon.
func (c *Controller) Committed() types.Polygon { return c.committed.Clone() }

// Snapshot copies the current state.
func (c *Controller) Snapshot() State {
	s := State{
		Mode:       c.editor.State().String(),
		Display:    c.display,
		Frame:      c.frame,
		FrameSeq:   c.applied,
		FPS:        c.fps,
		Committed:  c.committed.Clone(),
		ZoneStatus: zoneStatus(c.committed),
		Session:    sessionState(c.editor.Session()),
		Detections: append([]types.Detection{}, c.detections...),
		Notice:     c.notice,
		Saving:     c.saving,
		CanRetry:   c.unsaved != nil && !c.saving,
	}
	if s.Session != nil {
		s.Hint = DrawingHint
	}
	return s
}

func (c *Controller) scene() overlay.Scene {
	return overlay.Scene{
		Session:    c.editor.Session(),
		Committed:  c.committed,
		Detections: c.detections,
		Display:    c.display,
		Frame:      c.frame,
	}
}

func (c *Controller) repaintOverlay() {
	if c.ui.Overlay == nil {
		return
	}
	sc := c.scene()
	st := c.style
	c.ui.Overlay.Paint(func(dst *image.RGBA) { overlay.Render(dst, sc, st) })
	if c.metrics != nil {
		c.metrics.OverlayRepaint.Add(1)
	}
}
