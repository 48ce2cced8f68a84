package feed

import (
	"image"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// Surface is one drawing layer of the operator view.
type Surface interface {
	Resize(types.DisplayGeometry)
	Paint(func(dst *image.RGBA))
}

// StatusSink receives a state snapshot after every handled event.
type StatusSink interface {
	Publish(State)
}

// UIHandles are the output surfaces the controller draws into.
// Video and Overlay are separate layers; painting one never touches the other.
type UIHandles struct {
	Video   Surface
	Overlay Surface
	Status  StatusSink
}

// RGBASurface is an in-memory Surface that can be read from other goroutines.
type RGBASurface struct {
	mu      sync.RWMutex
	img     *image.RGBA
	version uint64

	listenMu  sync.Mutex
	listeners []func()
}

// NewRGBASurface allocates a surface of the given size.
func NewRGBASurface(d types.DisplayGeometry) *RGBASurface {
	s := &RGBASurface{}
	s.Resize(d)
	return s
}

// Resize reallocates the pixel buffer; previous content is discarded.
func (s *RGBASurface) Resize(d types.DisplayGeometry) {
	w, h := d.Width, d.Height
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.mu.Lock()
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.version++
	s.mu.Unlock()
}

// Paint runs fn with exclusive access to the pixels, then notifies listeners.
func (s *RGBASurface) Paint(fn func(dst *image.RGBA)) {
	s.mu.Lock()
	fn(s.img)
	s.version++
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current pixels and their version.
func (s *RGBASurface) Snapshot() (*image.RGBA, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp, s.version
}

// Version changes every time the surface is painted or resized.
func (s *RGBASurface) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// OnPresent registers fn to be called after each Paint. fn must not block.
func (s *RGBASurface) OnPresent(fn func()) {
	s.listenMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenMu.Unlock()
}

func (s *RGBASurface) notify() {
	s.listenMu.Lock()
	ls := append([]func(){}, s.listeners...)
	s.listenMu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

// paintFrame scales img to fill dst.
func paintFrame(dst *image.RGBA, img image.Image) {
	b := dst.Bounds()
	if b.Empty() || img == nil {
		return
	}
	src := img
	if img.Bounds().Dx() != b.Dx() || img.Bounds().Dy() != b.Dy() {
		src = imaging.Resize(img, b.Dx(), b.Dy(), imaging.Linear)
	}
	draw.Draw(dst, b, src, src.Bounds().Min, draw.Src)
}

// Composite draws overlay on top of video into a new image.
func Composite(video, overlay *image.RGBA) *image.RGBA {
	out := image.NewRGBA(video.Bounds())
	draw.Draw(out, out.Bounds(), video, video.Bounds().Min, draw.Src)
	if overlay != nil {
		draw.Draw(out, out.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
	}
	return out
}
