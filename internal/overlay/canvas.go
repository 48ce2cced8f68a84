package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

const circleSegments = 32

// canvas rasterizes anti-aliased shapes onto an RGBA surface.
type canvas struct {
	dst *image.RGBA
	z   *vector.Rasterizer
}

func newCanvas(dst *image.RGBA) *canvas {
	b := dst.Bounds()
	return &canvas{dst: dst, z: vector.NewRasterizer(b.Dx(), b.Dy())}
}

func (c *canvas) clear() {
	draw.Draw(c.dst, c.dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (c *canvas) begin() {
	b := c.dst.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
}

func (c *canvas) paint(col color.Color) {
	b := c.dst.Bounds()
	c.z.Draw(c.dst, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) path(pts []types.Point2D) {
	org := c.dst.Bounds().Min
	for i, p := range pts {
		x, y := float32(p.X-float64(org.X)), float32(p.Y-float64(org.Y))
		if i == 0 {
			c.z.MoveTo(x, y)
		} else {
			c.z.LineTo(x, y)
		}
	}
	c.z.ClosePath()
}

func (c *canvas) fillPolygon(pts []types.Point2D, col color.Color) {
	if len(pts) < 3 {
		return
	}
	c.begin()
	c.path(pts)
	c.paint(col)
}

func (c *canvas) fillCircle(center types.Point2D, r float64, col color.Color) {
	if r <= 0 {
		return
	}
	pts := make([]types.Point2D, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = types.Pt(center.X+r*math.Cos(a), center.Y+r*math.Sin(a))
	}
	c.fillPolygon(pts, col)
}

// line strokes a segment of the given width as a filled quad.
func (c *canvas) line(a, b types.Point2D, width float64, col color.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 || width <= 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	c.fillPolygon([]types.Point2D{
		types.Pt(a.X+nx, a.Y+ny),
		types.Pt(b.X+nx, b.Y+ny),
		types.Pt(b.X-nx, b.Y-ny),
		types.Pt(a.X-nx, a.Y-ny),
	}, col)
}

// dashed strokes a segment as alternating dash-length runs.
func (c *canvas) dashed(a, b types.Point2D, width, dash float64, col color.Color) {
	l := math.Hypot(b.X-a.X, b.Y-a.Y)
	if dash <= 0 || l <= dash {
		c.line(a, b, width, col)
		return
	}
	ux, uy := (b.X-a.X)/l, (b.Y-a.Y)/l
	for s := 0.0; s < l; s += 2 * dash {
		e := math.Min(s+dash, l)
		c.line(types.Pt(a.X+ux*s, a.Y+uy*s), types.Pt(a.X+ux*e, a.Y+uy*e), width, col)
	}
}

func (c *canvas) rect(r [4]float64, width float64, col color.Color) {
	tl, tr := types.Pt(r[0], r[1]), types.Pt(r[2], r[1])
	br, bl := types.Pt(r[2], r[3]), types.Pt(r[0], r[3])
	c.line(tl, tr, width, col)
	c.line(tr, br, width, col)
	c.line(br, bl, width, col)
	c.line(bl, tl, width, col)
}

// text draws s with its baseline at p and a one-pixel dark shadow.
func (c *canvas) text(p types.Point2D, s string, col color.Color) {
	if s == "" {
		return
	}
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	d := &font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(color.NRGBA{A: 0xc0}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x+1, y+1),
	}
	d.DrawString(s)
	d.Src = image.NewUniform(col)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}
