package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorSpace tags the channel order a colour value was written in.
type ColorSpace string

const (
	RGB ColorSpace = "rgb"
	BGR ColorSpace = "bgr"
)

// Color is a colour value with its channel order made explicit.
type Color struct {
	Space ColorSpace
	Value colorful.Color // channels in Space order
}

// ParseColor accepts "#rrggbb" or "r,g,b" (0-255) written in the given channel order.
func ParseColor(s string, space ColorSpace) (Color, error) {
	if space == "" {
		space = RGB
	}
	if space != RGB && space != BGR {
		return Color{}, fmt.Errorf("unknown color space %q", space)
	}

	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		return Color{Space: space, Value: c}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("parse color %q: want #rrggbb or r,g,b", s)
	}
	var ch [3]float64
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("parse color %q: channel %d out of range", s, i)
		}
		ch[i] = float64(v) / 255
	}
	return Color{Space: space, Value: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}}, nil
}

// MustColor is ParseColor for literals.
func MustColor(s string, space ColorSpace) Color {
	c, err := ParseColor(s, space)
	if err != nil {
		panic(err)
	}
	return c
}

// RGB returns the colour in red-green-blue order.
func (c Color) RGB() colorful.Color {
	if c.Space == BGR {
		return colorful.Color{R: c.Value.B, G: c.Value.G, B: c.Value.R}
	}
	return c.Value
}

// NRGBA returns the colour with the given opacity in [0,1].
func (c Color) NRGBA(alpha float64) color.NRGBA {
	r, g, b := c.RGB().Clamped().RGB255()
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}

// Hex returns "#rrggbb" in red-green-blue order.
func (c Color) Hex() string { return c.RGB().Clamped().Hex() }

// Style holds every visual parameter of the overlay.
type Style struct {
	Zone      Color // committed polygon
	Draw      Color // in-progress vertices and segments
	Snap      Color // anchor marker and "about to close" state
	Alert     Color // in-zone detections
	Detection Color // out-of-zone detections
	Text      Color

	ZoneFillAlpha         float64
	VertexRadius          float64
	CommittedVertexRadius float64
	CursorRadius          float64
	DetectionRadius       float64
	LineWidth             float64
	Dash                  float64

	AnchorLabel string
	CloseHint   string
}

// DefaultStyle returns the stock overlay look.
func DefaultStyle() Style {
	return Style{
		Zone:      MustColor("#00FFFF", RGB),
		Draw:      MustColor("#00FF00", RGB),
		Snap:      MustColor("#FFD700", RGB),
		Alert:     MustColor("#FF3030", RGB),
		Detection: MustColor("#FFFFFF", RGB),
		Text:      MustColor("#FFFFFF", RGB),

		ZoneFillAlpha:         0.3,
		VertexRadius:          8,
		CommittedVertexRadius: 5,
		CursorRadius:          6,
		DetectionRadius:       6,
		LineWidth:             2,
		Dash:                  5,

		AnchorLabel: "start",
		CloseHint:   "click to close",
	}
}
