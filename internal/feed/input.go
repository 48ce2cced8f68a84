package feed

import (
	"fmt"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// Input types sent by the operator page.
const (
	InputStart       = "start"
	InputCancel      = "cancel"
	InputEscape      = "escape"
	InputClick       = "click"
	InputMove        = "move"
	InputDoubleClick = "dblclick"
	InputResize      = "resize"
	InputSave        = "save"
	InputRetry       = "retry"
	InputClear       = "clear"
	InputRefresh     = "refresh"
)

// Input is one operator action. X/Y are display-space pointer coordinates;
// Width/Height are used by resize.
type Input struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

// Validate checks that the type is known and resize carries a usable size.
func (in Input) Validate() error {
	switch in.Type {
	case InputStart, InputCancel, InputEscape, InputClick, InputMove, InputDoubleClick,
		InputSave, InputRetry, InputClear, InputRefresh:
		return nil
	case InputResize:
		if in.Width <= 0 || in.Height <= 0 {
			return fmt.Errorf("resize needs positive width and height, got %dx%d", in.Width, in.Height)
		}
		return nil
	default:
		return fmt.Errorf("unknown input type %q", in.Type)
	}
}

// Point returns the pointer position.
func (in Input) Point() types.Point2D { return types.Pt(in.X, in.Y) }

// apply dispatches the input to the controller.
func (in Input) apply(c *Controller) error {
	switch in.Type {
	case InputStart:
		c.StartDrawing()
	case InputCancel:
		c.CancelDrawing()
	case InputEscape:
		c.Escape()
	case InputClick:
		return c.PointerClick(in.Point())
	case InputMove:
		c.PointerMove(in.Point())
	case InputDoubleClick:
		return c.PointerDoubleClick()
	case InputResize:
		c.Resize(types.DisplayGeometry{Width: in.Width, Height: in.Height})
	case InputSave:
		return c.SaveCommitted()
	case InputRetry:
		return c.Retry()
	case InputClear:
		c.Clear()
	case InputRefresh:
		c.Refresh()
	}
	return nil
}
