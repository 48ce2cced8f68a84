package feed

import (
	"fmt"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/editor"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// DrawingHint is shown while a session is active.
const DrawingHint = "click near the start point or double-click to close, Esc to cancel"

// State is a point-in-time copy of everything the operator view shows.
type State struct {
	Mode       string                `json:"mode"`
	Display    types.DisplayGeometry `json:"display"`
	Frame      types.FrameMetadata   `json:"frame"`
	FrameSeq   uint64                `json:"frame_seq"`
	FPS        float64               `json:"fps"`
	Committed  types.Polygon         `json:"polygon"`
	ZoneStatus string                `json:"zone_status"`
	Session    *SessionState         `json:"session,omitempty"`
	Hint       string                `json:"hint,omitempty"`
	Detections []types.Detection     `json:"detections"`
	Notice     string                `json:"notice,omitempty"`
	Saving     bool                  `json:"saving"`
	CanRetry   bool                  `json:"can_retry"`
}

// SessionState is the JSON view of an editor session.
type SessionState struct {
	Vertices []types.Point2D `json:"vertices"`
	Cursor   types.Point2D   `json:"cursor"`
	Snapping bool            `json:"snapping"`
}

// zoneStatus renders the committed-zone line of the status panel.
func zoneStatus(p types.Polygon) string {
	if !p.Defined() {
		return "no zone"
	}
	return fmt.Sprintf("zone set (%d vertices)", len(p))
}

func sessionState(s *editor.Session) *SessionState {
	if s == nil {
		return nil
	}
	return &SessionState{Vertices: s.Vertices, Cursor: s.Cursor, Snapping: s.Snapping()}
}
