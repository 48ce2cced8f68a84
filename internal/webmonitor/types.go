package webmonitor

import "github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"

// SerializedEvent holds one state snapshot pre-serialized in both formats.
type SerializedEvent struct {
	JSONData     []byte
	ProtobufData []byte // base64 for SSE transport
}

// MonitorStatus is the /api/status payload.
type MonitorStatus struct {
	VideoConnected     bool                  `json:"video_connected"`
	PushConnected      bool                  `json:"push_connected"`
	PolygonDefined     bool                  `json:"polygon_defined"`
	PolygonPointsCount int                   `json:"polygon_points_count"`
	ZoneStatus         string                `json:"zone_status"`
	Mode               string                `json:"mode"`
	FPS                float64               `json:"fps"`
	Resolution         types.Resolution      `json:"resolution"`
	Display            types.DisplayGeometry `json:"display"`
	Detections         int                   `json:"detections"`
	MJPEGClients       int                   `json:"mjpeg_clients"`
	StateClients       int                   `json:"state_clients"`
	WebRTCClients      int                   `json:"webrtc_clients"`
	Notice             string                `json:"notice,omitempty"`
}
