package types

import "encoding/json"

// Push channel event names
const (
	EventFrame = "frame"
	EventAlarm = "alarm"
	EventLog   = "log"
)

// Detection is one tracked object reported by the external detector.
// Center and BBox are in source-video space. InZone is decided upstream.
type Detection struct {
	ID          int        `json:"id"`
	ClassID     int        `json:"class_id"`
	ClassName   string     `json:"class_name"`
	ClassNameCN string     `json:"class_name_cn,omitempty"`
	BBox        [4]float64 `json:"bbox"` // x1, y1, x2, y2
	Center      Point2D    `json:"center"`
	Confidence  float64    `json:"confidence"`
	InZone      bool       `json:"in_zone"`
}

// Label returns the display label, preferring the localized class name.
func (d Detection) Label() string {
	if d.ClassNameCN != "" {
		return d.ClassNameCN
	}
	if d.ClassName != "" {
		return d.ClassName
	}
	return "object"
}

// Resolution is the declared size of a pushed frame.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FramePayload is the data of a `frame` push event.
// Polygon is nil when the field was omitted; a present but short polygon
// means no region is configured.
type FramePayload struct {
	Frame      string      `json:"frame"` // data:image/jpeg;base64,...
	Resolution Resolution  `json:"resolution"`
	Detections []Detection `json:"detections"`
	Polygon    *Polygon    `json:"polygon,omitempty"`
	FPS        float64     `json:"fps"`
}

// AlarmEvent is the data of an `alarm` push event.
type AlarmEvent struct {
	Time        string  `json:"time"`
	TrackID     int     `json:"track_id"`
	ClassID     *int    `json:"class_id,omitempty"`
	ClassNameCN string  `json:"class_name_cn,omitempty"`
	ObjectName  string  `json:"object_name"`
	Position    Point2D `json:"position"`
}

// LogEvent is the data of a `log` push event.
type LogEvent struct {
	Timestamp string `json:"timestamp"`
	Logger    string `json:"logger"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Envelope wraps every push channel message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
