package webmonitor

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// Field numbers of the OverlayState message:
//
//	message Point     { double x = 1; double y = 2; }
//	message Session   { repeated Point vertices = 1; Point cursor = 2; bool snapping = 3; }
//	message Detection { int64 id = 1; int64 class_id = 2; string class_name = 3;
//	                    string class_name_cn = 4; repeated double bbox = 5; Point center = 6;
//	                    double confidence = 7; bool in_zone = 8; }
//	message OverlayState {
//	  string mode = 1; uint32 display_width = 2; uint32 display_height = 3;
//	  uint32 frame_width = 4; uint32 frame_height = 5; uint64 frame_seq = 6; double fps = 7;
//	  repeated Point polygon = 8; string zone_status = 9; Session session = 10; string hint = 11;
//	  repeated Detection detections = 12; string notice = 13; bool saving = 14; bool can_retry = 15;
//	}
const (
	fieldMode          protowire.Number = 1
	fieldDisplayWidth  protowire.Number = 2
	fieldDisplayHeight protowire.Number = 3
	fieldFrameWidth    protowire.Number = 4
	fieldFrameHeight   protowire.Number = 5
	fieldFrameSeq      protowire.Number = 6
	fieldFPS           protowire.Number = 7
	fieldPolygon       protowire.Number = 8
	fieldZoneStatus    protowire.Number = 9
	fieldSession       protowire.Number = 10
	fieldHint          protowire.Number = 11
	fieldDetections    protowire.Number = 12
	fieldNotice        protowire.Number = 13
	fieldSaving        protowire.Number = 14
	fieldCanRetry      protowire.Number = 15
)

// marshalState encodes a snapshot as an OverlayState message. Zero values are
// omitted as proto3 does.
func marshalState(s feed.State) []byte {
	var b []byte
	b = appendString(b, fieldMode, s.Mode)
	b = appendUint(b, fieldDisplayWidth, uint64(s.Display.Width))
	b = appendUint(b, fieldDisplayHeight, uint64(s.Display.Height))
	b = appendUint(b, fieldFrameWidth, uint64(s.Frame.Width))
	b = appendUint(b, fieldFrameHeight, uint64(s.Frame.Height))
	b = appendUint(b, fieldFrameSeq, s.FrameSeq)
	b = appendDouble(b, fieldFPS, s.FPS)
	for _, p := range s.Committed {
		b = appendMessage(b, fieldPolygon, marshalPoint(p))
	}
	b = appendString(b, fieldZoneStatus, s.ZoneStatus)
	if s.Session != nil {
		var sb []byte
		for _, v := range s.Session.Vertices {
			sb = appendMessage(sb, 1, marshalPoint(v))
		}
		sb = appendMessage(sb, 2, marshalPoint(s.Session.Cursor))
		sb = appendBool(sb, 3, s.Session.Snapping)
		b = appendMessage(b, fieldSession, sb)
	}
	b = appendString(b, fieldHint, s.Hint)
	for _, d := range s.Detections {
		b = appendMessage(b, fieldDetections, marshalDetection(d))
	}
	b = appendString(b, fieldNotice, s.Notice)
	b = appendBool(b, fieldSaving, s.Saving)
	b = appendBool(b, fieldCanRetry, s.CanRetry)
	return b
}

func marshalPoint(p types.Point2D) []byte {
	var b []byte
	b = appendDouble(b, 1, p.X)
	b = appendDouble(b, 2, p.Y)
	return b
}

func marshalDetection(d types.Detection) []byte {
	var b []byte
	b = appendUint(b, 1, uint64(int64(d.ID)))
	b = appendUint(b, 2, uint64(int64(d.ClassID)))
	b = appendString(b, 3, d.ClassName)
	b = appendString(b, 4, d.ClassNameCN)

	// packed repeated double
	var packed []byte
	for _, v := range d.BBox {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	b = appendMessage(b, 5, packed)

	b = appendMessage(b, 6, marshalPoint(d.Center))
	b = appendDouble(b, 7, d.Confidence)
	b = appendBool(b, 8, d.InZone)
	return b
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

// appendMessage writes a length-delimited field, including empty ones so
// repeated entries keep their position.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
