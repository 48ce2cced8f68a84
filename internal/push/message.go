// Package push carries frame, alarm and log events over a websocket: a
// reconnecting client on the monitor side and a fan-out hub on the server side.
package push

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler receives decoded push events. Methods are called from the client's
// read goroutine and must not block for long.
type Handler interface {
	Frame(types.FramePayload)
	Alarm(types.AlarmEvent)
	Log(types.LogEvent)
	// Connected is called after every successful (re)connect and
	// Disconnected when that session ends.
	Connected()
	Disconnected()
}

// Encode wraps data in an event envelope.
func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(types.Envelope{Event: event, Data: raw})
}

// Dispatch decodes one envelope and hands it to h. Unknown events are ignored.
func Dispatch(msg []byte, h Handler) (string, error) {
	var env types.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case types.EventFrame:
		var p types.FramePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return env.Event, fmt.Errorf("decode frame: %w", err)
		}
		h.Frame(p)
	case types.EventAlarm:
		var a types.AlarmEvent
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return env.Event, fmt.Errorf("decode alarm: %w", err)
		}
		h.Alarm(a)
	case types.EventLog:
		var l types.LogEvent
		if err := json.Unmarshal(env.Data, &l); err != nil {
			return env.Event, fmt.Errorf("decode log: %w", err)
		}
		h.Log(l)
	}
	return env.Event, nil
}
