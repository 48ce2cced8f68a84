package webmonitor

import (
	"sync"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

const (
	maxAlarms = 20
	maxLogs   = 1000
)

// AlarmList keeps the newest alarms first.
type AlarmList struct {
	mu     sync.Mutex
	alarms []types.AlarmEvent
}

func (a *AlarmList) Add(ev types.AlarmEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alarms = append([]types.AlarmEvent{ev}, a.alarms...)
	if len(a.alarms) > maxAlarms {
		a.alarms = a.alarms[:maxAlarms]
	}
}

// List returns a copy, newest first.
func (a *AlarmList) List() []types.AlarmEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.AlarmEvent{}, a.alarms...)
}

func (a *AlarmList) Clear() {
	a.mu.Lock()
	a.alarms = nil
	a.mu.Unlock()
}

// LogRing keeps the last maxLogs log events in arrival order.
type LogRing struct {
	mu    sync.Mutex
	buf   []types.LogEvent
	start int
}

func (r *LogRing) Add(ev types.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) < maxLogs {
		r.buf = append(r.buf, ev)
		return
	}
	r.buf[r.start] = ev
	r.start = (r.start + 1) % maxLogs
}

// List returns the entries oldest first.
func (r *LogRing) List() []types.LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.LogEvent, 0, len(r.buf))
	out = append(out, r.buf[r.start:]...)
	return append(out, r.buf[:r.start]...)
}

func (r *LogRing) Clear() {
	r.mu.Lock()
	r.buf, r.start = nil, 0
	r.mu.Unlock()
}
