package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the zone monitor and zone server counters
type Metrics struct {
	// Frame pipeline
	FramesAccepted atomic.Uint64 // payloads handed to the decoder
	FramesApplied  atomic.Uint64
	FramesStale    atomic.Uint64 // decode completions older than the applied frame
	DecodeErrors   atomic.Uint64
	OverlayRepaint atomic.Uint64
	DecodeLatency  atomic.Uint64 // last decode time in ms

	// Detections and zone
	DetectionsReceived atomic.Uint64
	PolygonsSaved      atomic.Uint64
	SaveFailures       atomic.Uint64
	PolygonsCleared    atomic.Uint64

	// Transport
	PushReconnects   atomic.Uint64
	PushEvents       atomic.Uint64
	InputEvents      atomic.Uint64
	MJPEGClients     atomic.Uint64
	WebRTCClients    atomic.Uint64
	PushSubscribers  atomic.Uint64
	BroadcastDropped atomic.Uint64

	registry *prometheus.Registry
}

type gauge struct {
	name string
	help string
	v    *atomic.Uint64
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	gauges := []gauge{
		{"zone_frames_accepted_total", "Frame payloads accepted for decode", &m.FramesAccepted},
		{"zone_frames_applied_total", "Frames painted to the video surface", &m.FramesApplied},
		{"zone_frames_stale_total", "Out-of-order decode completions discarded", &m.FramesStale},
		{"zone_decode_errors_total", "Frame payloads that failed to decode", &m.DecodeErrors},
		{"zone_overlay_repaints_total", "Overlay redraws", &m.OverlayRepaint},
		{"zone_decode_latency_ms", "Last frame decode latency in milliseconds", &m.DecodeLatency},
		{"zone_detections_received_total", "Detections received with frames", &m.DetectionsReceived},
		{"zone_polygons_saved_total", "Polygons saved through the zone API", &m.PolygonsSaved},
		{"zone_save_failures_total", "Failed polygon saves", &m.SaveFailures},
		{"zone_polygons_cleared_total", "Polygons deleted through the zone API", &m.PolygonsCleared},
		{"zone_push_reconnects_total", "Push channel reconnects", &m.PushReconnects},
		{"zone_push_events_total", "Push channel events handled", &m.PushEvents},
		{"zone_input_events_total", "Operator input events received", &m.InputEvents},
		{"zone_mjpeg_clients", "Connected MJPEG viewers", &m.MJPEGClients},
		{"zone_webrtc_clients", "Connected WebRTC input peers", &m.WebRTCClients},
		{"zone_push_subscribers", "Connected push channel subscribers", &m.PushSubscribers},
		{"zone_broadcast_dropped_total", "Messages dropped for slow subscribers", &m.BroadcastDropped},
	}
	for _, g := range gauges {
		v := g.v
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	return m
}

// UpdateDecodeLatency records how long the last decode took
func (m *Metrics) UpdateDecodeLatency(d time.Duration) {
	m.DecodeLatency.Store(uint64(d.Milliseconds()))
}

// Decrement subtracts one from a gauge that tracks live connections
func Decrement(v *atomic.Uint64) {
	for {
		cur := v.Load()
		if cur == 0 || v.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
