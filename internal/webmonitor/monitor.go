package webmonitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/push"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/zoneapi"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// frames older than this mark the video as disconnected
const videoTimeout = 5 * time.Second

// Monitor owns the live feed: the two surfaces, the controller loop and the
// push channel that feeds it. It implements push.Handler.
type Monitor struct {
	cfg     Config
	metrics *metrics.Metrics

	Video   *feed.RGBASurface
	Overlay *feed.RGBASurface
	Frames  *FrameBroadcaster
	States  *StateBroadcaster
	Loop    *feed.Loop
	Alarms  AlarmList
	Logs    LogRing

	pushURL       string
	pushConnected atomic.Bool
	lastFrame     atomic.Int64 // unix nanos

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor builds the feed against the zone API at cfg.ZoneAPIBaseURL.
// zones overrides the HTTP client when non-nil.
func NewMonitor(cfg Config, zones zoneapi.API, m *metrics.Metrics) (*Monitor, error) {
	style, err := cfg.Style()
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New()
	}
	if zones == nil {
		zones = zoneapi.NewRetrying(
			zoneapi.NewClient(cfg.ZoneAPIBaseURL, cfg.RequestTimeout),
			cfg.SaveRetries, cfg.SaveRetryInterval)
	}

	display := types.DisplayGeometry{Width: cfg.DisplayWidth, Height: cfg.DisplayHeight}
	mon := &Monitor{
		cfg:     cfg,
		metrics: m,
		Video:   feed.NewRGBASurface(display),
		Overlay: feed.NewRGBASurface(display),
		States:  NewStateBroadcaster(m),
		pushURL: cfg.PushURL,
	}
	mon.Frames = NewFrameBroadcaster(mon.Video, mon.Overlay, cfg.JPEGQuality, m)
	mon.Loop = feed.NewLoop(feed.LoopConfig{
		UI:        feed.UIHandles{Video: mon.Video, Overlay: mon.Overlay, Status: mon.States},
		Display:   display,
		Style:     style,
		Zones:     zones,
		Metrics:   m,
		OpTimeout: cfg.RequestTimeout * time.Duration(cfg.SaveRetries+1),
	})
	return mon, nil
}

// Start runs the loop, the frame encoder and, when a push URL is set, the
// push client. The first fetch of the stored zone happens on connect.
func (mon *Monitor) Start(ctx context.Context) {
	ctx, mon.cancel = context.WithCancel(ctx)
	mon.Loop.Start(ctx)
	mon.Frames.Start()

	if mon.pushURL == "" {
		mon.Loop.Refresh()
		return
	}
	client := push.NewClient(mon.pushURL, mon, mon.cfg.ReconnectInterval, mon.metrics)
	mon.wg.Add(1)
	go func() {
		defer mon.wg.Done()
		client.Run(ctx)
	}()
}

// Stop ends the push client, the loop and the broadcasters.
func (mon *Monitor) Stop() {
	if mon.cancel != nil {
		mon.cancel()
	}
	mon.wg.Wait()
	mon.Loop.Stop()
	mon.Frames.Stop()
	mon.States.Close()
}

// Frame implements push.Handler.
func (mon *Monitor) Frame(p types.FramePayload) {
	mon.lastFrame.Store(time.Now().UnixNano())
	mon.Loop.Frame(p)
}

// Alarm implements push.Handler.
func (mon *Monitor) Alarm(a types.AlarmEvent) {
	logger.Warn("Monitor", "alarm: %s (track %d) at (%.0f, %.0f)", a.ObjectName, a.TrackID, a.Position.X, a.Position.Y)
	mon.Alarms.Add(a)
}

// Log implements push.Handler.
func (mon *Monitor) Log(l types.LogEvent) { mon.Logs.Add(l) }

// Connected implements push.Handler. Every (re)connect refetches the zone
// since updates may have been missed.
func (mon *Monitor) Connected() {
	mon.pushConnected.Store(true)
	mon.Loop.Refresh()
}

// Disconnected implements push.Handler.
func (mon *Monitor) Disconnected() { mon.pushConnected.Store(false) }

// Status assembles the /api/status payload.
func (mon *Monitor) Status() MonitorStatus {
	s := mon.Loop.State()
	last := mon.lastFrame.Load()
	return MonitorStatus{
		VideoConnected:     last != 0 && time.Since(time.Unix(0, last)) < videoTimeout,
		PushConnected:      mon.pushConnected.Load(),
		PolygonDefined:     s.Committed.Defined(),
		PolygonPointsCount: len(s.Committed),
		ZoneStatus:         s.ZoneStatus,
		Mode:               s.Mode,
		FPS:                s.FPS,
		Resolution:         types.Resolution{Width: s.Frame.Width, Height: s.Frame.Height},
		Display:            s.Display,
		Detections:         len(s.Detections),
		MJPEGClients:       mon.Frames.Count(),
		StateClients:       mon.States.Count(),
		WebRTCClients:      int(mon.metrics.WebRTCClients.Load()),
		Notice:             s.Notice,
	}
}
