package feed

import (
	"context"
	"errors"
	"image"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/overlay"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/zoneapi"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// ErrStopped is returned when posting to a loop that is not running.
var ErrStopped = errors.New("feed: loop stopped")

// LoopConfig wires a Loop.
type LoopConfig struct {
	UI        UIHandles
	Display   types.DisplayGeometry
	Style     overlay.Style
	Zones     zoneapi.API // nil disables save/fetch/delete
	Decode    DecodeFunc  // defaults to DecodeDataURL
	Metrics   *metrics.Metrics
	QueueSize int
	OpTimeout time.Duration
}

// Loop owns a Controller and runs every handler on one goroutine.
// Decodes and collaborator calls run on their own goroutines and come back as
// events.
type Loop struct {
	ctrl    *Controller
	zones   zoneapi.API
	decode  DecodeFunc
	metrics *metrics.Metrics
	status  StatusSink
	timeout time.Duration

	events chan interface{}
	state  atomic.Pointer[State]

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup // async work
}

// events
type (
	evtFrame struct{ p types.FramePayload }
	evtDecoded struct {
		seq           uint64
		img           image.Image
		width, height int
		err           error
		took          time.Duration
	}
	evtInput struct {
		in    Input
		reply chan error
	}
	evtPolygon  struct{ p types.Polygon }
	evtSaveDone struct {
		p   types.Polygon
		err error
	}
	evtDeleteDone struct{ err error }
	evtFetchDone  struct {
		p   types.Polygon
		err error
	}
	evtDo struct {
		fn   func(*Controller)
		done chan struct{}
	}
)

// NewLoop builds the controller. Call Start before posting.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Decode == nil {
		cfg.Decode = DecodeDataURL
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 10 * time.Second
	}
	l := &Loop{
		zones:   cfg.Zones,
		decode:  cfg.Decode,
		metrics: cfg.Metrics,
		status:  cfg.UI.Status,
		timeout: cfg.OpTimeout,
		events:  make(chan interface{}, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	var req Requests
	if cfg.Zones != nil {
		req = l
	}
	l.ctrl = NewController(cfg.UI, cfg.Display, cfg.Style, req, cfg.Metrics)
	s := l.ctrl.Snapshot()
	l.state.Store(&s)
	return l
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.ctx, l.cancel = context.WithCancel(ctx)
	go l.run()
}

// Stop ends the loop and waits for in-flight async work.
func (l *Loop) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.wg.Wait()
}

func (l *Loop) run() {
	defer close(l.done)
	logger.Info("Controller", "event loop started")
	for {
		select {
		case <-l.ctx.Done():
			logger.Info("Controller", "event loop stopped")
			return
		case ev := <-l.events:
			l.dispatch(ev)
		}
	}
}

func (l *Loop) dispatch(ev interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Controller", "handler panic: %v\n%s", r, debug.Stack())
		}
	}()

	c := l.ctrl
	switch e := ev.(type) {
	case evtFrame:
		l.handleFrame(e.p)
	case evtDecoded:
		if e.err != nil {
			c.DecodeFailed(e.seq, e.err)
			break
		}
		if l.metrics != nil {
			l.metrics.UpdateDecodeLatency(e.took)
		}
		c.FrameDecoded(e.seq, e.img, e.width, e.height)
	case evtInput:
		var err error
		if e.reply != nil {
			// replies go out after publish so callers observe the new state
			defer func() { e.reply <- err }()
		}
		if err = e.in.apply(c); err != nil {
			logger.Debug("Controller", "input %s: %v", e.in.Type, err)
		}
	case evtPolygon:
		c.ServerPolygonArrived(e.p)
	case evtSaveDone:
		c.SaveCompleted(e.p, e.err)
	case evtDeleteDone:
		c.DeleteCompleted(e.err)
	case evtFetchDone:
		c.FetchCompleted(e.p, e.err)
	case evtDo:
		defer close(e.done)
		e.fn(c)
	}
	l.publish()
}

func (l *Loop) handleFrame(p types.FramePayload) {
	c := l.ctrl
	c.SetFPS(p.FPS)
	c.DetectionsArrived(p.Detections)
	// an omitted polygon means the producer has no zone
	var poly types.Polygon
	if p.Polygon != nil {
		poly = *p.Polygon
	}
	c.ServerPolygonArrived(poly)
	if p.Frame == "" {
		return
	}

	seq := c.AcceptFrame()
	w, h := p.Resolution.Width, p.Resolution.Height
	l.async(func() {
		start := time.Now()
		img, err := l.decode(p.Frame)
		l.post(evtDecoded{seq: seq, img: img, width: w, height: h, err: err, took: time.Since(start)})
	})
}

func (l *Loop) publish() {
	s := l.ctrl.Snapshot()
	l.state.Store(&s)
	if l.status != nil {
		l.status.Publish(s)
	}
}

func (l *Loop) async(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

func (l *Loop) post(ev interface{}) bool {
	return l.send(context.Background(), ev) == nil
}

// send queues ev, giving up when ctx ends or the loop stops.
func (l *Loop) send(ctx context.Context, ev interface{}) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Frame queues a push-channel frame payload.
func (l *Loop) Frame(p types.FramePayload) { l.post(evtFrame{p}) }

// PolygonPushed queues a server polygon update.
func (l *Loop) PolygonPushed(p types.Polygon) { l.post(evtPolygon{p.Clone()}) }

// Input validates and applies an operator action, waiting for the handler
// to run. The returned error is a validation error or the handler's refusal.
func (l *Loop) Input(ctx context.Context, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	reply := make(chan error, 1)
	if err := l.send(ctx, evtInput{in: in, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop goroutine and waits for it.
func (l *Loop) Do(ctx context.Context, fn func(*Controller)) error {
	done := make(chan struct{})
	if err := l.send(ctx, evtDo{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Refresh fetches the stored polygon, e.g. after a push reconnect.
func (l *Loop) Refresh() {
	l.post(evtInput{in: Input{Type: InputRefresh}})
}

// State returns the snapshot published after the last handled event.
func (l *Loop) State() State { return *l.state.Load() }

// RequestSave implements Requests.
func (l *Loop) RequestSave(p types.Polygon) {
	l.async(func() {
		ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
		defer cancel()
		_, err := l.zones.Save(ctx, p)
		l.post(evtSaveDone{p: p, err: err})
	})
}

// RequestDelete implements Requests.
func (l *Loop) RequestDelete() {
	l.async(func() {
		ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
		defer cancel()
		_, err := l.zones.Delete(ctx)
		l.post(evtDeleteDone{err: err})
	})
}

// RequestFetch implements Requests.
func (l *Loop) RequestFetch() {
	l.async(func() {
		ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
		defer cancel()
		z, err := l.zones.Fetch(ctx)
		var p types.Polygon
		if z.Defined {
			p = z.Polygon
		}
		l.post(evtFetchDone{p: p, err: err})
	})
}
