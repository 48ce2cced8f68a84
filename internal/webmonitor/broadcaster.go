package webmonitor

import (
	"bytes"
	"encoding/base64"
	"image/jpeg"
	"sync"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
)

// FrameBroadcaster composites the video and overlay layers into JPEG frames
// whenever either layer is painted and fans them out to MJPEG clients.
type FrameBroadcaster struct {
	video   *feed.RGBASurface
	overlay *feed.RGBASurface
	quality int
	metrics *metrics.Metrics

	mu      sync.Mutex
	clients map[int]chan []byte
	nextID  int
	latest  []byte
	stopped bool

	dirty chan struct{}
	stop  chan struct{}
}

// NewFrameBroadcaster hooks the surfaces. Call Start to begin encoding.
func NewFrameBroadcaster(video, overlay *feed.RGBASurface, quality int, m *metrics.Metrics) *FrameBroadcaster {
	fb := &FrameBroadcaster{
		video:   video,
		overlay: overlay,
		quality: quality,
		metrics: m,
		clients: make(map[int]chan []byte),
		dirty:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	video.OnPresent(fb.markDirty)
	overlay.OnPresent(fb.markDirty)
	return fb
}

func (fb *FrameBroadcaster) markDirty() {
	select {
	case fb.dirty <- struct{}{}:
	default:
	}
}

// Subscribe adds a new client and returns a channel for receiving frames.
// The latest frame, if any, is queued immediately.
func (fb *FrameBroadcaster) Subscribe() (int, <-chan []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	id := fb.nextID
	fb.nextID++
	ch := make(chan []byte, 2)
	if fb.latest != nil {
		ch <- fb.latest
	}
	fb.clients[id] = ch
	if fb.metrics != nil {
		fb.metrics.MJPEGClients.Add(1)
	}
	logger.Debug("FrameBroadcaster", "Client #%d subscribed (total clients: %d)", id, len(fb.clients))
	// pick up state painted while nobody was watching
	fb.markDirty()
	return id, ch
}

// Unsubscribe removes a client.
func (fb *FrameBroadcaster) Unsubscribe(id int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if ch, ok := fb.clients[id]; ok {
		close(ch)
		delete(fb.clients, id)
		if fb.metrics != nil {
			metrics.Decrement(&fb.metrics.MJPEGClients)
		}
		logger.Debug("FrameBroadcaster", "Client #%d unsubscribed (remaining clients: %d)", id, len(fb.clients))
		if len(fb.clients) == 0 {
			logger.Info("FrameBroadcaster", "No clients remaining - frame encoding will be skipped")
		}
	}
}

// Count returns the number of MJPEG clients.
func (fb *FrameBroadcaster) Count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.clients)
}

// Latest returns the last encoded frame.
func (fb *FrameBroadcaster) Latest() ([]byte, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.latest, fb.latest != nil
}

// Start begins the encode and broadcast loop.
func (fb *FrameBroadcaster) Start() {
	go fb.run()
}

// Stop halts the broadcaster and disconnects clients.
func (fb *FrameBroadcaster) Stop() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.stopped {
		return
	}
	fb.stopped = true
	close(fb.stop)
	for id, ch := range fb.clients {
		close(ch)
		delete(fb.clients, id)
	}
}

func (fb *FrameBroadcaster) run() {
	for {
		select {
		case <-fb.stop:
			return
		case <-fb.dirty:
		}

		if fb.Count() == 0 {
			continue
		}
		data, err := fb.encode()
		if err != nil {
			logger.Error("FrameBroadcaster", "JPEG encode error: %v", err)
			continue
		}
		fb.broadcast(data)
	}
}

// encode composites the current layers into one JPEG.
func (fb *FrameBroadcaster) encode() ([]byte, error) {
	video, _ := fb.video.Snapshot()
	ov, _ := fb.overlay.Snapshot()
	img := feed.Composite(video, ov)
	if img.Bounds().Empty() {
		return blankJPEG()
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: fb.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (fb *FrameBroadcaster) broadcast(data []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.latest = data
	for _, ch := range fb.clients {
		select {
		case ch <- data:
		default:
			// client too slow, skip this frame for it
			if fb.metrics != nil {
				fb.metrics.BroadcastDropped.Add(1)
			}
		}
	}
}

// StateBroadcaster receives controller snapshots and fans them out to SSE
// clients, pre-serialized as JSON and base64 protowire.
type StateBroadcaster struct {
	metrics *metrics.Metrics

	mu      sync.Mutex
	clients map[int]chan *SerializedEvent
	nextID  int
	latest  *SerializedEvent
}

// NewStateBroadcaster creates an empty broadcaster.
func NewStateBroadcaster(m *metrics.Metrics) *StateBroadcaster {
	return &StateBroadcaster{
		metrics: m,
		clients: make(map[int]chan *SerializedEvent),
	}
}

// Publish implements feed.StatusSink. It runs on the controller goroutine
// and never blocks on clients.
func (sb *StateBroadcaster) Publish(s feed.State) {
	jsonData, err := json.Marshal(s)
	if err != nil {
		logger.Error("StateBroadcaster", "JSON marshal error: %v", err)
		return
	}
	pb := marshalState(s)
	event := &SerializedEvent{
		JSONData:     jsonData,
		ProtobufData: []byte(base64.StdEncoding.EncodeToString(pb)),
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.latest = event
	for _, ch := range sb.clients {
		select {
		case ch <- event:
		default:
			if sb.metrics != nil {
				sb.metrics.BroadcastDropped.Add(1)
			}
		}
	}
}

// Subscribe returns a channel that first carries the latest snapshot.
func (sb *StateBroadcaster) Subscribe() (int, <-chan *SerializedEvent) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	id := sb.nextID
	sb.nextID++
	ch := make(chan *SerializedEvent, 8)
	if sb.latest != nil {
		ch <- sb.latest
	}
	sb.clients[id] = ch
	logger.Debug("StateBroadcaster", "Client #%d subscribed (total clients: %d)", id, len(sb.clients))
	return id, ch
}

// Unsubscribe removes a client.
func (sb *StateBroadcaster) Unsubscribe(id int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if ch, ok := sb.clients[id]; ok {
		close(ch)
		delete(sb.clients, id)
	}
}

// Count returns the number of SSE clients.
func (sb *StateBroadcaster) Count() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return len(sb.clients)
}

// Close disconnects every client.
func (sb *StateBroadcaster) Close() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	for id, ch := range sb.clients {
		close(ch)
		delete(sb.clients, id)
	}
}
