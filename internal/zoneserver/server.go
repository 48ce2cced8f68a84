// Package zoneserver is the zone collaborator: it persists the zone polygon,
// ingests detector frames and fans them out over the push channel.
package zoneserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/geometry"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/push"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/zonestore"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	timeLayout = "2006-01-02 15:04:05"
	// frames older than this mark the video as disconnected
	videoTimeout = 5 * time.Second
)

// Messages returned in {"success":false,"message":...} bodies.
const (
	MsgTooFewVertices = "at least 3 vertices required"
	MsgBadVertex      = "each vertex must be [x, y]"
	MsgBadBody        = "invalid JSON body"
)

// savePayload is the POST /api/polygon body.
type savePayload struct {
	Polygon [][]float64 `json:"polygon" validate:"min=3,dive,len=2"`
}

// Server serves the zone API and the push channel.
type Server struct {
	cfg      Config
	store    zonestore.Store
	hub      *push.Hub
	metrics  *metrics.Metrics
	validate *validator.Validate

	mu         sync.RWMutex
	polygon    types.Polygon
	lastFrame  time.Time
	resolution types.Resolution
	fps        float64

	startTime  time.Time
	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
}

// New loads the stored polygon and prepares the routes.
func New(cfg Config, store zonestore.Store, m *metrics.Metrics) (*Server, error) {
	if m == nil {
		m = metrics.New()
	}
	ctx, cancel := context.WithCancel(context.Background())

	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
	poly, err := store.Load(loadCtx)
	loadCancel()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load zone: %w", err)
	}
	if poly.Defined() {
		logger.Info("ZoneServer", "loaded zone with %d vertices", len(poly))
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		hub:       push.NewHub(m),
		metrics:   m,
		validate:  validator.New(),
		polygon:   poly,
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: s.Handler()}
	return s, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	corsMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next(w, r)
		}
	}

	// Zone CRUD
	mux.HandleFunc("/api/polygon", corsMiddleware(s.handlePolygon))

	// Ingest from the detector side
	mux.HandleFunc("/api/frames", corsMiddleware(s.handleFrame))
	mux.HandleFunc("/api/alarms", corsMiddleware(s.handleAlarm))
	mux.HandleFunc("/api/logs", corsMiddleware(s.handleLog))

	// Push channel
	mux.Handle("/ws", s.hub)

	mux.HandleFunc("/api/status", corsMiddleware(s.handleStatus))
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins serving on cfg.Addr.
func (s *Server) Start() error {
	logger.Info("ZoneServer", "Starting zone server on %s (store: %s)", s.cfg.Addr, s.cfg.Store)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ZoneServer", "HTTP server error: %v", err)
		}
	}()
	return nil
}

// Shutdown closes the push channel, the store and the HTTP server.
func (s *Server) Shutdown() error {
	s.cancel()
	s.hub.Close()
	if err := s.store.Close(); err != nil {
		logger.Warn("ZoneServer", "store close: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Polygon returns a copy of the current zone.
func (s *Server) Polygon() types.Polygon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.polygon.Clone()
}

func (s *Server) handlePolygon(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		poly := s.Polygon()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"polygon": poly,
			"defined": poly.Defined(),
		})
	case http.MethodPost:
		s.savePolygon(w, r)
	case http.MethodDelete:
		s.clearPolygon(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) savePolygon(w http.ResponseWriter, r *http.Request) {
	var body savePayload
	if err := s.decode(w, r, &body); err != nil {
		writeResult(w, http.StatusBadRequest, false, MsgBadBody)
		return
	}
	if err := s.validate.Struct(body); err != nil {
		writeResult(w, http.StatusBadRequest, false, validationMessage(err))
		return
	}

	poly := make(types.Polygon, len(body.Polygon))
	for i, v := range body.Polygon {
		poly[i] = types.Pt(v[0], v[1])
	}

	if err := s.store.Save(r.Context(), poly); err != nil {
		s.metrics.SaveFailures.Add(1)
		logger.Error("ZoneServer", "save zone: %v", err)
		writeResult(w, http.StatusInternalServerError, false, "failed to persist zone")
		return
	}

	s.mu.Lock()
	s.polygon = poly
	s.mu.Unlock()
	s.metrics.PolygonsSaved.Add(1)
	logger.Info("ZoneServer", "zone set with %d vertices", len(poly))
	writeResult(w, http.StatusOK, true, "zone saved")
}

func (s *Server) clearPolygon(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context()); err != nil {
		logger.Error("ZoneServer", "delete zone: %v", err)
		writeResult(w, http.StatusInternalServerError, false, "failed to delete zone")
		return
	}
	s.mu.Lock()
	s.polygon = nil
	s.mu.Unlock()
	s.metrics.PolygonsCleared.Add(1)
	logger.Info("ZoneServer", "zone cleared")
	writeResult(w, http.StatusOK, true, "zone cleared")
}

// handleFrame stamps a detector frame with the current zone, marks which
// detections sit inside it and pushes it to every subscriber.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var frame types.FramePayload
	if err := s.decode(w, r, &frame); err != nil {
		writeResult(w, http.StatusBadRequest, false, MsgBadBody)
		return
	}

	poly := s.Polygon()
	for i := range frame.Detections {
		frame.Detections[i].InZone = geometry.Contains(poly, frame.Detections[i].Center)
	}
	if poly == nil {
		poly = types.Polygon{}
	}
	frame.Polygon = &poly

	s.mu.Lock()
	s.lastFrame = time.Now()
	s.resolution = frame.Resolution
	s.fps = frame.FPS
	s.mu.Unlock()

	s.metrics.DetectionsReceived.Add(uint64(len(frame.Detections)))
	s.broadcast(w, types.EventFrame, frame)
}

func (s *Server) handleAlarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var alarm types.AlarmEvent
	if err := s.decode(w, r, &alarm); err != nil {
		writeResult(w, http.StatusBadRequest, false, MsgBadBody)
		return
	}
	if alarm.Time == "" {
		alarm.Time = time.Now().Format(timeLayout)
	}
	if alarm.ObjectName == "" {
		alarm.ObjectName = "object"
	}
	logger.Warn("ZoneServer", "alarm: %s (track %d) entered the zone", alarm.ObjectName, alarm.TrackID)
	s.broadcast(w, types.EventAlarm, alarm)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var entry types.LogEvent
	if err := s.decode(w, r, &entry); err != nil {
		writeResult(w, http.StatusBadRequest, false, MsgBadBody)
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().Format(timeLayout)
	}
	if entry.Level == "" {
		entry.Level = "INFO"
	}
	s.broadcast(w, types.EventLog, entry)
}

func (s *Server) broadcast(w http.ResponseWriter, event string, data interface{}) {
	if err := s.hub.Broadcast(event, data); err != nil {
		logger.Error("ZoneServer", "encode %s event: %v", event, err)
		writeResult(w, http.StatusInternalServerError, false, "failed to encode event")
		return
	}
	s.metrics.PushEvents.Add(1)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"subscribers": s.hub.Count(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"video_connected":      !s.lastFrame.IsZero() && time.Since(s.lastFrame) < videoTimeout,
		"polygon_defined":      s.polygon.Defined(),
		"polygon_points_count": len(s.polygon),
		"resolution":           s.resolution,
		"fps":                  s.fps,
		"subscribers":          s.hub.Count(),
		"store":                s.cfg.Store,
		"uptime_seconds":       int(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"subscribers": s.hub.Count(),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "min" {
				return MsgTooFewVertices
			}
		}
		return MsgBadVertex
	}
	return err.Error()
}

func writeResult(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": success,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
