package webmonitor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/webrtc"
)

// Server serves the operator page and its streams.
type Server struct {
	cfg        Config
	monitor    *Monitor
	webrtc     *webrtc.Server
	assets     *assetHandler
	httpServer *http.Server
}

// NewServer returns a configured monitor server. rtc may be nil to disable
// the WebRTC input channel.
func NewServer(cfg Config, mon *Monitor, rtc *webrtc.Server) *Server {
	s := &Server{
		cfg:     cfg,
		monitor: mon,
		webrtc:  rtc,
		assets:  newAssetHandler(cfg.AssetsDir),
	}
	s.httpServer = &http.Server{Addr: cfg.Addr, Handler: s.Handler()}
	return s
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", s.assets))

	// Composite video + overlay
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/api/snapshot.jpg", s.handleSnapshot)

	// Controller state
	mux.HandleFunc("/api/overlay/stream", s.handleStateStream)
	mux.HandleFunc("/api/overlay/state", s.handleState)
	mux.HandleFunc("/api/status", s.handleStatus)

	// Operator input
	mux.HandleFunc("/ws/input", s.handleInputSocket)
	mux.HandleFunc("/api/input", s.handleInput)
	mux.HandleFunc("/api/webrtc/offer", s.handleWebRTCOffer)

	// Widgets
	mux.HandleFunc("/api/alarms", s.handleAlarms)
	mux.HandleFunc("/api/logs", s.handleLogs)

	mux.Handle("/metrics", s.monitor.metrics.Handler())
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start begins serving on cfg.Addr.
func (s *Server) Start() error {
	logger.Info("WebMonitor", "Starting zone monitor on %s", s.cfg.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("WebMonitor", "HTTP server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops the HTTP server and closes WebRTC peers.
func (s *Server) Shutdown() error {
	if s.webrtc != nil {
		s.webrtc.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, frameCh := s.monitor.Frames.Subscribe()
	defer s.monitor.Frames.Unsubscribe(id)
	streamMJPEGFromChannel(w, r, frameCh, s.cfg.MJPEGKeepalive)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, ok := s.monitor.Frames.Latest()
	if !ok {
		var err error
		if data, err = s.monitor.Frames.encode(); err != nil {
			http.Error(w, "Failed to render frame", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	id, eventCh := s.monitor.States.Subscribe()
	defer s.monitor.States.Unsubscribe(id)

	accept := r.Header.Get("Accept")
	useProtobuf := strings.Contains(accept, "application/x-protobuf") ||
		strings.Contains(accept, "application/protobuf")
	streamStateEventsFromChannel(w, r, eventCh, useProtobuf, s.cfg.StateInterval)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.Loop.State())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.monitor.Status())
}

func (s *Server) handleInputSocket(w http.ResponseWriter, r *http.Request) {
	serveInputSocket(w, r, s.monitor.Loop, s.monitor.metrics)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var in feed.Input
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&in); err != nil {
		writeJSONWithStatus(w, map[string]any{"success": false, "message": "invalid input message"}, http.StatusBadRequest)
		return
	}
	if err := in.Validate(); err != nil {
		writeJSONWithStatus(w, map[string]any{"success": false, "message": err.Error()}, http.StatusBadRequest)
		return
	}
	if err := applyInput(r.Context(), s.monitor.Loop, in, s.monitor.metrics); err != nil {
		writeJSONWithStatus(w, map[string]any{"success": false, "message": err.Error()}, inputStatus(err))
		return
	}
	writeJSON(w, map[string]any{"success": true, "state": s.monitor.Loop.State()})
}

func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"alarms": s.monitor.Alarms.List()})
	case http.MethodDelete:
		s.monitor.Alarms.Clear()
		writeJSON(w, map[string]any{"success": true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"logs": s.monitor.Logs.List()})
	case http.MethodDelete:
		s.monitor.Logs.Clear()
		writeJSON(w, map[string]any{"success": true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWebRTCOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.webrtc == nil {
		writeJSONWithStatus(w, map[string]any{"error": "WebRTC input is disabled"}, http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": "Invalid offer data"}, http.StatusBadRequest)
		return
	}
	answer, err := s.webrtc.HandleOffer(body)
	if err != nil {
		logger.Warn("WebRTC", "offer rejected: %v", err)
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rtcClients := 0
	if s.webrtc != nil {
		rtcClients = s.webrtc.GetClientCount()
	}
	writeJSON(w, map[string]any{
		"status":         "ok",
		"mode":           s.monitor.Loop.State().Mode,
		"mjpeg_clients":  s.monitor.Frames.Count(),
		"webrtc_clients": rtcClients,
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug("WebMonitor", "encode response: %v", err)
	}
}
