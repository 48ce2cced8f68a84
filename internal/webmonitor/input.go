package webmonitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/editor"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
)

// InputSink applies operator input. *feed.Loop implements it.
type InputSink interface {
	Input(ctx context.Context, in feed.Input) error
}

// inputReply answers every input message on the socket.
type inputReply struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

var inputUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const inputTimeout = 2 * time.Second

// applyInput validates and applies one input, counting it.
func applyInput(ctx context.Context, sink InputSink, in feed.Input, m *metrics.Metrics) error {
	if m != nil {
		m.InputEvents.Add(1)
	}
	ctx, cancel := context.WithTimeout(ctx, inputTimeout)
	defer cancel()
	return sink.Input(ctx, in)
}

// serveInputSocket reads input messages until the peer closes.
func serveInputSocket(w http.ResponseWriter, r *http.Request, sink InputSink, m *metrics.Metrics) {
	conn, err := inputUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Input", "upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logger.Info("Input", "operator %s connected (%s)", id, r.RemoteAddr)
	defer logger.Info("Input", "operator %s disconnected", id)

	conn.SetReadLimit(4096)
	for {
		var in feed.Input
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Input", "read from %s: %v", id, err)
			}
			return
		}
		reply := inputReply{Type: in.Type, OK: true}
		if err := applyInput(r.Context(), sink, in, m); err != nil {
			reply.OK, reply.Error = false, err.Error()
		}
		conn.SetWriteDeadline(time.Now().Add(inputTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

// inputStatus maps the error of a well-formed input to an HTTP status.
func inputStatus(err error) int {
	switch {
	case editor.IsValidation(err), errors.Is(err, editor.ErrMappingUndefined):
		return http.StatusUnprocessableEntity
	case errors.Is(err, feed.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}
