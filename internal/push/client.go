package push

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
)

// Client consumes a push channel and reconnects until its context ends.
type Client struct {
	url          string
	handler      Handler
	metrics      *metrics.Metrics
	dialer       *websocket.Dialer
	reconnect    *rate.Limiter
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewClient creates a client for url (ws://host/ws). Reconnects are spaced
// at least retryInterval apart.
func NewClient(url string, h Handler, retryInterval time.Duration, m *metrics.Metrics) *Client {
	if retryInterval <= 0 {
		retryInterval = 2 * time.Second
	}
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = 10 * time.Second
	return &Client{
		url:          url,
		handler:      h,
		metrics:      m,
		dialer:       &d,
		reconnect:    rate.NewLimiter(rate.Every(retryInterval), 1),
		readTimeout:  90 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

// Run connects and reads until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	first := true
	for {
		if err := c.reconnect.Wait(ctx); err != nil {
			return
		}
		if !first && c.metrics != nil {
			c.metrics.PushReconnects.Add(1)
		}
		first = false

		if err := c.session(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Push", "connection to %s lost: %v", c.url, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %s: %w", c.url, resp.Status, err)
		}
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()
	logger.Info("Push", "connected to %s", c.url)

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			logger.Debug("Push", "pong failed: %v", err)
		}
		return nil
	})

	// unblock ReadMessage on shutdown
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(c.writeTimeout))
			conn.Close()
		case <-stop:
		}
	}()

	c.handler.Connected()
	defer c.handler.Disconnected()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		event, err := Dispatch(msg, c.handler)
		if err != nil {
			logger.Warn("Push", "bad %q message: %v", event, err)
			continue
		}
		if c.metrics != nil {
			c.metrics.PushEvents.Add(1)
		}
	}
}
