package webmonitor

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/env"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/overlay"
)

// Config defines the runtime configuration for the zone monitor.
type Config struct {
	Addr           string `validate:"required"`
	AssetsDir      string
	PushURL        string `validate:"omitempty,url"` // empty runs without a push channel
	ZoneAPIBaseURL string `validate:"required,url"`

	// Initial surface size until the page reports its own.
	DisplayWidth  int `validate:"gt=0"`
	DisplayHeight int `validate:"gt=0"`

	JPEGQuality       int           `validate:"min=1,max=100"`
	StateInterval     time.Duration `validate:"gt=0"` // SSE keepalive when nothing changes
	MJPEGKeepalive    time.Duration `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gt=0"`
	SaveRetries       int           `validate:"min=1,max=10"`
	SaveRetryInterval time.Duration `validate:"gte=0"`
	ReconnectInterval time.Duration `validate:"gt=0"`

	MaxWebRTCClients int `validate:"gte=0"`
	STUNServers      []string

	ZoneColor  string
	DrawColor  string
	SnapColor  string
	AlertColor string
	ColorSpace string `validate:"oneof=rgb bgr"`
}

// DefaultConfig returns a config matching the zone server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		PushURL:           "ws://localhost:8090/ws",
		ZoneAPIBaseURL:    "http://localhost:8090",
		DisplayWidth:      640,
		DisplayHeight:     480,
		JPEGQuality:       80,
		StateInterval:     30 * time.Second,
		MJPEGKeepalive:    5 * time.Second,
		RequestTimeout:    5 * time.Second,
		SaveRetries:       3,
		SaveRetryInterval: 500 * time.Millisecond,
		ReconnectInterval: 2 * time.Second,
		MaxWebRTCClients:  4,
		STUNServers:       []string{"stun:stun.l.google.com:19302"},
		ZoneColor:         "#00FFFF",
		DrawColor:         "#00FF00",
		SnapColor:         "#FFD700",
		AlertColor:        "#FF3030",
		ColorSpace:        "rgb",
	}
}

// ApplyEnv overlays ZONE_MONITOR_* variables.
func (c *Config) ApplyEnv() error {
	o := &env.Overlay{Prefix: "ZONE_MONITOR_"}
	o.String("ADDR", &c.Addr)
	o.String("ASSETS_DIR", &c.AssetsDir)
	o.String("PUSH_URL", &c.PushURL)
	o.String("ZONE_API", &c.ZoneAPIBaseURL)
	o.Int("DISPLAY_WIDTH", &c.DisplayWidth)
	o.Int("DISPLAY_HEIGHT", &c.DisplayHeight)
	o.Int("JPEG_QUALITY", &c.JPEGQuality)
	o.Duration("STATE_INTERVAL", &c.StateInterval)
	o.Duration("MJPEG_KEEPALIVE", &c.MJPEGKeepalive)
	o.Duration("REQUEST_TIMEOUT", &c.RequestTimeout)
	o.Int("SAVE_RETRIES", &c.SaveRetries)
	o.Duration("SAVE_RETRY_INTERVAL", &c.SaveRetryInterval)
	o.Duration("RECONNECT_INTERVAL", &c.ReconnectInterval)
	o.Int("MAX_WEBRTC_CLIENTS", &c.MaxWebRTCClients)
	o.List("STUN", &c.STUNServers)
	o.String("ZONE_COLOR", &c.ZoneColor)
	o.String("DRAW_COLOR", &c.DrawColor)
	o.String("SNAP_COLOR", &c.SnapColor)
	o.String("ALERT_COLOR", &c.AlertColor)
	o.String("COLOR_SPACE", &c.ColorSpace)
	return o.Err()
}

// Validate checks the struct tags and that the colours parse.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid monitor config: %w", err)
	}
	if _, err := c.Style(); err != nil {
		return fmt.Errorf("invalid monitor config: %w", err)
	}
	return nil
}

// Style builds the overlay style from the configured colours.
func (c Config) Style() (overlay.Style, error) {
	st := overlay.DefaultStyle()
	space := overlay.ColorSpace(c.ColorSpace)
	for _, f := range []struct {
		value string
		dst   *overlay.Color
	}{
		{c.ZoneColor, &st.Zone},
		{c.DrawColor, &st.Draw},
		{c.SnapColor, &st.Snap},
		{c.AlertColor, &st.Alert},
	} {
		if f.value == "" {
			continue
		}
		col, err := overlay.ParseColor(f.value, space)
		if err != nil {
			return overlay.Style{}, err
		}
		*f.dst = col
	}
	return st, nil
}
