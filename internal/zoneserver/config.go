package zoneserver

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/env"
)

// Config holds zone server settings.
type Config struct {
	Addr          string `validate:"required"`
	Store         string `validate:"oneof=file redis"`
	ZoneFile      string `validate:"required_if=Store file"`
	RedisAddr     string `validate:"required_if=Store redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
	RedisKey      string
	// MaxBodyBytes bounds ingest payloads (frames carry a base64 image).
	MaxBodyBytes int64 `validate:"gt=0"`
}

// DefaultConfig returns the defaults used by cmd/zone_server.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8090",
		Store:        "file",
		ZoneFile:     "config/polygon_zone.json",
		RedisAddr:    "localhost:6379",
		RedisKey:     "zone:polygon",
		MaxBodyBytes: 8 << 20,
	}
}

// ApplyEnv overlays ZONE_SERVER_* variables.
func (c *Config) ApplyEnv() error {
	o := &env.Overlay{Prefix: "ZONE_SERVER_"}
	o.String("ADDR", &c.Addr)
	o.String("STORE", &c.Store)
	o.String("ZONE_FILE", &c.ZoneFile)
	o.String("REDIS_ADDR", &c.RedisAddr)
	o.String("REDIS_PASSWORD", &c.RedisPassword)
	o.Int("REDIS_DB", &c.RedisDB)
	o.String("REDIS_KEY", &c.RedisKey)
	return o.Err()
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid zone server config: %w", err)
	}
	return nil
}
