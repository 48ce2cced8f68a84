// Package env overlays environment variables (and an optional .env file)
// onto flag-configured structs.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
)

// Load reads the given .env files into the process environment. Variables
// already set win. A missing file is not an error.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("Env", "loaded %s", f)
	}
	return nil
}

// Overlay reads variables sharing one prefix, e.g. ZONE_SERVER_.
type Overlay struct {
	Prefix string
	errs   []error
}

func (o *Overlay) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(o.Prefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (o *Overlay) fail(key string, err error) {
	o.errs = append(o.errs, errors.New(o.Prefix+key+": "+err.Error()))
}

func (o *Overlay) String(key string, dst *string) {
	if v, ok := o.lookup(key); ok {
		*dst = v
	}
}

func (o *Overlay) Int(key string, dst *int) {
	if v, ok := o.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			o.fail(key, err)
			return
		}
		*dst = n
	}
}

func (o *Overlay) Duration(key string, dst *time.Duration) {
	if v, ok := o.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			o.fail(key, err)
			return
		}
		*dst = d
	}
}

func (o *Overlay) Bool(key string, dst *bool) {
	if v, ok := o.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			o.fail(key, err)
			return
		}
		*dst = b
	}
}

// List splits a comma-separated value.
func (o *Overlay) List(key string, dst *[]string) {
	if v, ok := o.lookup(key); ok {
		*dst = Split(v)
	}
}

// Err joins every parse failure seen so far.
func (o *Overlay) Err() error {
	return errors.Join(o.errs...)
}

// Split breaks a comma-separated list, dropping empty entries.
func Split(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
