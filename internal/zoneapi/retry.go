package zoneapi

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

// Retrying retries temporary failures of the wrapped API. Attempts are paced
// by a token bucket so a burst of operator clicks cannot hammer the server.
type Retrying struct {
	next     API
	attempts int
	limiter  *rate.Limiter
}

// NewRetrying wraps next. attempts counts the first call; interval is the
// minimum spacing between calls.
func NewRetrying(next API, attempts int, interval time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Retrying{next: next, attempts: attempts, limiter: rate.NewLimiter(limit, 1)}
}

func (r *Retrying) Fetch(ctx context.Context) (Zone, error) {
	var z Zone
	err := r.retry(ctx, "fetch", func() error {
		var err error
		z, err = r.next.Fetch(ctx)
		return err
	})
	return z, err
}

func (r *Retrying) Save(ctx context.Context, poly types.Polygon) (Result, error) {
	var res Result
	err := r.retry(ctx, "save", func() error {
		var err error
		res, err = r.next.Save(ctx, poly)
		return err
	})
	return res, err
}

func (r *Retrying) Delete(ctx context.Context) (Result, error) {
	var res Result
	err := r.retry(ctx, "delete", func() error {
		var err error
		res, err = r.next.Delete(ctx)
		return err
	})
	return res, err
}

func (r *Retrying) retry(ctx context.Context, op string, call func() error) error {
	var err error
	for i := 0; i < r.attempts; i++ {
		if werr := r.limiter.Wait(ctx); werr != nil {
			if err != nil {
				return err
			}
			return &CollaboratorError{Op: op, Err: werr}
		}
		err = call()
		if err == nil || !temporary(err) {
			return err
		}
		logger.Debug("ZoneAPI", "%s attempt %d/%d failed: %v", op, i+1, r.attempts, err)
	}
	return err
}

func temporary(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Temporary()
}
