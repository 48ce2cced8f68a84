// Package zoneapi is the HTTP client for the zone collaborator's /api/polygon resource.
package zoneapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PolygonPath is the collaborator resource for the zone polygon.
const PolygonPath = "/api/polygon"

// Zone is the fetch response.
type Zone struct {
	Polygon types.Polygon `json:"polygon"`
	Defined bool          `json:"defined"`
}

// Result is the save/delete response.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// API is the request/response contract of the zone collaborator.
type API interface {
	Fetch(ctx context.Context) (Zone, error)
	Save(ctx context.Context, poly types.Polygon) (Result, error)
	Delete(ctx context.Context) (Result, error)
}

// CollaboratorError reports a failed call. StatusCode is zero for transport errors.
type CollaboratorError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *CollaboratorError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + e.Message
	}
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Temporary reports whether retrying may help: transport failures and 5xx answers.
func (e *CollaboratorError) Temporary() bool {
	return (e.StatusCode == 0 && e.Err != nil) || e.StatusCode >= 500
}

// Client talks to a zone server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL (e.g. http://localhost:8090).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch returns the stored polygon.
func (c *Client) Fetch(ctx context.Context) (Zone, error) {
	var z Zone
	if err := c.do(ctx, "fetch", http.MethodGet, nil, &z); err != nil {
		return Zone{}, err
	}
	if !z.Polygon.Defined() {
		z.Defined = false
	}
	return z, nil
}

// Save stores poly, which must have at least three vertices in source space.
func (c *Client) Save(ctx context.Context, poly types.Polygon) (Result, error) {
	if !poly.Defined() {
		return Result{}, &CollaboratorError{Op: "save", Message: fmt.Sprintf("at least %d vertices required", types.MinPolygonVertices)}
	}
	body, err := json.Marshal(struct {
		Polygon types.Polygon `json:"polygon"`
	}{poly})
	if err != nil {
		return Result{}, fmt.Errorf("encode polygon: %w", err)
	}
	var res Result
	if err := c.do(ctx, "save", http.MethodPost, body, &res); err != nil {
		return res, err
	}
	if !res.Success {
		return res, &CollaboratorError{Op: "save", Message: res.Message}
	}
	logger.Debug("ZoneAPI", "saved polygon with %d vertices", len(poly))
	return res, nil
}

// Delete removes the stored polygon.
func (c *Client) Delete(ctx context.Context) (Result, error) {
	var res Result
	if err := c.do(ctx, "delete", http.MethodDelete, nil, &res); err != nil {
		return res, err
	}
	if !res.Success {
		return res, &CollaboratorError{Op: "delete", Message: res.Message}
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, op, method string, body []byte, out interface{}) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+PolygonPath, rd)
	if err != nil {
		return &CollaboratorError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("ZoneAPI", "%s %s failed: %v", method, PolygonPath, err)
		return &CollaboratorError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &CollaboratorError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 300 {
		var res Result
		_ = json.Unmarshal(data, &res)
		msg := res.Message
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return &CollaboratorError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &CollaboratorError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
