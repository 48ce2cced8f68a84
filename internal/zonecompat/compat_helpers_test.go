// Package zonecompat checks running zone servers and monitors over HTTP.
// Tests skip unless the targets answer at ZONE_BASE_URL / MONITOR_BASE_URL.
package zonecompat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

const (
	defaultZoneURL        = "http://localhost:8090"
	defaultMonitorURL     = "http://localhost:8080"
	defaultRequestTimeout = 2 * time.Second
)

type liveClient struct {
	baseURL string
	client  *http.Client
}

func newZoneClient(t *testing.T) *liveClient {
	t.Helper()
	return newLiveClient(t, "ZONE_BASE_URL", defaultZoneURL, "/health")
}

func newMonitorClient(t *testing.T) *liveClient {
	t.Helper()
	return newLiveClient(t, "MONITOR_BASE_URL", defaultMonitorURL, "/health")
}

func newLiveClient(t *testing.T, envKey, fallback, probe string) *liveClient {
	t.Helper()
	baseURL := strings.TrimRight(os.Getenv(envKey), "/")
	if baseURL == "" {
		baseURL = fallback
	}
	client := &http.Client{Timeout: defaultRequestTimeout}
	if !isReachable(client, baseURL+probe) {
		t.Skipf("server not reachable at %s (set %s to run)", baseURL, envKey)
	}
	return &liveClient{baseURL: baseURL, client: client}
}

func isReachable(client *http.Client, url string) bool {
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 500
}

func (c *liveClient) do(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func (c *liveClient) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	return c.do(t, http.MethodGet, path, nil)
}

func (c *liveClient) postJSON(t *testing.T, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	return c.do(t, http.MethodPost, path, payload)
}

// openStream returns the response with its body still open.
func (c *liveClient) openStream(t *testing.T, path, accept string, timeout time.Duration) *http.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// readSSEData returns the data line of the first non-comment event.
func readSSEData(body io.Reader) (string, error) {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:")), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read sse: %w", err)
	}
	return "", fmt.Errorf("sse stream closed before event")
}

func decodeJSONMap(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode json: %v\nbody=%s", err, string(body))
	}
	return payload
}

func requireString(t *testing.T, value any, field string) string {
	t.Helper()
	str, ok := value.(string)
	if !ok {
		t.Fatalf("expected %s to be string, got %T", field, value)
	}
	return str
}

func requireNumber(t *testing.T, value any, field string) float64 {
	t.Helper()
	num, ok := value.(float64)
	if !ok {
		t.Fatalf("expected %s to be number, got %T", field, value)
	}
	return num
}

func requireBool(t *testing.T, value any, field string) bool {
	t.Helper()
	b, ok := value.(bool)
	if !ok {
		t.Fatalf("expected %s to be bool, got %T", field, value)
	}
	return b
}

func requireMap(t *testing.T, value any, field string) map[string]any {
	t.Helper()
	m, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected %s to be object, got %T", field, value)
	}
	return m
}

func requireSlice(t *testing.T, value any, field string) []any {
	t.Helper()
	s, ok := value.([]any)
	if !ok {
		t.Fatalf("expected %s to be array, got %T", field, value)
	}
	return s
}

func requirePolygon(t *testing.T, value any, field string) [][2]float64 {
	t.Helper()
	raw := requireSlice(t, value, field)
	out := make([][2]float64, len(raw))
	for i, v := range raw {
		pair := requireSlice(t, v, fmt.Sprintf("%s[%d]", field, i))
		if len(pair) != 2 {
			t.Fatalf("%s[%d] has %d coordinates", field, i, len(pair))
		}
		out[i] = [2]float64{
			requireNumber(t, pair[0], field+".x"),
			requireNumber(t, pair[1], field+".y"),
		}
	}
	return out
}

func assertStatePayload(t *testing.T, payload map[string]any) {
	t.Helper()
	requireString(t, payload["mode"], "mode")
	requireString(t, payload["zone_status"], "zone_status")
	requirePolygon(t, payload["polygon"], "polygon")
	display := requireMap(t, payload["display"], "display")
	requireNumber(t, display["width"], "display.width")
	requireNumber(t, display["height"], "display.height")
}
