package zonecompat

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMonitorCompatIndex(t *testing.T) {
	client := newMonitorClient(t)
	resp, body := client.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("GET / content-type = %q", resp.Header.Get("Content-Type"))
	}
	for _, needle := range []string{"/assets/monitor.css", "/assets/monitor.js", "/stream"} {
		if !strings.Contains(string(body), needle) {
			t.Fatalf("GET / missing %q", needle)
		}
	}

	resp, body = client.get(t, "/assets/monitor.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /assets/monitor.js status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/api/overlay/stream") {
		t.Fatalf("monitor.js missing state stream usage")
	}
}

func TestMonitorCompatState(t *testing.T) {
	client := newMonitorClient(t)
	resp, body := client.get(t, "/api/overlay/state")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/overlay/state status = %d", resp.StatusCode)
	}
	assertStatePayload(t, decodeJSONMap(t, body))
}

func TestMonitorCompatStatus(t *testing.T) {
	client := newMonitorClient(t)
	_, body := client.get(t, "/api/status")
	payload := decodeJSONMap(t, body)
	requireBool(t, payload["video_connected"], "video_connected")
	requireBool(t, payload["push_connected"], "push_connected")
	requireBool(t, payload["polygon_defined"], "polygon_defined")
	requireString(t, payload["mode"], "mode")
}

func TestMonitorCompatMJPEGStream(t *testing.T) {
	client := newMonitorClient(t)
	resp := client.openStream(t, "/stream", "", 3*time.Second)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /stream status = %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/x-mixed-replace") ||
		!strings.Contains(contentType, "boundary=frame") {
		t.Fatalf("GET /stream content-type = %q", contentType)
	}
}

func TestMonitorCompatStateStream(t *testing.T) {
	client := newMonitorClient(t)
	resp := client.openStream(t, "/api/overlay/stream", "", 3*time.Second)
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("state stream content-type = %q", resp.Header.Get("Content-Type"))
	}
	data, err := readSSEData(resp.Body)
	if err != nil {
		t.Fatalf("state stream: %v", err)
	}
	assertStatePayload(t, decodeJSONMap(t, []byte(data)))
}

func TestMonitorCompatStateStreamProtobuf(t *testing.T) {
	client := newMonitorClient(t)
	resp := client.openStream(t, "/api/overlay/stream", "application/x-protobuf", 3*time.Second)
	if got := resp.Header.Get("X-Content-Format"); got != "application/x-protobuf" {
		t.Fatalf("X-Content-Format = %q", got)
	}
	data, err := readSSEData(resp.Body)
	if err != nil {
		t.Fatalf("state stream: %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		t.Fatalf("protobuf event is not base64: %v", err)
	}
}

func TestMonitorCompatInputValidation(t *testing.T) {
	client := newMonitorClient(t)
	resp, body := client.postJSON(t, "/api/input", map[string]any{"type": "teleport"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST /api/input status = %d body=%s", resp.StatusCode, body)
	}
	var payload struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Success || payload.Message == "" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestMonitorCompatWebRTCOfferInvalid(t *testing.T) {
	client := newMonitorClient(t)
	resp, body := client.postJSON(t, "/api/webrtc/offer", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("POST /api/webrtc/offer status = %d", resp.StatusCode)
	}
	requireString(t, decodeJSONMap(t, body)["error"], "error")
}
