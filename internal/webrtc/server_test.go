package webrtc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
)

type fakeSink struct {
	mu  sync.Mutex
	got []feed.Input
	err error
}

func (f *fakeSink) Input(ctx context.Context, in feed.Input) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	return f.err
}

func TestHandleInput(t *testing.T) {
	sink := &fakeSink{}
	m := metrics.New()
	s := NewServer(nil, 1, sink, m)
	c := &Client{id: "c1"}

	r := s.handleInput(c, []byte(`{"type":"click","x":10,"y":20}`))
	if !r.OK || r.Type != "click" {
		t.Fatalf("reply = %+v", r)
	}
	if len(sink.got) != 1 || sink.got[0].X != 10 || sink.got[0].Y != 20 {
		t.Fatalf("sink got %+v", sink.got)
	}

	sink.err = errors.New("at least 3 vertices required")
	r = s.handleInput(c, []byte(`{"type":"dblclick"}`))
	if r.OK || r.Error != "at least 3 vertices required" {
		t.Fatalf("refusal reply = %+v", r)
	}

	r = s.handleInput(c, []byte(`{nope`))
	if r.OK {
		t.Fatalf("malformed message accepted")
	}
	if c.received != 1 || c.rejected != 2 {
		t.Fatalf("counters = %d/%d", c.received, c.rejected)
	}
	if m.InputEvents.Load() != 2 {
		t.Fatalf("input events = %d", m.InputEvents.Load())
	}
}

func TestHandleOfferRejects(t *testing.T) {
	s := NewServer(nil, 1, &fakeSink{}, nil)
	if _, err := s.HandleOffer([]byte(`not json`)); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := s.HandleOffer([]byte(`{"type":"answer","sdp":"v=0"}`)); err == nil {
		t.Fatalf("answer accepted as offer")
	}

	full := NewServer(nil, 0, &fakeSink{}, nil)
	if _, err := full.HandleOffer([]byte(`{"type":"offer","sdp":"v=0"}`)); err == nil {
		t.Fatalf("client limit not enforced")
	}
}

// TestDataChannelRoundTrip needs a usable non-loopback interface for ICE;
// it skips when the peers cannot connect.
func TestDataChannelRoundTrip(t *testing.T) {
	sink := &fakeSink{}
	s := NewServer(nil, 2, sink, nil)
	defer s.Close()

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	dc, err := pc.CreateDataChannel(InputLabel, nil)
	if err != nil {
		t.Fatal(err)
	}
	replies := make(chan string, 1)
	dc.OnOpen(func() { dc.SendText(`{"type":"start"}`) })
	dc.OnMessage(func(msg webrtc.DataChannelMessage) { replies <- string(msg.Data) })

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatal(err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		t.Fatal(err)
	}
	<-gathered

	offerJSON, _ := json.Marshal(pc.LocalDescription())
	answerJSON, err := s.HandleOffer(offerJSON)
	if err != nil {
		t.Fatal(err)
	}
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(answerJSON, &answer); err != nil {
		t.Fatal(err)
	}
	if err := pc.SetRemoteDescription(answer); err != nil {
		t.Fatal(err)
	}
	if s.GetClientCount() != 1 {
		t.Fatalf("client count = %d", s.GetClientCount())
	}

	select {
	case r := <-replies:
		if r != `{"type":"start","ok":true}` {
			t.Fatalf("reply = %s", r)
		}
	case <-time.After(5 * time.Second):
		t.Skip("peers did not connect; no usable interface for ICE")
	}
	if len(sink.got) != 1 || sink.got[0].Type != feed.InputStart {
		t.Fatalf("sink got %+v", sink.got)
	}
}
