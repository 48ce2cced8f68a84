// Package webrtc carries operator input over a WebRTC data channel, for
// pages that already hold a peer connection to the monitor.
package webrtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pion/webrtc/v3"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/feed"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InputLabel is the data channel label peers open for input messages.
const InputLabel = "input"

const inputTimeout = 2 * time.Second

// InputSink applies operator input. *feed.Loop implements it.
type InputSink interface {
	Input(ctx context.Context, in feed.Input) error
}

// Reply answers each input message on the data channel.
type Reply struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Client is one connected peer.
type Client struct {
	id       string
	peerConn *webrtc.PeerConnection
	received uint64
	rejected uint64
}

// Server manages WebRTC connections
type Server struct {
	clients    map[string]*Client
	clientsMu  sync.RWMutex
	config     webrtc.Configuration
	maxClients int
	api        *webrtc.API
	sink       InputSink
	metrics    *metrics.Metrics
}

// NewServer creates a new WebRTC server
func NewServer(stunServers []string, maxClients int, sink InputSink, m *metrics.Metrics) *Server {
	iceServers := make([]webrtc.ICEServer, 0, len(stunServers))
	for _, url := range stunServers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs: []string{url},
		})
	}

	settingsEngine := webrtc.SettingEngine{}
	settingsEngine.SetDTLSRetransmissionInterval(time.Second * 2)
	settingsEngine.SetNetworkTypes([]webrtc.NetworkType{
		webrtc.NetworkTypeUDP4,
		webrtc.NetworkTypeUDP6,
	})

	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingsEngine))

	return &Server{
		clients: make(map[string]*Client),
		config: webrtc.Configuration{
			ICEServers: iceServers,
		},
		maxClients: maxClients,
		api:        api,
		sink:       sink,
		metrics:    m,
	}
}

// HandleOffer handles a WebRTC offer and returns an answer
func (s *Server) HandleOffer(offerJSON []byte) ([]byte, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(offerJSON, &offer); err != nil {
		return nil, fmt.Errorf("failed to parse offer: %w", err)
	}
	if offer.Type != webrtc.SDPTypeOffer || offer.SDP == "" {
		return nil, fmt.Errorf("failed to parse offer: want an sdp of type offer")
	}

	if s.GetClientCount() >= s.maxClients {
		return nil, fmt.Errorf("maximum clients reached (%d)", s.maxClients)
	}

	peerConn, err := s.api.NewPeerConnection(s.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	client := &Client{
		id:       uuid.NewString(),
		peerConn: peerConn,
	}

	peerConn.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != InputLabel {
			logger.Debug("WebRTC", "Client %s opened unknown channel %q", client.id, dc.Label())
			return
		}
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			reply := s.handleInput(client, msg.Data)
			data, _ := json.Marshal(reply)
			if err := dc.SendText(string(data)); err != nil {
				logger.Debug("WebRTC", "Client %s reply failed: %v", client.id, err)
			}
		})
	})

	// Handle peer connection state changes
	peerConn.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Debug("WebRTC", "Client %s connection state: %s", client.id, state.String())

		if state == webrtc.PeerConnectionStateDisconnected ||
			state == webrtc.PeerConnectionStateFailed ||
			state == webrtc.PeerConnectionStateClosed {
			logger.Info("WebRTC", "Client %s connection lost (Peer: %s), removing...", client.id, state.String())
			s.RemoveClient(client.id)
		}
	})

	if err := peerConn.SetRemoteDescription(offer); err != nil {
		peerConn.Close()
		return nil, fmt.Errorf("failed to set remote description: %w", err)
	}

	answer, err := peerConn.CreateAnswer(nil)
	if err != nil {
		peerConn.Close()
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(peerConn)
	if err := peerConn.SetLocalDescription(answer); err != nil {
		peerConn.Close()
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}
	<-gatherComplete
	logger.Debug("WebRTC", "ICE gathering complete for client %s", client.id)

	s.clientsMu.Lock()
	s.clients[client.id] = client
	s.clientsMu.Unlock()
	if s.metrics != nil {
		s.metrics.WebRTCClients.Add(1)
	}
	logger.Info("WebRTC", "Client %s connected", client.id)

	localDesc := peerConn.LocalDescription()
	if localDesc == nil {
		s.RemoveClient(client.id)
		return nil, fmt.Errorf("no local description available")
	}
	answerJSON, err := json.Marshal(localDesc)
	if err != nil {
		s.RemoveClient(client.id)
		return nil, fmt.Errorf("failed to marshal answer: %w", err)
	}
	return answerJSON, nil
}

func (s *Server) handleInput(client *Client, data []byte) Reply {
	var in feed.Input
	if err := json.Unmarshal(data, &in); err != nil {
		s.count(client, false)
		return Reply{OK: false, Error: "invalid input message"}
	}
	if s.metrics != nil {
		s.metrics.InputEvents.Add(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), inputTimeout)
	defer cancel()
	if err := s.sink.Input(ctx, in); err != nil {
		s.count(client, false)
		return Reply{Type: in.Type, OK: false, Error: err.Error()}
	}
	s.count(client, true)
	return Reply{Type: in.Type, OK: true}
}

func (s *Server) count(client *Client, ok bool) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if ok {
		client.received++
	} else {
		client.rejected++
	}
}

// RemoveClient removes a client by ID
func (s *Server) RemoveClient(clientID string) {
	s.clientsMu.Lock()
	client, exists := s.clients[clientID]
	if exists {
		delete(s.clients, clientID)
	}
	s.clientsMu.Unlock()
	if !exists {
		return
	}

	client.peerConn.Close()
	if s.metrics != nil {
		metrics.Decrement(&s.metrics.WebRTCClients)
	}
	logger.Info("WebRTC", "Client %s disconnected (inputs: %d, rejected: %d)",
		clientID, client.received, client.rejected)
}

// GetClientCount returns the number of connected clients
func (s *Server) GetClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// GetClientStats returns input counters per client
func (s *Server) GetClientStats() map[string]map[string]uint64 {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	stats := make(map[string]map[string]uint64)
	for id, client := range s.clients {
		stats[id] = map[string]uint64{
			"inputs":   client.received,
			"rejected": client.rejected,
		}
	}
	return stats
}

// Close closes all client connections
func (s *Server) Close() error {
	s.clientsMu.RLock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	s.clientsMu.RUnlock()

	for _, id := range ids {
		s.RemoveClient(id)
	}
	return nil
}
