package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/machine"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/safety"
	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/wakeword"
)

// writeWait bounds a single outbound websocket write.
const writeWait = 5 * time.Second

// Config holds gateway server configuration.
type Config struct {
	Addr       string
	Machine    *machine.Machine
	Aggregator *safety.Aggregator
	Listener   *wakeword.Listener // nil when no profile store is attached
	StaleAfter time.Duration
}

// Server is the gateway's websocket surface. Collaborator streams
// (telemetry, recognition, lifecycle, geofence, audio) come in; state
// changes, safety events, and command outcomes go out.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	watchdog *time.Timer
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Machine == nil || cfg.Aggregator == nil {
		return nil, fmt.Errorf("server: machine and aggregator are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8177"
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Second
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			// Collaborators connect from the host app, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// routes builds the gateway's HTTP surface.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/telemetry", s.handleTelemetry)
	mux.HandleFunc("/v1/recognition", s.handleRecognition)
	mux.HandleFunc("/v1/lifecycle", s.handleLifecycle)
	mux.HandleFunc("/v1/geofence", s.handleGeofence)
	mux.HandleFunc("/v1/audio", s.handleAudio)
	mux.HandleFunc("/v1/state", s.handleStateStream)
	mux.HandleFunc("/v1/events", s.handleEventStream)
	mux.HandleFunc("/v1/outcomes", s.handleOutcomeStream)
	mux.HandleFunc("/v1/emergency", s.handleEmergency)
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.routes()}

	// The watchdog forces a conservative safety context whenever the
	// telemetry feed goes quiet; a lost stream must not leave a stale
	// low level in place.
	s.resetWatchdog()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) resetWatchdog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	s.watchdog = time.AfterFunc(s.cfg.StaleAfter, func() {
		now := time.Now().UTC()
		s.cfg.Machine.Push(model.ContextEvent{Context: s.cfg.Aggregator.Conservative(now)})
		s.resetWatchdog()
	})
}

// handleTelemetry ingests the telemetry push stream. Each JSON message
// is one sample; it is aggregated immediately and pushed to the machine.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var raw map[string]any
		if err := conn.ReadJSON(&raw); err != nil {
			return
		}
		sample := model.TelemetryFromMap(raw)
		ctx := s.cfg.Aggregator.Aggregate(sample, time.Now().UTC())
		s.cfg.Machine.Push(model.ContextEvent{Context: ctx})
		s.resetWatchdog()
	}
}

// recognitionMsg is one message on the recognition stream.
type recognitionMsg struct {
	Type string `json:"type"` // "final", "partial", "error"
	Text string `json:"text,omitempty"`
}

func (s *Server) handleRecognition(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg recognitionMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "final":
			s.cfg.Machine.Push(model.TranscriptEvent{Text: msg.Text, Final: true})
		case "partial":
			s.cfg.Machine.Push(model.TranscriptEvent{Text: msg.Text})
		case "error":
			s.cfg.Machine.Push(model.RecognitionErrorEvent{Message: msg.Text})
		}
	}
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg struct {
			State string `json:"state"` // "foreground" or "background"
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.cfg.Machine.Push(model.LifecycleEvent{Foreground: msg.State == "foreground"})
	}
}

func (s *Server) handleGeofence(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg struct {
			Kind     string  `json:"kind"`
			Maneuver string  `json:"maneuver"`
			Distance float64 `json:"distance"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.cfg.Machine.Push(model.GeofenceEvent{
			Kind:     msg.Kind,
			Maneuver: msg.Maneuver,
			Distance: msg.Distance,
		})
	}
}

// handleAudio ingests raw PCM (binary messages, int16 LE mono 16kHz)
// for the wake word listener.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Listener == nil {
		http.Error(w, "wake word listening is not enabled", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage || len(data) < 2 {
			continue
		}
		samples := make([]int16, len(data)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		s.cfg.Listener.Feed(samples)
	}
}

func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := s.cfg.Machine.SubscribeStates(16)
	cancel := func() { s.cfg.Machine.UnsubscribeStates(sub) }
	s.stream(r.Context(), conn, cancel, func() (any, bool) {
		st, ok := <-sub
		return map[string]string{"state": string(st)}, ok
	}, map[string]string{"state": string(s.cfg.Machine.State())})
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := s.cfg.Machine.SubscribeEvents(64)
	cancel := func() { s.cfg.Machine.UnsubscribeEvents(sub) }
	s.stream(r.Context(), conn, cancel, func() (any, bool) {
		ev, ok := <-sub
		return ev, ok
	}, nil)
}

func (s *Server) handleOutcomeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := s.cfg.Machine.SubscribeOutcomes(64)
	cancel := func() { s.cfg.Machine.UnsubscribeOutcomes(sub) }
	s.stream(r.Context(), conn, cancel, func() (any, bool) {
		o, ok := <-sub
		return o, ok
	}, nil)
}

// stream pumps subscription values to one websocket client. A write
// error or client close ends the stream and releases the subscription;
// the machine side never blocks on this client either way.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, cancel func(), next func() (any, bool), first any) {
	defer conn.Close()
	defer cancel()

	// Discard inbound frames so pings and closes are processed. A read
	// error means the client is gone; cancelling closes the
	// subscription channel, which unblocks a next() waiting on it.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	if first != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(first); err != nil {
			return
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}
		v, ok := next()
		if !ok {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			return
		}
	}
}

func (s *Server) handleEmergency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reason == "" {
		body.Reason = "unspecified"
	}
	s.cfg.Machine.Interrupt().Trigger(body.Reason)
	fmt.Fprintf(os.Stderr, "server: emergency interrupt triggered: %s\n", body.Reason)
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "triggered"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := s.cfg.Machine.Context()
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"state":  string(s.cfg.Machine.State()),
		"level":  ctx.Level.String(),
		"stale":  ctx.Stale,
	})
}
