// Package telemetry streams live simulation state to websocket subscribers,
// one JSON frame per broadcast. Spectator pages and external dashboards
// consume it; the simulation never blocks on a slow client.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"hordefall/internal/sim"
)

// Frame is one broadcast snapshot of the running world.
type Frame struct {
	Tick         int                 `json:"tick"`
	Agents       []sim.AgentSnapshot `json:"agents"`
	Wave         sim.WaveStatus      `json:"wave"`
	CrystalPower float64             `json:"crystalPower"`
	Threat       float64             `json:"threat"`
	Kills        int                 `json:"kills"`
	Hits         []sim.DebugEvent    `json:"hits,omitempty"`
}

// CaptureFrame flattens the world into a broadcastable frame, draining the
// combat diagnostics buffered since the previous capture. Call between Steps
// only.
func CaptureFrame(w *sim.World) Frame {
	return Frame{
		Tick:         w.Tick(),
		Agents:       w.Snapshots(),
		Wave:         w.WaveStatus(),
		CrystalPower: w.CrystalPower(),
		Threat:       w.ThreatLevel(),
		Kills:        w.Kills(),
		Hits:         w.DrainDebug(),
	}
}

// subscriber buffers outbound frames for one connection. When the buffer is
// full the newest frame is dropped for that client; state frames are
// self-contained so skipping some loses nothing.
type subscriber struct {
	frames chan []byte
}

// Streamer accepts websocket subscribers and fans broadcast frames out to
// them. It implements http.Handler.
type Streamer struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewStreamer creates a Streamer logging through the given logger.
func NewStreamer(logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// SubscriberCount returns how many clients are connected.
func (s *Streamer) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Publish marshals the frame once and hands it to every subscriber.
func (s *Streamer) Publish(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal telemetry frame: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.frames <- data:
		default:
			// Client is not keeping up; skip this frame for it.
		}
	}
	return nil
}

// ServeHTTP upgrades the request and streams frames until the client leaves.
func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // spectator endpoint, origin does not matter
	})
	if err != nil {
		s.logger.Error("telemetry accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := &subscriber{frames: make(chan []byte, 16)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()
	s.logger.Info("telemetry subscriber connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-sub.frames:
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				s.logger.Info("telemetry subscriber left", "remote", r.RemoteAddr, "err", err)
				return
			}
		}
	}
}

// Serve runs a standalone telemetry endpoint at addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, s *Streamer) error {
	mux := http.NewServeMux()
	mux.Handle("/telemetry", s)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("telemetry listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("telemetry server: %w", err)
		}
		return nil
	}
}
