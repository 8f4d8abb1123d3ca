// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/tilt_estimator/internal/sensors"
	"github.com/relabs-tech/tilt_estimator/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsWriteTimeout = 2 * time.Second
	wsClientQueue  = 16
)

// RegistersResponse is served on /api/registers.
type RegistersResponse struct {
	Device      string                 `json:"device"`
	Registers   map[string]string      `json:"registers,omitempty"` // hex address -> hex value
	RegisterMap []sensors.RegisterInfo `json:"register_map"`
}

// WebSink keeps the latest record for the JSON API and pushes every record
// to connected websocket clients. Slow clients drop records instead of
// stalling the producer.
type WebSink struct {
	logger    *zap.SugaredLogger
	registers map[string]string

	mu      sync.RWMutex
	last    telemetry.Record
	haveRec bool
	clients map[chan telemetry.Record]struct{}
}

// NewWebSink serves registers (the init-time snapshot, may be nil) on
// /api/registers.
func NewWebSink(registers map[string]string, logger *zap.SugaredLogger) *WebSink {
	return &WebSink{
		logger:    logger,
		registers: registers,
		clients:   make(map[chan telemetry.Record]struct{}),
	}
}

// Emit implements telemetry.Sink.
func (s *WebSink) Emit(r telemetry.Record) error {
	r = r.Rounded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
	s.haveRec = true
	for ch := range s.clients {
		select {
		case ch <- r:
		default:
		}
	}
	return nil
}

// Close implements telemetry.Sink. Connected websocket handlers return.
func (s *WebSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		close(ch)
		delete(s.clients, ch)
	}
	return nil
}

func (s *WebSink) subscribe() chan telemetry.Record {
	ch := make(chan telemetry.Record, wsClientQueue)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *WebSink) unsubscribe(ch chan telemetry.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[ch]; ok {
		delete(s.clients, ch)
		close(ch)
	}
}

// Handler returns the HTTP routes. Static files are served from ./web when
// that directory exists.
func (s *WebSink) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry", s.handleTelemetry)
	mux.HandleFunc("/api/registers", s.handleRegisters)
	mux.HandleFunc("/ws", s.handleWS)
	if st, err := os.Stat("web"); err == nil && st.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir("web")))
	}
	return mux
}

func (s *WebSink) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rec, have := s.last, s.haveRec
	s.mu.RUnlock()

	if !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		s.logger.Warnf("web: json encode error: %v", err)
	}
}

func (s *WebSink) handleRegisters(w http.ResponseWriter, r *http.Request) {
	resp := RegistersResponse{
		Device:      "mpu6050",
		Registers:   s.registers,
		RegisterMap: sensors.MPU6050RegisterMap(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warnf("web: json encode error: %v", err)
	}
}

func (s *WebSink) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// reader: only used to notice the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debugf("web: websocket read error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case rec, ok := <-ch:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(rec); err != nil {
				s.logger.Debugf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// Serve listens on port until ctx is done.
func (s *WebSink) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Infof("web: server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
