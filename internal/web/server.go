// Package web provides the HTTP surface of the ups-adapter daemon: the
// status page and the host command endpoints (power actions and runtime
// timing updates).
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/ups-adapter/internal/config"
	"github.com/sweeney/ups-adapter/internal/status"
)

// PowerControl is the subset of the power controller the HTTP handlers
// drive.
type PowerControl interface {
	On()
	Off()
	Restart()
}

// Server serves the status page and host commands over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	control    PowerControl
	timings    *config.Timings
}

// New creates a Server. control and timings may be nil, in which case the
// corresponding endpoints answer 503 (status stays readable).
func New(addr string, tracker *status.Tracker, control PowerControl, timings *config.Timings) *Server {
	s := &Server{tracker: tracker, control: control, timings: timings}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/power/on", s.powerHandler("on", func(c PowerControl) { c.On() }))
	mux.HandleFunc("/power/off", s.powerHandler("off", func(c PowerControl) { c.Off() }))
	mux.HandleFunc("/restart", s.powerHandler("restart", func(c PowerControl) { c.Restart() }))
	mux.HandleFunc("/timings", s.handleTimings)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// powerHandler builds a POST handler running one power action. The action
// runs synchronously; a restart blocks for the recovery delay, which is
// the honest answer for a command whose effect is electrical.
func (s *Server) powerHandler(op string, run func(PowerControl)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.control == nil {
			http.Error(w, "power control unavailable", http.StatusServiceUnavailable)
			return
		}

		log.Printf("web: %s requested by %s", op, r.RemoteAddr)
		run(s.control)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "{\"ok\":true,\"op\":%q}\n", op)
	}
}

// TimingsRequest is the PUT /timings body. Absent fields keep their
// current value.
type TimingsRequest struct {
	PulseMs    *int64 `json:"pulse_ms"`
	PulseOnMs  *int64 `json:"pulse_on_ms"`
	PulseOffMs *int64 `json:"pulse_off_ms"`
	RecoveryMs *int64 `json:"recovery_ms"`
}

func (s *Server) handleTimings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.timings == nil {
		http.Error(w, "timings unavailable", http.StatusServiceUnavailable)
		return
	}

	var req TimingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	v := s.timings.Snapshot()
	if err := applyTimings(&v, req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// One Set call: concurrent power actions see either the old or the
	// new values, never a mix.
	s.timings.Set(v)
	s.tracker.SetTimings(v)
	log.Printf("web: timings updated: pulse=%v on=%v off=%v recovery=%v",
		v.PulseLength, v.PulseLengthOn, v.PulseLengthOff, v.SwitchRecoveryDelay)

	w.Header().Set("Content-Type", "application/json")
	resp := status.TimingsJSON{
		PulseMs:    v.PulseLength.Milliseconds(),
		PulseOnMs:  v.PulseLengthOn.Milliseconds(),
		PulseOffMs: v.PulseLengthOff.Milliseconds(),
		RecoveryMs: v.SwitchRecoveryDelay.Milliseconds(),
	}
	json.NewEncoder(w).Encode(resp)
}

func applyTimings(v *config.TimingValues, req TimingsRequest) error {
	set := func(dst *time.Duration, ms *int64, name string) error {
		if ms == nil {
			return nil
		}
		if *ms < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
		*dst = time.Duration(*ms) * time.Millisecond
		return nil
	}

	if err := set(&v.PulseLength, req.PulseMs, "pulse_ms"); err != nil {
		return err
	}
	if err := set(&v.PulseLengthOn, req.PulseOnMs, "pulse_on_ms"); err != nil {
		return err
	}
	if err := set(&v.PulseLengthOff, req.PulseOffMs, "pulse_off_ms"); err != nil {
		return err
	}
	return set(&v.SwitchRecoveryDelay, req.RecoveryMs, "recovery_ms")
}
