package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kmorling/netscout/internal/discovery"
	"github.com/kmorling/netscout/internal/inventory"
	"github.com/kmorling/netscout/internal/logging"
	"github.com/kmorling/netscout/internal/probe"
)

// scanRequest is the body accepted by POST /v1/scans. Every field is
// optional; omitted fields fall back to the server's configured defaults.
type scanRequest struct {
	Range          string   `json:"range,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
	DisabledProbes []string `json:"disabled_probes,omitempty"`
}

type statusResponse struct {
	Scanning   bool       `json:"scanning"`
	LastRun    string     `json:"last_run_id,omitempty"`
	LastFinish *time.Time `json:"last_finished,omitempty"`
	Devices    int        `json:"devices"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleDevices returns the filtered inventory from the most recent scan.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result := s.lastResult()
	if result == nil {
		writeJSON(w, http.StatusOK, []inventory.Flat{})
		return
	}
	writeJSON(w, http.StatusOK, inventory.FlattenAll(result.Devices))
}

// handleScans starts a discovery run. Only one scan may be in flight at a
// time; a second request gets 409.
func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req scanRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	opts := s.config.Scan
	if req.Range != "" {
		opts.Range = req.Range
	}
	if req.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	for _, name := range req.DisabledProbes {
		kind := probe.Kind(name)
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown probe kind: "+name)
			return
		}
		opts.Disabled = append(opts.Disabled, kind)
	}
	if opts.Range == "" {
		writeError(w, http.StatusBadRequest, "target range is required")
		return
	}

	if !s.beginScan() {
		writeError(w, http.StatusConflict, "a scan is already in progress")
		return
	}

	engine := discovery.NewEngine(opts)
	engine.AddObserver(func(res probe.Result) {
		s.hub.publish("probe_result", map[string]interface{}{
			"addr":  res.Addr,
			"probe": string(res.Kind),
		})
	})

	go func() {
		s.hub.publish("scan_started", map[string]string{"range": opts.Range})
		result, err := engine.Run(context.Background())
		if err != nil {
			logging.Error("Scan failed", zap.Error(err))
			s.finishScan(nil)
			s.hub.publish("scan_failed", map[string]string{"error": err.Error()})
			return
		}
		s.finishScan(result)
		s.hub.publish("scan_finished", map[string]interface{}{
			"run_id":     result.ID,
			"discovered": result.Summary.Discovered,
			"relevant":   result.Summary.Relevant,
		})
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"range":  opts.Range,
	})
}

// handleEvents upgrades to WebSocket and streams scan events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.hub.serve(w, r)
}

// handleStatus reports whether a scan is running and what the last one found.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.mu.Lock()
	resp := statusResponse{Scanning: s.scanning}
	if s.last != nil {
		resp.LastRun = s.last.ID
		finished := s.last.Summary.Started.Add(s.last.Summary.Elapsed)
		resp.LastFinish = &finished
		resp.Devices = len(s.last.Devices)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}
