package observability

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// HealthServer serves liveness and readiness probes.
type HealthServer struct {
	ready atomic.Bool
}

func NewHealthServer() *HealthServer {
	return &HealthServer{}
}

// SetReady marks the process as ready to receive traffic.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register mounts /healthz and /readyz on mux.
func (h *HealthServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /readyz", h.handleReady)
}

func (h *HealthServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

func (h *HealthServer) handleReady(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		writeStatus(w, http.StatusOK, "ready")
		return
	}
	writeStatus(w, http.StatusServiceUnavailable, "not ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
