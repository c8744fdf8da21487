package handlers

import (
	"net/http"
	"runtime"
	"time"

	"diskspace-examiner/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Cycles  int    `json:"cycles"`

	// Scanning is true while any root has a session running.
	Scanning bool `json:"scanning"`
	// FailedRoots lists roots whose last session faulted.
	FailedRoots []string `json:"failedRoots,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It answers 503
// until every root has a tree to serve, and reports degraded when a root's
// last session failed.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := h.scans.IsReady()
	response := HealthResponse{
		Status:       statusStarting,
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       h.scans.Uptime().Round(time.Second).String(),
		Cycles:       h.scans.Cycles(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	for _, st := range h.scans.Status() {
		if st.Running {
			response.Scanning = true
		}
		if st.LastError != "" {
			response.FailedRoots = append(response.FailedRoots, st.Root)
		}
	}

	if ready {
		response.Status = statusHealthy
	}
	if !h.scans.Healthy() {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.scans.IsReady() {
		writeJSONStatus(w, http.StatusOK, "ready")
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
}
