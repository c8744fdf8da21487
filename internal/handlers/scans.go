package handlers

import (
	"errors"
	"net/http"
	"time"

	"diskspace-examiner/internal/database"
	"diskspace-examiner/internal/logging"
	"diskspace-examiner/internal/scanner"

	"github.com/dustin/go-humanize"
)

// ScansResponse is the body of GET /api/scans.
type ScansResponse struct {
	Roots    []scanner.RootStatus `json:"roots"`
	Healthy  bool                 `json:"healthy"`
	Ready    bool                 `json:"ready"`
	LastSave *time.Time           `json:"lastSave,omitempty"`
}

// GetScans returns the status of every configured root.
func (h *Handlers) GetScans(w http.ResponseWriter, r *http.Request) {
	response := ScansResponse{
		Roots:   h.scans.Status(),
		Healthy: h.scans.Healthy(),
		Ready:   h.scans.IsReady(),
	}

	lastSave, err := h.store.GetLastSave(r.Context())
	switch {
	case err == nil:
		response.LastSave = &lastSave
	case !errors.Is(err, database.ErrNotFound):
		logging.Warn("Failed to read last save time: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}

// TriggerRescan starts a new scan cycle, or queues one if a cycle is
// already running.
func (h *Handlers) TriggerRescan(w http.ResponseWriter, _ *http.Request) {
	if err := h.scans.Trigger(); err != nil {
		if errors.Is(err, scanner.ErrClosed) {
			writeJSONError(w, "scanning has stopped", http.StatusServiceUnavailable)
			return
		}
		logging.Error("Failed to trigger rescan: %v", err)
		writeJSONError(w, "failed to trigger rescan", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "scheduled")
}

// StoredRoot is one entry of GET /api/roots.
type StoredRoot struct {
	database.RootInfo
	SizeHuman string `json:"sizeHuman"`
}

// GetStoredRoots lists the roots saved in the database, including roots
// scanned by the command-line tool.
func (h *Handlers) GetStoredRoots(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.Roots(r.Context())
	if err != nil {
		logging.Error("Failed to list stored roots: %v", err)
		writeJSONError(w, "failed to list stored roots", http.StatusInternalServerError)
		return
	}

	out := make([]StoredRoot, 0, len(infos))
	for _, info := range infos {
		out = append(out, StoredRoot{RootInfo: info, SizeHuman: humanize.IBytes(uint64(info.Size))})
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out)
}
