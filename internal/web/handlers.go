package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/user/honeyport/internal/daemon"
	"github.com/user/honeyport/internal/model"
)

// StatusProvider exposes the live daemon state.
type StatusProvider interface {
	GetStatus() *daemon.DaemonStatus
}

// SessionLister reads recorded sensor runs.
type SessionLister interface {
	Recent(limit int) ([]model.SensorSession, error)
}

// Handlers contains HTTP handlers.
type Handlers struct {
	status   StatusProvider
	sessions SessionLister
}

// NewHandlers creates new handlers. sessions may be nil.
func NewHandlers(status StatusProvider, sessions SessionLister) *Handlers {
	return &Handlers{
		status:   status,
		sessions: sessions,
	}
}

// Health reports 200 while the sensor is running with at least one active
// listener, 503 otherwise.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	st := h.status.GetStatus()
	code := http.StatusOK
	if !st.Running || st.ActiveListeners() == 0 {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"state":     st.State,
		"listeners": st.ActiveListeners(),
	})
}

// APIGetStatus returns the full daemon status.
func (h *Handlers) APIGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.status.GetStatus())
}

// APIGetListeners returns per-port listener state.
func (h *Handlers) APIGetListeners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.status.GetStatus().Listeners)
}

// APIGetSessions returns recent sensor runs.
func (h *Handlers) APIGetSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeError(w, errors.New("session history disabled"), http.StatusNotFound)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(w, errors.New("invalid limit"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	sessions, err := h.sessions.Recent(limit)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []model.SensorSession{}
	}

	writeJSON(w, sessions)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
