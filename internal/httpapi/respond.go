package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sisyphean/rustlink/internal/entity"
	"github.com/sisyphean/rustlink/internal/rustplus"
)

// errorBody is the uniform failure envelope. Hint carries a "did you
// mean" candidate on unknown-entity failures.
type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// writeJSON encodes v with the given status code. On encoding failure it
// falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"ok":false,"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// writeError emits the failure envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeResolveError maps an entity resolution failure to a 400, attaching
// a suggestion for near-miss names.
func (s *Server) writeResolveError(w http.ResponseWriter, name string, err error) {
	body := errorBody{}
	switch {
	case errors.Is(err, entity.ErrUnknown):
		body.Error = "unknown entity: " + name
		if hint, ok := s.directory.Suggest(name); ok {
			body.Hint = "did you mean " + hint + "?"
		}
	case errors.Is(err, entity.ErrUnconfigured):
		body.Error = "entity " + name + " has no id configured"
	default:
		body.Error = err.Error()
	}
	writeJSON(w, http.StatusBadRequest, body)
}

// writeRemoteError maps a failed remote call to the right status code:
// 503 when the socket dropped mid-request, 500 with the server-supplied
// message for remote rejections, 500 for anything else.
func writeRemoteError(w http.ResponseWriter, err error) {
	var rerr *rustplus.RemoteError
	switch {
	case errors.Is(err, rustplus.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, "not connected to the game server")
	case errors.As(err, &rerr):
		writeError(w, http.StatusInternalServerError, rerr.Message)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// remoteStatus classifies err for the remote request counter.
func remoteStatus(err error) string {
	var rerr *rustplus.RemoteError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, rustplus.ErrNotConnected):
		return "not_connected"
	case errors.As(err, &rerr):
		return "remote_error"
	default:
		return "error"
	}
}
