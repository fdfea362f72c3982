package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sisyphean/rustlink/internal/upkeep"
)

// handleHealth reports connection state at request time. Always 200: the
// bridge being up is independent of the socket being up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"connected":   s.controller.Connected(),
		"server_ip":   s.info.IP,
		"server_port": s.info.Port,
	})
}

// handleEntityAction switches an entity on or off.
func (s *Server) handleEntityAction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	action := r.PathValue("action")

	if action != "on" && action != "off" {
		writeError(w, http.StatusBadRequest, "unknown action: "+action)
		return
	}

	// Connectivity gate and local name resolution both run before any
	// round trip is spent.
	if !s.controller.Connected() {
		writeError(w, http.StatusServiceUnavailable, "not connected to the game server")
		return
	}
	id, err := s.directory.Resolve(name)
	if err != nil {
		s.writeResolveError(w, name, err)
		return
	}

	raw, err := s.controller.SetEntityValue(r.Context(), id, action == "on")
	s.metrics.RecordRemoteRequest(r.Context(), "setEntityValue", remoteStatus(err))
	if err != nil {
		writeRemoteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": name + " " + strings.ToUpper(action) + " complete.",
		"raw":     raw,
	})
}

// handleEntityStatus returns the raw entity info payload untouched.
func (s *Server) handleEntityStatus(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if !s.controller.Connected() {
		writeError(w, http.StatusServiceUnavailable, "not connected to the game server")
		return
	}
	id, err := s.directory.Resolve(name)
	if err != nil {
		s.writeResolveError(w, name, err)
		return
	}

	raw, err := s.controller.GetEntityInfo(r.Context(), id)
	s.metrics.RecordRemoteRequest(r.Context(), "getEntityInfo", remoteStatus(err))
	if err != nil {
		writeRemoteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"name":     name,
		"entityId": id,
		"info":     raw,
	})
}

// handleTCSummary fetches a tool cupboard's info and reduces it to
// resource totals and an upkeep estimate. A malformed payload degrades to
// the empty summary rather than erroring.
func (s *Server) handleTCSummary(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if !s.controller.Connected() {
		writeError(w, http.StatusServiceUnavailable, "not connected to the game server")
		return
	}
	id, err := s.directory.Resolve(name)
	if err != nil {
		s.writeResolveError(w, name, err)
		return
	}

	raw, err := s.controller.GetEntityInfo(r.Context(), id)
	s.metrics.RecordRemoteRequest(r.Context(), "getEntityInfo", remoteStatus(err))
	if err != nil {
		writeRemoteError(w, err)
		return
	}

	sum := upkeep.Summarize(upkeep.ParseEntityInfo(raw), s.now())

	writeJSON(w, http.StatusOK, tcSummaryBody{
		OK:        true,
		Name:      name,
		EntityID:  id,
		Items:     sum.Items,
		Resources: sum.Resources,
		Upkeep:    sum.Upkeep,
		Raw:       raw,
	})
}

// tcSummaryBody fixes the field order and wire names of the TC response;
// the downstream bot reads resources and upkeep by these exact keys.
type tcSummaryBody struct {
	OK        bool               `json:"ok"`
	Name      string             `json:"name"`
	EntityID  int64              `json:"entityId"`
	Items     []upkeep.ItemStack `json:"items"`
	Resources upkeep.Totals      `json:"resources"`
	Upkeep    upkeep.Status      `json:"upkeep"`
	Raw       json.RawMessage    `json:"raw"`
}
