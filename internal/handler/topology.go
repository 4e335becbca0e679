package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"

	"labtopo/internal/codec"
	"labtopo/internal/domain"
	"labtopo/internal/registry"
	"labtopo/internal/repository"
)

// ProbeTrigger starts an on-demand probe run.
type ProbeTrigger interface {
	TriggerProbe(ctx context.Context) error
}

// TopologyHandler serves registry lookups and probe history.
type TopologyHandler struct {
	reg    *registry.Handle
	repo   repository.Repository
	prober ProbeTrigger
}

// NewTopologyHandler creates a topology handler.
func NewTopologyHandler(reg *registry.Handle, repo repository.Repository) *TopologyHandler {
	return &TopologyHandler{reg: reg, repo: repo}
}

// SetProbeTrigger wires the probe runner.
func (h *TopologyHandler) SetProbeTrigger(p ProbeTrigger) {
	h.prober = p
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// rolePair is one entry of a by-role listing.
type rolePair struct {
	HostID  string `json:"host_id"`
	Address string `json:"address"`
}

// GetTopology returns the full registry.
func (h *TopologyHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.reg.Current().Topology(), http.StatusOK)
}

// ListHosts returns all records, optionally filtered by a host_id regex.
func (h *TopologyHandler) ListHosts(w http.ResponseWriter, r *http.Request) {
	reg := h.reg.Current()

	pattern := r.URL.Query().Get("name")
	if pattern == "" {
		h.writeJSON(w, reg.Hosts(), http.StatusOK)
		return
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		h.writeError(w, "Invalid name filter", err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, reg.Search(re), http.StatusOK)
}

// GetHost returns a single record.
func (h *TopologyHandler) GetHost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.reg.Current().Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
		log.Printf("failed to get host %s: %v", id, err)
		h.writeError(w, "Failed to get host", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, rec, http.StatusOK)
}

// ListByRole returns (host_id, address) pairs for one role.
func (h *TopologyHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	role, err := domain.ParseRole(r.PathValue("role"))
	if err != nil {
		h.writeError(w, "Unknown role", err.Error(), http.StatusBadRequest)
		return
	}

	pairs := []rolePair{}
	for id, addr := range h.reg.Current().ListByRole(role) {
		pairs = append(pairs, rolePair{HostID: id, Address: addr})
	}

	h.writeJSON(w, pairs, http.StatusOK)
}

// ListObservations returns recent probe history across all hosts.
func (h *TopologyHandler) ListObservations(w http.ResponseWriter, r *http.Request) {
	h.observations(w, r, "")
}

// ListHostObservations returns recent probe history for one host.
func (h *TopologyHandler) ListHostObservations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// 404 for hosts the registry has never heard of, not an empty list.
	if _, err := h.reg.Current().Get(id); err != nil {
		if domain.IsNotFound(err) {
			h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
			return
		}
	}

	h.observations(w, r, id)
}

func (h *TopologyHandler) observations(w http.ResponseWriter, r *http.Request, hostID string) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	obs, err := h.repo.ListObservations(r.Context(), hostID, limit)
	if err != nil {
		log.Printf("failed to list observations: %v", err)
		h.writeError(w, "Failed to list observations", err.Error(), http.StatusInternalServerError)
		return
	}
	if obs == nil {
		obs = []domain.Observation{}
	}

	h.writeJSON(w, obs, http.StatusOK)
}

// TriggerProbe starts a probe run in the background.
func (h *TopologyHandler) TriggerProbe(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		h.writeError(w, "Probes not configured", "No probe runner is registered", http.StatusServiceUnavailable)
		return
	}

	go func() {
		if err := h.prober.TriggerProbe(context.Background()); err != nil {
			log.Printf("probe run failed: %v", err)
		}
	}()

	h.writeJSON(w, map[string]string{"status": "probe_started"}, http.StatusAccepted)
}

// Export streams the registry in the requested format.
func (h *TopologyHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")

	exp, err := codec.ExporterFor(format)
	if err != nil {
		h.writeError(w, "Unknown format", err.Error(), http.StatusBadRequest)
		return
	}

	contentType := "application/octet-stream"
	switch exp.Format() {
	case "table":
		contentType = "text/csv"
	case "json":
		contentType = "application/json"
	case "yaml", "ansible-inventory":
		contentType = "application/x-yaml"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=topology.%s", exp.Format()))

	if err := exp.Export(h.reg.Current().Topology(), w); err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("export %s failed: %v", format, err)
	}
}

func (h *TopologyHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode JSON: %v", err)
	}
}

func (h *TopologyHandler) writeError(w http.ResponseWriter, errMsg, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errMsg,
		Details: details,
	}); err != nil {
		log.Printf("failed to encode error response: %v", err)
	}
}
