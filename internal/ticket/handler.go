// HTTP handlers for the ticket workflow.
//
// All routes expect an x-user-id header forwarded by the gateway.
//
// Routes:
//
//	GET   /tickets                          → list user's tickets (optional ?status= filter)
//	GET   /tickets/{id}                     → ticket detail with job and artifact metadata
//	PATCH /tickets/{id}                     → partial update (status, applicationMethod, snoozedUntil)
//	POST  /tickets/{id}/generate-artifacts  → delegated to the artifact generator
package ticket

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// ArtifactRoutes is the generation endpoint mounted under /tickets/{id}.
type ArtifactRoutes interface {
	HandleGenerate(w http.ResponseWriter, r *http.Request, userID, ticketID string)
}

// Handler holds shared dependencies.
type Handler struct {
	svc       *Service
	artifacts ArtifactRoutes
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service, artifacts ArtifactRoutes) *Handler {
	return &Handler{svc: svc, artifacts: artifacts}
}

// RegisterRoutes mounts all ticket routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/tickets", h.handleTickets)
	mux.HandleFunc("/tickets/", h.handleTicketByID)
}

// handleTickets handles GET /tickets
func (h *Handler) handleTickets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	tickets, err := h.svc.ListTickets(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, "fetch tickets", err)
		return
	}
	jsonOK(w, map[string]any{"tickets": tickets})
}

// handleTicketByID handles GET|PATCH /tickets/{id} and
// POST /tickets/{id}/generate-artifacts
func (h *Handler) handleTicketByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 && !(len(parts) == 3 && parts[2] == "generate-artifacts") {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	ticketID := parts[1]

	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	if len(parts) == 3 {
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.artifacts.HandleGenerate(w, r, userID, ticketID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ticket, err := h.svc.GetTicket(r.Context(), userID, ticketID)
		if err != nil {
			writeServiceError(w, "fetch ticket", err)
			return
		}
		jsonOK(w, map[string]any{"ticket": ticket})

	case http.MethodPatch:
		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		ticket, err := h.svc.UpdateTicket(r.Context(), userID, ticketID, req)
		if err != nil {
			writeServiceError(w, "update ticket", err)
			return
		}
		jsonOK(w, map[string]any{"ticket": ticket})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, "Not found", http.StatusNotFound)
	case errors.As(err, &verr):
		jsonError(w, verr.Msg, http.StatusBadRequest)
	default:
		log.Printf("[ticket] %s error: %v", op, err)
		jsonError(w, "Failed to "+op, http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
