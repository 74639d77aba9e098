// HTTP handlers for preference sets and the scan configuration.
//
// All routes expect an x-user-id header forwarded by the gateway.
//
// Routes:
//
//	GET    /preferences              → list user's preference sets
//	POST   /preferences              → create a set (cap: 3 per user)
//	PATCH  /preferences/{id}         → partial update
//	DELETE /preferences/{id}         → remove a set
//	GET    /settings/scan-config     → fetch config, creating the default
//	PATCH  /settings/scan-config     → partial update
package prefs

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all preference and settings routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/preferences", h.handlePreferences)
	mux.HandleFunc("/preferences/", h.handlePreferenceByID)
	mux.HandleFunc("/settings/scan-config", h.handleScanConfig)
}

// handlePreferences handles GET|POST /preferences
func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sets, err := h.svc.ListPreferences(r.Context(), userID)
		if err != nil {
			writeServiceError(w, "fetch preferences", err)
			return
		}
		jsonOK(w, http.StatusOK, map[string]any{"preferences": sets})

	case http.MethodPost:
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		set, err := h.svc.CreatePreference(r.Context(), userID, req)
		if err != nil {
			writeServiceError(w, "create preference set", err)
			return
		}
		jsonOK(w, http.StatusCreated, map[string]any{"preference": set})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePreferenceByID handles PATCH|DELETE /preferences/{id}
func (h *Handler) handlePreferenceByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	setID := parts[1]

	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		set, err := h.svc.UpdatePreference(r.Context(), userID, setID, req)
		if err != nil {
			writeServiceError(w, "update preference set", err)
			return
		}
		jsonOK(w, http.StatusOK, map[string]any{"preference": set})

	case http.MethodDelete:
		if err := h.svc.DeletePreference(r.Context(), userID, setID); err != nil {
			writeServiceError(w, "delete preference set", err)
			return
		}
		jsonOK(w, http.StatusOK, map[string]bool{"success": true})

	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScanConfig handles GET|PATCH /settings/scan-config
func (h *Handler) handleScanConfig(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cfg, err := h.svc.GetScanConfig(r.Context(), userID)
		if err != nil {
			writeServiceError(w, "fetch scan configuration", err)
			return
		}
		jsonOK(w, http.StatusOK, map[string]any{"scanConfig": cfg})

	case http.MethodPatch:
		var req ConfigUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		cfg, err := h.svc.UpdateScanConfig(r.Context(), userID, req)
		if err != nil {
			writeServiceError(w, "update scan configuration", err)
			return
		}
		jsonOK(w, http.StatusOK, map[string]any{"scanConfig": cfg})

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
		log.Printf("[prefs] %s error: %v", op, err)
		jsonError(w, "Failed to "+op, http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
