// HTTP handler for artifact downloads.
//
// Routes:
//
//	GET /artifacts/{id}/download → stream the artifact with its stored name
//
// Generation is triggered through POST /tickets/{id}/generate-artifacts,
// mounted by the ticket handler.
package artifact

import (
	"encoding/json"
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

// RegisterRoutes mounts the artifact routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/artifacts/", h.handleDownload)
}

// HandleGenerate handles POST /tickets/{id}/generate-artifacts, dispatched by
// the ticket handler after user resolution.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request, userID, ticketID string) {
	metas, err := h.svc.Generate(r.Context(), userID, ticketID)
	switch {
	case err == ErrNotFound:
		jsonError(w, "Not found", http.StatusNotFound)
		return
	case err == ErrNoBaseCV:
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("[artifact] generate error: %v", err)
		jsonError(w, "Failed to generate artifacts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"artifacts": metas,
	})
}

// handleDownload handles GET /artifacts/{id}/download
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "download" {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	artifactID := parts[1]

	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	download, err := h.svc.GetDownload(r.Context(), userID, artifactID)
	if err == ErrNotFound {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[artifact] download error: %v", err)
		jsonError(w, "Failed to download artifact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", download.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+download.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(download.Data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
