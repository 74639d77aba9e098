// HTTP handlers for résumé upload and retrieval.
//
// Routes:
//
//	POST /cv → multipart DOCX upload, stored as text + original bytes
//	GET  /cv → the stored plain-text CV
package cvparse

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// maxUploadBytes caps the accepted DOCX size.
const maxUploadBytes = 10 << 20 // 10 MiB

const previewLength = 500

// Handler holds shared dependencies.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler returns a configured Handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes mounts the CV routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cv", h.handleCV)
}

func (h *Handler) handleCV(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.uploadCV(w, r, userID)
	case http.MethodGet:
		h.getCV(w, r, userID)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) uploadCV(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".docx") {
		jsonError(w, "Only DOCX files are supported", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		jsonError(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	text, err := ParseDocx(data)
	if err != nil {
		log.Printf("[cv] parse error: %v", err)
		jsonError(w, "Failed to parse DOCX file", http.StatusBadRequest)
		return
	}

	_, err = h.pool.Exec(r.Context(),
		`UPDATE users SET base_cv = $1, base_cv_docx = $2, updated_at = NOW() WHERE id = $3`,
		text, data, userID)
	if err != nil {
		log.Printf("[cv] store error: %v", err)
		jsonError(w, "Failed to upload CV", http.StatusInternalServerError)
		return
	}

	preview := text
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}
	jsonOK(w, map[string]any{
		"success": true,
		"message": "CV uploaded successfully",
		"preview": preview,
	})
}

func (h *Handler) getCV(w http.ResponseWriter, r *http.Request, userID string) {
	var cv *string
	err := h.pool.QueryRow(r.Context(),
		`SELECT base_cv FROM users WHERE id = $1`, userID,
	).Scan(&cv)
	if err != nil || cv == nil || *cv == "" {
		jsonError(w, "No CV found", http.StatusNotFound)
		return
	}
	jsonOK(w, map[string]string{"cv": *cv})
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
