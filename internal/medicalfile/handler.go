package medicalfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hfiles/medical-records-api/internal/token"
)

// uploadFormLimit bounds in-memory multipart parsing for document uploads.
const uploadFormLimit = 32 << 20

// Handler exposes HTTP endpoints for medical file operations. All routes
// are mounted behind the auth middleware.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if err := r.ParseMultipartForm(uploadFormLimit); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file uploaded"})
		return
	}
	defer file.Close()

	created, err := h.svc.Upload(r.Context(), ownerID,
		r.FormValue("fileType"), r.FormValue("fileName"),
		file, header.Size, header.Filename)
	if err != nil {
		h.writeError(w, err, "upload failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "file uploaded", "file": created})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	files, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, err, "list failed")
		return
	}
	h.writeJSON(w, http.StatusOK, files)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	fileID, err := pathID(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	f, err := h.svc.GetByID(r.Context(), ownerID, fileID)
	if err != nil {
		h.writeError(w, err, "get failed")
		return
	}
	h.writeJSON(w, http.StatusOK, f)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	fileID, err := pathID(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	rc, f, err := h.svc.Download(r.Context(), ownerID, fileID)
	if err != nil {
		h.writeError(w, err, "download failed")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.OriginalName))
	if _, err := io.Copy(w, rc); err != nil {
		// headers already sent; nothing left to do but log
		h.logger.Warnw("download interrupted", "file_id", f.ID, "err", err)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	fileID, err := pathID(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}
	if err := h.svc.Delete(r.Context(), ownerID, fileID); err != nil {
		h.writeError(w, err, "delete failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeError maps service sentinel errors to status codes; anything else is
// an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid input"})
	case errors.Is(err, ErrUnsupportedType):
		h.writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "unsupported file type"})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
	default:
		h.logger.Errorw(logMsg, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
