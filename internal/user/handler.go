package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hfiles/medical-records-api/internal/token"
)

// multipart profile images are capped well below this; the form limit just
// bounds memory use while parsing
const profileImageFormLimit = 8 << 20

// Handler exposes HTTP endpoints for registration, login, and profile
// operations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRequest request body for the register endpoint.
type RegisterRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest body for profile updates; only these three fields
// are mutable.
type UpdateProfileRequest struct {
	Email       string `json:"email"`
	Gender      string `json:"gender"`
	PhoneNumber string `json:"phoneNumber"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	tok, pub, err := h.svc.Register(r.Context(), req.FullName, req.Email, req.Gender, req.PhoneNumber, req.Password)
	if err != nil {
		h.writeError(w, err, "register failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"token": tok, "user": pub})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	tok, pub, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err, "login failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"token": tok, "user": pub})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	pub, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "profile lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, pub)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid profile payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.UpdateProfile(r.Context(), userID, req.Email, req.Gender, req.PhoneNumber); err != nil {
		h.writeError(w, err, "profile update failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

func (h *Handler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := token.UserID(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if err := r.ParseMultipartForm(profileImageFormLimit); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("profileImage")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no image provided"})
		return
	}
	defer file.Close()

	location, err := h.svc.UpdateProfileImage(r.Context(), userID, file, header.Size, header.Filename)
	if err != nil {
		h.writeError(w, err, "profile image update failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "profile image updated", "imagePath": location})
}

// writeError maps service sentinel errors to status codes; anything else is
// an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid input"})
	case errors.Is(err, ErrEmailTaken):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
	case errors.Is(err, ErrBadCredentials):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, ErrUnsupportedImage):
		h.writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "unsupported image type"})
	case errors.Is(err, ErrImageTooLarge):
		h.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
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
