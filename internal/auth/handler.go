package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Handler exposes HTTP endpoints for sign-up and sign-in.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CredentialsRequest is the body of both signup and signin.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c CredentialsRequest) validate() string {
	if n := utf8.RuneCountInString(c.Username); n < 4 || n > 20 {
		return "username must be between 4 and 20 characters"
	}
	if n := utf8.RuneCountInString(c.Password); n < 8 || n > 32 {
		return "password must be between 8 and 32 characters"
	}
	return ""
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}
	err := h.svc.SignUp(r.Context(), req.Username, req.Password)
	if err != nil {
		var dup *DuplicateUserError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": dup.Error()})
			return
		}
		h.logger.Warnw("signup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "signup failed"})
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signin payload", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	res, err := h.svc.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Debugw("signin failed", "err", err)
		if errors.Is(err, ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "please check your login credentials"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "signin failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
