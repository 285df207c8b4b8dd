package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	logger      *logrus.Logger
}

func NewAuthHandler(authService ports.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req ports.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Msg: "invalid request body"})
		return
	}

	token, user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.WithField("email", user.Email).Info("user registered")
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Msg: "invalid request body"})
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout is a stateless acknowledgement: credentials simply expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Logged out successfully"})
}
