package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/genefryaustin-source/cui-inspector/internal/service/identity"
)

// loginService defines the minimal interface needed by AuthHandler.
type loginService interface {
	Login(ctx context.Context, input identity.LoginInput) (identity.LoginResult, error)
}

// AuthHandler serves the login endpoint.
type AuthHandler struct {
	svc loginService
	log *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc loginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: logger.With("handler", "auth")}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), identity.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		User:        toUser(res.User),
	})
}
