package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/handlers/render"
	"github.com/nkiryanov/taskward/internal/logger"
	"github.com/nkiryanov/taskward/internal/models"
	"github.com/nkiryanov/taskward/internal/service/auth"
)

type authService interface {
	Register(ctx context.Context, email string, password string) (auth.AuthResult, error)
	Login(ctx context.Context, email string, password string) (auth.AuthResult, error)
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)
	Logout(ctx context.Context, refresh string) error
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type TokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is the register and login body: the user plus a fresh pair
type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

func NewAuth(authService authService, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/refresh", h.refresh)
	mux.HandleFunc("POST /auth/logout", h.logout)
	mux.Handle("/", NotFoundHandler())

	return mux
}

func authResponse(result auth.AuthResult) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:    result.User.ID,
			Email: result.User.Email,
		},
		Tokens: TokensResponse{
			AccessToken:  result.Pair.Access.Value,
			RefreshToken: result.Pair.Refresh.Value,
		},
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	result, err := h.authService.Register(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.Error(w, "Email already in use", http.StatusBadRequest)
		default:
			h.logger.Error("register failed", "err", err)
			render.InternalError(w, err)
		}
		return
	}

	render.JSONWithStatus(w, authResponse(result), http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	result, err := h.authService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Error(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "err", err)
			render.InternalError(w, err)
		}
		return
	}

	render.JSON(w, authResponse(result))
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTokenInvalid):
			render.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrTokenRevoked):
			render.Error(w, "Refresh token revoked", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrTokenExpired):
			render.Error(w, "Refresh token expired", http.StatusForbidden)
		default:
			h.logger.Error("token refresh failed", "err", err)
			render.InternalError(w, err)
		}
		return
	}

	render.JSON(w, TokensResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.authService.Logout(r.Context(), data.RefreshToken); err != nil {
		h.logger.Error("logout failed", "err", err)
		render.InternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
