package handler

import (
	"net/http"
	"strings"

	"go-blog-api/internal/model"
	"go-blog-api/internal/service"
	"go-blog-api/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	users   *service.UserService
}

func NewAuthHandler(service *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{service: service, users: users}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.RegisterResponse{
		Message: "user registered successfully",
		UserID:  user.ID,
	}, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := decodeRefreshToken(w, r)
	if !ok {
		return
	}

	token, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, token, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := decodeRefreshToken(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), refreshToken); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "successfully logged out"}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if actor.Anonymous() {
		writeError(w, apierror.New(apierror.CodeUnauthorized, "authentication required", "", http.StatusUnauthorized))
		return
	}

	user, err := h.users.Get(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func decodeRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload model.RefreshRequest
	if !decodeJSON(w, r, &payload) {
		return "", false
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeError(w, apierror.FieldError("refresh_token", "this field is required"))
		return "", false
	}

	return payload.RefreshToken, true
}
