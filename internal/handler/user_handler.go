package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-blog-api/internal/model"
	"go-blog-api/internal/service"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

// Update serves both PUT and PATCH.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.ProfileInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.Update(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), payload, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}
