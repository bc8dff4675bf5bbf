package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-blog-api/internal/model"
	"go-blog-api/internal/service"
)

type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.PostList{Posts: posts}, listMeta(filter, len(posts)))
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Retrieve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, post, nil)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.PostInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	post, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, post, nil)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.PostInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	post, err := h.service.Update(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), payload, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, post, nil)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFromRequest(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
