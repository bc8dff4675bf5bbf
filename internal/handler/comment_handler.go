package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-blog-api/internal/model"
	"go-blog-api/internal/service"
)

type CommentHandler struct {
	service *service.CommentService
}

func NewCommentHandler(service *service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter.Published = nil

	comments, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.CommentList{Comments: comments}, listMeta(filter, len(comments)))
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.Retrieve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comment, nil)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CommentInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	comment, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, comment, nil)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload model.CommentInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	comment, err := h.service.Update(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), payload, r.Method == http.MethodPatch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comment, nil)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFromRequest(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
