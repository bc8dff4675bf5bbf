package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go-blog-api/internal/model"
	"go-blog-api/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.Fields = apiErr.Fields
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "user not found"
	} else if errors.Is(err, model.ErrPostNotFound) {
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "post not found"
	} else if errors.Is(err, model.ErrCommentNotFound) {
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "comment not found"
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// decodeJSON reads a bounded JSON body into dst. An empty body is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		message := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		writeError(w, apierror.New(apierror.CodeBadRequest, message, "", http.StatusBadRequest))
		return false
	}
	return true
}
