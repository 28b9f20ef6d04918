package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, simplecms.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, simplecms.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, simplecms.ErrContentNotFound),
		errors.Is(err, simplecms.ErrRevisionNotFound),
		errors.Is(err, simplecms.ErrTypeNotFound),
		errors.Is(err, simplecms.ErrUserNotFound),
		errors.Is(err, simplecms.ErrApplicationNotFound),
		errors.Is(err, simplecms.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, simplecms.ErrDuplicate),
		errors.Is(err, simplecms.ErrAlreadyApproved),
		errors.Is(err, simplecms.ErrConflict),
		errors.Is(err, simplecms.ErrNotPublishable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	writeMessage(w, r, status, msg)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
