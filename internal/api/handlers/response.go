package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssds/seat-allocation/internal/config"
	"github.com/ssds/seat-allocation/pkg/core/allocator"
	"github.com/ssds/seat-allocation/pkg/db"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// badRequestError marks a request that could not be parsed
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &badRequestError{msg: msg}
}

// statusFor maps an error to its HTTP status.
// Configuration and input problems are the caller's fault; anything else is ours.
func statusFor(err error) int {
	var reqErr *badRequestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, allocator.ErrConfiguration),
		errors.Is(err, allocator.ErrInvalidInput),
		errors.Is(err, config.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes an error response, hiding internal error details from the client
func Error(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, ErrorResponse{Status: StatusError, Message: msg})
}
