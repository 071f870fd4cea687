package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"menu-planner/internal/app"
	"menu-planner/internal/planner"
)

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeRegenerationInFlight = "REGENERATION_IN_FLIGHT"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError pairs an error code with its HTTP status.
type APIError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newError(code, message string, status int, err error) *APIError {
	return &APIError{Code: code, Message: message, Status: status, Err: err}
}

func badRequest(err error) *APIError {
	return newError(ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest, err)
}

// mapError translates domain errors into API errors.
func mapError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, app.ErrRegenerationInFlight):
		return newError(ErrCodeRegenerationInFlight, "another regeneration is in progress", http.StatusConflict, err)
	case errors.Is(err, app.ErrNoMenu):
		return newError(ErrCodeNotFound, err.Error(), http.StatusNotFound, err)
	case errors.Is(err, planner.ErrInvalidDay),
		errors.Is(err, planner.ErrInvalidMealKind),
		errors.Is(err, planner.ErrInvalidComponent):
		return badRequest(err)
	default:
		return newError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, err)
	}
}

// respondError writes err and records it on the context for the logger.
func respondError(c *gin.Context, err error) {
	apiErr := mapError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.Status, ErrorResponse{Code: apiErr.Code, Message: apiErr.Message})
}
