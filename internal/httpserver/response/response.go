// Package response writes the uniform JSON envelope of the bag API:
// a data field on success and an error field on failure.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeBagFull            = "BAG_FULL"
	CodeEngineFailed       = "ENGINE_FAILED"
	CodeEngineParseFailed  = "ENGINE_PARSE_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Response is the envelope every API endpoint returns.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is the failure half of the envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success wraps data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail wraps an error.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	// headers are already sent, nothing useful to do on encode failure
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes a 201 with data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// Accepted writes a 202 with data.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, Success(data))
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(CodeNotFound, message, details))
}

// RateLimited writes a 429.
func RateLimited(w http.ResponseWriter, details string) {
	JSON(w, http.StatusTooManyRequests, Fail(CodeRateLimited, "Rate limit exceeded", details))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, details string) {
	JSON(w, http.StatusServiceUnavailable, Fail(CodeServiceUnavailable, "Service unavailable", details))
}

// InternalError writes a generic 500; the cause is logged by the caller, never sent.
func InternalError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, Fail(CodeInternal, "Internal server error", "An unexpected error occurred"))
}

// Status maps err onto an HTTP status, envelope code and user-facing message.
// Unknown errors map to a generic 500.
func Status(err error) (status int, code, message string) {
	var engineErr *domain.EngineError
	var parseErr *domain.ParseError

	switch {
	case errors.Is(err, domain.ErrNoIdentity):
		return http.StatusUnauthorized, CodeUnauthorized, "Sign in to manage your bag"
	case errors.Is(err, domain.ErrDiscNotFound):
		return http.StatusNotFound, CodeNotFound, "Disc not found"
	case errors.Is(err, domain.ErrNotInBag):
		return http.StatusNotFound, CodeNotFound, "Disc is not in your bag"
	case errors.Is(err, domain.ErrAlreadyInBag):
		return http.StatusConflict, CodeConflict, "Disc is already in your bag"
	case errors.Is(err, domain.ErrAnalysisInProgress):
		return http.StatusConflict, CodeConflict, "An analysis is already running"
	case errors.Is(err, domain.ErrBagFull):
		return http.StatusUnprocessableEntity, CodeBagFull, "Your bag is full"
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, CodeServiceUnavailable, "Recommendations are not available"
	case errors.As(err, &parseErr):
		return http.StatusBadGateway, CodeEngineParseFailed, "Could not read the recommendations"
	case errors.As(err, &engineErr):
		return http.StatusBadGateway, CodeEngineFailed, "Could not get recommendations"
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}

// FromError writes the envelope for err.
func FromError(w http.ResponseWriter, err error) {
	status, code, message := Status(err)
	details := ""
	if status == http.StatusInternalServerError {
		details = "An unexpected error occurred"
	}
	JSON(w, status, Fail(code, message, details))
}
