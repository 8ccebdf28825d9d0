package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"esign/internal/fingerprint"
	"esign/internal/http/middleware"
	"esign/internal/reconcile"
	"esign/internal/repository"
	"esign/internal/service"
	"esign/internal/signer"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceErrors maps service sentinels to responses, first match wins.
var serviceErrors = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{service.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT", "invalid input"},
	{reconcile.ErrEmptyClaim, fiber.StatusBadRequest, "EMPTY_CLAIM", "an id, a file or a token is required"},
	{fingerprint.ErrExtraction, fiber.StatusUnprocessableEntity, "EXTRACTION_FAILED", "document content could not be extracted"},
	{repository.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "signature record not found"},
	{signer.ErrKeyUnavailable, fiber.StatusServiceUnavailable, "KEY_UNAVAILABLE", "signing key is not available"},
	{service.ErrArchiveDisabled, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "document archive is not configured"},
	{service.ErrStorage, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage unavailable"},
}

// writeServiceError translates a service error into the error envelope.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, e := range serviceErrors {
		if errors.Is(err, e.target) {
			return writeError(c, e.status, e.code, e.message)
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
