package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/firewatch/internal/adapters/graphhopper"
	"github.com/samirrijal/firewatch/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, no_result, upstream_error, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// statusFor maps a domain error to its HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInput):
		return fiber.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrEmptyResult):
		return fiber.StatusNotFound, "no_result"
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusBadGateway, "upstream_error"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// errDomain writes err as an APIError. Unclassified errors are logged and
// their text is not exposed to the client.
func errDomain(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	if status == fiber.StatusInternalServerError {
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		msg := "internal server error"
		if errors.Is(err, graphhopper.ErrNoKey) {
			msg = "routing provider is not configured"
		}
		return errInternal(c, msg)
	}
	return newError(c, status, code, err.Error())
}

// ErrorHandler renders errors returned by handlers and middleware (for
// example fiber.ErrUpgradeRequired or a timeout) as APIError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "error"
		switch fe.Code {
		case fiber.StatusBadRequest:
			code = "bad_request"
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case fiber.StatusRequestTimeout:
			code = "timeout"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		case fiber.StatusServiceUnavailable:
			code = "unavailable"
		}
		return newError(c, fe.Code, code, fe.Message)
	}
	return errDomain(c, err)
}
