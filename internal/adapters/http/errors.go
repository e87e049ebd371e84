package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/zimroute/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	Field     string `json:"field,omitempty"`
	Details   string `json:"details,omitempty"` // only in debug mode
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(apiError(c, status, code, message))
}

func apiError(c *fiber.Ctx, status int, code, message string) APIError {
	reqID, _ := c.Locals("requestid").(string)
	return APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	}
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errTooManyRequests returns a 429 error.
func errTooManyRequests(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusTooManyRequests, "rate_limited", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "upstream_error", msg)
}

var kindStatus = map[domain.ErrorKind]struct {
	status int
	code   string
}{
	domain.KindValidation:  {fiber.StatusBadRequest, "bad_request"},
	domain.KindNotFound:    {fiber.StatusNotFound, "not_found"},
	domain.KindUpstream:    {fiber.StatusBadGateway, "upstream_error"},
	domain.KindRateLimited: {fiber.StatusTooManyRequests, "rate_limited"},
	domain.KindInternal:    {fiber.StatusInternalServerError, "internal_error"},
}

// respondError maps a core error to its status code. Causes are logged and
// only echoed to the caller in debug mode.
func respondError(c *fiber.Ctx, deps *Dependencies, err error) error {
	kind := domain.KindOf(err)
	m, ok := kindStatus[kind]
	if !ok {
		m = kindStatus[domain.KindInternal]
	}

	body := apiError(c, m.status, m.code, domain.MessageOf(err))
	var de *domain.Error
	if errors.As(err, &de) {
		body.Field = de.Field
	}
	if m.status >= fiber.StatusInternalServerError {
		LoggerFromCtx(c.UserContext()).Error("request failed",
			"path", c.Path(), "kind", string(kind), "error", err)
	}
	if deps != nil && deps.Debug {
		body.Details = err.Error()
	}
	return c.Status(m.status).JSON(body)
}

// ErrorHandler renders errors that escape handlers, including fiber's own.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "error"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case fiber.StatusRequestTimeout:
			code = "timeout"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		}
		return newError(c, fe.Code, code, fe.Message)
	}
	slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return errInternal(c, "internal error")
}
