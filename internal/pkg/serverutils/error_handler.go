package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"money-coach-be/pkg/coach"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error from the coaching engine to an HTTP status.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErrs):
		return fiber.StatusBadRequest
	case errors.Is(err, coach.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, coach.ErrStateConflict):
		return fiber.StatusConflict
	case errors.Is(err, coach.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, coach.ErrNoBriefing):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", e.Field(), e.Tag()))
	}
	return strings.Join(parts, "; ")
}

// ErrorHandlerMiddleware renders handler errors as ErrorResponse bodies.
// Internal errors are not echoed to the client.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		message := err.Error()
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			message = validationMessage(validationErrs)
		}
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
