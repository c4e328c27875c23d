package serverutils

import (
	"errors"

	"clarity-cbt-be/pkg/foundry"
	"clarity-cbt-be/pkg/oracle"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps domain errors to HTTP statuses:
//
//	unknown thread            -> 404
//	invalid state transition  -> 409
//	malformed model output    -> 422
//	model backend unreachable -> 502
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, foundry.ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, foundry.ErrInvalidTransition):
		code = fiber.StatusConflict
	case errors.Is(err, oracle.ErrSchemaViolation):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, oracle.ErrUnavailable):
		code = fiber.StatusBadGateway
	}

	return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
}
