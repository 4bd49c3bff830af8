package utils

import "github.com/gofiber/fiber/v2"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// Fail sends an error body with a machine-readable code.
func Fail(c *fiber.Ctx, status int, code, message string) error {
	return Respond(c, status, ErrorBody{Error: message, Code: code})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, ErrorBody{Error: message})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, ErrorBody{Error: message})
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, ErrorBody{Error: message})
}

func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, ErrorBody{Error: message})
}
