package utils

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of operations that return only a confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// SendJSON writes data as JSON with the provided status code.
func SendJSON(c *fiber.Ctx, status int, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(data)
}

// SendMessage writes a {"message": ...} body.
func SendMessage(c *fiber.Ctx, status int, message string) error {
	return SendJSON(c, status, MessageResponse{Message: message})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}
