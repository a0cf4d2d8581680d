package plugins

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/linht/rfe-manager/rtw8822b"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SendSuccess sends a successful response
func SendSuccess(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error response
func SendError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// SendErrorMessage sends an error response with a custom message
func SendErrorMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// SendRadioError sends a radio failure with the status of its error class
func SendRadioError(c *fiber.Ctx, err error) error {
	return SendError(c, statusFor(err), err)
}

// statusFor maps a radio error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, rtw8822b.ErrConfigIntegrity),
		errors.Is(err, rtw8822b.ErrUnrecognizedFormat),
		errors.Is(err, rtw8822b.ErrShortBuffer),
		errors.Is(err, rtw8822b.ErrUnsupportedInterface):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, rtw8822b.ErrHandshakeTimeout):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}
