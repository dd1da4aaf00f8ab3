// Package utils provides utility functions for the nfai marketplace service.
package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Common error types for reuse. Only read their Code; build new errors with NewError.
var (
	ErrBadRequest          = NewError(fiber.StatusBadRequest, "Invalid request")
	ErrUnauthorized        = NewError(fiber.StatusUnauthorized, "Unauthorized")
	ErrForbidden           = NewError(fiber.StatusForbidden, "Forbidden")
	ErrNotFound            = NewError(fiber.StatusNotFound, "Resource not found")
	ErrConflict            = NewError(fiber.StatusConflict, "Conflict")
	ErrInternalServerError = NewError(fiber.StatusInternalServerError, "Internal server error")
)

// CustomError represents a structured error for the web app.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewError creates a new Error with a status code, message, and optional details.
func NewError(code int, message string, details ...string) *CustomError {
	e := &CustomError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// Error implements the error interface.
func (e *CustomError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// WithCause attaches underlying details to a copy of the error.
func (e *CustomError) WithCause(err error) *CustomError {
	c := *e
	if err != nil {
		c.Details = err.Error()
	}
	return &c
}

// HandleError sends a standardized error response using GoFiber.
// It doubles as the fiber.Config ErrorHandler.
func HandleError(c *fiber.Ctx, err error) error {
	var appErr *CustomError

	if As(err, &appErr) {
		details := appErr.Details
		if appErr.Code >= 500 {
			details = ""
		}
		return c.Status(appErr.Code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": details,
			},
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    fe.Code,
				"message": fe.Message,
			},
		})
	}

	// Fallback for unhandled errors
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusInternalServerError,
			"message": "Something went wrong",
		},
	})
}

// WrapError wraps an existing error with a custom status and message.
func WrapError(err error, code int, message string) *CustomError {
	if err == nil {
		return NewError(code, message)
	}
	return NewError(code, message, err.Error())
}

// As unwraps err into a *CustomError target.
func As(err error, target **CustomError) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target)
}

// StatusOf reports the HTTP status carried by err, 500 when it carries none.
func StatusOf(err error) int {
	var appErr *CustomError
	if As(err, &appErr) {
		return appErr.Code
	}
	return fiber.StatusInternalServerError
}

// IsStatus reports whether err is a CustomError with the given code.
func IsStatus(err error, code int) bool {
	var appErr *CustomError
	return As(err, &appErr) && appErr.Code == code
}
