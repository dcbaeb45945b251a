// Package response holds the JSON envelope every endpoint answers with.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the {success, message, data} wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// Empty is rendered as {} in failure envelopes.
type Empty struct{}

// OK writes a successful envelope with the given status code.
func OK(c echo.Context, code int, message string, data interface{}) error {
	if data == nil {
		data = Empty{}
	}
	return c.JSON(code, Envelope{Success: true, Message: message, Data: data})
}

// Created is OK with 201.
func Created(c echo.Context, message string, data interface{}) error {
	return OK(c, http.StatusCreated, message, data)
}

// Fail builds a failure envelope. detail is only set by callers in
// development mode.
func Fail(message, detail string) Envelope {
	return Envelope{Success: false, Message: message, Data: Empty{}, Error: detail}
}
