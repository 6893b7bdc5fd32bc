// Package handlers contains the gin handlers for the tracking API.
package handlers

import (
	stderr "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error to its HTTP status and writes the
// standard envelope.  Our own AppError messages are safe to surface; for
// anything else only the canonical message for the code goes out, so raw
// upstream or driver text never reaches the client.
func respondError(c *gin.Context, err error) {
	code := appErrors.GetCode(err)
	msg := appErrors.DefaultMessageForCode(code)
	var ae *appErrors.AppError
	if stderr.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	c.JSON(appErrors.HTTPStatusForCode(code), ErrorResponse{
		Code:    string(code),
		Message: msg,
	})
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
