// Package respond writes the JSON envelope every API route answers with:
// {"success": bool, "message": string, ...payload}.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shailesh2302/CipherChat/internal/validate"
)

// Success writes a successful envelope merged with payload.
func Success(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail writes an unsuccessful envelope.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// Internal logs err and writes a 500 carrying only message.
func Internal(c *gin.Context, logger *slog.Logger, message string, err error) {
	logger.Error(message,
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
	)
	Fail(c, http.StatusInternalServerError, message)
}

// Invalid answers a request body that failed decoding or schema validation.
func Invalid(c *gin.Context, err error) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"errors":  verr.Problems,
		})
		return
	}
	Fail(c, http.StatusBadRequest, "Invalid request body")
}
