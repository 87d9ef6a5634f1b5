package middleware

import (
	"errors"
	"net/http"
	"strings"

	"storagify/file-api/internal/apperr"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps request bodies at maxBytes. Requests that announce a
// bigger body are rejected right away, others fail once they read past it.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for legit requests
		if c.Request.ContentLength > maxBytes {
			response.Fail(c, http.StatusRequestEntityTooLarge, apperr.ValidationError, "Request body size exceeds limit")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the body limit
func IsBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}

	// multipart doesn't always wrap the reader error
	return strings.Contains(err.Error(), "http: request body too large")
}
