// Package response writes the JSON envelope every endpoint answers with
package response

import (
	"storagify/file-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"requestID,omitempty"`
}

func OK(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{
		Success:   true,
		Message:   msg,
		Data:      data,
		RequestID: c.GetString("requestID"),
	})
}

// Error writes err as a failed envelope. Causes are only logged, clients get
// the message of the error kind.
func Error(c *gin.Context, err error) {
	e := apperr.As(err)
	requestID := c.GetString("requestID")

	status := e.Kind.Status()
	if status >= 500 {
		zap.L().Error(e.Message, zap.Error(err), zap.String("kind", string(e.Kind)), zap.String("requestID", requestID))
	} else if e.Err != nil {
		zap.L().Debug(e.Message, zap.Error(e.Err), zap.String("requestID", requestID))
	}

	c.JSON(status, Envelope{
		Success:   false,
		Message:   e.Message,
		Error:     string(e.Kind),
		RequestID: requestID,
	})
}

// Abort is Error for middleware, the rest of the chain is not run
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Fail writes a failed envelope for errors that don't come from a service
func Fail(c *gin.Context, status int, kind apperr.Kind, msg string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Message:   msg,
		Error:     string(kind),
		RequestID: c.GetString("requestID"),
	})
}
