package root

import (
	"net/http"

	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// Index greets clients and lists the endpoint groups. The response is
// cached so it carries no request ID.
func Index(app string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Envelope{
			Success: true,
			Message: "Welcome to " + app,
			Data: gin.H{
				"version": Version,
				"endpoints": gin.H{
					"auth":    "/api/auth",
					"upload":  "/api/upload",
					"metrics": "/metrics",
				},
			},
		})
	}
}
