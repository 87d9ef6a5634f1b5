package file

import (
	"net/http"

	"storagify/file-api/internal"
	"storagify/file-api/internal/apperr"
	"storagify/file-api/pkg/middleware"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// FileDelete deletes a file owned by the user from storage and the database
func FileDelete(c *gin.Context, d *internal.Deps) {
	u, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		response.Error(c, apperr.New(apperr.AuthRequired, "Authorization required"))
		return
	}

	fileID := c.Param("id")

	if err := d.Uploads.Remove(c.Request.Context(), u, fileID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "File deleted successfully", gin.H{"id": fileID})
}
