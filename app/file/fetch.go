package file

import (
	"net/http"

	"storagify/file-api/internal"
	"storagify/file-api/internal/apperr"
	"storagify/file-api/pkg/middleware"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// FileList returns all files of the user, newest first
func FileList(c *gin.Context, d *internal.Deps) {
	u, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		response.Error(c, apperr.New(apperr.AuthRequired, "Authorization required"))
		return
	}

	files, err := d.Uploads.List(c.Request.Context(), u)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Files fetched successfully", gin.H{
		"files": files,
		"count": len(files),
	})
}

// FileFetch returns a file by it's ID if the user owns it
func FileFetch(c *gin.Context, d *internal.Deps) {
	u, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		response.Error(c, apperr.New(apperr.AuthRequired, "Authorization required"))
		return
	}

	f, err := d.Uploads.Get(c.Request.Context(), u, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "File fetched successfully", f)
}
