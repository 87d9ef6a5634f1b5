// Package file contains the upload endpoints
package file

import (
	"errors"
	"net/http"

	"storagify/file-api/internal"
	"storagify/file-api/internal/apperr"
	"storagify/file-api/internal/model"
	"storagify/file-api/internal/service"
	"storagify/file-api/pkg/middleware"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// FileUpload handles uploads of every kind. The file is expected under the
// form field of the kind, tags may be repeated or comma separated.
func FileUpload(c *gin.Context, d *internal.Deps, kind model.FileKind) {
	u, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		response.Error(c, apperr.New(apperr.AuthRequired, "Authorization required"))
		return
	}

	field := kind.FieldName()

	fh, err := c.FormFile(field)
	if err != nil {
		switch {
		case middleware.IsBodyTooLarge(err):
			response.Fail(c, http.StatusRequestEntityTooLarge, apperr.ValidationError, "Request body size exceeds limit")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			response.Error(c, apperr.Wrap(apperr.ValidationError, "No file provided in the "+field+" field", err))
		default:
			response.Error(c, apperr.Wrap(apperr.ValidationError, "Invalid multipart form", err))
		}
		return
	}

	res, err := d.Uploads.Upload(c.Request.Context(), u, service.UploadInput{
		Kind: kind,
		File: fh,
		Tags: c.PostFormArray("tags"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "File uploaded successfully", res)
}
