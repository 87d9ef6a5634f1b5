package user

import (
	"net/http"

	"storagify/file-api/internal"
	"storagify/file-api/internal/apperr"
	"storagify/file-api/pkg/middleware"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserProfile returns the logged in user without the password hash
func UserProfile(c *gin.Context, d *internal.Deps) {
	u, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		response.Error(c, apperr.New(apperr.AuthRequired, "Authorization required"))
		return
	}

	profile, err := d.Auth.Profile(u.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Profile fetched successfully", profile)
}
