package user

import (
	"net/http"

	"storagify/file-api/internal"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		response.Error(c, bindError(err))
		return
	}

	session, err := d.Auth.Login(data.Email, data.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, "Logged in successfully", session)
}
