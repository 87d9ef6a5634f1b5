package user

import (
	"net/http"

	"storagify/file-api/internal"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Username string `json:"username" form:"username" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		response.Error(c, bindError(err))
		return
	}

	session, err := d.Auth.Register(data.Username, data.Email, data.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, "User registered successfully", session)
}
