package controllers

import (
	"net/http"

	"TenantHub/role"

	util "github.com/KanapuramVaishnavi/Core/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func Roles(router gin.IRouter) {
	router.GET("/roles/fetchAll", ReadRoles)
	router.GET("/roles/fetch/:role", FetchRole)
}

type roleView struct {
	Role       role.Role        `json:"role"`
	Privileges []role.Privilege `json:"privileges"`
}

/*
Here It reads all the roles a company user can hold
along with the privileges each one grants
*/
func ReadRoles(c *gin.Context) {
	roles := role.All()
	out := make([]roleView, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleView{Role: r, Privileges: r.Privileges()})
	}
	c.JSON(http.StatusOK, util.SuccessResponse(out))
}

func FetchRole(c *gin.Context) {
	r, err := role.Parse(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusNotFound, util.FailedResponse(errors.Wrap(err, "fetch role")))
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(roleView{Role: r, Privileges: r.Privileges()}))
}
