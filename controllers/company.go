package controllers

import (
	"net/http"

	"TenantHub/services"

	util "github.com/KanapuramVaishnavi/Core/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Signup is the public provisioning route.
func Signup(router gin.IRouter, h *Handler) {
	router.POST("/company/create", h.ProvisionCompany)
}

func Company(router gin.IRouter, h *Handler) {
	company := router.Group("/company")
	{
		company.GET("/fetch/:tenantId", h.authorize("company", "view"), h.FetchCompany)
		company.PUT("/rename/:tenantId", h.authorize("company", "update"), h.RenameCompany)
		company.DELETE("/delete/:tenantId", h.authorize("company", "delete"), h.DeleteCompany)
		company.POST("/sweep/:tenantId", h.authorize("document", "delete"), h.SweepCompany)
	}
}

/*
* Bind the profile
* Pass to the provisioning saga
* A rolled back attempt still answers with the original failure
 */
func (h *Handler) ProvisionCompany(c *gin.Context) {
	var fields services.ProfileFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	bundle, err := h.Provisioner.Provision(c.Request.Context(), fields)
	if err != nil {
		var perr *services.ProvisionError
		if errors.As(err, &perr) {
			c.Header("X-Rollback-Attempted", "true")
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, util.SuccessResponse(bundle))
}

func (h *Handler) FetchCompany(c *gin.Context) {
	company, err := h.Companies.FetchCompany(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, company)
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) RenameCompany(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	company, err := h.Companies.RenameCompany(c.Request.Context(), c.Param("tenantId"), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, company)
}

/*
* Tear down the company with every dependent record and its storage
* The result lists what was removed along with any warnings
 */
func (h *Handler) DeleteCompany(c *gin.Context) {
	res, err := h.Teardown.Teardown(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, res)
}

func (h *Handler) SweepCompany(c *gin.Context) {
	report, err := h.Documents.Sweep(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, report)
}
