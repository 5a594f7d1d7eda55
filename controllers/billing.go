package controllers

import (
	"net/http"

	"TenantHub/services"

	util "github.com/KanapuramVaishnavi/Core/util"

	"github.com/gin-gonic/gin"
)

func Billing(router gin.IRouter, h *Handler) {
	billing := router.Group("/billing")
	{
		billing.GET("/fetch/:tenantId", h.authorize("invoice", "view"), h.FetchBilling)
		billing.POST("/invoice/:tenantId", h.authorize("invoice", "create"), h.AddInvoice)
		billing.POST("/payment/:tenantId/:invoiceCode", h.authorize("invoice", "update"), h.RecordPayment)
	}
}

func (h *Handler) FetchBilling(c *gin.Context) {
	billing, err := h.Billing.FetchBilling(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, billing)
}

func (h *Handler) AddInvoice(c *gin.Context) {
	var in services.InvoiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	inv, err := h.Billing.AddInvoice(c.Request.Context(), c.Param("tenantId"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, util.SuccessResponse(inv))
}

type paymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.FailedResponse(err))
		return
	}
	inv, err := h.Billing.RecordPayment(c.Request.Context(), c.Param("tenantId"), c.Param("invoiceCode"), req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, inv)
}
