package controllers

import (
	"net/http"

	"TenantHub/logger"
	"TenantHub/services"

	authorization "github.com/KanapuramVaishnavi/Core/config/authorization"
	util "github.com/KanapuramVaishnavi/Core/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxUploadBytes = 32 << 20

// Handler serves every route on top of the service layer.
type Handler struct {
	Provisioner *services.Provisioner
	Teardown    *services.TeardownCoordinator
	Documents   *services.DocumentManager
	Companies   *services.CompanyService
	Billing     *services.BillingService
	Chat        *services.ChatService

	MaxUploadBytes int64
	// Authorize builds the privilege check of a route; nil uses the JWT privileges.
	Authorize func(module, action string) gin.HandlerFunc
}

func NewHandler(d services.Deps, maxUploadBytes int64) *Handler {
	docs := services.NewDocumentManager(d)
	return &Handler{
		Provisioner:    services.NewProvisioner(d, docs),
		Teardown:       services.NewTeardownCoordinator(d),
		Documents:      docs,
		Companies:      services.NewCompanyService(d, docs),
		Billing:        services.NewBillingService(d),
		Chat:           services.NewChatService(d),
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) authorize(module, action string) gin.HandlerFunc {
	if h.Authorize != nil {
		return h.Authorize(module, action)
	}
	return authorization.Authorize(module, action)
}

func (h *Handler) maxUpload() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindPathConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail logs server side failures and answers with the mapped status.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c).Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, util.FailedResponse(err))
}

func succeed(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, util.SuccessResponse(data))
}
