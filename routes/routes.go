package routes

import (
	"net/http"

	"TenantHub/controllers"
	"TenantHub/logger"

	authorization "github.com/KanapuramVaishnavi/Core/config/authorization"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	// Gatherer backs /metrics; nil skips the route.
	Gatherer prometheus.Gatherer
	// Auth guards the private routes; nil uses the JWT check.
	Auth gin.HandlerFunc
}

func Routes(r *gin.Engine, h *controllers.Handler, opts Options) {
	r.Use(logger.Middleware())

	//public
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	controllers.Signup(r, h)
	controllers.Roles(r)

	//private
	auth := opts.Auth
	if auth == nil {
		auth = authorization.JWTAuth()
	}
	private := r.Group("/", auth)
	controllers.Company(private, h)
	controllers.Employees(private, h)
	controllers.Projects(private, h)
	controllers.Billing(private, h)
	controllers.Chat(private, h)
}
