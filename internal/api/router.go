package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusmerch/pkg/apperror"
	"campusmerch/pkg/logger"
)

func NewRouter(h *CheckoutHandler, verifier TokenVerifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger(), apperror.ErrorMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("/")
	authed.Use(AuthMiddleware(verifier))
	authed.GET("/cart/:id/quote", h.Quote)
	authed.POST("/cart/:id/checkout", h.Submit)
	authed.POST("/checkout", h.SubmitAll)

	return r
}
