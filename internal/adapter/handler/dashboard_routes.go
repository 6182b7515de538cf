package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stockroom/internal/core/service"
)

func (h *HTTPHandler) registerDashboardRoutes(g *gin.RouterGroup) {
	g.GET("/summary", func(c *gin.Context) {
		v, err := h.dashboard.Summary(c.Request.Context())
		h.respond(c, http.StatusOK, v, err)
	})
	g.GET("/alerts", func(c *gin.Context) {
		v, err := h.dashboard.Alerts(c.Request.Context())
		h.respond(c, http.StatusOK, v, err)
	})
	g.GET("/analytics", func(c *gin.Context) {
		v, err := h.dashboard.Analytics(c.Request.Context())
		h.respond(c, http.StatusOK, v, err)
	})
	g.GET("/trends", func(c *gin.Context) {
		days, ok := h.queryInt(c, "days", service.DefaultTrendDays, false)
		if !ok {
			return
		}
		v, err := h.dashboard.Trends(c.Request.Context(), days)
		h.respond(c, http.StatusOK, v, err)
	})
	g.GET("/quick-stats", func(c *gin.Context) {
		v, err := h.dashboard.QuickStats(c.Request.Context())
		h.respond(c, http.StatusOK, v, err)
	})
	g.GET("/performance", func(c *gin.Context) {
		v, err := h.dashboard.Performance(c.Request.Context())
		h.respond(c, http.StatusOK, v, err)
	})
}
