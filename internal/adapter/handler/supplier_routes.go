package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stockroom/internal/core/domain"
)

func (h *HTTPHandler) registerSupplierRoutes(g *gin.RouterGroup) {
	g.GET("", h.listSuppliers)
	g.POST("", h.createSupplier)
	g.GET("/:id", h.getSupplier)
	g.PUT("/:id", h.updateSupplier)
	g.DELETE("/:id", h.deleteSupplier)
	g.GET("/name/:name", h.getSupplierByName)
	g.GET("/active", h.activeSuppliers)
	g.GET("/status/:status", h.suppliersByStatus)
	g.GET("/search", h.searchSuppliers)
	g.PUT("/:id/activate", h.supplierStatusChange(h.suppliers.Activate))
	g.PUT("/:id/deactivate", h.supplierStatusChange(h.suppliers.Deactivate))
	g.PUT("/:id/suspend", h.supplierStatusChange(h.suppliers.Suspend))
	g.GET("/analytics/count-by-status", h.supplierCountByStatus)
	g.GET("/analytics/grouped-by-location", h.suppliersByLocation)
	g.GET("/names", h.supplierNames)
	g.GET("/reliable", h.reliableSuppliers)
	g.GET("/alerts", h.supplierAlerts)
}

func (h *HTTPHandler) listSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.List(c.Request.Context())
	h.respond(c, http.StatusOK, suppliers, err)
}

func (h *HTTPHandler) createSupplier(c *gin.Context) {
	var s domain.Supplier
	if !h.bindJSON(c, &s) {
		return
	}
	created, err := h.suppliers.Create(c.Request.Context(), s)
	h.respond(c, http.StatusCreated, created, err)
}

func (h *HTTPHandler) getSupplier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.suppliers.Get(c.Request.Context(), id)
	h.respond(c, http.StatusOK, s, err)
}

func (h *HTTPHandler) updateSupplier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var s domain.Supplier
	if !h.bindJSON(c, &s) {
		return
	}
	updated, err := h.suppliers.Update(c.Request.Context(), id, s)
	h.respond(c, http.StatusOK, updated, err)
}

func (h *HTTPHandler) deleteSupplier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) getSupplierByName(c *gin.Context) {
	s, err := h.suppliers.GetByName(c.Request.Context(), c.Param("name"))
	h.respond(c, http.StatusOK, s, err)
}

func (h *HTTPHandler) activeSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.Active(c.Request.Context())
	h.respond(c, http.StatusOK, suppliers, err)
}

func (h *HTTPHandler) suppliersByStatus(c *gin.Context) {
	status, err := domain.ParseSupplierStatus(c.Param("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	suppliers, err := h.suppliers.ByStatus(c.Request.Context(), status)
	h.respond(c, http.StatusOK, suppliers, err)
}

func (h *HTTPHandler) searchSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.Search(c.Request.Context(), c.Query("q"))
	h.respond(c, http.StatusOK, suppliers, err)
}

func (h *HTTPHandler) supplierStatusChange(change func(ctx context.Context, id int64) (*domain.Supplier, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		s, err := change(c.Request.Context(), id)
		h.respond(c, http.StatusOK, s, err)
	}
}

func (h *HTTPHandler) supplierCountByStatus(c *gin.Context) {
	counts, err := h.suppliers.CountByStatus(c.Request.Context())
	h.respond(c, http.StatusOK, counts, err)
}

func (h *HTTPHandler) suppliersByLocation(c *gin.Context) {
	groups, err := h.suppliers.GroupedByLocation(c.Request.Context())
	h.respond(c, http.StatusOK, groups, err)
}

func (h *HTTPHandler) supplierNames(c *gin.Context) {
	names, err := h.suppliers.Names(c.Request.Context())
	h.respond(c, http.StatusOK, names, err)
}

func (h *HTTPHandler) reliableSuppliers(c *gin.Context) {
	suppliers, err := h.suppliers.Reliable(c.Request.Context())
	h.respond(c, http.StatusOK, suppliers, err)
}

func (h *HTTPHandler) supplierAlerts(c *gin.Context) {
	alerts, err := h.suppliers.Alerts(c.Request.Context())
	h.respond(c, http.StatusOK, alerts, err)
}
