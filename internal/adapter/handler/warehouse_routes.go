package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stockroom/internal/core/domain"
)

func (h *HTTPHandler) registerWarehouseRoutes(g *gin.RouterGroup) {
	g.GET("", h.listWarehouses)
	g.POST("", h.createWarehouse)
	g.GET("/:id", h.getWarehouse)
	g.PUT("/:id", h.updateWarehouse)
	g.DELETE("/:id", h.deleteWarehouse)
	g.GET("/name/:name", h.getWarehouseByName)
	g.GET("/search", h.searchWarehouses)
	g.GET("/search-by-location", h.searchWarehousesByLocation)
	g.GET("/low-stock", h.warehousesWithLowStock)
	g.GET("/names", h.warehouseNames)
	g.GET("/:id/utilization", h.warehouseUtilization)
	g.GET("/analytics/inventory-value", h.warehouseInventoryValue)
	g.GET("/analytics/product-count", h.warehouseProductCount)
	g.GET("/analytics/grouped-by-location", h.warehousesByLocation)
	g.GET("/analytics/total-products", h.warehouseTotalProducts)
	g.GET("/summary", h.warehouseSummary)
	g.GET("/alerts", h.warehouseAlerts)
}

func (h *HTTPHandler) listWarehouses(c *gin.Context) {
	warehouses, err := h.warehouses.List(c.Request.Context())
	h.respond(c, http.StatusOK, warehouses, err)
}

func (h *HTTPHandler) createWarehouse(c *gin.Context) {
	var w domain.Warehouse
	if !h.bindJSON(c, &w) {
		return
	}
	created, err := h.warehouses.Create(c.Request.Context(), w)
	h.respond(c, http.StatusCreated, created, err)
}

func (h *HTTPHandler) getWarehouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	w, err := h.warehouses.Get(c.Request.Context(), id)
	h.respond(c, http.StatusOK, w, err)
}

func (h *HTTPHandler) updateWarehouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var w domain.Warehouse
	if !h.bindJSON(c, &w) {
		return
	}
	updated, err := h.warehouses.Update(c.Request.Context(), id, w)
	h.respond(c, http.StatusOK, updated, err)
}

func (h *HTTPHandler) deleteWarehouse(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.warehouses.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) getWarehouseByName(c *gin.Context) {
	w, err := h.warehouses.GetByName(c.Request.Context(), c.Param("name"))
	h.respond(c, http.StatusOK, w, err)
}

func (h *HTTPHandler) searchWarehouses(c *gin.Context) {
	warehouses, err := h.warehouses.Search(c.Request.Context(), c.Query("q"))
	h.respond(c, http.StatusOK, warehouses, err)
}

func (h *HTTPHandler) searchWarehousesByLocation(c *gin.Context) {
	warehouses, err := h.warehouses.SearchByLocation(c.Request.Context(), c.Query("location"))
	h.respond(c, http.StatusOK, warehouses, err)
}

func (h *HTTPHandler) warehousesWithLowStock(c *gin.Context) {
	warehouses, err := h.warehouses.WithLowStock(c.Request.Context())
	h.respond(c, http.StatusOK, warehouses, err)
}

func (h *HTTPHandler) warehouseNames(c *gin.Context) {
	names, err := h.warehouses.Names(c.Request.Context())
	h.respond(c, http.StatusOK, names, err)
}

func (h *HTTPHandler) warehouseUtilization(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.warehouses.Utilization(c.Request.Context(), id)
	h.respond(c, http.StatusOK, u, err)
}

func (h *HTTPHandler) warehouseInventoryValue(c *gin.Context) {
	values, err := h.warehouses.InventoryValue(c.Request.Context())
	h.respond(c, http.StatusOK, values, err)
}

func (h *HTTPHandler) warehouseProductCount(c *gin.Context) {
	counts, err := h.warehouses.ProductCount(c.Request.Context())
	h.respond(c, http.StatusOK, counts, err)
}

func (h *HTTPHandler) warehousesByLocation(c *gin.Context) {
	groups, err := h.warehouses.GroupedByLocation(c.Request.Context())
	h.respond(c, http.StatusOK, groups, err)
}

func (h *HTTPHandler) warehouseTotalProducts(c *gin.Context) {
	total, err := h.warehouses.TotalProducts(c.Request.Context())
	h.respond(c, http.StatusOK, gin.H{"totalProducts": total}, err)
}

func (h *HTTPHandler) warehouseSummary(c *gin.Context) {
	summary, err := h.warehouses.Summary(c.Request.Context())
	h.respond(c, http.StatusOK, summary, err)
}

func (h *HTTPHandler) warehouseAlerts(c *gin.Context) {
	alerts, err := h.warehouses.Alerts(c.Request.Context())
	h.respond(c, http.StatusOK, alerts, err)
}
