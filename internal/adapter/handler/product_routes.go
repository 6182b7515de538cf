package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stockroom/internal/core/domain"
)

const defaultTopExpensiveLimit = 10

func (h *HTTPHandler) registerProductRoutes(g *gin.RouterGroup) {
	g.GET("", h.listProducts)
	g.POST("", h.createProduct)
	g.GET("/:id", h.getProduct)
	g.PUT("/:id", h.updateProduct)
	g.DELETE("/:id", h.deleteProduct)
	g.GET("/sku/:sku", h.getProductBySKU)
	g.GET("/low-stock", h.lowStockProducts)
	g.GET("/category/:category", h.productsByCategory)
	g.GET("/search", h.searchProducts)
	g.PUT("/:id/stock", h.stockMutation(h.products.SetStock))
	g.PUT("/:id/reduce-stock", h.stockMutation(h.products.ReduceStock))
	g.PUT("/:id/increase-stock", h.stockMutation(h.products.IncreaseStock))
	g.GET("/analytics/inventory-value", h.inventoryValue)
	g.GET("/analytics/inventory-by-category", h.inventoryByCategory)
	g.GET("/analytics/count-by-category", h.productCountByCategory)
	g.GET("/categories", h.productCategories)
	g.GET("/alerts", h.productAlerts)
	g.GET("/top-expensive", h.topExpensive)
}

func (h *HTTPHandler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	h.respond(c, http.StatusOK, products, err)
}

func (h *HTTPHandler) createProduct(c *gin.Context) {
	var p domain.Product
	if !h.bindJSON(c, &p) {
		return
	}
	created, err := h.products.Create(c.Request.Context(), p)
	h.respond(c, http.StatusCreated, created, err)
}

func (h *HTTPHandler) getProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	h.respond(c, http.StatusOK, p, err)
}

func (h *HTTPHandler) updateProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var p domain.Product
	if !h.bindJSON(c, &p) {
		return
	}
	updated, err := h.products.Update(c.Request.Context(), id, p)
	h.respond(c, http.StatusOK, updated, err)
}

func (h *HTTPHandler) deleteProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) getProductBySKU(c *gin.Context) {
	p, err := h.products.GetBySKU(c.Request.Context(), c.Param("sku"))
	h.respond(c, http.StatusOK, p, err)
}

func (h *HTTPHandler) lowStockProducts(c *gin.Context) {
	products, err := h.products.LowStock(c.Request.Context())
	h.respond(c, http.StatusOK, products, err)
}

func (h *HTTPHandler) productsByCategory(c *gin.Context) {
	products, err := h.products.ByCategory(c.Request.Context(), c.Param("category"))
	h.respond(c, http.StatusOK, products, err)
}

func (h *HTTPHandler) searchProducts(c *gin.Context) {
	products, err := h.products.Search(c.Request.Context(), c.Query("q"))
	h.respond(c, http.StatusOK, products, err)
}

// stockMutation adapts the three stock operations, which share the
// ?quantity= contract.
func (h *HTTPHandler) stockMutation(mutate func(ctx context.Context, id int64, quantity int) (*domain.Product, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		quantity, ok := h.queryInt(c, "quantity", 0, true)
		if !ok {
			return
		}
		p, err := mutate(c.Request.Context(), id, quantity)
		h.respond(c, http.StatusOK, p, err)
	}
}

func (h *HTTPHandler) inventoryValue(c *gin.Context) {
	value, err := h.products.InventoryValue(c.Request.Context())
	h.respond(c, http.StatusOK, gin.H{"totalInventoryValue": value}, err)
}

func (h *HTTPHandler) inventoryByCategory(c *gin.Context) {
	values, err := h.products.InventoryValueByCategory(c.Request.Context())
	h.respond(c, http.StatusOK, values, err)
}

func (h *HTTPHandler) productCountByCategory(c *gin.Context) {
	counts, err := h.products.CountByCategory(c.Request.Context())
	h.respond(c, http.StatusOK, counts, err)
}

func (h *HTTPHandler) productCategories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	h.respond(c, http.StatusOK, categories, err)
}

func (h *HTTPHandler) productAlerts(c *gin.Context) {
	alerts, err := h.products.Alerts(c.Request.Context())
	h.respond(c, http.StatusOK, alerts, err)
}

func (h *HTTPHandler) topExpensive(c *gin.Context) {
	limit, ok := h.queryInt(c, "limit", defaultTopExpensiveLimit, false)
	if !ok {
		return
	}
	products, err := h.products.TopExpensive(c.Request.Context(), limit)
	h.respond(c, http.StatusOK, products, err)
}
