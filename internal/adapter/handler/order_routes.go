package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

type orderItemRequest struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

func (r orderItemRequest) input() service.ItemInput {
	return service.ItemInput{ProductID: r.ProductID, Quantity: r.Quantity, UnitPrice: r.UnitPrice}
}

type orderRequest struct {
	Type                 domain.OrderType   `json:"type"`
	SupplierID           *int64             `json:"supplierId"`
	ExpectedDeliveryDate *time.Time         `json:"expectedDeliveryDate"`
	Items                []orderItemRequest `json:"orderItems"`
}

func (r orderRequest) inputs() []service.ItemInput {
	if r.Items == nil {
		return nil
	}
	out := make([]service.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.input())
	}
	return out
}

func (h *HTTPHandler) registerOrderRoutes(g *gin.RouterGroup) {
	g.GET("", h.listOrders)
	g.POST("", h.createOrder)
	g.GET("/:id", h.getOrder)
	g.PUT("/:id", h.updateOrder)
	g.DELETE("/:id", h.deleteOrder)
	g.POST("/:id/items", h.addOrderItem)
	g.DELETE("/:id/items/:itemId", h.removeOrderItem)
	g.GET("/number/:number", h.getOrderByNumber)
	g.GET("/status/:status", h.ordersByStatus)
	g.GET("/type/:type", h.ordersByType)
	g.GET("/pending", h.orderQuery(h.orders.Pending))
	g.GET("/delayed", h.orderQuery(h.orders.Delayed))
	g.GET("/recent", h.orderQuery(h.orders.Recent))
	g.GET("/search", h.searchOrders)
	g.PUT("/:id/process", h.orderTransition(h.orders.Process))
	g.PUT("/:id/ship", h.orderTransition(h.orders.Ship))
	g.PUT("/:id/deliver", h.orderTransition(h.orders.Deliver))
	g.PUT("/:id/cancel", h.orderTransition(h.orders.Cancel))
	g.GET("/analytics/revenue", h.orderRevenue)
	g.GET("/analytics/count-by-status", h.orderCountByStatus)
	g.GET("/analytics/count-by-type", h.orderCountByType)
	g.GET("/analytics/grouped-by-supplier", h.ordersBySupplier)
	g.GET("/alerts", h.orderAlerts)
}

func (h *HTTPHandler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	h.respond(c, http.StatusOK, orders, err)
}

func (h *HTTPHandler) createOrder(c *gin.Context) {
	var req orderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	o, err := h.orders.Create(c.Request.Context(), service.CreateOrderCommand{
		Type:                 req.Type,
		SupplierID:           req.SupplierID,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Items:                req.inputs(),
		IdempotencyKey:       c.GetHeader(idempotencyHeader),
	})
	h.respond(c, http.StatusCreated, o, err)
}

func (h *HTTPHandler) getOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	h.respond(c, http.StatusOK, o, err)
}

func (h *HTTPHandler) updateOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req orderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	o, err := h.orders.Update(c.Request.Context(), id, service.UpdateOrderCommand{
		SupplierID:           req.SupplierID,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Items:                req.inputs(),
	})
	h.respond(c, http.StatusOK, o, err)
}

func (h *HTTPHandler) deleteOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) addOrderItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req orderItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	o, err := h.orders.AddItem(c.Request.Context(), id, req.input())
	h.respond(c, http.StatusOK, o, err)
}

func (h *HTTPHandler) removeOrderItem(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}
	o, err := h.orders.RemoveItem(c.Request.Context(), id, itemID)
	h.respond(c, http.StatusOK, o, err)
}

func (h *HTTPHandler) getOrderByNumber(c *gin.Context) {
	o, err := h.orders.GetByNumber(c.Request.Context(), c.Param("number"))
	h.respond(c, http.StatusOK, o, err)
}

func (h *HTTPHandler) ordersByStatus(c *gin.Context) {
	status, err := domain.ParseOrderStatus(c.Param("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	orders, err := h.orders.ByStatus(c.Request.Context(), status)
	h.respond(c, http.StatusOK, orders, err)
}

func (h *HTTPHandler) ordersByType(c *gin.Context) {
	t, err := domain.ParseOrderType(c.Param("type"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	orders, err := h.orders.ByType(c.Request.Context(), t)
	h.respond(c, http.StatusOK, orders, err)
}

func (h *HTTPHandler) orderQuery(query func(ctx context.Context) ([]domain.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := query(c.Request.Context())
		h.respond(c, http.StatusOK, orders, err)
	}
}

func (h *HTTPHandler) searchOrders(c *gin.Context) {
	orders, err := h.orders.Search(c.Request.Context(), c.Query("q"))
	h.respond(c, http.StatusOK, orders, err)
}

func (h *HTTPHandler) orderTransition(apply func(ctx context.Context, id int64) (*domain.Order, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		o, err := apply(c.Request.Context(), id)
		h.respond(c, http.StatusOK, o, err)
	}
}

func (h *HTTPHandler) orderRevenue(c *gin.Context) {
	start, ok := h.queryTime(c, "startDate")
	if !ok {
		return
	}
	end, ok := h.queryTime(c, "endDate")
	if !ok {
		return
	}
	revenue, err := h.orders.Revenue(c.Request.Context(), start, end)
	h.respond(c, http.StatusOK, gin.H{
		"startDate": start,
		"endDate":   end,
		"revenue":   revenue,
	}, err)
}

func (h *HTTPHandler) queryTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		h.writeError(c, domain.InvalidArgumentf("Query parameter %s is required", name))
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.writeError(c, domain.InvalidArgumentf("Query parameter %s must be an RFC3339 timestamp", name))
		return time.Time{}, false
	}
	return t, true
}

func (h *HTTPHandler) orderCountByStatus(c *gin.Context) {
	counts, err := h.orders.CountByStatus(c.Request.Context())
	h.respond(c, http.StatusOK, counts, err)
}

func (h *HTTPHandler) orderCountByType(c *gin.Context) {
	counts, err := h.orders.CountByType(c.Request.Context())
	h.respond(c, http.StatusOK, counts, err)
}

func (h *HTTPHandler) ordersBySupplier(c *gin.Context) {
	groups, err := h.orders.GroupedBySupplier(c.Request.Context())
	h.respond(c, http.StatusOK, groups, err)
}

func (h *HTTPHandler) orderAlerts(c *gin.Context) {
	alerts, err := h.orders.Alerts(c.Request.Context())
	h.respond(c, http.StatusOK, alerts, err)
}
