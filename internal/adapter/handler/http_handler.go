package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
	"github.com/rl1809/stockroom/internal/metrics"
)

const internalErrorMessage = "An unexpected error occurred"

// Services groups the use cases exposed over HTTP.
type Services struct {
	Products   *service.ProductService
	Suppliers  *service.SupplierService
	Warehouses *service.WarehouseService
	Orders     *service.OrderService
	Dashboard  *service.DashboardService
	Auth       *service.AuthService
	Health     Pinger
}

type HTTPHandler struct {
	products   *service.ProductService
	suppliers  *service.SupplierService
	warehouses *service.WarehouseService
	orders     *service.OrderService
	dashboard  *service.DashboardService
	auth       *service.AuthService
	health     Pinger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// NewHTTPHandler wires the services to gin. gatherer backs /metrics and may
// be nil, in which case the endpoint is not registered.
func NewHTTPHandler(svc Services, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		products:   svc.Products,
		suppliers:  svc.Suppliers,
		warehouses: svc.Warehouses,
		orders:     svc.Orders,
		dashboard:  svc.Dashboard,
		auth:       svc.Auth,
		health:     svc.Health,
		metrics:    m,
		gatherer:   gatherer,
		logger:     logger,
	}
}

func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", idempotencyHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: false,
	}))

	r.GET("/health", h.HealthCheck)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)

	protected := api.Group("", h.requireAuth())
	protected.GET("/auth/me", h.Me)
	h.registerProductRoutes(protected.Group("/products"))
	h.registerSupplierRoutes(protected.Group("/suppliers"))
	h.registerWarehouseRoutes(protected.Group("/warehouses"))
	h.registerOrderRoutes(protected.Group("/orders"))
	h.registerDashboardRoutes(protected.Group("/dashboard"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	})
	return r
}

// HealthCheck pings the database when one is wired in.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument, domain.KindOutOfStock, domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the status taxonomy. Internal errors are logged
// and their message is never sent to the client.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind == domain.KindInternal {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}
	c.AbortWithStatusJSON(statusFor(de.Kind), gin.H{"error": de.Error()})
}

// bindJSON decodes the body. Enum decoders report their own InvalidArgument
// errors; anything else becomes a generic message.
func (h *HTTPHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if domain.KindOf(err) == domain.KindInvalidArgument {
			h.writeError(c, err)
		} else {
			h.writeError(c, domain.InvalidArgumentf("Invalid request body"))
		}
		return false
	}
	return true
}

func (h *HTTPHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, domain.InvalidArgumentf("Invalid %s: %s", name, c.Param(name)))
		return 0, false
	}
	return id, true
}

// queryInt reads a 32-bit integer query parameter, using def when it is
// absent.
func (h *HTTPHandler) queryInt(c *gin.Context, name string, def int, required bool) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		if required {
			h.writeError(c, domain.InvalidArgumentf("Query parameter %s is required", name))
			return 0, false
		}
		return def, true
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		h.writeError(c, domain.InvalidArgumentf("Query parameter %s is out of range", name))
		return 0, false
	}
	if err != nil {
		h.writeError(c, domain.InvalidArgumentf("Query parameter %s must be an integer", name))
		return 0, false
	}
	return int(n), true
}

// respond writes v with status, or the mapped error when err is set.
func (h *HTTPHandler) respond(c *gin.Context, status int, v any, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, v)
}
