package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bookstore-orders/internal/service"
	"bookstore-orders/internal/store"
	"bookstore-orders/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const userNameHeader = "X-User-Name"

// OrderService is the application surface the HTTP layer depends on
type OrderService interface {
	CreateOrder(ctx context.Context, userName string, req *service.CreateOrderRequest) (*service.CreateOrderResponse, error)
	GetOrder(ctx context.Context, orderNumber string) (*service.OrderDetails, error)
}

// Handler contains HTTP handlers
type Handler struct {
	orderService OrderService
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService OrderService) *Handler {
	return &Handler{
		orderService: orderService,
		logger:       util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/orders", h.createOrder)
		api.GET("/orders/:orderNumber", h.getOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	userName := c.GetHeader(userNameHeader)
	if userName == "" {
		userName = "guest"
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), userName, &req)
	if err != nil {
		var invalidErr *service.InvalidOrderError
		var publishErr *service.PublishError

		switch {
		case errors.As(err, &invalidErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": invalidErr.Reason})
		case errors.As(err, &publishErr):
			// Order is persisted; notification is deferred to a later
			// publish of the same lifecycle. Accept the order.
			h.logger.Warn("Order accepted but event publish failed",
				zap.String("order_number", publishErr.OrderNumber),
				zap.Error(err))
			c.JSON(http.StatusCreated, resp)
		case errors.Is(err, service.ErrStoreConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Order number conflict, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles get order by order number
func (h *Handler) getOrder(c *gin.Context) {
	orderNumber := c.Param("orderNumber")

	details, err := h.orderService.GetOrder(c.Request.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}

	c.JSON(http.StatusOK, details)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
