package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/service"
	"procurement-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// CustomerService is the customer API backend
type CustomerService interface {
	CreateCustomer(ctx context.Context, req *service.CreateCustomerRequest) (*service.CustomerResponse, error)
	GetCustomer(ctx context.Context, id int64) (*service.CustomerResponse, error)
	ListCustomers(ctx context.Context, skip, limit int) ([]*service.CustomerResponse, error)
	UpdateCustomer(ctx context.Context, id int64, req *service.UpdateCustomerRequest) (*service.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

// OrderService is the order API backend
type OrderService interface {
	GetOrder(ctx context.Context, orderID int64) (*service.OrderResponse, error)
	ListOrders(ctx context.Context, customerID *int64, skip, limit int) ([]*service.OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, req *service.UpdateOrderStatusRequest) (*service.OrderResponse, error)
}

// ProcurementService is the procurement API backend
type ProcurementService interface {
	CreateProcurement(ctx context.Context, req *service.CreateProcurementRequest) (*service.ProcurementResponse, error)
	PlanProcurement(ctx context.Context, req *service.CreateProcurementRequest) (*models.ProcurementPlan, error)
}

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	customers   CustomerService
	orders      OrderService
	procurement ProcurementService
	checks      map[string]ReadinessCheck
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(customers CustomerService, orders OrderService, procurement ProcurementService) *Handler {
	return &Handler{
		customers:   customers,
		orders:      orders,
		procurement: procurement,
		checks:      map[string]ReadinessCheck{},
		logger:      util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency checked by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers", h.listCustomers)
		v1.GET("/customers/:id", h.getCustomer)
		v1.PUT("/customers/:id", h.updateCustomer)
		v1.DELETE("/customers/:id", h.deleteCustomer)

		v1.POST("/procurement", h.createProcurement)
		v1.POST("/procurement/plan", h.planProcurement)

		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PATCH("/orders/:id/status", h.updateOrderStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "procurement-service",
		"time":    time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) createCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.customers.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to create customer")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) listCustomers(c *gin.Context) {
	skip, limit, ok := pagination(c)
	if !ok {
		return
	}

	resp, err := h.customers.ListCustomers(c.Request.Context(), skip, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list customers")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c, "Invalid customer ID")
	if !ok {
		return
	}

	resp, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to get customer")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c, "Invalid customer ID")
	if !ok {
		return
	}

	var req service.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.customers.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		h.writeError(c, err, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "Invalid customer ID")
	if !ok {
		return
	}

	if err := h.customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "Failed to delete customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// createProcurement accepts a procurement request; processing happens in the worker
func (h *Handler) createProcurement(c *gin.Context) {
	var req service.CreateProcurementRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.procurement.CreateProcurement(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to create procurement")
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *Handler) planProcurement(c *gin.Context) {
	var req service.CreateProcurementRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.procurement.PlanProcurement(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "Failed to plan procurement")
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *Handler) listOrders(c *gin.Context) {
	skip, limit, ok := pagination(c)
	if !ok {
		return
	}

	var customerID *int64
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
			return
		}
		customerID = &id
	}

	resp, err := h.orders.ListOrders(c.Request.Context(), customerID, skip, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "Invalid order ID")
	if !ok {
		return
	}

	resp, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "Invalid order ID")
	if !ok {
		return
	}

	var req service.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.writeError(c, err, "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeError maps service errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": err.Error()})
	default:
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "details": err.Error()})
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func pathID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return 0, false
	}
	return id, true
}

// pagination reads skip and limit; limit defaults to 100 and may not exceed 1000
func pagination(c *gin.Context) (int, int, bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid skip"})
		return 0, 0, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, 0, false
	}
	return skip, limit, true
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
