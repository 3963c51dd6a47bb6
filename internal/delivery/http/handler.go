package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RavenLB/E-commerce/internal/metrics"
	"github.com/RavenLB/E-commerce/internal/ratelimit"
	"github.com/RavenLB/E-commerce/internal/service"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the handlers call into.
type Services struct {
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
}

// Handler handles HTTP requests for the application.
type Handler struct {
	auth     *service.AuthService
	catalog  *service.CatalogService
	cart     *service.CartService
	checkout *service.CheckoutService
	orders   *service.OrderService

	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	health  Pinger
}

func NewHandler(svc Services, limiter ratelimit.Limiter, m *metrics.Metrics, health Pinger) *Handler {
	return &Handler{
		auth:     svc.Auth,
		catalog:  svc.Catalog,
		cart:     svc.Cart,
		checkout: svc.Checkout,
		orders:   svc.Orders,
		limiter:  limiter,
		metrics:  m,
		health:   health,
	}
}

// Router returns an engine with the middleware chain and every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), h.observe(), EnableCORS())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.handleHealth)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	authRoutes := r.Group("/auth", h.rateLimit())
	{
		authRoutes.POST("/register", h.handleRegister)
		authRoutes.POST("/login", h.handleLogin)
	}

	r.GET("/products", h.handleListProducts)
	r.GET("/products/:id", h.handleGetProduct)

	authorized := r.Group("/", h.requireAuth)
	{
		authorized.GET("/cart", h.handleGetCart)
		authorized.POST("/cart", h.handleAddToCart)
		authorized.PUT("/cart/:item_id", h.handleUpdateCartItem)
		authorized.DELETE("/cart/:item_id", h.handleRemoveCartItem)
		authorized.POST("/cart/checkout", h.handleCheckout)

		authorized.GET("/orders", h.handleListOrders)
		authorized.POST("/orders", h.handleCreateOrder)
		authorized.GET("/orders/:id", h.handleGetOrder)
		authorized.POST("/orders/:id/cancel", h.handleCancelOrder)
	}

	admin := authorized.Group("/", requireAdmin)
	{
		admin.POST("/products", h.handleCreateProduct)
		admin.PUT("/products/:id", h.handleUpdateProduct)
		admin.DELETE("/products/:id", h.handleDeleteProduct)

		admin.GET("/admin/orders", h.handleListAllOrders)
		admin.PUT("/admin/orders/:id/status", h.handleUpdateOrderStatus)
		admin.POST("/admin/products", h.handleCreateProduct)
		admin.PUT("/admin/products/:id", h.handleUpdateProduct)
		admin.DELETE("/admin/products/:id", h.handleDeleteProduct)
		admin.PUT("/admin/products/:id/stock", h.handleSetStock)
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
