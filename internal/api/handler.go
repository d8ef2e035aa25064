package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/upstream"
	"storefront/internal/util"
)

type CatalogBrowser interface {
	Browse(ctx context.Context, q catalog.CatalogQuery) (catalog.PageWindow, error)
	Product(ctx context.Context, productID string) (*catalog.Product, error)
}

type CartManager interface {
	GetCart(ctx context.Context, p service.Principal) (*service.CartView, error)
	AddItem(ctx context.Context, p service.Principal, productID string, quantity int) (*service.CartView, error)
	UpdateQuantity(ctx context.Context, p service.Principal, productID string, quantity int) (*service.CartView, error)
	RemoveItem(ctx context.Context, p service.Principal, productID string) (*service.CartView, error)
	Count(ctx context.Context, p service.Principal) (int, error)
}

type CheckoutManager interface {
	Checkout(ctx context.Context, p service.Principal) (*service.CheckoutResult, error)
	Complete(ctx context.Context, p service.Principal, sessionID string) (*models.Settlement, error)
	Settlements(ctx context.Context, p service.Principal) ([]models.Settlement, error)
	Settlement(ctx context.Context, p service.Principal, settlementID string) (*service.SettlementDetail, error)
}

type OrderHistory interface {
	History(ctx context.Context, p service.Principal) ([]upstream.Order, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	catalog  CatalogBrowser
	cart     CartManager
	checkout CheckoutManager
	orders   OrderHistory
	auth     *Authenticator
	ready    map[string]Pinger
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogBrowser CatalogBrowser,
	cartManager CartManager,
	checkoutManager CheckoutManager,
	orders OrderHistory,
	auth *Authenticator,
	ready map[string]Pinger,
) *Handler {
	return &Handler{
		catalog:  catalogBrowser,
		cart:     cartManager,
		checkout: checkoutManager,
		orders:   orders,
		auth:     auth,
		ready:    ready,
		logger:   util.GetLogger(),
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type completeRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(customRecovery(h.logger))
	router.Use(prometheusMiddleware())
	router.Use(loggingMiddleware(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
	}

	shopper := v1.Group("", h.auth.Require())
	{
		shopper.GET("/cart", h.getCart)
		shopper.GET("/cart/count", h.cartCount)
		shopper.POST("/cart/items", h.addItem)
		shopper.PUT("/cart/items/:productId", h.updateItem)
		shopper.DELETE("/cart/items/:productId", h.removeItem)

		shopper.POST("/checkout", h.startCheckout)
		shopper.POST("/checkout/complete", h.completeCheckout)
		shopper.GET("/settlements", h.listSettlements)
		shopper.GET("/settlements/:id", h.getSettlement)

		shopper.GET("/orders", h.orderHistory)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency and reports the failing ones
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := gin.H{}
	for name, dep := range h.ready {
		if err := dep.Ping(ctx); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"failing": failing,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listProducts handles the paged, searchable product listing
func (h *Handler) listProducts(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid page",
				"details": fmt.Sprintf("page[%s] is not a number", raw),
			})
			return
		}
		page = n
	}

	window, err := h.catalog.Browse(c.Request.Context(), catalog.CatalogQuery{
		SearchTerm:  c.Query("search"),
		CurrentPage: page,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, window)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":  product,
		"in_stock": product.InStock(),
	})
}

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.cart.GetCart(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) cartCount(c *gin.Context) {
	count, err := h.cart.Count(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.cart.AddItem(c.Request.Context(), principal(c), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.cart.UpdateQuantity(c.Request.Context(), principal(c), c.Param("productId"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeItem(c *gin.Context) {
	view, err := h.cart.RemoveItem(c.Request.Context(), principal(c), c.Param("productId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// startCheckout opens a gateway session for the available cart lines
func (h *Handler) startCheckout(c *gin.Context) {
	result, err := h.checkout.Checkout(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// completeCheckout places the order after the shopper returns from payment
func (h *Handler) completeCheckout(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	settlement, err := h.checkout.Complete(c.Request.Context(), principal(c), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settlement)
}

func (h *Handler) listSettlements(c *gin.Context) {
	settlements, err := h.checkout.Settlements(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": settlements})
}

func (h *Handler) getSettlement(c *gin.Context) {
	detail, err := h.checkout.Settlement(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) orderHistory(c *gin.Context) {
	orders, err := h.orders.History(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
