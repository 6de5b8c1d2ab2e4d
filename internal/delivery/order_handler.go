package delivery

import (
	"net/http"

	"minihub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type CartAddRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type CartUpdateRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CartResponse struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type WishlistToggleResponse struct {
	Added    bool             `json:"added"`
	Wishlist []domain.Product `json:"wishlist"`
}

// CreateOrder is buy-now: one product, quantity defaulting to 1.
func (h *Handler) CreateOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("Handler: Failed to bind order request: %v", err)
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	order, err := h.market.BuyNow(c.Request.Context(), sess, req.ProductID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListUserOrders(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orders, err := h.market.Orders(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	items, total := h.market.Cart(sess)
	c.JSON(http.StatusOK, CartResponse{Items: items, Total: total})
}

func (h *Handler) AddToCart(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req CartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if _, err := h.market.AddToCart(c.Request.Context(), sess, req.ProductID); err != nil {
		respondError(c, err)
		return
	}
	items, total := h.market.Cart(sess)
	c.JSON(http.StatusCreated, CartResponse{Items: items, Total: total})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req CartUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.market.SetQuantity(c.Request.Context(), sess, c.Param("id"), *req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	items, total := h.market.Cart(sess)
	c.JSON(http.StatusOK, CartResponse{Items: items, Total: total})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.market.RemoveFromCart(c.Request.Context(), sess, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Checkout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	orders, err := h.market.Checkout(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orders)
}

func (h *Handler) GetWishlist(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.market.Wishlist(sess))
}

func (h *Handler) ToggleWishlist(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	added, err := h.market.ToggleWishlist(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, WishlistToggleResponse{Added: added, Wishlist: h.market.Wishlist(sess)})
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	analytics, err := h.market.SellerAnalytics(sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.market.Notifications(sess))
}

func (h *Handler) DismissNotification(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.market.DismissNotification(sess, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
