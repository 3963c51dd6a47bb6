package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RavenLB/E-commerce/internal/entity"
)

var errCartItemNotFound = entity.NotFound("Cart item")

func (h *Handler) handleGetCart(c *gin.Context) {
	cart, err := h.cart.GetCart(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// handleAddToCart answers 201 for a new row and 200 when an existing row was
// increased.
func (h *Handler) handleAddToCart(c *gin.Context) {
	var in entity.CartItemInput
	if !bindJSON(c, &in) {
		return
	}

	item, created, err := h.cart.AddItem(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, item)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "item_id", errCartItemNotFound)
	if !ok {
		return
	}
	var req quantityRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.cart.UpdateItem(c.Request.Context(), currentUser(c).ID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) handleRemoveCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "item_id", errCartItemNotFound)
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(c.Request.Context(), currentUser(c).ID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *Handler) handleCheckout(c *gin.Context) {
	res, err := h.checkout.Checkout(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"order":   res.Order,
		"payment": res.Payment,
	})
}
