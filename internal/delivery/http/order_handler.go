package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RavenLB/E-commerce/internal/entity"
)

var errOrderNotFound = entity.NotFound("Order")

func (h *Handler) handleListOrders(c *gin.Context) {
	errs := entity.FieldErrors{}
	status := statusQuery(c, errs)
	if err := errs.Err(); err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), currentUser(c).ID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(orders))
}

func (h *Handler) handleCreateOrder(c *gin.Context) {
	var in entity.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) handleGetOrder(c *gin.Context) {
	id, ok := pathID(c, "id", errOrderNotFound)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) handleCancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id", errOrderNotFound)
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}

func (h *Handler) handleListAllOrders(c *gin.Context) {
	errs := entity.FieldErrors{}
	f := entity.OrderFilter{Status: statusQuery(c, errs)}
	if raw, ok := c.GetQuery("user_id"); ok && raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs.Add("user_id", "Not a valid integer.")
		}
		f.UserID = &userID
	}
	if err := errs.Err(); err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.orders.ListAllOrders(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(orders), "orders": nonNil(orders)})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id", errOrderNotFound)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "order": order})
}

func statusQuery(c *gin.Context, errs entity.FieldErrors) *entity.OrderStatus {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	status, ok := entity.ParseOrderStatus(raw)
	if !ok {
		errs.Add("status", "Must be one of: pending, paid, shipped, delivered, cancelled.")
		return nil
	}
	return &status
}

func nonNil(orders []entity.Order) []entity.Order {
	if orders == nil {
		return []entity.Order{}
	}
	return orders
}
