package handlers

import (
	"net/http"

	"github.com/braianruaimi/YAvoyOk-sub002/config"
	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"
	"github.com/braianruaimi/YAvoyOk-sub002/statemachine"

	"github.com/gin-gonic/gin"
)

// AdminGetAllOrders returns all orders with full detail
func (h *OrderHandler) AdminGetAllOrders(c *gin.Context) {
	var orders []models.Order
	query := config.DB.Preload("Items").Preload("Client").Preload("Merchant").
		Preload("Courier").Preload("StatusHistory")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if merchantID := c.Query("merchant_id"); merchantID != "" {
		query = query.Where("merchant_id = ?", merchantID)
	}
	query.Order("created_at desc").Find(&orders)

	summary := map[string]int{}
	var totalRevenue float64
	for _, o := range orders {
		summary[string(o.Status)]++
		if o.Status == models.StatusDelivered {
			totalRevenue += o.Total
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"order_summary": summary,
		"total_revenue": totalRevenue,
		"count":         len(orders),
		"orders":        orders,
	})
}

// AdminGetAllUsers returns all users, optionally filtered by role
func (h *OrderHandler) AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}

// AdminCancelOrder cancels any non-terminal order.
func (h *OrderHandler) AdminCancelOrder(c *gin.Context) {
	p, _ := middleware.Principal(c)
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	unlock := h.Orders.Lock(id)
	defer unlock()

	order, ok := h.loadOrder(c, id)
	if !ok {
		return
	}
	if !h.transition(c, order, models.StatusCancelled, p, "[admin] "+req.Reason) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": order.ID, "status": order.Status})
}

type ReassignCourierRequest struct {
	CourierID uint `json:"courier_id" binding:"required"`
}

// AdminReassignCourier swaps the courier on an active order. Terminal
// orders are rejected by the state machine rules.
func (h *OrderHandler) AdminReassignCourier(c *gin.Context) {
	p, _ := middleware.Principal(c)
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req ReassignCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var courier models.User
	if err := config.DB.Where("id = ? AND role = ?", req.CourierID, models.RoleCourier).First(&courier).Error; err != nil {
		middleware.Fail(c, http.StatusUnprocessableEntity, "invalid_courier", "Courier not found")
		return
	}

	unlock := h.Orders.Lock(id)
	defer unlock()

	order, ok := h.loadOrder(c, id)
	if !ok {
		return
	}
	prev := order.Status
	if err := statemachine.AssignCourier(order, courier.ID, p.Role); err != nil {
		middleware.Fail(c, http.StatusUnprocessableEntity, "invalid_transition", "Cannot reassign courier on this order")
		return
	}
	if !h.commitTransition(c, order, prev, p.ID, "[admin] courier reassigned") {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"order_id":   order.ID,
		"courier_id": courier.ID,
	})
}
