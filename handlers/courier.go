package handlers

import (
	"net/http"

	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"github.com/gin-gonic/gin"
)

// GetMyDeliveries lists orders assigned to the logged-in courier.
func (h *OrderHandler) GetMyDeliveries(c *gin.Context) {
	listOrders(c, "courier_id = ?", middleware.GetUserID(c))
}

// StartDelivery moves accepted -> en_route. The state machine rejects
// anyone but the assigned courier.
func (h *OrderHandler) StartDelivery(c *gin.Context) {
	h.courierTransition(c, models.StatusEnRoute, "Courier en route")
}

// CompleteDelivery moves en_route -> delivered.
func (h *OrderHandler) CompleteDelivery(c *gin.Context) {
	h.courierTransition(c, models.StatusDelivered, "Order delivered")
}

func (h *OrderHandler) courierTransition(c *gin.Context, to models.OrderStatus, note string) {
	p, _ := middleware.Principal(c)
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	unlock := h.Orders.Lock(id)
	defer unlock()

	order, ok := h.loadOrder(c, id)
	if !ok {
		return
	}
	if !h.transition(c, order, to, p, note) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": order.ID, "status": order.Status})
}
