package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/auth"
	"github.com/braianruaimi/YAvoyOk-sub002/metrics"
	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"
	"github.com/braianruaimi/YAvoyOk-sub002/notify"
	"github.com/braianruaimi/YAvoyOk-sub002/realtime"
	"github.com/braianruaimi/YAvoyOk-sub002/statemachine"
	"github.com/braianruaimi/YAvoyOk-sub002/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// OrderHandler owns the order pipeline: load, validate the transition,
// commit, then fan out to rooms and the notifier.
type OrderHandler struct {
	Orders   *store.Orders
	Hub      *realtime.Hub
	Notifier notify.Notifier
	Log      zerolog.Logger
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", "Invalid order id")
		return 0, false
	}
	return uint(id), true
}

// loadOrder fetches under the assumption that role authorization already
// ran; ownership is still the caller's check.
func (h *OrderHandler) loadOrder(c *gin.Context, id uint) (*models.Order, bool) {
	order, err := h.Orders.Load(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.Fail(c, http.StatusNotFound, "not_found", "Order not found")
		return nil, false
	}
	if err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to load order")
		return nil, false
	}
	return order, true
}

// transition runs the serialized apply-and-save cycle and, on success,
// broadcasts to the order and city rooms and pings the notifier.
// Returns false with the response already written on any failure.
func (h *OrderHandler) transition(c *gin.Context, order *models.Order, to models.OrderStatus, p auth.Principal, note string) bool {
	from := order.Status
	if err := statemachine.Apply(order, to, p.Role, p.ID, time.Now()); err != nil {
		switch {
		case errors.Is(err, statemachine.ErrUnauthorized):
			middleware.Fail(c, http.StatusForbidden, "forbidden", "Access denied")
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success":           false,
				"error":             "Invalid state transition",
				"code":              "invalid_transition",
				"current_status":    from,
				"requested":         to,
				"valid_next_states": statemachine.ValidTransitionsFrom(from),
			})
		}
		return false
	}

	if !h.commitTransition(c, order, from, p.ID, note) {
		return false
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(to)).Inc()
	h.fanout(order, from)
	if err := h.Notifier.OrderChanged(context.WithoutCancel(c.Request.Context()), order, from); err != nil {
		h.Log.Warn().Err(err).Uint("order_id", order.ID).Msg("notifier failed")
	}
	return true
}

// commitTransition writes the transition and maps store failures: a
// stale write is the caller's race to resolve (409), everything else a
// 500. No partial mutation either way.
func (h *OrderHandler) commitTransition(c *gin.Context, order *models.Order, from models.OrderStatus, changedBy uint, note string) bool {
	if err := h.Orders.SaveTransition(c.Request.Context(), order, from, changedBy, note); err != nil {
		if errors.Is(err, store.ErrStaleWrite) {
			middleware.Fail(c, http.StatusConflict, "conflict", "Order was modified concurrently, reload and retry")
			return false
		}
		h.Log.Error().Err(err).Uint("order_id", order.ID).Msg("transition save failed")
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to update order")
		return false
	}
	return true
}

func (h *OrderHandler) fanout(order *models.Order, from models.OrderStatus) {
	ev := realtime.Event{
		Type: "order_status",
		Payload: gin.H{
			"order_id": order.ID,
			"from":     from,
			"to":       order.Status,
		},
	}
	h.Hub.Broadcast(realtime.OrderRoom(order.ID), ev)
	metrics.BroadcastsTotal.Inc()
	if order.City != "" {
		h.Hub.Broadcast(realtime.CityRoom(order.City), ev)
		metrics.BroadcastsTotal.Inc()
	}
}

type PlaceOrderRequest struct {
	MerchantID      uint   `json:"merchant_id" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Notes           string `json:"notes"`
	Items           []struct {
		Name     string  `json:"name" binding:"required"`
		Quantity int     `json:"quantity" binding:"required,min=1"`
		Price    float64 `json:"price" binding:"required,min=0"`
	} `json:"items" binding:"required,min=1"`
}

// PlaceOrder creates a pending order for the authenticated client.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	p, _ := middleware.Principal(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	merchant, ok := findOpenMerchant(c, req.MerchantID)
	if !ok {
		return
	}

	order := models.Order{
		ClientID:        p.ID,
		MerchantID:      merchant.ID,
		Status:          models.StatusPending,
		DeliveryAddress: req.DeliveryAddress,
		City:            merchant.City,
		Notes:           req.Notes,
	}
	for _, it := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
		order.Total += it.Price * float64(it.Quantity)
	}

	if err := h.Orders.Create(c.Request.Context(), &order); err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to create order")
		return
	}

	h.Hub.Broadcast(realtime.CityRoom(order.City), realtime.Event{
		Type:    "order_placed",
		Payload: gin.H{"order_id": order.ID, "merchant_id": order.MerchantID},
	})
	metrics.BroadcastsTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// GetMyOrders lists the client's own orders, newest first.
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	listOrders(c, "client_id = ?", middleware.GetUserID(c))
}

// GetOrderDetail returns one order. Ownership failures look exactly like
// any other denial.
func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	p, _ := middleware.Principal(c)
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	order, ok := h.loadOrder(c, id)
	if !ok {
		return
	}
	if err := auth.AuthorizeOwnership(p, order.ClientID); err != nil {
		middleware.Fail(c, http.StatusForbidden, "forbidden", "Access denied")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// CancelOrder lets a client cancel their own order while it is pending.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
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
	if err := auth.AuthorizeOwnership(p, order.ClientID); err != nil {
		middleware.Fail(c, http.StatusForbidden, "forbidden", "Access denied")
		return
	}
	if !h.transition(c, order, models.StatusCancelled, p, "Cancelled by client") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": order.ID, "status": order.Status})
}
