package handlers

import (
	"net/http"

	"github.com/braianruaimi/YAvoyOk-sub002/config"
	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"
	"github.com/braianruaimi/YAvoyOk-sub002/statemachine"

	"github.com/gin-gonic/gin"
)

// findOpenMerchant loads a merchant that is currently accepting orders.
func findOpenMerchant(c *gin.Context, id uint) (*models.Merchant, bool) {
	var merchant models.Merchant
	if err := config.DB.First(&merchant, id).Error; err != nil {
		middleware.Fail(c, http.StatusNotFound, "not_found", "Merchant not found")
		return nil, false
	}
	if !merchant.IsOpen {
		middleware.Fail(c, http.StatusUnprocessableEntity, "merchant_closed", "Merchant is not accepting orders")
		return nil, false
	}
	return &merchant, true
}

// listOrders is the shared list query: preloaded items, newest first.
func listOrders(c *gin.Context, query string, args ...interface{}) {
	var orders []models.Order
	q := config.DB.Preload("Items").Where(query, args...)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	q.Order("created_at desc").Find(&orders)

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"count":         len(orders),
		"order_summary": summary,
		"orders":        orders,
	})
}

// merchantFor loads the merchant profile owned by the caller.
func merchantFor(c *gin.Context, ownerID uint) (*models.Merchant, bool) {
	var merchant models.Merchant
	if err := config.DB.Where("owner_id = ?", ownerID).First(&merchant).Error; err != nil {
		middleware.Fail(c, http.StatusNotFound, "not_found", "No merchant profile for your account")
		return nil, false
	}
	return &merchant, true
}

type CreateMerchantRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category"`
	Address     string `json:"address" binding:"required"`
	City        string `json:"city" binding:"required"`
	Description string `json:"description"`
}

// CreateMerchant registers the caller's merchant profile (one per owner).
func (h *OrderHandler) CreateMerchant(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var existing models.Merchant
	if err := config.DB.Where("owner_id = ?", ownerID).First(&existing).Error; err == nil {
		middleware.Fail(c, http.StatusConflict, "merchant_exists", "You already have a merchant profile")
		return
	}

	var req CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	merchant := models.Merchant{
		OwnerID:     ownerID,
		Name:        req.Name,
		Category:    req.Category,
		Address:     req.Address,
		City:        req.City,
		Description: req.Description,
		IsOpen:      true,
	}
	if err := config.DB.Create(&merchant).Error; err != nil {
		middleware.Fail(c, http.StatusInternalServerError, "internal", "Failed to create merchant")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "merchant": merchant})
}

// GetMyMerchant returns the caller's merchant profile.
func (h *OrderHandler) GetMyMerchant(c *gin.Context) {
	merchant, ok := merchantFor(c, middleware.GetUserID(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "merchant": merchant})
}

// UpdateMerchant updates profile fields, including the open flag.
func (h *OrderHandler) UpdateMerchant(c *gin.Context) {
	merchant, ok := merchantFor(c, middleware.GetUserID(c))
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Category    *string `json:"category"`
		Address     *string `json:"address"`
		Description *string `json:"description"`
		IsOpen      *bool   `json:"is_open"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsOpen != nil {
		updates["is_open"] = *req.IsOpen
	}
	if len(updates) > 0 {
		config.DB.Model(merchant).Updates(updates)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "merchant": merchant})
}

// GetMerchantOrders lists orders for the caller's merchant.
func (h *OrderHandler) GetMerchantOrders(c *gin.Context) {
	merchant, ok := merchantFor(c, middleware.GetUserID(c))
	if !ok {
		return
	}
	listOrders(c, "merchant_id = ?", merchant.ID)
}

type AcceptOrderRequest struct {
	CourierID uint   `json:"courier_id" binding:"required"`
	Note      string `json:"note"`
}

// AcceptOrder moves pending -> accepted and assigns the courier in the
// same committed step.
func (h *OrderHandler) AcceptOrder(c *gin.Context) {
	p, _ := middleware.Principal(c)
	merchant, ok := merchantFor(c, p.ID)
	if !ok {
		return
	}
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req AcceptOrderRequest
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
	if order.MerchantID != merchant.ID {
		middleware.Fail(c, http.StatusForbidden, "forbidden", "Access denied")
		return
	}
	if err := statemachine.AssignCourier(order, courier.ID, p.Role); err != nil {
		middleware.Fail(c, http.StatusUnprocessableEntity, "invalid_transition", "Cannot assign courier in the current state")
		return
	}
	if !h.transition(c, order, models.StatusAccepted, p, req.Note) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"order_id":   order.ID,
		"status":     order.Status,
		"courier_id": courier.ID,
	})
}

// MerchantCancelOrder cancels any non-terminal order of the merchant.
func (h *OrderHandler) MerchantCancelOrder(c *gin.Context) {
	p, _ := middleware.Principal(c)
	merchant, ok := merchantFor(c, p.ID)
	if !ok {
		return
	}
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	unlock := h.Orders.Lock(id)
	defer unlock()

	order, ok := h.loadOrder(c, id)
	if !ok {
		return
	}
	if order.MerchantID != merchant.ID {
		middleware.Fail(c, http.StatusForbidden, "forbidden", "Access denied")
		return
	}
	if !h.transition(c, order, models.StatusCancelled, p, req.Note) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": order.ID, "status": order.Status})
}
