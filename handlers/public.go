package handlers

import (
	"net/http"

	"github.com/braianruaimi/YAvoyOk-sub002/config"
	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"
	"github.com/braianruaimi/YAvoyOk-sub002/statemachine"

	"github.com/gin-gonic/gin"
)

// ListMerchants returns open merchants, optionally filtered by city.
func ListMerchants(c *gin.Context) {
	var merchants []models.Merchant
	query := config.DB.Where("is_open = ?", true)
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	query.Find(&merchants)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(merchants), "merchants": merchants})
}

// GetMerchant returns one merchant's public profile.
func GetMerchant(c *gin.Context) {
	var merchant models.Merchant
	if err := config.DB.First(&merchant, c.Param("id")).Error; err != nil {
		middleware.Fail(c, http.StatusNotFound, "not_found", "Merchant not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "merchant": merchant})
}

// GetStateMachineInfo documents the order state machine
func GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	out := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, gin.H{
			"from":  t.From,
			"to":    t.To,
			"actor": t.Actor,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"states":      []models.OrderStatus{models.StatusPending, models.StatusAccepted, models.StatusEnRoute, models.StatusDelivered, models.StatusCancelled},
		"terminal":    []models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		"transitions": out,
	})
}
