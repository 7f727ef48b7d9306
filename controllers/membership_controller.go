package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
)

// GetMembership handles GET /api/v1/membership/me - returns the caller's
// tier, computed from the cumulative total of their completed payments, plus
// their vouchers.
func GetMembership(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()

	var result struct{ Total float64 }
	err := db.Model(&models.PaymentRecord{}).
		Select("COALESCE(SUM(payment_records.amount), 0) as total").
		Joins("JOIN orders ON orders.id = payment_records.order_id").
		Where("orders.customer_id = ?", user.ID).
		Scan(&result).Error
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute purchase total")
		return
	}

	tier := models.TierFor(result.Total)

	var vouchers []models.Voucher
	if err := db.Where("customer_id = ?", user.ID).Order("created_at ASC").Find(&vouchers).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load vouchers")
		return
	}

	data := gin.H{
		"tier":             tier,
		"cumulative_total": result.Total,
		"vouchers":         vouchers,
	}
	if next, remaining, ok := models.NextTier(result.Total); ok {
		data["next_tier"] = next
		data["amount_to_next_tier"] = remaining
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// ActivateVoucher handles POST /api/v1/membership/vouchers/:code/activate.
// Activation is one-way: a voucher that has ever been activated cannot be
// activated again.
func ActivateVoucher(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var voucher models.Voucher
	if err := db.Where("code = ? AND customer_id = ?", c.Param("code"), user.ID).First(&voucher).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "VOUCHER_NOT_FOUND", "Voucher not found")
		return
	}

	if voucher.ActivatedAt != nil {
		errorResponse(c, http.StatusConflict, "VOUCHER_ALREADY_USED", "Voucher has already been activated")
		return
	}

	now := time.Now()
	voucher.Active = true
	voucher.ActivatedAt = &now

	if err := db.Save(&voucher).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to activate voucher")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    voucher,
	})
}
