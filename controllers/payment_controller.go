package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/middleware"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
)

// ApproveQuoteRequest represents the request body for approving a quote
type ApproveQuoteRequest struct {
	FinalQuote      float64 `json:"final_quote" binding:"required,gt=0"`
	ExpectedVersion *int    `json:"expected_version"`
}

// CompletePaymentRequest represents the request body for completing payment
type CompletePaymentRequest struct {
	Method         string  `json:"method" binding:"required"`
	IdempotencyKey string  `json:"idempotency_key" binding:"required"`
	VoucherCode    *string `json:"voucher_code"`
}

// ApproveQuote handles PATCH /api/v1/orders/:id/quote - staff sets the
// final quote and moves the order to PAYMENT_WAITING. Rejected with 409 if
// the order has already moved past quoting.
func ApproveQuote(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req ApproveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if order.Status != models.OrderStatusReceived && order.Status != models.OrderStatusQuotePending {
		errorResponse(c, http.StatusConflict, "STATUS_CONFLICT",
			"Quote can only be approved while the order is awaiting one (current status: "+order.Status+")")
		return
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != order.Version {
		errorResponse(c, http.StatusConflict, "VERSION_CONFLICT",
			"Order was modified by someone else. Refresh and try again.")
		return
	}

	quote := req.FinalQuote
	order.FinalQuote = &quote
	order.Status = models.OrderStatusPaymentWaiting
	order.Version++

	if err := db.Save(&order).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to approve quote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CompletePayment handles POST /api/v1/orders/:id/payment - completes
// payment on a PAYMENT_WAITING order and moves it to PRODUCTION.
// Idempotent: replaying the same idempotency key returns the stored record
// without a second transition or payment entry.
func CompletePayment(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if !models.IsValidPaymentMethod(req.Method) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR",
			"Unsupported payment method: "+req.Method)
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	// Customers may only pay for their own orders; staff can complete
	// payment manually on any order.
	if user.Role == middleware.RoleCustomer && order.CustomerID != user.ID {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return
	}

	// Idempotent replay: the key has been processed already
	var existing models.PaymentRecord
	if err := db.Where("idempotency_key = ?", req.IdempotencyKey).First(&existing).Error; err == nil {
		if existing.OrderID != order.ID {
			errorResponse(c, http.StatusConflict, "IDEMPOTENCY_CONFLICT",
				"Idempotency key was already used for a different order")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    existing,
		})
		return
	}

	if order.Status != models.OrderStatusPaymentWaiting {
		errorResponse(c, http.StatusConflict, "STATUS_CONFLICT",
			"Payment can only be completed while the order is awaiting payment (current status: "+order.Status+")")
		return
	}

	if order.FinalQuote == nil {
		errorResponse(c, http.StatusConflict, "STATUS_CONFLICT", "Order has no approved quote")
		return
	}

	amount := *order.FinalQuote

	// Resolve voucher before the transaction so validation errors don't
	// leave partial state
	var voucher *models.Voucher
	if req.VoucherCode != nil && *req.VoucherCode != "" {
		var v models.Voucher
		err := db.Where("code = ? AND customer_id = ?", *req.VoucherCode, order.CustomerID).First(&v).Error
		if err != nil {
			errorResponse(c, http.StatusNotFound, "VOUCHER_NOT_FOUND", "Voucher not found")
			return
		}
		if !v.Active || v.RedeemedAt != nil {
			errorResponse(c, http.StatusConflict, "VOUCHER_ALREADY_USED", "Voucher is not available for redemption")
			return
		}
		voucher = &v
		amount -= v.DiscountAmount
		if amount < 0 {
			amount = 0
		}
	}

	record := models.PaymentRecord{
		OrderID:        order.ID,
		Amount:         amount,
		Method:         req.Method,
		VoucherCode:    req.VoucherCode,
		IdempotencyKey: req.IdempotencyKey,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		order.Status = models.OrderStatusProduction
		order.PaymentStatus = models.PaymentStatusComplete
		order.Version++
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		// Kick off the first waiting production step
		var step models.TimelineStep
		err := tx.Where("order_id = ? AND status = ?", order.ID, models.StepStatusWaiting).
			Order("position ASC").First(&step).Error
		if err == nil {
			step.Status = models.StepStatusInProgress
			if err := tx.Save(&step).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if voucher != nil {
			now := time.Now()
			voucher.RedeemedAt = &now
			voucher.Active = false
			if err := tx.Save(voucher).Error; err != nil {
				return err
			}
		}

		return tx.Create(&record).Error
	})
	if err != nil {
		// A concurrent request with the same key won the race; return its
		// record instead of failing
		if isUniqueViolation(err) {
			if findErr := db.Where("idempotency_key = ?", req.IdempotencyKey).First(&existing).Error; findErr == nil {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"data":    existing,
				})
				return
			}
		}
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to complete payment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    record,
	})
}
