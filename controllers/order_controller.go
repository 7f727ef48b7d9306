package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/middleware"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
	"github.com/EmbargoMedia/ObligeWorks-sub000/services"
)

// MaterialInput is one requested material line on a new order
type MaterialInput struct {
	Type     string `json:"type" binding:"required"`
	Category string `json:"category" binding:"omitempty,oneof=METAL STONE OTHER"`
	Spec     string `json:"spec"`
	Source   string `json:"source" binding:"omitempty,oneof=WORKSHOP CLIENT"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	ItemName     string          `json:"item_name" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required,gt=0"`
	Options      string          `json:"options"`
	ECD          string          `json:"ecd"`
	IsExpress    bool            `json:"is_express"`
	WorkshopName string          `json:"workshop_name"`
	CustomerName string          `json:"customer_name"` // staff only: name the order is for
	Materials    []MaterialInput `json:"materials" binding:"omitempty,dive"`
}

// nextOrderNumber generates the next order number for the current year.
// Customer-initiated orders carry a C prefix on the sequence:
// JF-2024-001 vs JF-2024-C001. The sequence continues from the highest
// number on record; two concurrent creates can still pick the same number,
// which the unique index catches and the caller retries.
func nextOrderNumber(db *gorm.DB, customerInitiated bool) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("JF-%d-", year)
	if customerInitiated {
		prefix += "C"
	}

	query := db.Unscoped().Where("order_number LIKE ?", prefix+"%")
	if !customerInitiated {
		// Exclude C-numbered orders, which share the year prefix
		query = query.Where("order_number NOT LIKE ?", fmt.Sprintf("JF-%d-C%%", year))
	}

	seq := 0
	var last models.Order
	err := query.Order("order_number DESC").First(&last).Error
	if err == nil {
		if n, convErr := strconv.Atoi(strings.TrimPrefix(last.OrderNumber, prefix)); convErr == nil {
			seq = n
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

// CreateOrder handles POST /api/v1/orders - creates a new order.
// Customers create orders for themselves; staff may create on behalf of a
// named customer.
func CreateOrder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	customerInitiated := user.Role == middleware.RoleCustomer

	customerName := user.Name
	if !customerInitiated && req.CustomerName != "" {
		customerName = req.CustomerName
	}

	ecd := req.ECD
	if ecd == "" {
		ecd = models.ECDPendingConsultation
	}

	db := config.GetDB()

	var order models.Order
	var err error
	// Two concurrent creates can race to the same sequence number; the
	// loser fails on the unique order_number index and retries with a
	// fresh one.
	for attempt := 0; attempt < 3; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			orderNumber, err := nextOrderNumber(tx, customerInitiated)
			if err != nil {
				return err
			}

			materials := make([]models.Material, 0, len(req.Materials))
			for _, m := range req.Materials {
				category := m.Category
				if category == "" {
					category = models.InventoryCategoryOther
				}
				source := m.Source
				if source == "" {
					source = models.MaterialSourceWorkshop
				}
				status := models.MaterialStatusSecuring
				if source == models.MaterialSourceClient {
					// Client-supplied stones need appraisal before work starts
					status = models.MaterialStatusAppraisalNeeded
				}
				materials = append(materials, models.Material{
					Type:     m.Type,
					Category: category,
					Spec:     m.Spec,
					Source:   source,
					Status:   status,
				})
			}

			order = models.Order{
				OrderNumber:   orderNumber,
				CustomerID:    user.ID,
				CustomerName:  customerName,
				WorkshopName:  req.WorkshopName,
				ItemName:      req.ItemName,
				Status:        models.OrderStatusReceived,
				ECD:           ecd,
				Quantity:      req.Quantity,
				Options:       req.Options,
				PaymentStatus: models.PaymentStatusPending,
				IsExpress:     req.IsExpress,
				Materials:     materials,
				Timeline:      models.DefaultTimeline(),
			}

			return tx.Create(&order).Error
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order")
		return
	}

	// Load relationships to return complete data
	if err := db.Preload("Customer").Preload("Materials").Preload("Timeline").First(&order, order.ID).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load order details")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders visible to the caller.
// Customers see their own orders; staff see everything. Supports ?status=,
// ?delayed=true and ?q= (order number / item / customer substring).
func ListOrders(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Model(&models.Order{}).Preload("Materials").Preload("Timeline")

	if user.Role == middleware.RoleCustomer {
		query = query.Where("customer_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		if !models.IsValidOrderStatus(status) {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status: "+status)
			return
		}
		query = query.Where("status = ?", status)
	}

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("order_number LIKE ? OR item_name LIKE ? OR customer_name LIKE ?", like, like, like)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list orders")
		return
	}

	// ECD is free text ("상담 후 확정" until a date is agreed), so the
	// delayed filter is applied after the query on parseable dates only.
	if c.Query("delayed") == "true" {
		today := time.Now().Format("2006-01-02")
		delayed := orders[:0]
		for _, o := range orders {
			if o.Status == models.OrderStatusCompleted {
				continue
			}
			if _, err := time.Parse("2006-01-02", o.ECD); err != nil {
				continue
			}
			if strings.Compare(o.ECD, today) < 0 {
				delayed = append(delayed, o)
			}
		}
		orders = delayed
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - fetches one order with its
// materials, timeline, attachments and payment history
func GetOrder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("Customer").Preload("Materials").Preload("Timeline").
		Preload("Attachments").Preload("Payments").
		First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if user.Role == middleware.RoleCustomer && order.CustomerID != user.ID {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return
	}

	// Attach presigned URLs for photos
	if imageService := services.GetImageService(); imageService != nil {
		for i := range order.Attachments {
			if url, err := imageService.GetImageURL(order.Attachments[i].ImageS3Key); err == nil {
				order.Attachments[i].ImageURL = url
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatusRequest represents the staff-side status advance body
type UpdateOrderStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	ExpectedVersion *int   `json:"expected_version"`
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status - staff moves an
// order forward through the production lifecycle. The lifecycle is
// forward-only: a move to an earlier or equal stage is rejected with 409.
func UpdateOrderStatus(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if !models.IsValidOrderStatus(req.Status) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status: "+req.Status)
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != order.Version {
		errorResponse(c, http.StatusConflict, "VERSION_CONFLICT",
			"Order was modified by someone else. Refresh and try again.")
		return
	}

	if !models.OrderStatusAdvances(order.Status, req.Status) {
		errorResponse(c, http.StatusConflict, "STATUS_CONFLICT",
			"Order status "+order.Status+" cannot move to "+req.Status)
		return
	}

	order.Status = req.Status
	order.Version++

	if err := db.Save(&order).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderMaterialRequest represents the staff-side material update body
type UpdateOrderMaterialRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderMaterial handles PATCH /api/v1/orders/:id/materials/:materialId -
// staff updates the sourcing status of one material line, e.g. once the
// appraisal of a client-supplied stone completes.
func UpdateOrderMaterial(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req UpdateOrderMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if !models.IsValidMaterialStatus(req.Status) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown material status: "+req.Status)
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	var material models.Material
	if err := db.Where("order_id = ?", order.ID).
		First(&material, c.Param("materialId")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "MATERIAL_NOT_FOUND", "Material not found on this order")
		return
	}

	material.Status = req.Status
	if err := db.Save(&material).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update material")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    material,
	})
}
