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
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
)

// CreateLotRequest represents the request body for lot intake
type CreateLotRequest struct {
	Category     string  `json:"category" binding:"required"`
	SubCategory  string  `json:"sub_category"`
	Name         string  `json:"name" binding:"required"`
	Stock        float64 `json:"stock" binding:"gte=0"`
	Unit         string  `json:"unit" binding:"required"`
	Threshold    float64 `json:"threshold" binding:"gte=0"`
	Ownership    string  `json:"ownership" binding:"required"`
	ArrivalDate  string  `json:"arrival_date"`
	UnitPrice    float64 `json:"unit_price" binding:"gte=0"`
	OperatorName string  `json:"operator_name" binding:"required"`
}

// AdjustLotRequest represents the request body for a manual stock adjustment
type AdjustLotRequest struct {
	Delta           float64 `json:"delta" binding:"required"`
	Reason          string  `json:"reason" binding:"required"`
	OperatorName    string  `json:"operator_name" binding:"required"`
	ExpectedVersion *int    `json:"expected_version"`
}

// OutboundRequest represents the request body for the material outbound flow
type OutboundRequest struct {
	Amount             float64 `json:"amount" binding:"required,gt=0"`
	DestinationOrderID uint    `json:"destination_order_id" binding:"required"`
	OperatorName       string  `json:"operator_name" binding:"required"`
}

// nextLotNumber generates a lot number in the form L{YY}{MM}-{seq}, with
// the sequence scoped to the receiving month. The sequence continues from
// the highest number on record; a concurrent intake that takes the same
// number fails on the unique index and is retried by the caller.
func nextLotNumber(db *gorm.DB) (string, error) {
	now := time.Now()
	prefix := fmt.Sprintf("L%02d%02d-", now.Year()%100, int(now.Month()))

	seq := 0
	var last models.InventoryItem
	err := db.Unscoped().Where("lot_number LIKE ?", prefix+"%").
		Order("lot_number DESC").First(&last).Error
	if err == nil {
		if n, convErr := strconv.Atoi(strings.TrimPrefix(last.LotNumber, prefix)); convErr == nil {
			seq = n
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	return fmt.Sprintf("%s%02d", prefix, seq+1), nil
}

// CreateLot handles POST /api/v1/inventory/lots - lot intake. Generates the
// lot number, derives the stock status, and writes the INITIAL_STOCK audit
// entry in the same transaction. CLIENT-owned lots are forced to a zero
// unit price.
func CreateLot(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if !models.IsValidInventoryCategory(req.Category) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown category: "+req.Category)
		return
	}
	if !models.IsValidOwnership(req.Ownership) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown ownership: "+req.Ownership)
		return
	}
	if strings.TrimSpace(req.OperatorName) == "" {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Operator name must not be empty")
		return
	}

	unitPrice := req.UnitPrice
	if req.Ownership == models.OwnershipClient {
		// Client-supplied material is not purchased by the brand
		unitPrice = 0
	}

	db := config.GetDB()
	var item models.InventoryItem
	var err error
	// Concurrent intakes can race to the same lot number; the loser fails
	// on the unique lot_number index and retries with a fresh one.
	for attempt := 0; attempt < 3; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			lotNumber, err := nextLotNumber(tx)
			if err != nil {
				return err
			}

			item = models.InventoryItem{
				LotNumber:   lotNumber,
				Category:    req.Category,
				SubCategory: req.SubCategory,
				Name:        req.Name,
				Stock:       req.Stock,
				Unit:        req.Unit,
				Threshold:   req.Threshold,
				Ownership:   req.Ownership,
				ArrivalDate: req.ArrivalDate,
				UnitPrice:   unitPrice,
			}
			item.RecomputeStatus()

			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			audit := models.InventoryAuditLog{
				ItemID:       item.ID,
				ChangeAmount: req.Stock,
				AfterStock:   item.Stock,
				Reason:       models.AuditReasonInitialStock,
				OperatorName: req.OperatorName,
			}
			return tx.Create(&audit).Error
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create lot")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// ListLots handles GET /api/v1/inventory/lots - lists lots with filters:
// ?category=, ?ownership=, ?status=, ?low_stock=true, ?q=
func ListLots(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Model(&models.InventoryItem{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if ownership := c.Query("ownership"); ownership != "" {
		query = query.Where("ownership = ?", ownership)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("low_stock") == "true" {
		query = query.Where("status IN ?", []string{models.StockStatusLow, models.StockStatusOut})
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("lot_number LIKE ? OR name LIKE ? OR sub_category LIKE ?", like, like, like)
	}

	var items []models.InventoryItem
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list lots")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// GetLot handles GET /api/v1/inventory/lots/:id
func GetLot(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var item models.InventoryItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "LOT_NOT_FOUND", "Inventory lot not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// ListLotAuditLogs handles GET /api/v1/inventory/lots/:id/logs - the
// append-only stock history of one lot, newest first
func ListLotAuditLogs(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var item models.InventoryItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "LOT_NOT_FOUND", "Inventory lot not found")
		return
	}

	var logs []models.InventoryAuditLog
	if err := db.Where("item_id = ?", item.ID).Order("created_at DESC").Find(&logs).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load audit logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

// AdjustLot handles PATCH /api/v1/inventory/lots/:id/adjust - applies a
// signed stock delta. The adjustment is rejected with 422 when it would
// drive stock negative or below the reserved quantity; accepted adjustments
// append an audit entry and recompute the derived status in one
// transaction.
func AdjustLot(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req AdjustLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if !models.IsValidAuditReason(req.Reason) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown adjustment reason: "+req.Reason)
		return
	}
	if strings.TrimSpace(req.OperatorName) == "" {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Operator name must not be empty")
		return
	}

	db := config.GetDB()
	var item models.InventoryItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "LOT_NOT_FOUND", "Inventory lot not found")
		return
	}

	if req.ExpectedVersion != nil && *req.ExpectedVersion != item.Version {
		errorResponse(c, http.StatusConflict, "VERSION_CONFLICT",
			"Lot was modified by someone else. Refresh and try again.")
		return
	}

	newStock := item.Stock + req.Delta
	if newStock < 0 || newStock < item.ReservedStock {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STOCK_INTEGRITY",
				"message": fmt.Sprintf("Adjustment would result in stock %.2f with %.2f reserved", newStock, item.ReservedStock),
			},
		})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		item.Stock = newStock
		item.RecomputeStatus()
		item.Version++
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		audit := models.InventoryAuditLog{
			ItemID:       item.ID,
			ChangeAmount: req.Delta,
			AfterStock:   item.Stock,
			Reason:       req.Reason,
			OperatorName: req.OperatorName,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to adjust lot")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// OutboundLot handles POST /api/v1/inventory/lots/:id/outbound - issues
// material from a lot to an order. The stock decrement, the audit entry and
// the material link on the destination order are one transaction: either
// all of it happens or none of it does.
func OutboundLot(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req OutboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if strings.TrimSpace(req.OperatorName) == "" {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Operator name must not be empty")
		return
	}

	db := config.GetDB()
	var item models.InventoryItem
	if err := db.First(&item, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "LOT_NOT_FOUND", "Inventory lot not found")
		return
	}

	var order models.Order
	if err := db.First(&order, req.DestinationOrderID).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Destination order not found")
		return
	}

	if item.Available() < req.Amount {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STOCK_INTEGRITY",
				"message": fmt.Sprintf("Outbound of %.2f exceeds available stock %.2f", req.Amount, item.Available()),
			},
		})
		return
	}

	var material models.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		item.Stock -= req.Amount
		item.RecomputeStatus()
		item.Version++
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		audit := models.InventoryAuditLog{
			ItemID:       item.ID,
			ChangeAmount: -req.Amount,
			AfterStock:   item.Stock,
			Reason:       models.AuditReasonOutbound,
			OrderID:      &order.ID,
			OperatorName: req.OperatorName,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return err
		}

		lotNumber := item.LotNumber
		material = models.Material{
			OrderID:         order.ID,
			Type:            materialTypeLabel(item.Category),
			Category:        item.Category,
			Spec:            fmt.Sprintf("%s %.2f%s", item.Name, req.Amount, item.Unit),
			Status:          models.MaterialStatusSecured,
			Source:          models.MaterialSourceWorkshop,
			LinkedLotNumber: &lotNumber,
		}
		if err := tx.Create(&material).Error; err != nil {
			return err
		}

		order.Version++
		return tx.Save(&order).Error
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to complete outbound")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"lot":      item,
			"material": material,
		},
	})
}

// materialTypeLabel maps a lot category to the legacy free-text material
// type shown in order views
func materialTypeLabel(category string) string {
	switch category {
	case models.InventoryCategoryMetal:
		return "금속"
	case models.InventoryCategoryStone:
		return "원석"
	default:
		return "기타"
	}
}
