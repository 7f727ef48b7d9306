package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
)

// createTestLot inserts a lot with its status derived from the quantities
func createTestLot(t *testing.T, db *gorm.DB, lotNumber string, stock, reserved, threshold float64) models.InventoryItem {
	t.Helper()

	item := models.InventoryItem{
		LotNumber:     lotNumber,
		Category:      models.InventoryCategoryMetal,
		SubCategory:   "18K Yellow Gold",
		Name:          "18K 옐로우골드",
		Stock:         stock,
		ReservedStock: reserved,
		Unit:          "g",
		Threshold:     threshold,
		Ownership:     models.OwnershipBrand,
		UnitPrice:     105000,
		Version:       1,
	}
	item.RecomputeStatus()
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("Failed to create test lot: %v", err)
	}
	return item
}

func TestCreateLot(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, "auth0|staff123", "Staff User", "staff@example.com", "staff")
	customer := createTestUser(t, db, "auth0|customer123", "Customer User", "customer@example.com", "customer")

	now := time.Now()
	expectedPrefix := fmt.Sprintf("L%02d%02d-", now.Year()%100, int(now.Month()))

	tests := []struct {
		name           string
		auth0ID        string
		role           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name:    "Successfully create brand lot",
			auth0ID: staff.Auth0ID,
			role:    "staff",
			requestBody: map[string]interface{}{
				"category":      "METAL",
				"sub_category":  "18K Yellow Gold",
				"name":          "18K 옐로우골드",
				"stock":         850.5,
				"unit":          "g",
				"threshold":     500,
				"ownership":     "BRAND",
				"unit_price":    105000,
				"operator_name": "박세공",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, expectedPrefix+"01", data["lot_number"])
				assert.Equal(t, models.StockStatusSafe, data["status"])
				assert.Equal(t, float64(850.5), data["stock"])
			},
		},
		{
			name:    "Client lot is forced to zero unit price",
			auth0ID: staff.Auth0ID,
			role:    "staff",
			requestBody: map[string]interface{}{
				"category":      "STONE",
				"name":          "고객 보유 다이아몬드",
				"stock":         1,
				"unit":          "ea",
				"threshold":     0,
				"ownership":     "CLIENT",
				"unit_price":    999999,
				"operator_name": "박세공",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(0), data["unit_price"])
			},
		},
		{
			name:    "Fail without operator name",
			auth0ID: staff.Auth0ID,
			role:    "staff",
			requestBody: map[string]interface{}{
				"category":  "METAL",
				"name":      "플래티넘",
				"stock":     100,
				"unit":      "g",
				"ownership": "BRAND",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Fail with unknown category",
			auth0ID: staff.Auth0ID,
			role:    "staff",
			requestBody: map[string]interface{}{
				"category":      "WOOD",
				"name":          "목재",
				"stock":         10,
				"unit":          "ea",
				"ownership":     "BRAND",
				"operator_name": "박세공",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:    "Customers cannot create lots",
			auth0ID: customer.Auth0ID,
			role:    "customer",
			requestBody: map[string]interface{}{
				"category":      "METAL",
				"name":          "플래티넘",
				"stock":         100,
				"unit":          "g",
				"ownership":     "BRAND",
				"operator_name": "박세공",
			},
			expectedStatus: http.StatusForbidden,
			expectedError:  "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/inventory/lots",
				mockAuthMiddleware(tt.auth0ID, tt.role, "mock-token"),
				CreateLot,
			)

			w, response := doJSONRequest(t, router, http.MethodPost, "/inventory/lots", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				assertErrorCode(t, response, tt.expectedError)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}

	// Every successful intake wrote an INITIAL_STOCK audit entry
	var logs []models.InventoryAuditLog
	assert.NoError(t, db.Where("reason = ?", models.AuditReasonInitialStock).Find(&logs).Error)
	assert.Len(t, logs, 2)
	for _, entry := range logs {
		assert.NotEmpty(t, entry.OperatorName)
	}
}

func TestCreateLot_SequenceContinuesFromHighest(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, "auth0|staff123", "Staff User", "staff@example.com", "staff")

	now := time.Now()
	prefix := fmt.Sprintf("L%02d%02d-", now.Year()%100, int(now.Month()))

	// A lot already on record this month, with gaps below the highest
	createTestLot(t, db, prefix+"07", 850.5, 0, 500)

	router := setupTestRouter()
	router.POST("/inventory/lots",
		mockAuthMiddleware(staff.Auth0ID, "staff", "mock-token"),
		CreateLot,
	)

	w, response := doJSONRequest(t, router, http.MethodPost, "/inventory/lots", map[string]interface{}{
		"category":      "METAL",
		"name":          "18K 옐로우골드",
		"stock":         100,
		"unit":          "g",
		"threshold":     50,
		"ownership":     "BRAND",
		"operator_name": "박세공",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, prefix+"08", data["lot_number"])
}

func TestAdjustLot(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, "auth0|staff123", "Staff User", "staff@example.com", "staff")
	lot := createTestLot(t, db, "L2406-YG-01", 850.5, 120, 500)

	router := setupTestRouter()
	router.PATCH("/inventory/lots/:id/adjust",
		mockAuthMiddleware(staff.Auth0ID, "staff", "mock-token"),
		AdjustLot,
	)

	t.Run("Rejects adjustment without operator name", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPatch,
			fmt.Sprintf("/inventory/lots/%d/adjust", lot.ID),
			map[string]interface{}{"delta": -10, "reason": "LOSS"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assertErrorCode(t, response, "VALIDATION_ERROR")

		// No stock change and no audit entry
		var reloaded models.InventoryItem
		assert.NoError(t, db.First(&reloaded, lot.ID).Error)
		assert.Equal(t, 850.5, reloaded.Stock)

		var count int64
		db.Model(&models.InventoryAuditLog{}).Where("item_id = ?", lot.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Rejects adjustment that would drive stock below reserved", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPatch,
			fmt.Sprintf("/inventory/lots/%d/adjust", lot.ID),
			map[string]interface{}{"delta": -800, "reason": "DAMAGE", "operator_name": "박세공"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assertErrorCode(t, response, "STOCK_INTEGRITY")

		var reloaded models.InventoryItem
		assert.NoError(t, db.First(&reloaded, lot.ID).Error)
		assert.Equal(t, 850.5, reloaded.Stock)
	})

	t.Run("Rejects unknown reason", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPatch,
			fmt.Sprintf("/inventory/lots/%d/adjust", lot.ID),
			map[string]interface{}{"delta": -10, "reason": "SHRINKAGE", "operator_name": "박세공"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assertErrorCode(t, response, "VALIDATION_ERROR")
	})

	t.Run("Applies adjustment, recomputes status and writes audit", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPatch,
			fmt.Sprintf("/inventory/lots/%d/adjust", lot.ID),
			map[string]interface{}{"delta": -300, "reason": "REMAKE", "operator_name": "박세공"})
		assert.Equal(t, http.StatusOK, w.Code)

		// 850.5 - 300 = 550.5 stock, 430.5 available < 500 threshold -> LOW
		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(550.5), data["stock"])
		assert.Equal(t, models.StockStatusLow, data["status"])
		assert.Equal(t, float64(2), data["version"])

		var entry models.InventoryAuditLog
		assert.NoError(t, db.Where("item_id = ?", lot.ID).Order("created_at DESC").First(&entry).Error)
		assert.Equal(t, float64(-300), entry.ChangeAmount)
		assert.Equal(t, 550.5, entry.AfterStock)
		assert.Equal(t, models.AuditReasonRemake, entry.Reason)
		assert.Equal(t, "박세공", entry.OperatorName)
	})

	t.Run("Rejects stale version", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPatch,
			fmt.Sprintf("/inventory/lots/%d/adjust", lot.ID),
			map[string]interface{}{"delta": -10, "reason": "LOSS", "operator_name": "박세공", "expected_version": 1})
		assert.Equal(t, http.StatusConflict, w.Code)
		assertErrorCode(t, response, "VERSION_CONFLICT")
	})
}

func TestOutboundLot(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, "auth0|staff123", "Staff User", "staff@example.com", "staff")
	customer := createTestUser(t, db, "auth0|customer123", "Customer User", "customer@example.com", "customer")

	// L2406-YG-01: 850.5g stock, 120g reserved, 500g threshold -> SAFE
	lot := createTestLot(t, db, "L2406-YG-01", 850.5, 120, 500)
	assert.Equal(t, models.StockStatusSafe, lot.Status)

	order := createTestOrder(t, db, customer, "JF-2024-C001", models.OrderStatusProduction)

	router := setupTestRouter()
	router.POST("/inventory/lots/:id/outbound",
		mockAuthMiddleware(staff.Auth0ID, "staff", "mock-token"),
		OutboundLot,
	)

	t.Run("Rejects outbound to unknown order", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPost,
			fmt.Sprintf("/inventory/lots/%d/outbound", lot.ID),
			map[string]interface{}{"amount": 100, "destination_order_id": 99999, "operator_name": "박세공"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assertErrorCode(t, response, "ORDER_NOT_FOUND")

		var reloaded models.InventoryItem
		assert.NoError(t, db.First(&reloaded, lot.ID).Error)
		assert.Equal(t, 850.5, reloaded.Stock)
	})

	t.Run("Rejects outbound exceeding available stock", func(t *testing.T) {
		// Available is 730.5 (850.5 - 120 reserved)
		w, response := doJSONRequest(t, router, http.MethodPost,
			fmt.Sprintf("/inventory/lots/%d/outbound", lot.ID),
			map[string]interface{}{"amount": 731, "destination_order_id": order.ID, "operator_name": "박세공"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assertErrorCode(t, response, "STOCK_INTEGRITY")

		var reloaded models.InventoryItem
		assert.NoError(t, db.First(&reloaded, lot.ID).Error)
		assert.Equal(t, 850.5, reloaded.Stock)

		var materialCount int64
		db.Model(&models.Material{}).Where("order_id = ?", order.ID).Count(&materialCount)
		assert.Equal(t, int64(0), materialCount)
	})

	t.Run("Outbound decrements stock, recomputes status and links material", func(t *testing.T) {
		w, response := doJSONRequest(t, router, http.MethodPost,
			fmt.Sprintf("/inventory/lots/%d/outbound", lot.ID),
			map[string]interface{}{"amount": 400, "destination_order_id": order.ID, "operator_name": "박세공"})
		assert.Equal(t, http.StatusOK, w.Code)

		// 850.5 - 400 = 450.5 stock; available 330.5 < 500 -> LOW
		data := response["data"].(map[string]interface{})
		lotData := data["lot"].(map[string]interface{})
		assert.Equal(t, float64(450.5), lotData["stock"])
		assert.Equal(t, float64(120), lotData["reserved_stock"])
		assert.Equal(t, models.StockStatusLow, lotData["status"])

		materialData := data["material"].(map[string]interface{})
		assert.Equal(t, "L2406-YG-01", materialData["linked_lot_number"])
		assert.Equal(t, models.MaterialStatusSecured, materialData["status"])
		assert.Equal(t, "금속", materialData["type"])

		// Audit entry carries the destination order
		var entry models.InventoryAuditLog
		assert.NoError(t, db.Where("item_id = ? AND reason = ?", lot.ID, models.AuditReasonOutbound).First(&entry).Error)
		assert.Equal(t, float64(-400), entry.ChangeAmount)
		assert.NotNil(t, entry.OrderID)
		assert.Equal(t, order.ID, *entry.OrderID)
	})
}

func TestListLots(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	staff := createTestUser(t, db, "auth0|staff123", "Staff User", "staff@example.com", "staff")

	createTestLot(t, db, "L2406-01", 850.5, 120, 500) // SAFE
	createTestLot(t, db, "L2406-02", 100, 0, 500)     // LOW
	createTestLot(t, db, "L2406-03", 50, 50, 10)      // OUT

	tests := []struct {
		name          string
		query         string
		expectedCount int
	}{
		{name: "All lots", expectedCount: 3},
		{name: "Low stock filter includes OUT", query: "?low_stock=true", expectedCount: 2},
		{name: "Status filter", query: "?status=SAFE", expectedCount: 1},
		{name: "Search by lot number", query: "?q=L2406-02", expectedCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/inventory/lots",
				mockAuthMiddleware(staff.Auth0ID, "staff", "mock-token"),
				ListLots,
			)

			w, response := doJSONRequest(t, router, http.MethodGet, "/inventory/lots"+tt.query, nil)
			assert.Equal(t, http.StatusOK, w.Code)

			data := response["data"].([]interface{})
			assert.Len(t, data, tt.expectedCount)
		})
	}
}
