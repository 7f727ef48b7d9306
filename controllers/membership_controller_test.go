package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
)

func createTestPayment(t *testing.T, db *gorm.DB, order models.Order, amount float64, key string) models.PaymentRecord {
	t.Helper()

	record := models.PaymentRecord{
		OrderID:        order.ID,
		Amount:         amount,
		Method:         models.PaymentMethodCard,
		IdempotencyKey: key,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}
	return record
}

func TestGetMembership(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	customer := createTestUser(t, db, "auth0|customer123", "Customer User", "customer@example.com", "customer")
	other := createTestUser(t, db, "auth0|other456", "Other User", "other@example.com", "customer")

	// ₩2.5M paid across two orders puts the customer in CLASSIC
	order1 := createTestOrder(t, db, customer, "JF-2024-C001", models.OrderStatusCompleted)
	order2 := createTestOrder(t, db, customer, "JF-2024-C002", models.OrderStatusCompleted)
	createTestPayment(t, db, order1, 1_500_000, "pay-key-1")
	createTestPayment(t, db, order2, 1_000_000, "pay-key-2")

	// Another customer's payment must not count
	otherOrder := createTestOrder(t, db, other, "JF-2024-C003", models.OrderStatusCompleted)
	createTestPayment(t, db, otherOrder, 9_000_000, "pay-key-3")

	voucher := models.Voucher{
		Code:           "WELCOME-2024",
		CustomerID:     customer.ID,
		Name:           "신규 가입 혜택",
		DiscountAmount: 100_000,
	}
	assert.NoError(t, db.Create(&voucher).Error)

	t.Run("Tier and progress from cumulative payments", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/membership/me",
			mockAuthMiddleware(customer.Auth0ID, "customer", "mock-token"),
			GetMembership,
		)

		w, response := doJSONRequest(t, router, http.MethodGet, "/membership/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(2_500_000), data["cumulative_total"])

		tier := data["tier"].(map[string]interface{})
		assert.Equal(t, "CLASSIC", tier["name"])

		nextTier := data["next_tier"].(map[string]interface{})
		assert.Equal(t, "PRESTIGE", nextTier["name"])
		assert.Equal(t, float64(2_500_000), data["amount_to_next_tier"])

		vouchers := data["vouchers"].([]interface{})
		assert.Len(t, vouchers, 1)
		assert.Equal(t, "WELCOME-2024", vouchers[0].(map[string]interface{})["code"])
	})

	t.Run("No payments means WELCOME tier", func(t *testing.T) {
		fresh := createTestUser(t, db, "auth0|fresh789", "Fresh User", "fresh@example.com", "customer")

		router := setupTestRouter()
		router.GET("/membership/me",
			mockAuthMiddleware(fresh.Auth0ID, "customer", "mock-token"),
			GetMembership,
		)

		w, response := doJSONRequest(t, router, http.MethodGet, "/membership/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, float64(0), data["cumulative_total"])
		tier := data["tier"].(map[string]interface{})
		assert.Equal(t, "WELCOME", tier["name"])
	})

	t.Run("Top tier has no next tier", func(t *testing.T) {
		whale := createTestUser(t, db, "auth0|whale999", "Whale User", "whale@example.com", "customer")
		whaleOrder := createTestOrder(t, db, whale, "JF-2024-C010", models.OrderStatusCompleted)
		createTestPayment(t, db, whaleOrder, 12_000_000, "pay-key-whale")

		router := setupTestRouter()
		router.GET("/membership/me",
			mockAuthMiddleware(whale.Auth0ID, "customer", "mock-token"),
			GetMembership,
		)

		w, response := doJSONRequest(t, router, http.MethodGet, "/membership/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		tier := data["tier"].(map[string]interface{})
		assert.Equal(t, "HERITAGE", tier["name"])
		_, hasNext := data["next_tier"]
		assert.False(t, hasNext)
	})
}

func TestActivateVoucher(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	customer := createTestUser(t, db, "auth0|customer123", "Customer User", "customer@example.com", "customer")
	other := createTestUser(t, db, "auth0|other456", "Other User", "other@example.com", "customer")

	voucher := models.Voucher{
		Code:           "ANNIV-10",
		CustomerID:     customer.ID,
		Name:           "10주년 기념 쿠폰",
		DiscountAmount: 500_000,
	}
	assert.NoError(t, db.Create(&voucher).Error)

	activate := func(auth0ID, code string) (int, map[string]interface{}) {
		router := setupTestRouter()
		router.POST("/membership/vouchers/:code/activate",
			mockAuthMiddleware(auth0ID, "customer", "mock-token"),
			ActivateVoucher,
		)
		w, response := doJSONRequest(t, router, http.MethodPost,
			"/membership/vouchers/"+code+"/activate", nil)
		return w.Code, response
	}

	t.Run("Fail with unknown voucher", func(t *testing.T) {
		code, response := activate(customer.Auth0ID, "NO-SUCH-CODE")
		assert.Equal(t, http.StatusNotFound, code)
		assertErrorCode(t, response, "VOUCHER_NOT_FOUND")
	})

	t.Run("Another customer cannot activate it", func(t *testing.T) {
		code, response := activate(other.Auth0ID, "ANNIV-10")
		assert.Equal(t, http.StatusNotFound, code)
		assertErrorCode(t, response, "VOUCHER_NOT_FOUND")
	})

	t.Run("Successfully activate", func(t *testing.T) {
		code, response := activate(customer.Auth0ID, "ANNIV-10")
		assert.Equal(t, http.StatusOK, code)

		data := response["data"].(map[string]interface{})
		assert.True(t, data["active"].(bool))
		assert.NotNil(t, data["activated_at"])
	})

	t.Run("Second activation is rejected", func(t *testing.T) {
		code, response := activate(customer.Auth0ID, "ANNIV-10")
		assert.Equal(t, http.StatusConflict, code)
		assertErrorCode(t, response, "VOUCHER_ALREADY_USED")
	})

	t.Run("Deactivation cannot reopen it", func(t *testing.T) {
		// Even if the flag is cleared manually, the activation timestamp
		// keeps the voucher spent
		assert.NoError(t, db.Model(&models.Voucher{}).
			Where("code = ?", "ANNIV-10").Update("active", false).Error)

		code, response := activate(customer.Auth0ID, "ANNIV-10")
		assert.Equal(t, http.StatusConflict, code)
		assertErrorCode(t, response, "VOUCHER_ALREADY_USED")

		var reloaded models.Voucher
		assert.NoError(t, db.Where("code = ?", "ANNIV-10").First(&reloaded).Error)
		assert.False(t, reloaded.Active)
		assert.NotNil(t, reloaded.ActivatedAt)
		assert.WithinDuration(t, time.Now(), *reloaded.ActivatedAt, time.Minute)
	})
}
