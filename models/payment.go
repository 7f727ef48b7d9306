package models

import (
	"time"
)

// Payment methods accepted at checkout
const (
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank-transfer"
	PaymentMethodToss         = "toss"
	PaymentMethodStripe       = "stripe"
)

// IsValidPaymentMethod reports whether m is an accepted payment method
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodToss, PaymentMethodStripe:
		return true
	}
	return false
}

// PaymentRecord is one completed payment on an order. Records are
// append-only; the unique idempotency key makes payment completion safe to
// retry without double-crediting.
type PaymentRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"`
	Amount         float64   `gorm:"not null" json:"amount"`
	Method         string    `gorm:"not null" json:"method"`
	VoucherCode    *string   `json:"voucher_code,omitempty"` // set when a voucher discount was applied
	IdempotencyKey string    `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for the PaymentRecord model
func (PaymentRecord) TableName() string {
	return "payment_records"
}
