package models

import (
	"time"
)

// Audit reasons for stock changes
const (
	AuditReasonError        = "ERROR"
	AuditReasonLoss         = "LOSS"
	AuditReasonDamage       = "DAMAGE"
	AuditReasonRemake       = "REMAKE"
	AuditReasonSample       = "SAMPLE"
	AuditReasonInitialStock = "INITIAL_STOCK"
	AuditReasonOutbound     = "OUTBOUND"
)

// IsValidAuditReason reports whether r is a known audit reason
func IsValidAuditReason(r string) bool {
	switch r {
	case AuditReasonError, AuditReasonLoss, AuditReasonDamage, AuditReasonRemake,
		AuditReasonSample, AuditReasonInitialStock, AuditReasonOutbound:
		return true
	}
	return false
}

// InventoryAuditLog is the append-only history of stock changes. Every
// mutation of a lot's quantities writes exactly one entry in the same
// transaction; entries are never updated or deleted.
type InventoryAuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ItemID       uint      `gorm:"not null;index" json:"item_id"`
	ChangeAmount float64   `gorm:"not null" json:"change_amount"` // signed
	AfterStock   float64   `gorm:"not null" json:"after_stock"`
	Reason       string    `gorm:"not null" json:"reason"`
	OrderID      *uint     `gorm:"index" json:"order_id,omitempty"`
	OperatorName string    `gorm:"not null" json:"operator_name"` // non-empty, validated at the API boundary
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for the InventoryAuditLog model
func (InventoryAuditLog) TableName() string {
	return "inventory_audit_logs"
}
