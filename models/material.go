package models

import (
	"time"
)

// Material status values
const (
	MaterialStatusSecured            = "SECURED"
	MaterialStatusSecuring           = "SECURING"
	MaterialStatusAppraisalNeeded    = "APPRAISAL_NEEDED"
	MaterialStatusAppraisalCompleted = "APPRAISAL_COMPLETED"
	MaterialStatusSubstituteNeeded   = "SUBSTITUTE_NEEDED"
)

// Material source values
const (
	MaterialSourceWorkshop = "WORKSHOP"
	MaterialSourceClient   = "CLIENT"
)

// IsValidMaterialStatus reports whether s is a known material status
func IsValidMaterialStatus(s string) bool {
	switch s {
	case MaterialStatusSecured, MaterialStatusSecuring, MaterialStatusAppraisalNeeded,
		MaterialStatusAppraisalCompleted, MaterialStatusSubstituteNeeded:
		return true
	}
	return false
}

// Material is one raw material line on an order. Type keeps the legacy
// free-text description ("금속", "원석", ...); Category is the checked enum
// used by stock logic.
type Material struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"not null;index" json:"order_id"`
	Type            string    `gorm:"not null" json:"type"`
	Category        string    `gorm:"not null;default:'OTHER'" json:"category"` // METAL, STONE, OTHER
	Spec            string    `json:"spec"`
	Status          string    `gorm:"not null;default:'SECURING'" json:"status"`
	Source          string    `gorm:"not null;default:'WORKSHOP'" json:"source"` // WORKSHOP or CLIENT
	LinkedLotNumber *string   `gorm:"index" json:"linked_lot_number,omitempty"`  // set by the outbound flow
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Material model
func (Material) TableName() string {
	return "order_materials"
}
