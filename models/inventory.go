package models

import (
	"time"

	"gorm.io/gorm"
)

// Inventory categories
const (
	InventoryCategoryMetal = "METAL"
	InventoryCategoryStone = "STONE"
	InventoryCategoryOther = "OTHER"
)

// IsValidInventoryCategory reports whether c is a known lot category
func IsValidInventoryCategory(c string) bool {
	switch c {
	case InventoryCategoryMetal, InventoryCategoryStone, InventoryCategoryOther:
		return true
	}
	return false
}

// Stock status values, derived from stock vs. threshold
const (
	StockStatusSafe = "SAFE"
	StockStatusLow  = "LOW"
	StockStatusOut  = "OUT"
)

// Lot ownership values
const (
	OwnershipBrand    = "BRAND"
	OwnershipWorkshop = "WORKSHOP"
	OwnershipClient   = "CLIENT"
)

// IsValidOwnership reports whether o is a known lot ownership
func IsValidOwnership(o string) bool {
	switch o {
	case OwnershipBrand, OwnershipWorkshop, OwnershipClient:
		return true
	}
	return false
}

// ComputeStockStatus derives a lot's status from its quantities.
// Available stock is stock minus reserved: OUT when nothing is available,
// LOW when available is below the threshold, SAFE otherwise.
func ComputeStockStatus(stock, reserved, threshold float64) string {
	available := stock - reserved
	switch {
	case available <= 0:
		return StockStatusOut
	case available < threshold:
		return StockStatusLow
	default:
		return StockStatusSafe
	}
}

// InventoryItem is one receiving batch (lot) of raw material
type InventoryItem struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	LotNumber     string         `gorm:"uniqueIndex;not null" json:"lot_number"` // L{YY}{MM}-{seq}
	Category      string         `gorm:"not null" json:"category"`               // METAL, STONE, OTHER
	SubCategory   string         `json:"sub_category"`
	Name          string         `gorm:"not null" json:"name"`
	Stock         float64        `gorm:"not null;default:0" json:"stock"`
	ReservedStock float64        `gorm:"not null;default:0" json:"reserved_stock"`
	Unit          string         `gorm:"not null" json:"unit"`
	Threshold     float64        `gorm:"not null;default:0" json:"threshold"`
	Status        string         `gorm:"not null;default:'SAFE'" json:"status"` // derived cache, see ComputeStockStatus
	Ownership     string         `gorm:"not null;default:'BRAND'" json:"ownership"`
	ArrivalDate   string         `json:"arrival_date"`
	UnitPrice     float64        `gorm:"not null;default:0" json:"unit_price"` // forced to 0 for CLIENT-owned lots
	Version       int            `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the InventoryItem model
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Available returns the quantity not yet promised to orders
func (i *InventoryItem) Available() float64 {
	return i.Stock - i.ReservedStock
}

// RecomputeStatus refreshes the cached status column
func (i *InventoryItem) RecomputeStatus() {
	i.Status = ComputeStockStatus(i.Stock, i.ReservedStock, i.Threshold)
}
