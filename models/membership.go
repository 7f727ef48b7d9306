package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipTier pairs a tier name with the cumulative spend needed to
// reach it
type MembershipTier struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"` // KRW
	Discount  string  `json:"discount"`
}

// MembershipTiers is the ascending tier table. A customer's tier is the
// last entry whose threshold their cumulative paid total satisfies.
var MembershipTiers = []MembershipTier{
	{Name: "WELCOME", Threshold: 0, Discount: ""},
	{Name: "CLASSIC", Threshold: 2_000_000, Discount: "2%"},
	{Name: "PRESTIGE", Threshold: 5_000_000, Discount: "5%"},
	{Name: "HERITAGE", Threshold: 10_000_000, Discount: "8%"},
}

// TierFor returns the highest tier reached for a cumulative paid total
func TierFor(cumulativeTotal float64) MembershipTier {
	tier := MembershipTiers[0]
	for _, t := range MembershipTiers {
		if cumulativeTotal >= t.Threshold {
			tier = t
		}
	}
	return tier
}

// NextTier returns the next tier above the cumulative total and the amount
// still needed to reach it. ok is false when the top tier is already
// reached.
func NextTier(cumulativeTotal float64) (tier MembershipTier, remaining float64, ok bool) {
	for _, t := range MembershipTiers {
		if cumulativeTotal < t.Threshold {
			return t, t.Threshold - cumulativeTotal, true
		}
	}
	return MembershipTier{}, 0, false
}

// Voucher is a one-time flat discount credit. Activation is one-way: once
// used it can never be activated again.
type Voucher struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Code           string         `gorm:"not null;index:idx_voucher_code_customer,unique" json:"code"`
	CustomerID     uint           `gorm:"not null;index:idx_voucher_code_customer,unique" json:"customer_id"`
	Name           string         `gorm:"not null" json:"name"`
	DiscountAmount float64        `gorm:"not null" json:"discount_amount"` // flat KRW subtraction at payment
	Active         bool           `gorm:"not null;default:false" json:"active"`
	ActivatedAt    *time.Time     `json:"activated_at,omitempty"`
	RedeemedAt     *time.Time     `json:"redeemed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Voucher model
func (Voucher) TableName() string {
	return "vouchers"
}
