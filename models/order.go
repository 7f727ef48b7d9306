package models

import (
	"time"

	"gorm.io/gorm"
)

// Order status values, in lifecycle order. Transitions only ever move
// forward; there is no cancellation or refund state.
const (
	OrderStatusReceived       = "RECEIVED"
	OrderStatusQuotePending   = "QUOTE_PENDING"
	OrderStatusPaymentWaiting = "PAYMENT_WAITING"
	OrderStatusProduction     = "PRODUCTION"
	OrderStatusInspection     = "INSPECTION"
	OrderStatusReadyForShip   = "READY_FOR_SHIP"
	OrderStatusShipping       = "SHIPPING"
	OrderStatusCompleted      = "COMPLETED"
)

// Payment status display values shown to customers
const (
	PaymentStatusPending  = "결제대기" // awaiting payment
	PaymentStatusComplete = "결제완료" // payment complete
)

// ECDPendingConsultation is the ECD placeholder used before a completion
// date has been agreed with the customer.
const ECDPendingConsultation = "상담 후 확정"

// orderStatusRank maps each status to its position in the lifecycle.
// A transition to a lower or equal rank is a regression and is rejected.
var orderStatusRank = map[string]int{
	OrderStatusReceived:       0,
	OrderStatusQuotePending:   1,
	OrderStatusPaymentWaiting: 2,
	OrderStatusProduction:     3,
	OrderStatusInspection:     4,
	OrderStatusReadyForShip:   5,
	OrderStatusShipping:       6,
	OrderStatusCompleted:      7,
}

// IsValidOrderStatus reports whether s is a known order status
func IsValidOrderStatus(s string) bool {
	_, ok := orderStatusRank[s]
	return ok
}

// OrderStatusAdvances reports whether moving from one status to another
// moves forward through the lifecycle
func OrderStatusAdvances(from, to string) bool {
	fromRank, okFrom := orderStatusRank[from]
	toRank, okTo := orderStatusRank[to]
	return okFrom && okTo && toRank > fromRank
}

// Order represents a custom jewelry order
type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderNumber      string          `gorm:"uniqueIndex;not null" json:"order_number"` // JF-YYYY-NNN, JF-YYYY-CNNN when customer-initiated
	CustomerID       uint            `gorm:"not null;index" json:"customer_id"`
	Customer         User            `gorm:"foreignKey:CustomerID" json:"customer"`
	CustomerName     string          `gorm:"not null" json:"customer_name"`
	WorkshopName     string          `json:"workshop_name"`
	ItemName         string          `gorm:"not null" json:"item_name"`
	Status           string          `gorm:"not null;default:'RECEIVED'" json:"status"`
	ECD              string          `gorm:"not null;default:'상담 후 확정'" json:"ecd"` // expected completion date, free text
	Quantity         int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Options          string          `json:"options"`
	PaymentStatus    string          `gorm:"not null;default:'결제대기'" json:"payment_status"`
	FinalQuote       *float64        `json:"final_quote"` // nullable, set when staff approves the quote
	IsDesignVerified bool            `gorm:"not null;default:false" json:"is_design_verified"`
	IsExpress        bool            `gorm:"not null;default:false" json:"is_express"`
	Version          int             `gorm:"not null;default:1" json:"version"` // optimistic lock, bumped on every mutation
	Materials        []Material      `gorm:"foreignKey:OrderID" json:"materials"`
	Timeline         []TimelineStep  `gorm:"foreignKey:OrderID" json:"timeline"`
	Attachments      []Attachment    `gorm:"foreignKey:OrderID" json:"attachments"`
	Payments         []PaymentRecord `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// TimelineStep status values
const (
	StepStatusWaiting    = "WAITING"
	StepStatusInProgress = "IN_PROGRESS"
	StepStatusCompleted  = "COMPLETED"
)

// TimelineStep is one named production step on an order's timeline
type TimelineStep struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Name      string    `gorm:"not null" json:"name"`
	Position  int       `gorm:"not null" json:"position"`
	Status    string    `gorm:"not null;default:'WAITING'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the TimelineStep model
func (TimelineStep) TableName() string {
	return "timeline_steps"
}

// DefaultTimeline returns the standard production steps for a new order
func DefaultTimeline() []TimelineStep {
	names := []string{"주문 접수", "디자인 확정", "재료 수급", "세공", "검수", "출고"}
	steps := make([]TimelineStep, len(names))
	for i, name := range names {
		steps[i] = TimelineStep{Name: name, Position: i + 1, Status: StepStatusWaiting}
	}
	return steps
}

// Attachment is a photo attached to an order by the customer or staff
type Attachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ImageS3Key string    `gorm:"not null" json:"image_s3_key"`
	ImageURL   string    `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL
	UploadedBy uint      `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the Attachment model
func (Attachment) TableName() string {
	return "order_attachments"
}
