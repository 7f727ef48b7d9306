package models

import (
	"time"

	"gorm.io/gorm"
)

// Issue ticket status values, in intended order
const (
	IssueStatusReceived         = "RECEIVED"
	IssueStatusReviewing        = "REVIEWING"
	IssueStatusSolutionProposed = "SOLUTION_PROPOSED"
	IssueStatusInProgress       = "IN_PROGRESS"
	IssueStatusResolved         = "RESOLVED"
)

// issueTransitions encodes the linear progression a ticket follows.
// Staff may bypass it with an explicit override, which is recorded in the
// ticket's technical log.
var issueTransitions = map[string]string{
	IssueStatusReceived:         IssueStatusReviewing,
	IssueStatusReviewing:        IssueStatusSolutionProposed,
	IssueStatusSolutionProposed: IssueStatusInProgress,
	IssueStatusInProgress:       IssueStatusResolved,
}

// IsValidIssueStatus reports whether s is a known ticket status
func IsValidIssueStatus(s string) bool {
	switch s {
	case IssueStatusReceived, IssueStatusReviewing, IssueStatusSolutionProposed,
		IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}

// IssueStatusFollows reports whether to is the next step after from in the
// linear ticket workflow
func IssueStatusFollows(from, to string) bool {
	return issueTransitions[from] == to
}

// Service categories for A/S requests
const (
	ServiceCategoryPolishing    = "POLISHING"
	ServiceCategorySettingCheck = "SETTING_CHECK"
	ServiceCategoryRemake       = "REMAKE"
	ServiceCategoryResizing     = "RESIZING"
	ServiceCategoryCleaning     = "CLEANING"
	ServiceCategoryOther        = "OTHER"
)

// IsValidServiceCategory reports whether c is a known service category
func IsValidServiceCategory(c string) bool {
	switch c {
	case ServiceCategoryPolishing, ServiceCategorySettingCheck, ServiceCategoryRemake,
		ServiceCategoryResizing, ServiceCategoryCleaning, ServiceCategoryOther:
		return true
	}
	return false
}

// Service types for A/S requests
const (
	ServiceTypeFree            = "FREE"
	ServiceTypePaid            = "PAID"
	ServiceTypePolicyException = "POLICY_EXCEPTION"
)

// IsValidServiceType reports whether t is a known service type
func IsValidServiceType(t string) bool {
	switch t {
	case ServiceTypeFree, ServiceTypePaid, ServiceTypePolicyException:
		return true
	}
	return false
}

// IssueTicket is an after-sales repair request tied to an order
type IssueTicket struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	OrderID             uint           `gorm:"not null;index" json:"order_id"`
	Order               Order          `gorm:"foreignKey:OrderID" json:"-"`
	OrderNumber         string         `gorm:"not null" json:"order_number"`
	CustomerID          uint           `gorm:"not null;index" json:"customer_id"`
	Title               string         `gorm:"not null" json:"title"`
	Description         string         `gorm:"type:text;not null" json:"description"`
	Status              string         `gorm:"not null;default:'RECEIVED'" json:"status"`
	ServiceCategory     string         `gorm:"not null" json:"service_category"`
	ServiceType         string         `gorm:"not null;default:'FREE'" json:"service_type"`
	ResponsibleWorkshop string         `json:"responsible_workshop"`
	EstimatedDuration   string         `json:"estimated_duration"`
	Photos              []IssuePhoto   `gorm:"foreignKey:IssueID" json:"photos"`
	TechnicalLogs       []TechnicalLog `gorm:"foreignKey:IssueID" json:"technical_logs"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the IssueTicket model
func (IssueTicket) TableName() string {
	return "issue_tickets"
}

// IssuePhoto is a photo attached to a ticket at submission
type IssuePhoto struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	IssueID    uint      `gorm:"not null;index" json:"issue_id"`
	ImageS3Key string    `gorm:"not null" json:"image_s3_key"`
	ImageURL   string    `gorm:"-" json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the IssuePhoto model
func (IssuePhoto) TableName() string {
	return "issue_photos"
}

// TechnicalLog is one append-only work note on a ticket; both action and
// note are required
type TechnicalLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssueID   uint      `gorm:"not null;index" json:"issue_id"`
	Action    string    `gorm:"not null" json:"action"`
	Note      string    `gorm:"type:text;not null" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the TechnicalLog model
func (TechnicalLog) TableName() string {
	return "technical_logs"
}

// IssueMessage is one chat message in a ticket's conversation between the
// customer and staff
type IssueMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssueID   uint      `gorm:"not null;index" json:"issue_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    User      `gorm:"foreignKey:SenderID" json:"sender"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the IssueMessage model
func (IssueMessage) TableName() string {
	return "issue_messages"
}
