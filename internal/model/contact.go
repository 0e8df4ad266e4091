package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InquiryStatus string

const (
	InquiryStatusNew        InquiryStatus = "new"
	InquiryStatusContacted  InquiryStatus = "contacted"
	InquiryStatusInProgress InquiryStatus = "in_progress"
	InquiryStatusClosed     InquiryStatus = "closed"
	InquiryStatusSpam       InquiryStatus = "spam"
)

var InquiryStatuses = []InquiryStatus{
	InquiryStatusNew,
	InquiryStatusContacted,
	InquiryStatusInProgress,
	InquiryStatusClosed,
	InquiryStatusSpam,
}

type InquiryPriority string

const (
	InquiryPriorityLow    InquiryPriority = "low"
	InquiryPriorityNormal InquiryPriority = "normal"
	InquiryPriorityHigh   InquiryPriority = "high"
	InquiryPriorityUrgent InquiryPriority = "urgent"
)

var InquiryPriorities = []InquiryPriority{
	InquiryPriorityLow,
	InquiryPriorityNormal,
	InquiryPriorityHigh,
	InquiryPriorityUrgent,
}

// ContactInquiry is a message left through the public contact form.
type ContactInquiry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Reference  string    `json:"reference" gorm:"size:36;uniqueIndex;not null"`
	PropertyID *uint     `json:"property_id" gorm:"index"`
	Property   *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:SET NULL"`

	Name    string `json:"name" gorm:"not null"`
	Email   string `json:"email" gorm:"index;not null"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" gorm:"type:text;not null"`

	Status      InquiryStatus   `json:"status" gorm:"index;not null;default:'new'"`
	Priority    InquiryPriority `json:"priority" gorm:"not null;default:'normal'"`
	AssignedTo  string          `json:"assigned_to"`
	AdminNotes  string          `json:"admin_notes" gorm:"type:text"`
	ContactedAt *time.Time      `json:"contacted_at"`

	Source    string `json:"source"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address" gorm:"size:64"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *ContactInquiry) BeforeCreate(tx *gorm.DB) error {
	if c.Reference == "" {
		c.Reference = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = InquiryStatusNew
	}
	if c.Priority == "" {
		c.Priority = InquiryPriorityNormal
	}
	return nil
}

// InquiryUpdate carries the admin workflow changes; nil fields are left alone.
type InquiryUpdate struct {
	Status     *InquiryStatus   `json:"status"`
	Priority   *InquiryPriority `json:"priority"`
	AssignedTo *string          `json:"assigned_to"`
	AdminNotes *string          `json:"admin_notes"`
}

func (u InquiryUpdate) Empty() bool {
	return u.Status == nil && u.Priority == nil && u.AssignedTo == nil && u.AdminNotes == nil
}

func ValidInquiryStatus(s string) bool {
	for _, v := range InquiryStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

func ValidInquiryPriority(s string) bool {
	for _, v := range InquiryPriorities {
		if string(v) == s {
			return true
		}
	}
	return false
}
