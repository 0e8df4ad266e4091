package model

import "time"

// AdminSession records an issued admin token. The token itself remains the
// authority; this row is an audit trail.
type AdminSession struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TokenID      string    `json:"token_id" gorm:"size:36;uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index"`
	LastActivity time.Time `json:"last_activity"`
	Revoked      bool      `json:"revoked" gorm:"not null"`
	IPAddress    string    `json:"ip_address" gorm:"size:64"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
}

// All lists every table the API owns, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Property{},
		&ContactInquiry{},
		&AnalyticsEvent{},
		&AdminSession{},
	}
}
