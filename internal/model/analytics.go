package model

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventPageView      EventType = "page_view"
	EventPropertyView  EventType = "property_view"
	EventSearch        EventType = "search"
	EventContactSubmit EventType = "contact_submit"
	EventClick         EventType = "click"
	EventShare         EventType = "share"
	EventFavorite      EventType = "favorite"
	EventVideoPlay     EventType = "video_play"
)

var EventTypes = []EventType{
	EventPageView,
	EventPropertyView,
	EventSearch,
	EventContactSubmit,
	EventClick,
	EventShare,
	EventFavorite,
	EventVideoPlay,
}

// AnalyticsEvent is append-only; rows are only ever removed by the retention purge.
type AnalyticsEvent struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	EventType   EventType      `json:"event_type" gorm:"size:32;index;not null"`
	PropertyID  *uint          `json:"property_id" gorm:"index"`
	SessionID   string         `json:"session_id" gorm:"size:64;index"`
	PageURL     string         `json:"page_url"`
	Referrer    string         `json:"referrer"`
	UserAgent   string         `json:"user_agent"`
	DeviceType  string         `json:"device_type" gorm:"size:16"`
	IPAddress   string         `json:"ip_address" gorm:"size:64"`
	SearchQuery string         `json:"search_query"`
	EventData   datatypes.JSON `json:"event_data"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}

func ValidEventType(s string) bool {
	for _, v := range EventTypes {
		if string(v) == s {
			return true
		}
	}
	return false
}

// DeviceFromUserAgent buckets a user agent into mobile, tablet or desktop.
func DeviceFromUserAgent(ua string) string {
	switch {
	case ua == "":
		return "unknown"
	case containsAny(ua, "iPad", "Tablet"):
		return "tablet"
	case containsAny(ua, "Mobi", "Android", "iPhone"):
		return "mobile"
	default:
		return "desktop"
	}
}
