package store

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"

	"gorm.io/gorm"
)

type Overview struct {
	Days           int              `json:"days"`
	TotalEvents    int64            `json:"total_events"`
	UniqueSessions int64            `json:"unique_sessions"`
	ByType         map[string]int64 `json:"by_type"`
	TopProperties  []PropertyViews  `json:"top_properties"`
	Daily          []DailyCount     `json:"daily"`
}

type PropertyViews struct {
	PropertyID uint   `json:"property_id"`
	Title      string `json:"title"`
	Views      int64  `json:"views"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Bucket is a labelled count used by the device, search and traffic reports.
type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type AnalyticsStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsStore(db *gorm.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db, now: time.Now}
}

func (s *AnalyticsStore) since(days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return s.now().AddDate(0, 0, -days)
}

func (s *AnalyticsStore) Track(ctx context.Context, e *model.AnalyticsEvent) error {
	if e.DeviceType == "" {
		e.DeviceType = model.DeviceFromUserAgent(e.UserAgent)
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return apperror.Internal("Failed to record event", err)
	}
	return nil
}

func (s *AnalyticsStore) Overview(ctx context.Context, days int) (*Overview, error) {
	if days <= 0 {
		days = 30
	}
	since := s.since(days)
	db := s.db.WithContext(ctx)
	out := &Overview{Days: days, ByType: map[string]int64{}}

	window := db.Model(&model.AnalyticsEvent{}).Where("created_at >= ?", since)
	if err := window.Count(&out.TotalEvents).Error; err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}

	err := db.Model(&model.AnalyticsEvent{}).
		Where("created_at >= ? AND session_id <> ''", since).
		Distinct("session_id").
		Count(&out.UniqueSessions).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}

	var byType []struct {
		EventType string
		Count     int64
	}
	err = db.Model(&model.AnalyticsEvent{}).
		Select("event_type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&byType).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}
	for _, r := range byType {
		out.ByType[r.EventType] = r.Count
	}

	out.TopProperties = []PropertyViews{}
	err = db.Table("analytics_events AS e").
		Select("e.property_id AS property_id, p.title AS title, COUNT(*) AS views").
		Joins("JOIN properties p ON p.id = e.property_id").
		Where("e.created_at >= ? AND e.event_type = ?", since, model.EventPropertyView).
		Group("e.property_id, p.title").
		Order("views DESC").
		Limit(10).
		Scan(&out.TopProperties).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}

	var stamps []time.Time
	err = db.Model(&model.AnalyticsEvent{}).
		Where("created_at >= ?", since).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}
	out.Daily = dailyCounts(stamps)

	return out, nil
}

// Devices counts events per device class.
func (s *AnalyticsStore) Devices(ctx context.Context, days int) ([]Bucket, error) {
	rows := []Bucket{}
	err := s.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Select("device_type AS label, COUNT(*) AS count").
		Where("created_at >= ?", s.since(days)).
		Group("device_type").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}
	return rows, nil
}

// Searches returns the most frequent search terms, case-folded.
func (s *AnalyticsStore) Searches(ctx context.Context, days, limit int) ([]Bucket, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows := []Bucket{}
	err := s.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Select("LOWER(search_query) AS label, COUNT(*) AS count").
		Where("created_at >= ? AND search_query <> ''", s.since(days)).
		Group("LOWER(search_query)").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}
	return rows, nil
}

// TrafficSources groups referrers into direct, search, social and referral.
func (s *AnalyticsStore) TrafficSources(ctx context.Context, days int) ([]Bucket, error) {
	var rows []struct {
		Referrer string
		Count    int64
	}
	err := s.db.WithContext(ctx).Model(&model.AnalyticsEvent{}).
		Select("referrer, COUNT(*) AS count").
		Where("created_at >= ?", s.since(days)).
		Group("referrer").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("Failed to load analytics", err)
	}

	totals := map[string]int64{}
	for _, r := range rows {
		totals[classifyReferrer(r.Referrer)] += r.Count
	}
	return sortedBuckets(totals), nil
}

// Cleanup deletes events older than the given number of days.
func (s *AnalyticsStore) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, apperror.Validation("days", "days must be positive")
	}
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.AnalyticsEvent{})
	if result.Error != nil {
		return 0, apperror.Internal("Failed to clean up analytics", result.Error)
	}
	return result.RowsAffected, nil
}

var (
	searchEngines = []string{"google.", "bing.", "duckduckgo.", "yahoo.", "yandex.", "baidu."}
	socialSites   = []string{"facebook.", "instagram.", "twitter.", "t.co", "x.com", "linkedin.", "tiktok.", "pinterest.", "youtube."}
)

func classifyReferrer(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "direct"
	}
	host := ref
	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)
	for _, s := range searchEngines {
		if strings.Contains(host, s) {
			return "search"
		}
	}
	for _, s := range socialSites {
		if strings.Contains(host, s) {
			return "social"
		}
	}
	return "referral"
}

func dailyCounts(stamps []time.Time) []DailyCount {
	byDay := map[string]int64{}
	for _, t := range stamps {
		byDay[t.UTC().Format("2006-01-02")]++
	}
	out := make([]DailyCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, DailyCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortedBuckets(m map[string]int64) []Bucket {
	out := make([]Bucket, 0, len(m))
	for label, n := range m {
		out = append(out, Bucket{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
