package service

import (
	"context"
	"time"

	"realty_backend/internal/model"
	"realty_backend/internal/store"
	"realty_backend/pkg/email"
)

type DashboardStats struct {
	Properties     *store.PropertySummary `json:"properties"`
	Inquiries      InquiryStats           `json:"inquiries"`
	Analytics      *store.Overview        `json:"analytics"`
	ActiveSessions int64                  `json:"active_sessions"`
}

type InquiryStats struct {
	ByStatus map[string]int64       `json:"by_status"`
	Open     int64                  `json:"open"`
	Recent   []model.ContactInquiry `json:"recent"`
}

// Dashboard aggregates the figures shown on the admin landing page and in
// the periodic digest email.
type Dashboard struct {
	stores *store.Stores
	now    func() time.Time
}

func NewDashboard(stores *store.Stores) *Dashboard {
	return &Dashboard{stores: stores, now: time.Now}
}

func openInquiries(byStatus map[string]int64) int64 {
	return byStatus[string(model.InquiryStatusNew)] +
		byStatus[string(model.InquiryStatusContacted)] +
		byStatus[string(model.InquiryStatusInProgress)]
}

func (d *Dashboard) Stats(ctx context.Context, days int) (*DashboardStats, error) {
	summary, err := d.stores.Properties.Summary(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := d.stores.Contacts.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := d.stores.Contacts.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	overview, err := d.stores.Analytics.Overview(ctx, days)
	if err != nil {
		return nil, err
	}
	active, err := d.stores.Sessions.Active(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Properties: summary,
		Inquiries: InquiryStats{
			ByStatus: byStatus,
			Open:     openInquiries(byStatus),
			Recent:   recent,
		},
		Analytics:      overview,
		ActiveSessions: active,
	}, nil
}

// Digest collects the totals for the stats email covering the last days.
func (d *Dashboard) Digest(ctx context.Context, period string, days int) (email.StatsDigestData, error) {
	data := email.StatsDigestData{Period: period, Since: d.now().AddDate(0, 0, -days)}

	summary, err := d.stores.Properties.Summary(ctx)
	if err != nil {
		return data, err
	}
	data.TotalProperties = summary.Total
	data.Published = summary.Published
	data.TotalViews = summary.TotalViews

	if data.NewInquiries, err = d.stores.Contacts.CountSince(ctx, data.Since); err != nil {
		return data, err
	}
	byStatus, err := d.stores.Contacts.CountByStatus(ctx)
	if err != nil {
		return data, err
	}
	data.OpenInquiries = openInquiries(byStatus)

	overview, err := d.stores.Analytics.Overview(ctx, days)
	if err != nil {
		return data, err
	}
	data.Events = overview.TotalEvents
	data.UniqueSessions = overview.UniqueSessions
	if len(overview.TopProperties) > 0 {
		data.TopProperty = overview.TopProperties[0].Title
		data.TopViews = overview.TopProperties[0].Views
	}
	return data, nil
}
