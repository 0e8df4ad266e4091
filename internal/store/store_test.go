package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"realty_backend/internal/model"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/config"
	"realty_backend/pkg/database"
	"realty_backend/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, logging.Discard(), model.All()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func mustCreate(t *testing.T, s *GormPropertyStore, fields map[string]any) *model.Property {
	t.Helper()
	p, _, err := model.NewPropertyFromFields(fields)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), p))
	return p
}

func listing(title, typ, status, city string, price float64, extra map[string]any) map[string]any {
	f := map[string]any{
		"title":         title,
		"type":          typ,
		"status":        status,
		"price":         price,
		"location_area": "Centre",
		"location_city": city,
	}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

func TestPropertyCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))

	p := mustCreate(t, s, listing("Test Villa", "Villa", "For Sale", "Y", 1000000, map[string]any{"bedrooms": 3}))
	assert.NotZero(t, p.ID)
	assert.Len(t, p.UUID, 36)
	assert.Equal(t, "test-villa", p.Slug)

	for _, ident := range []string{"1", p.UUID, p.Slug} {
		got, err := s.Get(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, "Test Villa", got.Title)
		assert.Equal(t, int64(0), got.ViewsCount)
		assert.True(t, got.Published)
	}

	_, err := s.Get(ctx, "999")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPropertySlugCollision(t *testing.T) {
	s := NewPropertyStore(newTestDB(t))
	a := mustCreate(t, s, listing("Sea View", "Apartment", "For Rent", "Dubai", 5000, nil))
	b := mustCreate(t, s, listing("Sea View", "Apartment", "For Rent", "Dubai", 6000, nil))

	assert.Equal(t, "sea-view", a.Slug)
	assert.NotEqual(t, a.Slug, b.Slug)
	assert.Contains(t, b.Slug, "sea-view-")
}

func TestPropertyFalseFlagsPersist(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))
	p := mustCreate(t, s, listing("Hidden", "House", "Sold", "Y", 10, map[string]any{"published": false, "available": false}))

	got, err := s.Get(ctx, p.Slug)
	require.NoError(t, err)
	assert.False(t, got.Published)
	assert.False(t, got.Available)
}

func TestPropertyListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))

	mustCreate(t, s, listing("Marina Apartment", "Apartment", "For Sale", "Dubai", 900000, map[string]any{"bedrooms": 2, "featured": true}))
	mustCreate(t, s, listing("Palm Villa", "Villa", "For Sale", "Dubai", 5000000, map[string]any{"bedrooms": 5, "description": "Private beach"}))
	mustCreate(t, s, listing("City Studio", "Studio", "For Rent", "London", 2000, map[string]any{"bedrooms": 0}))
	mustCreate(t, s, listing("Draft Villa", "Villa", "For Sale", "Dubai", 100, map[string]any{"published": false}))

	page, err := s.List(ctx, PropertyFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Properties, 3)
	assert.Equal(t, 20, page.Limit)

	page, err = s.List(ctx, PropertyFilter{City: "dubai"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	lo, hi := 1000.0, 1000000.0
	page, err = s.List(ctx, PropertyFilter{MinPrice: &lo, MaxPrice: &hi, Sort: "price", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Properties, 2)
	assert.Equal(t, "City Studio", page.Properties[0].Title)
	assert.Equal(t, "Marina Apartment", page.Properties[1].Title)

	beds := 2
	page, err = s.List(ctx, PropertyFilter{Bedrooms: &beds, Type: "Villa"})
	require.NoError(t, err)
	require.Len(t, page.Properties, 1)
	assert.Equal(t, "Palm Villa", page.Properties[0].Title)

	page, err = s.List(ctx, PropertyFilter{Search: "BEACH"})
	require.NoError(t, err)
	require.Len(t, page.Properties, 1)
	assert.Equal(t, "Palm Villa", page.Properties[0].Title)

	page, err = s.List(ctx, PropertyFilter{IncludeUnpublished: true, Limit: 2, Offset: 2, Sort: "title", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Properties, 2)
	assert.Equal(t, "Marina Apartment", page.Properties[0].Title)
	assert.Equal(t, "Palm Villa", page.Properties[1].Title)

	featured, err := s.Featured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Marina Apartment", featured[0].Title)

	found, err := s.Search(ctx, "studio", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestPropertyListBounds(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))
	mustCreate(t, s, listing("Near", "House", "For Sale", "Dubai", 1, map[string]any{"latitude": 25.2, "longitude": 55.27}))
	mustCreate(t, s, listing("Far", "House", "For Sale", "London", 1, map[string]any{"latitude": 51.5, "longitude": -0.12}))
	mustCreate(t, s, listing("Nowhere", "House", "For Sale", "Unknown", 1, nil))

	page, err := s.List(ctx, PropertyFilter{Bounds: &Bounds{MinLat: 24, MaxLat: 26, MinLng: 54, MaxLng: 56}})
	require.NoError(t, err)
	require.Len(t, page.Properties, 1)
	assert.Equal(t, "Near", page.Properties[0].Title)
}

func TestPropertyUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))
	p := mustCreate(t, s, listing("Old", "House", "For Sale", "Y", 100, map[string]any{"featured": true}))

	updated, ignored, err := s.Update(ctx, p.ID, map[string]any{
		"title":       "New",
		"price":       "250",
		"featured":    false,
		"views_count": 50,
		"unknown":     "x",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"unknown", "views_count"}, ignored)
	assert.Equal(t, "New", updated.Title)

	got, err := s.Get(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, 250.0, got.Price)
	assert.False(t, got.Featured)
	assert.Equal(t, int64(0), got.ViewsCount)
	assert.Equal(t, "Y", got.LocationCity)

	_, _, err = s.Update(ctx, p.ID, map[string]any{"type": "Castle"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, _, err = s.Update(ctx, 999, map[string]any{"title": "x"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPropertyDeleteAndViews(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))
	p := mustCreate(t, s, listing("Gone", "Land", "For Sale", "Y", 1, nil))

	require.NoError(t, s.IncrementViews(ctx, p.ID))
	require.NoError(t, s.IncrementViews(ctx, p.ID))
	got, err := s.Get(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewsCount)

	deleted, err := s.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = s.Get(ctx, p.Slug)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = s.Delete(ctx, p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.True(t, apperror.Is(s.IncrementViews(ctx, p.ID), apperror.KindNotFound))
}

func TestPropertySummary(t *testing.T) {
	ctx := context.Background()
	s := NewPropertyStore(newTestDB(t))
	mustCreate(t, s, listing("A", "Villa", "For Sale", "Dubai", 100, map[string]any{"featured": true}))
	mustCreate(t, s, listing("B", "Villa", "Sold", "Dubai", 300, nil))
	mustCreate(t, s, listing("C", "Office", "For Rent", "London", 200, map[string]any{"published": false}))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Total)
	assert.Equal(t, int64(2), sum.Published)
	assert.Equal(t, int64(1), sum.Featured)
	assert.InDelta(t, 200.0, sum.AveragePrice, 0.001)
	assert.Equal(t, 100.0, sum.MinPrice)
	assert.Equal(t, 300.0, sum.MaxPrice)
	assert.Equal(t, int64(2), sum.ByType["Villa"])
	assert.Equal(t, int64(1), sum.ByStatus["Sold"])
	assert.Equal(t, int64(2), sum.ByCity["Dubai"])

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestContactStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewContactStore(db)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	c := &model.ContactInquiry{Name: "Ana", Email: "ana@example.com", Message: "Is it available?"}
	require.NoError(t, s.Create(ctx, c))
	assert.Len(t, c.Reference, 36)
	assert.Equal(t, model.InquiryStatusNew, c.Status)
	assert.Equal(t, model.InquiryPriorityNormal, c.Priority)

	require.NoError(t, s.Create(ctx, &model.ContactInquiry{Name: "Ben", Email: "ben@example.com", Message: "Viewing please"}))

	page, err := s.List(ctx, ContactFilter{Search: "VIEWING"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Ben", page.Contacts[0].Name)

	status := model.InquiryStatusContacted
	notes := "Called back"
	updated, err := s.UpdateStatus(ctx, c.ID, model.InquiryUpdate{Status: &status, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, model.InquiryStatusContacted, updated.Status)
	assert.Equal(t, "Called back", updated.AdminNotes)
	require.NotNil(t, updated.ContactedAt)
	assert.True(t, fixed.Equal(*updated.ContactedAt))

	bad := model.InquiryStatus("archived")
	_, err = s.UpdateStatus(ctx, c.ID, model.InquiryUpdate{Status: &bad})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = s.UpdateStatus(ctx, c.ID, model.InquiryUpdate{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["new"])
	assert.Equal(t, int64(1), counts["contacted"])
	assert.Equal(t, int64(0), counts["spam"])

	recent, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	require.NoError(t, s.Delete(ctx, c.ID))
	_, err = s.Get(ctx, c.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.True(t, apperror.Is(s.Delete(ctx, c.ID), apperror.KindNotFound))
}

func TestAnalyticsReports(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	props := NewPropertyStore(db)
	s := NewAnalyticsStore(db)
	p := mustCreate(t, props, listing("Viewed", "Villa", "For Sale", "Y", 1, nil))

	events := []*model.AnalyticsEvent{
		{EventType: model.EventPageView, SessionID: "s1", Referrer: "https://www.google.com/search?q=villa", UserAgent: "Mozilla/5.0 (iPhone) Mobile"},
		{EventType: model.EventPropertyView, SessionID: "s1", PropertyID: &p.ID, UserAgent: "Mozilla/5.0 (X11; Linux)"},
		{EventType: model.EventPropertyView, SessionID: "s2", PropertyID: &p.ID, Referrer: "https://facebook.com/"},
		{EventType: model.EventSearch, SessionID: "s2", SearchQuery: "Villa"},
		{EventType: model.EventSearch, SessionID: "s3", SearchQuery: "villa"},
	}
	for _, e := range events {
		require.NoError(t, s.Track(ctx, e))
	}
	old := &model.AnalyticsEvent{EventType: model.EventPageView, CreatedAt: time.Now().AddDate(0, 0, -200)}
	require.NoError(t, s.Track(ctx, old))

	ov, err := s.Overview(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(5), ov.TotalEvents)
	assert.Equal(t, int64(3), ov.UniqueSessions)
	assert.Equal(t, int64(2), ov.ByType["property_view"])
	require.Len(t, ov.TopProperties, 1)
	assert.Equal(t, "Viewed", ov.TopProperties[0].Title)
	assert.Equal(t, int64(2), ov.TopProperties[0].Views)
	require.Len(t, ov.Daily, 1)
	assert.Equal(t, int64(5), ov.Daily[0].Count)

	searches, err := s.Searches(ctx, 30, 10)
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, Bucket{Label: "villa", Count: 2}, searches[0])

	sources, err := s.TrafficSources(ctx, 30)
	require.NoError(t, err)
	assert.Contains(t, sources, Bucket{Label: "direct", Count: 3})
	assert.Contains(t, sources, Bucket{Label: "search", Count: 1})
	assert.Contains(t, sources, Bucket{Label: "social", Count: 1})

	devices, err := s.Devices(ctx, 30)
	require.NoError(t, err)
	assert.Contains(t, devices, Bucket{Label: "mobile", Count: 1})
	assert.Contains(t, devices, Bucket{Label: "unknown", Count: 3})

	removed, err := s.Cleanup(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestClassifyReferrer(t *testing.T) {
	assert.Equal(t, "direct", classifyReferrer(""))
	assert.Equal(t, "search", classifyReferrer("https://www.bing.com/"))
	assert.Equal(t, "social", classifyReferrer("https://t.co/abc"))
	assert.Equal(t, "referral", classifyReferrer("https://blog.example.org/post"))
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(newTestDB(t))
	now := time.Now()

	require.NoError(t, s.Record(ctx, &model.AdminSession{TokenID: "live", Username: "admin", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.Record(ctx, &model.AdminSession{TokenID: "stale", Username: "admin", ExpiresAt: now.Add(-time.Hour)}))

	active, err := s.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	require.NoError(t, s.Touch(ctx, "live"))
	require.NoError(t, s.Revoke(ctx, "live"))
	active, err = s.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), active)

	purged, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
