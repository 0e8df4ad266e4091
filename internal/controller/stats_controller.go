package controller

import (
	"fmt"
	"strings"
	"time"

	"realty_backend/internal/middleware"
	"realty_backend/internal/model"
	"realty_backend/internal/service"
	"realty_backend/internal/store"
	"realty_backend/pkg/apperror"
	"realty_backend/pkg/report"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

const defaultReportDays = 30

type TrackInput struct {
	EventType   string         `json:"event_type"`
	PropertyID  *uint          `json:"property_id"`
	SessionID   string         `json:"session_id"`
	PageURL     string         `json:"page_url"`
	Referrer    string         `json:"referrer"`
	SearchQuery string         `json:"search_query"`
	EventData   datatypes.JSON `json:"event_data"`
}

type AnalyticsController struct {
	analytics     *store.AnalyticsStore
	retentionDays int
}

func NewAnalyticsController(analytics *store.AnalyticsStore, retentionDays int) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, retentionDays: retentionDays}
}

func reportDays(c *fiber.Ctx) (int, error) {
	days, err := queryIntOr(c, "days", defaultReportDays)
	if err != nil {
		return 0, err
	}
	if days <= 0 || days > 365 {
		return 0, apperror.Validation("days", "days must be between 1 and 365")
	}
	return days, nil
}

// Track records one client-side event. Without a session id the event is
// grouped per IP and day.
func (ac *AnalyticsController) Track(c *fiber.Ctx) error {
	input := new(TrackInput)
	if err := c.BodyParser(input); err != nil {
		return apperror.Validation("", "Invalid input")
	}
	input.EventType = strings.TrimSpace(input.EventType)
	if input.EventType == "" {
		return apperror.Validation("event_type", "event_type is required")
	}
	if !model.ValidEventType(input.EventType) {
		return apperror.Validationf("event_type", "Invalid event type %q", input.EventType)
	}

	meta := middleware.Meta(c)
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = c.Get("X-Session-ID")
	}
	if sessionID == "" {
		sessionID = fmt.Sprintf("%s_%s", meta.IP, time.Now().Format("20060102"))
	}
	referrer := input.Referrer
	if referrer == "" {
		referrer = c.Get(fiber.HeaderReferer)
	}

	event := &model.AnalyticsEvent{
		EventType:   model.EventType(input.EventType),
		PropertyID:  input.PropertyID,
		SessionID:   sessionID,
		PageURL:     input.PageURL,
		Referrer:    referrer,
		UserAgent:   meta.UserAgent,
		IPAddress:   meta.IP,
		SearchQuery: strings.TrimSpace(input.SearchQuery),
		EventData:   input.EventData,
	}

	if err := ac.analytics.Track(c.UserContext(), event); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Event recorded", "id": event.ID})
}

func (ac *AnalyticsController) Overview(c *fiber.Ctx) error {
	days, err := reportDays(c)
	if err != nil {
		return err
	}
	overview, err := ac.analytics.Overview(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

func (ac *AnalyticsController) Devices(c *fiber.Ctx) error {
	days, err := reportDays(c)
	if err != nil {
		return err
	}
	devices, err := ac.analytics.Devices(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"days": days, "devices": devices})
}

func (ac *AnalyticsController) Searches(c *fiber.Ctx) error {
	days, err := reportDays(c)
	if err != nil {
		return err
	}
	limit, err := queryIntOr(c, "limit", 20)
	if err != nil {
		return err
	}
	searches, err := ac.analytics.Searches(c.UserContext(), days, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"days": days, "searches": searches})
}

func (ac *AnalyticsController) TrafficSources(c *fiber.Ctx) error {
	days, err := reportDays(c)
	if err != nil {
		return err
	}
	sources, err := ac.analytics.TrafficSources(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"days": days, "sources": sources})
}

// ReportPDF renders the overview, device, traffic and search reports as one
// downloadable PDF.
func (ac *AnalyticsController) ReportPDF(c *fiber.Ctx) error {
	days, err := reportDays(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	data := report.AnalyticsData{
		Title:       fmt.Sprintf("Analytics report, last %d days", days),
		GeneratedAt: time.Now(),
	}
	if data.Overview, err = ac.analytics.Overview(ctx, days); err != nil {
		return err
	}
	if data.Devices, err = ac.analytics.Devices(ctx, days); err != nil {
		return err
	}
	if data.Sources, err = ac.analytics.TrafficSources(ctx, days); err != nil {
		return err
	}
	if data.Searches, err = ac.analytics.Searches(ctx, days, 20); err != nil {
		return err
	}

	pdf, err := report.AnalyticsPDF(data)
	if err != nil {
		return apperror.Internal("Could not render report", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="analytics-%s.pdf"`, data.GeneratedAt.Format("2006-01-02")))
	return c.Send(pdf)
}

// Cleanup deletes events older than ?days, defaulting to the retention window.
func (ac *AnalyticsController) Cleanup(c *fiber.Ctx) error {
	days, err := queryIntOr(c, "days", ac.retentionDays)
	if err != nil {
		return err
	}
	deleted, err := ac.analytics.Cleanup(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Deleted %d events older than %d days", deleted, days),
		"deleted": deleted,
	})
}

type DashboardController struct {
	dashboard *service.Dashboard
}

func NewDashboardController(d *service.Dashboard) *DashboardController {
	return &DashboardController{dashboard: d}
}

func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	days, err := reportDays(c)
	if err != nil {
		return err
	}
	stats, err := dc.dashboard.Stats(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
