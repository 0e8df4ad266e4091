package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"realty_backend/internal/store"

	"github.com/go-pdf/fpdf"
)

// AnalyticsData is everything the PDF report shows.
type AnalyticsData struct {
	Title       string
	GeneratedAt time.Time
	Overview    *store.Overview
	Devices     []store.Bucket
	Sources     []store.Bucket
	Searches    []store.Bucket
}

// AnalyticsPDF renders a one page summary of the analytics reports.
func AnalyticsPDF(data AnalyticsData) ([]byte, error) {
	if data.Overview == nil {
		return nil, fmt.Errorf("overview is required")
	}
	title := data.Title
	if title == "" {
		title = "Listing analytics"
	}
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Last %d days, generated %s", data.Overview.Days, generated.Format("2006-01-02 15:04")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total events: %d", data.Overview.TotalEvents))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Unique sessions: %d", data.Overview.UniqueSessions))
	pdf.Ln(10)

	types := make([]string, 0, len(data.Overview.ByType))
	for k := range data.Overview.ByType {
		types = append(types, k)
	}
	sort.Strings(types)
	section(pdf, "Events by type")
	for _, k := range types {
		line(pdf, fmt.Sprintf("- %s: %d", k, data.Overview.ByType[k]))
	}

	section(pdf, "Most viewed listings")
	if len(data.Overview.TopProperties) == 0 {
		line(pdf, "No listing views recorded")
	}
	for _, p := range data.Overview.TopProperties {
		line(pdf, tr(fmt.Sprintf("- #%d %s: %d views", p.PropertyID, p.Title, p.Views)))
	}

	buckets(pdf, tr, "Devices", data.Devices)
	buckets(pdf, tr, "Traffic sources", data.Sources)
	buckets(pdf, tr, "Top searches", data.Searches)

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buffer.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, heading string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, heading)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func line(pdf *fpdf.Fpdf, text string) {
	pdf.Cell(0, 6, text)
	pdf.Ln(6)
}

func buckets(pdf *fpdf.Fpdf, tr func(string) string, heading string, rows []store.Bucket) {
	section(pdf, heading)
	if len(rows) == 0 {
		line(pdf, "No data")
		return
	}
	for _, b := range rows {
		label := b.Label
		if label == "" {
			label = "(none)"
		}
		line(pdf, tr(fmt.Sprintf("- %s: %d", label, b.Count)))
	}
}
