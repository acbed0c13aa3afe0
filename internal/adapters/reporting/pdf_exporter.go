package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// maxRows keeps the report on a couple of pages.
const maxRows = 40

// PDFExporter exports reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportAppUsage renders the per-application usage table
func (e *PDFExporter) ExportAppUsage(report *domain.UsageReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addTotals(pdf, report)
	e.addUsageTable(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.UsageReport) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 14, "Application Network Usage", "", 1, "L", false, 0, "")

	if report.Hostname != "" {
		pdf.SetFont("Arial", "", 13)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 8, report.Hostname, "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s (since %s)", rangeLabel(report.Range), report.Since.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func (e *PDFExporter) addTotals(pdf *gofpdf.Fpdf, report *domain.UsageReport) {
	stats := []struct {
		label string
		value string
	}{
		{"Applications", fmt.Sprintf("%d", len(report.Apps))},
		{"Total", FormatBytes(report.TotalSent + report.TotalReceived)},
		{"Downloaded", FormatBytes(report.TotalReceived)},
		{"Uploaded", FormatBytes(report.TotalSent)},
	}

	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(45, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 102, 204)
		pdf.CellFormat(35, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addUsageTable(pdf *gofpdf.Fpdf, report *domain.UsageReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Top Applications", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(report.Apps) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No network usage recorded for this period", "", 1, "L", false, 0, "")
		return
	}

	header := func() {
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(10, 8, "#", "1", 0, "C", true, 0, "")
		pdf.CellFormat(70, 8, "Application", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "Downloaded", "1", 0, "R", true, 0, "")
		pdf.CellFormat(30, 8, "Uploaded", "1", 0, "R", true, 0, "")
		pdf.CellFormat(30, 8, "Connections", "1", 1, "R", true, 0, "")
	}
	header()

	pdf.SetFont("Arial", "", 9)
	for i, app := range report.Apps {
		if i >= maxRows {
			break
		}
		if pdf.GetY() > 265 {
			pdf.AddPage()
			header()
			pdf.SetFont("Arial", "", 9)
		}
		name := app.ProcessName
		if name == "" {
			name = app.ProcessPath
		}
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(10, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, FormatBytes(app.BytesReceived), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, FormatBytes(app.BytesSent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", app.Connections), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.UsageReport) {
	pdf.SetY(-20)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by NetGuard | Report ID: %s", id), "", 1, "C", false, 0, "")
}

func rangeLabel(r domain.UsageRange) string {
	switch r {
	case domain.RangeWeek:
		return "Last 7 days"
	case domain.RangeMonth:
		return "Last 30 days"
	default:
		return "Today"
	}
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
