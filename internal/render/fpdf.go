package render

import (
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/veeresh/va-bot/internal/report"
)

// Fixed A4 layout, measured in millimeters.
const (
	pageMargin   = 15.0
	rowHeight    = 6.0
	footerGuard  = 30.0 // break to a new page below this much remaining space
	nameColWidth = 70.0
	noteColWidth = 70.0
	amtColWidth  = 40.0
)

// TableRenderer draws the report as a fixed-layout paginated table. It is
// the pure-Go fallback behind the browser renderer and the layout of
// record for tests.
type TableRenderer struct{}

// NewTableRenderer builds the fallback renderer.
func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

// Render writes the report table to path. A zero-entry report still
// produces a valid one-row "no items" artifact.
func (t *TableRenderer) Render(_ context.Context, doc *report.Document, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	_, pageHeight := pdf.GetPageSize()

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "VA Bot - Daily Summary Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated: "+doc.GeneratedAt.Format("02-01-2006 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Table header
	writeTableHeader(pdf)

	pdf.SetFont("Helvetica", "", 10)
	if len(doc.Entries) == 0 {
		pdf.CellFormat(nameColWidth+noteColWidth, rowHeight, "no items", "", 0, "L", false, 0, "")
		pdf.CellFormat(amtColWidth, rowHeight, "0", "", 1, "R", false, 0, "")
	}
	for _, entry := range doc.Entries {
		if pageHeight-pdf.GetY() < footerGuard {
			pdf.AddPage()
			writeTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 10)
		}
		statusNote := entry.Status
		if entry.Note != "" {
			statusNote += " " + entry.Note
		}
		pdf.CellFormat(nameColWidth, rowHeight, entry.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(noteColWidth, rowHeight, statusNote, "", 0, "L", false, 0, "")
		pdf.CellFormat(amtColWidth, rowHeight, formatAmount(entry.Amount), "", 1, "R", false, 0, "")
	}

	// Total row
	if pageHeight-pdf.GetY() < footerGuard {
		pdf.AddPage()
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(nameColWidth+noteColWidth, rowHeight, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(amtColWidth, rowHeight, formatAmount(doc.Total), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing PDF %s: %w", path, err)
	}
	return nil
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(nameColWidth, rowHeight, "Connector", "", 0, "L", false, 0, "")
	pdf.CellFormat(noteColWidth, rowHeight, "Status", "", 0, "L", false, 0, "")
	pdf.CellFormat(amtColWidth, rowHeight, "Earnings (INR)", "", 1, "R", false, 0, "")
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
