// Package report turns a run's task results into the normalized daily
// report document.
package report

import (
	"time"

	"github.com/veeresh/va-bot/internal/engine"
)

// Entry is one itemized row of the daily report.
type Entry struct {
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Note   string  `json:"note,omitempty"`
	Amount float64 `json:"amount"`
}

// Document is the aggregated daily report. Immutable after creation.
type Document struct {
	ReportDate  string    `json:"report_date"` // DD-MM-YYYY, operator timezone
	Entries     []Entry   `json:"entries"`
	Total       float64   `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Build assembles the document from the result map. Entry order follows
// the static task registry, not completion order, so output is identical
// across sequential and concurrent runs.
func Build(specs []engine.TaskSpec, results map[string]engine.TaskResult, reportDate string, generatedAt time.Time) *Document {
	doc := &Document{
		ReportDate:  reportDate,
		GeneratedAt: generatedAt,
		Entries:     make([]Entry, 0, len(specs)),
	}

	for _, spec := range specs {
		res, ok := results[spec.Name]
		if !ok {
			doc.Entries = append(doc.Entries, Entry{
				Name:   spec.Name,
				Status: string(engine.StatusError),
				Note:   "no result recorded",
			})
			continue
		}

		entry := Entry{
			Name:   res.TaskName,
			Status: string(res.Status),
			Note:   res.ErrorDetail,
		}
		if res.Payload != nil {
			entry.Amount = res.Payload.Total
			if entry.Note == "" {
				entry.Note = res.Payload.Note
			}
		}
		doc.Total += entry.Amount
		doc.Entries = append(doc.Entries, entry)
	}

	return doc
}
