package render

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/veeresh/va-bot/internal/report"
)

// BrowserRenderer prints an HTML rendition of the report to PDF through a
// headless browser. Requires Chrome/Chromium on the system; the table
// renderer takes over when it is unavailable.
type BrowserRenderer struct {
	Timeout time.Duration
}

// NewBrowserRenderer builds the browser renderer with a default timeout.
func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{Timeout: 60 * time.Second}
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 15mm; }
  h1 { font-size: 16pt; }
  .meta { font-size: 10pt; color: #444; }
  table { width: 100%; border-collapse: collapse; font-size: 10pt; margin-top: 8mm; }
  th { text-align: left; border-bottom: 1px solid #000; padding: 2mm 1mm; }
  th.amt, td.amt { text-align: right; }
  td { padding: 1.5mm 1mm; }
  tr.total td { font-weight: bold; border-top: 1px solid #000; font-size: 12pt; }
</style>
</head>
<body>
<h1>VA Bot - Daily Summary Report</h1>
<div class="meta">Generated: {{.GeneratedAt.Format "02-01-2006 15:04:05"}}</div>
<table>
<tr><th>Connector</th><th>Status</th><th class="amt">Earnings (INR)</th></tr>
{{if not .Entries}}<tr><td colspan="2">no items</td><td class="amt">0.00</td></tr>{{end}}
{{range .Entries}}<tr><td>{{.Name}}</td><td>{{.Status}} {{.Note}}</td><td class="amt">{{printf "%.2f" .Amount}}</td></tr>
{{end}}<tr class="total"><td colspan="2">TOTAL</td><td class="amt">{{printf "%.2f" .Total}}</td></tr>
</table>
</body>
</html>`))

// Render builds the HTML and prints it to PDF at path.
func (b *BrowserRenderer) Render(ctx context.Context, doc *report.Document, path string) error {
	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, doc); err != nil {
		return fmt.Errorf("executing report template: %w", err)
	}

	htmlFile, err := os.CreateTemp("", "va-report-*.html")
	if err != nil {
		return fmt.Errorf("creating temp HTML: %w", err)
	}
	htmlPath := htmlFile.Name()
	defer func() { _ = os.Remove(htmlPath) }()
	if _, err := htmlFile.WriteString(sb.String()); err != nil {
		_ = htmlFile.Close()
		return fmt.Errorf("writing temp HTML: %w", err)
	}
	if err := htmlFile.Close(); err != nil {
		return fmt.Errorf("closing temp HTML: %w", err)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(false).
				WithPaperWidth(8.27).  // A4 inches
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("browser print failed: %w", err)
	}

	if err := os.WriteFile(path, pdfBuf, 0o644); err != nil {
		return fmt.Errorf("writing PDF %s: %w", path, err)
	}
	return nil
}
