// Package pipeline provides the high-level orchestration for the daily
// report cycle: execute connectors, build the report, render and encrypt
// artifacts, then gate delivery behind the approval state machine.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veeresh/va-bot/internal/approval"
	"github.com/veeresh/va-bot/internal/config"
	"github.com/veeresh/va-bot/internal/connector"
	"github.com/veeresh/va-bot/internal/delivery"
	"github.com/veeresh/va-bot/internal/engine"
	"github.com/veeresh/va-bot/internal/render"
	"github.com/veeresh/va-bot/internal/report"
)

// Date formats used for file naming and report ids.
const (
	dateKeyFormat  = "02-01-2006"
	reportIDFormat = "20060102150405"
)

// Options configures one pipeline cycle.
type Options struct {
	// Parallel selects the concurrent engine mode.
	Parallel bool
}

// RunOutcome summarizes a completed cycle for callers.
type RunOutcome struct {
	ReportID string
	DateKey  string
	Total    float64
	Artifact *render.Artifact
}

// Pipeline wires the engine, report builder, renderer, approval machine,
// and delivery gateway into one daily cycle. Whole-pipeline runs are
// serialized: only one may be in flight at a time.
type Pipeline struct {
	cfg      *config.Config
	loc      *time.Location
	engine   *engine.Engine
	store    *engine.ResultStore
	renderer *render.Pipeline
	machine  *approval.Machine
	tokens   *approval.TokenService
	gateway  delivery.Gateway

	runMu sync.Mutex
}

// New assembles the pipeline from configuration. The approval machine's
// continue action delivers the artifact pair and records the outcome on
// the run's result file.
func New(cfg *config.Config, eng *engine.Engine, store *engine.ResultStore, renderer *render.Pipeline, approvalStore *approval.Store, tokens *approval.TokenService, gateway delivery.Gateway) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:      cfg,
		loc:      loc,
		engine:   eng,
		store:    store,
		renderer: renderer,
		tokens:   tokens,
		gateway:  gateway,
	}
	p.machine = approval.NewMachine(approvalStore, cfg.ApprovalWindow, p.continueRun)
	return p, nil
}

// Machine exposes the approval state machine for the HTTP surface.
func (p *Pipeline) Machine() *approval.Machine { return p.machine }

// Tokens exposes the approval token service.
func (p *Pipeline) Tokens() *approval.TokenService { return p.tokens }

// Run executes one full daily cycle. Individual task and artifact
// failures degrade the report; only total renderer failure or a failed
// approval dispatch abort the cycle.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunOutcome, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	now := time.Now().In(p.loc)
	dateKey := now.Format(dateKeyFormat)
	reportID := now.Format(reportIDFormat)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
	window := connector.Window{Start: dayStart, End: now}

	fmt.Printf("Step 1/4: Running %d connector tasks (parallel=%t)...\n", len(p.engine.Specs()), opts.Parallel)
	results, err := p.engine.Run(ctx, dateKey, engine.Options{
		Parallel:   opts.Parallel,
		MaxWorkers: p.cfg.MaxWorkers,
		Backoff:    p.cfg.RetryBackoff,
		Window:     window,
	})
	if err != nil {
		return nil, fmt.Errorf("engine run failed: %w", err)
	}

	fmt.Printf("Step 2/4: Building report document...\n")
	doc := report.Build(p.engine.Specs(), results, dateKey, now)

	fmt.Printf("Step 3/4: Rendering and encrypting artifacts...\n")
	artifact, err := p.renderer.Produce(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("rendering artifacts failed: %w", err)
	}

	fmt.Printf("Step 4/4: Dispatching approval request (window %s)...\n", p.cfg.ApprovalWindow)
	p.machine.Create(reportID, dateKey)
	if err := p.sendApprovalRequest(ctx, reportID, dateKey, doc, artifact); err != nil {
		return nil, fmt.Errorf("dispatching approval request: %w", err)
	}

	fmt.Printf("Done. Report %s pending approval until %s.\n", reportID, now.Add(p.cfg.ApprovalWindow).Format("15:04:05"))
	return &RunOutcome{
		ReportID: reportID,
		DateKey:  dateKey,
		Total:    doc.Total,
		Artifact: artifact,
	}, nil
}

// Approve forwards an explicit approval signal to the state machine.
func (p *Pipeline) Approve(reportID string) (approval.Outcome, error) {
	return p.machine.Approve(reportID)
}

// sendApprovalRequest emails the boss the report pair plus the approval
// link carrying a single-use reference.
func (p *Pipeline) sendApprovalRequest(ctx context.Context, reportID, dateKey string, doc *report.Document, artifact *render.Artifact) error {
	token, err := p.tokens.Issue(reportID)
	if err != nil {
		return err
	}
	approvalLink := fmt.Sprintf("%s/approve/%s", p.cfg.ExternalHost, token)

	body := fmt.Sprintf(`Boss,

VA Bot executed tasks for %s. Total earnings: %.2f INR.

Please click APPROVE to allow VA Bot to proceed with today's actions.
APPROVE LINK: %s

If no approval within %d minutes, VA Bot will auto-resume.

Summary PDF is code-locked with passcode: %s
`, dateKey, doc.Total, approvalLink, int(p.cfg.ApprovalWindow.Minutes()), p.cfg.Passcode)

	return p.gateway.Deliver(ctx, &delivery.Bundle{
		Recipient:   p.cfg.BossEmail,
		Subject:     fmt.Sprintf("%s summary report", dateKey),
		Body:        body,
		Attachments: []string{artifact.LockedPath, artifact.OpenPath},
	})
}

// continueRun is the approval machine's single-fire continue action: it
// delivers the artifact pair with the resolution annotation and records
// the outcome on the day's result file.
func (p *Pipeline) continueRun(reportID, dateKey string, auto bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mode := "approved"
	annotation := "explicit approval"
	if auto {
		mode = "auto_resume"
		annotation = "auto-resume (no approval within window)"
	}

	body := fmt.Sprintf("VA Bot is proceeding with the %s actions.\nTrigger: %s.\nReport: %s\n", dateKey, annotation, reportID)
	bundle := &delivery.Bundle{
		Recipient: p.cfg.BossEmail,
		Subject:   fmt.Sprintf("%s report delivered (%s)", dateKey, mode),
		Body:      body,
		Attachments: []string{
			filepath.Join(p.cfg.OutDir, dateKey+"_summary_report.pdf"),
			filepath.Join(p.cfg.OutDir, dateKey+"_invoices.pdf"),
		},
	}

	outcome := engine.DeliveryOutcome{
		Delivered: true,
		Mode:      mode,
		MessageID: uuid.New(),
		At:        time.Now().In(p.loc),
	}
	if err := p.gateway.Deliver(ctx, bundle); err != nil {
		// Retries are exhausted inside the gateway; surface, don't drop.
		log.Printf("TERMINAL: delivery for report %s failed: %v", reportID, err)
		outcome.Delivered = false
		outcome.Detail = err.Error()
	}

	if err := p.store.RecordDelivery(dateKey, outcome); err != nil {
		log.Printf("recording delivery outcome for %s: %v", dateKey, err)
	}
}
