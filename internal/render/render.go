// Package render produces the paginated report artifacts: an open
// invoices PDF and a passcode-locked summary derived from it.
package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/veeresh/va-bot/internal/report"
)

// Artifact is the rendered pair for one report. The locked copy is
// derived from the open copy by the encryption step alone, so content
// parity holds by construction.
type Artifact struct {
	OpenPath   string
	LockedPath string
	// EncryptionMethod records which fallback produced the locked copy.
	EncryptionMethod string
}

// Renderer renders a report document to a PDF file at path.
type Renderer interface {
	Render(ctx context.Context, doc *report.Document, path string) error
}

// Pipeline chains renderers (first success wins) and the encryptor.
type Pipeline struct {
	renderers []Renderer
	encryptor *Encryptor
	outDir    string
}

// NewPipeline builds the artifact pipeline. Renderers are tried in order;
// a failing renderer logs a warning and the next one takes over.
func NewPipeline(outDir string, encryptor *Encryptor, renderers ...Renderer) (*Pipeline, error) {
	if len(renderers) == 0 {
		return nil, fmt.Errorf("at least one renderer is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir %s: %w", outDir, err)
	}
	return &Pipeline{renderers: renderers, encryptor: encryptor, outDir: outDir}, nil
}

// Produce renders the open invoices artifact and encrypts it into the
// locked summary artifact. Only total renderer failure is fatal.
func (p *Pipeline) Produce(ctx context.Context, doc *report.Document) (*Artifact, error) {
	openPath := filepath.Join(p.outDir, doc.ReportDate+"_invoices.pdf")
	lockedPath := filepath.Join(p.outDir, doc.ReportDate+"_summary_report.pdf")

	var rendered bool
	var lastErr error
	for _, r := range p.renderers {
		if err := r.Render(ctx, doc, openPath); err != nil {
			lastErr = err
			log.Printf("renderer %T failed, trying next: %v", r, err)
			continue
		}
		rendered = true
		break
	}
	if !rendered {
		return nil, fmt.Errorf("all renderers failed: %w", lastErr)
	}

	method, err := p.encryptor.Encrypt(openPath, lockedPath)
	if err != nil {
		return nil, fmt.Errorf("producing locked copy: %w", err)
	}

	return &Artifact{
		OpenPath:         openPath,
		LockedPath:       lockedPath,
		EncryptionMethod: method,
	}, nil
}
