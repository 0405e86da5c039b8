package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/veeresh/va-bot/internal/report"
)

func sampleDoc() *report.Document {
	return &report.Document{
		ReportDate:  "25-08-2025",
		GeneratedAt: time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC),
		Entries: []report.Entry{
			{Name: "PrintifyPOD", Status: "ok", Note: "2 shops connected", Amount: 100.50},
			{Name: "CadCrowdAuto", Status: "error", Note: "dashboard returned 503", Amount: 0},
		},
		Total: 100.50,
	}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Errorf("%s does not start with a PDF header", path)
	}
	if len(raw) < 500 {
		t.Errorf("%s is suspiciously small (%d bytes)", path, len(raw))
	}
}

func TestTableRendererRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := NewTableRenderer().Render(context.Background(), sampleDoc(), path); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	assertPDF(t, path)
}

func TestTableRendererZeroEntries(t *testing.T) {
	doc := &report.Document{
		ReportDate:  "25-08-2025",
		GeneratedAt: time.Now(),
	}
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := NewTableRenderer().Render(context.Background(), doc, path); err != nil {
		t.Fatalf("Render of empty report failed: %v", err)
	}
	assertPDF(t, path)
}

func TestTableRendererManyEntries(t *testing.T) {
	// Enough rows to force pagination past the footer guard.
	doc := sampleDoc()
	doc.Entries = nil
	for i := 0; i < 120; i++ {
		doc.Entries = append(doc.Entries, report.Entry{
			Name:   fmt.Sprintf("Stream%03d", i),
			Status: "ok",
			Amount: 1,
		})
	}
	doc.Total = 120

	path := filepath.Join(t.TempDir(), "long.pdf")
	if err := NewTableRenderer().Render(context.Background(), doc, path); err != nil {
		t.Fatalf("Render of long report failed: %v", err)
	}
	assertPDF(t, path)
}

func TestEncryptorFallsBackToInProcess(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "open.pdf")
	dst := filepath.Join(dir, "locked.pdf")
	if err := NewTableRenderer().Render(context.Background(), sampleDoc(), src); err != nil {
		t.Fatalf("rendering source PDF: %v", err)
	}

	enc := NewEncryptor("MY OG")
	enc.lookPath = func(string) (string, error) {
		return "", fmt.Errorf("not installed")
	}

	method, err := enc.Encrypt(src, dst)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if method != MethodPDFCPU {
		t.Errorf("method = %q, want pdfcpu", method)
	}
	assertPDF(t, dst)

	// The locked copy is a different byte stream from the open one: the
	// encryption envelope was actually applied.
	openBytes, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	lockedBytes, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(openBytes, lockedBytes) {
		t.Error("locked copy is byte-identical to the open copy")
	}

	// The locked copy decrypts back to a document with the same content:
	// readable, and the same page structure as the source.
	plain := filepath.Join(dir, "plain.pdf")
	if err := enc.Decrypt(dst, plain); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	assertPDF(t, plain)

	srcPages, err := api.PageCountFile(src)
	if err != nil {
		t.Fatalf("counting source pages: %v", err)
	}
	plainPages, err := api.PageCountFile(plain)
	if err != nil {
		t.Fatalf("counting decrypted pages: %v", err)
	}
	if srcPages != plainPages {
		t.Errorf("decrypted copy has %d pages, source has %d", plainPages, srcPages)
	}
}

func TestEncryptorCopyFallback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "open.pdf")
	dst := filepath.Join(dir, "locked.pdf")
	// Not a real PDF, so the in-process encryptor also fails.
	if err := os.WriteFile(src, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	enc := NewEncryptor("MY OG")
	enc.lookPath = func(string) (string, error) {
		return "", fmt.Errorf("not installed")
	}

	method, err := enc.Encrypt(src, dst)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if method != MethodCopy {
		t.Errorf("method = %q, want copy", method)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "not a pdf" {
		t.Errorf("copy fallback altered content: %q", got)
	}
}

// failingRenderer always errors, standing in for a broken browser setup.
type failingRenderer struct{}

func (failingRenderer) Render(context.Context, *report.Document, string) error {
	return fmt.Errorf("no browser available")
}

func TestPipelineProduce(t *testing.T) {
	dir := t.TempDir()
	enc := NewEncryptor("MY OG")
	enc.lookPath = func(string) (string, error) { return "", fmt.Errorf("not installed") }

	p, err := NewPipeline(dir, enc, failingRenderer{}, NewTableRenderer())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	artifact, err := p.Produce(context.Background(), sampleDoc())
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	if filepath.Base(artifact.OpenPath) != "25-08-2025_invoices.pdf" {
		t.Errorf("OpenPath = %q", artifact.OpenPath)
	}
	if filepath.Base(artifact.LockedPath) != "25-08-2025_summary_report.pdf" {
		t.Errorf("LockedPath = %q", artifact.LockedPath)
	}
	if artifact.EncryptionMethod != MethodPDFCPU {
		t.Errorf("EncryptionMethod = %q", artifact.EncryptionMethod)
	}
	assertPDF(t, artifact.OpenPath)
	assertPDF(t, artifact.LockedPath)
}

func TestPipelineAllRenderersFail(t *testing.T) {
	p, err := NewPipeline(t.TempDir(), NewEncryptor("x"), failingRenderer{})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	_, err = p.Produce(context.Background(), sampleDoc())
	if err == nil || !strings.Contains(err.Error(), "all renderers failed") {
		t.Errorf("error = %v, want total renderer failure", err)
	}
}

func TestPipelineRequiresRenderer(t *testing.T) {
	if _, err := NewPipeline(t.TempDir(), NewEncryptor("x")); err == nil {
		t.Error("NewPipeline with no renderers succeeded")
	}
}
