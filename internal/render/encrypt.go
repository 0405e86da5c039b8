package render

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Encryption methods, in fallback order.
const (
	MethodQPDF   = "qpdf"
	MethodPDFCPU = "pdfcpu"
	MethodCopy   = "copy"
)

// Encryptor produces the passcode-locked copy of an artifact. It tries
// the external qpdf tool first, then in-process pdfcpu, then falls back
// to an unencrypted copy with the event surfaced as a log warning.
type Encryptor struct {
	Passcode string
	// lookPath is swappable in tests to simulate a missing qpdf binary.
	lookPath func(string) (string, error)
}

// NewEncryptor builds an Encryptor for the given passcode.
func NewEncryptor(passcode string) *Encryptor {
	return &Encryptor{Passcode: passcode, lookPath: exec.LookPath}
}

// Encrypt writes a locked copy of src at dst and reports which method
// produced it. The transform is pure: dst differs from src only by the
// encryption envelope.
func (e *Encryptor) Encrypt(src, dst string) (string, error) {
	if err := e.encryptQPDF(src, dst); err == nil {
		return MethodQPDF, nil
	} else {
		log.Printf("qpdf encryption unavailable: %v", err)
	}

	if err := e.encryptPDFCPU(src, dst); err == nil {
		return MethodPDFCPU, nil
	} else {
		log.Printf("pdfcpu encryption failed: %v", err)
	}

	log.Printf("WARNING: sending %s without encryption", src)
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("unencrypted copy fallback failed: %w", err)
	}
	return MethodCopy, nil
}

func (e *Encryptor) encryptQPDF(src, dst string) error {
	bin, err := e.lookPath("qpdf")
	if err != nil {
		return fmt.Errorf("qpdf not found: %w", err)
	}
	cmd := exec.Command(bin, "--encrypt", e.Passcode, e.Passcode, "256", "--", src, dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("qpdf failed: %v: %s", err, out)
	}
	return nil
}

func (e *Encryptor) encryptPDFCPU(src, dst string) error {
	conf := model.NewAESConfiguration(e.Passcode, e.Passcode, 256)
	return api.EncryptFile(src, dst, conf)
}

// Decrypt removes the passcode lock, writing the open document at dst.
// Used to verify content parity of locked artifacts.
func (e *Encryptor) Decrypt(src, dst string) error {
	conf := model.NewAESConfiguration(e.Passcode, e.Passcode, 256)
	return api.DecryptFile(src, dst, conf)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
