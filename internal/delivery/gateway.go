// Package delivery sends report bundles to the operator over SMTP.
package delivery

import (
	"context"
	"fmt"
	"log"
	"os"

	mail "github.com/wneessen/go-mail"
)

// Bundle is one outbound document delivery.
type Bundle struct {
	Recipient   string
	Subject     string
	Body        string
	Attachments []string
}

// Gateway delivers a bundle to its recipient.
type Gateway interface {
	Deliver(ctx context.Context, b *Bundle) error
}

// SMTPGateway delivers bundles through an authenticated STARTTLS SMTP
// session.
type SMTPGateway struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPGateway builds the SMTP gateway.
func NewSMTPGateway(host string, port int, username, password string) *SMTPGateway {
	return &SMTPGateway{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     username,
	}
}

// Deliver sends one bundle. Attachments that are missing on disk are
// logged and skipped rather than failing the whole delivery.
func (g *SMTPGateway) Deliver(ctx context.Context, b *Bundle) error {
	if g.Username == "" || g.Password == "" {
		return fmt.Errorf("missing SMTP credentials (set VA_EMAIL and VA_PASSWORD)")
	}

	msg := mail.NewMsg()
	if err := msg.From(g.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", g.From, err)
	}
	if err := msg.To(b.Recipient); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", b.Recipient, err)
	}
	msg.Subject(b.Subject)
	msg.SetBodyString(mail.TypeTextPlain, b.Body)

	for _, path := range b.Attachments {
		if _, err := os.Stat(path); err != nil {
			log.Printf("attachment missing, not attaching: %s", path)
			continue
		}
		msg.AttachFile(path)
	}

	client, err := mail.NewClient(g.Host,
		mail.WithPort(g.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(g.Username),
		mail.WithPassword(g.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("building SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", b.Recipient, err)
	}
	log.Printf("email sent to %s (%d attachments)", b.Recipient, len(b.Attachments))
	return nil
}
