package connector

import (
	"context"
	"os"

	"github.com/veeresh/va-bot/internal/credentials"
)

// Fiverr covers the freelance gig stream. Fiverr exposes no seller
// earnings API, so this adapter only verifies the stored key and reports
// the gig automation as ready; amounts arrive via manual reconciliation.
type Fiverr struct {
	apiKey func() string
}

// NewFiverr builds the Fiverr adapter.
func NewFiverr() *Fiverr {
	return &Fiverr{apiKey: func() string { return os.Getenv("FIVERR_API_KEY") }}
}

func (f *Fiverr) Name() string               { return "FiverrAIAuto" }
func (f *Fiverr) Platform() string           { return "fiverr_freelance" }
func (f *Fiverr) Capabilities() Capabilities { return Capabilities{} }

// Fetch verifies credentials and reports gig readiness.
func (f *Fiverr) Fetch(_ context.Context, login *credentials.Login, _ Window) (*Payload, error) {
	if f.apiKey() == "" {
		return nil, &Error{Connector: f.Name(), Message: "no FIVERR_API_KEY"}
	}
	return &Payload{
		Total: 0,
		Note:  "gig automation ready (account=" + login.Owner + ")",
	}, nil
}
