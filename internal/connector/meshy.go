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

const meshyBaseURL = "https://api.meshy.ai/v1"

// Meshy checks the 3D-asset store: verifies the API key and reads the
// account balance as the window's earnings figure.
type Meshy struct {
	client  *http.Client
	baseURL string
	apiKey  func() string
}

// NewMeshy builds the Meshy adapter.
func NewMeshy(client *http.Client) *Meshy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Meshy{
		client:  client,
		baseURL: meshyBaseURL,
		apiKey:  func() string { return os.Getenv("MESHY_API_KEY") },
	}
}

func (m *Meshy) Name() string               { return "MeshyAIStore" }
func (m *Meshy) Platform() string           { return "meshy_ai_store" }
func (m *Meshy) Capabilities() Capabilities { return Capabilities{} }

type meshyBalance struct {
	Balance float64 `json:"balance"`
}

// Fetch reads the credit balance. Meshy has no earnings-report endpoint,
// so the balance stands in for the store's running total.
func (m *Meshy) Fetch(ctx context.Context, _ *credentials.Login, w Window) (*Payload, error) {
	key := m.apiKey()
	if key == "" {
		return nil, &Error{Connector: m.Name(), Message: "no MESHY_API_KEY"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/balance", nil)
	if err != nil {
		return nil, &Error{Connector: m.Name(), Message: "building request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &Error{Connector: m.Name(), Message: "balance request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Connector: m.Name(), Message: "reading balance response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Connector: m.Name(), Message: fmt.Sprintf("balance returned %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	var bal meshyBalance
	if err := json.Unmarshal(body, &bal); err != nil {
		return nil, &Error{Connector: m.Name(), Message: "decoding balance response", Cause: err}
	}

	return &Payload{
		Total: bal.Balance,
		Details: []Detail{
			{Date: w.End.Format("2006-01-02"), Amount: bal.Balance},
		},
		Note: "store sync ok",
	}, nil
}
