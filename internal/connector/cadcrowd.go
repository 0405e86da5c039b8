package connector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/veeresh/va-bot/internal/credentials"
)

const cadCrowdBaseURL = "https://www.cadcrowd.com"

// CadCrowd has no public earnings API, so the adapter scrapes the
// freelancer dashboard page for the earnings figure.
type CadCrowd struct {
	client  *http.Client
	baseURL string
}

// NewCadCrowd builds the Cad Crowd adapter.
func NewCadCrowd(client *http.Client) *CadCrowd {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CadCrowd{client: client, baseURL: cadCrowdBaseURL}
}

func (c *CadCrowd) Name() string               { return "CadCrowdAuto" }
func (c *CadCrowd) Platform() string           { return "cad_crowd" }
func (c *CadCrowd) Capabilities() Capabilities { return Capabilities{} }

// Fetch pulls the dashboard and extracts the total-earnings amount.
func (c *CadCrowd) Fetch(ctx context.Context, login *credentials.Login, _ Window) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dashboard/earnings", nil)
	if err != nil {
		return nil, &Error{Connector: c.Name(), Message: "building request", Cause: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; VABot/1.0)")
	req.SetBasicAuth(login.Email, login.Password)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Connector: c.Name(), Message: "dashboard request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Connector: c.Name(), Message: fmt.Sprintf("dashboard returned %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &Error{Connector: c.Name(), Message: "parsing dashboard HTML", Cause: err}
	}

	sel := doc.Find(".total-earnings, [data-testid='total-earnings']").First()
	if sel.Length() == 0 {
		return nil, &Error{Connector: c.Name(), Message: "earnings figure not found on page"}
	}

	amount, err := parseAmount(sel.Text())
	if err != nil {
		return nil, &Error{Connector: c.Name(), Message: "parsing earnings figure", Cause: err}
	}

	return &Payload{
		Total: amount,
		Note:  fmt.Sprintf("scraped as %s", login.Owner),
	}, nil
}

// parseAmount strips currency symbols and separators from a scraped figure.
func parseAmount(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in %q", strings.TrimSpace(s))
	}
	return strconv.ParseFloat(cleaned, 64)
}
