package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	youtubeanalytics "google.golang.org/api/youtubeanalytics/v2"

	"github.com/veeresh/va-bot/internal/credentials"
)

const ytAnalyticsScope = "https://www.googleapis.com/auth/yt-analytics.readonly"

// YouTube reads estimated revenue per day from the YouTube Analytics API
// for the channel tied to the stored OAuth token.
type YouTube struct {
	tokenPath  string
	newService func(ctx context.Context, ts oauth2.TokenSource) (*youtubeanalytics.Service, error)
}

// NewYouTube builds the YouTube adapter. The OAuth token lives at
// TOKEN_STORE (default tmp/tokens.json).
func NewYouTube() *YouTube {
	tokenPath := os.Getenv("TOKEN_STORE")
	if tokenPath == "" {
		tokenPath = "tmp/tokens.json"
	}
	return &YouTube{
		tokenPath: tokenPath,
		newService: func(ctx context.Context, ts oauth2.TokenSource) (*youtubeanalytics.Service, error) {
			return youtubeanalytics.NewService(ctx, option.WithTokenSource(ts))
		},
	}
}

func (y *YouTube) Name() string               { return "YouTubeAutomation" }
func (y *YouTube) Platform() string           { return "youtube_automation" }
func (y *YouTube) Capabilities() Capabilities { return Capabilities{} }

// Fetch queries estimatedRevenue by day over the window.
func (y *YouTube) Fetch(ctx context.Context, _ *credentials.Login, w Window) (*Payload, error) {
	ts, err := y.tokenSource(ctx)
	if err != nil {
		return nil, &Error{Connector: y.Name(), Message: "oauth token", Cause: err}
	}

	svc, err := y.newService(ctx, ts)
	if err != nil {
		return nil, &Error{Connector: y.Name(), Message: "building analytics client", Cause: err}
	}

	resp, err := svc.Reports.Query().
		Ids("channel==MINE").
		StartDate(w.Start.Format("2006-01-02")).
		EndDate(w.End.Format("2006-01-02")).
		Metrics("estimatedRevenue").
		Dimensions("day").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &Error{Connector: y.Name(), Message: "analytics query failed", Cause: err}
	}

	payload := &Payload{Currency: "INR"}
	for _, row := range resp.Rows {
		if len(row) < 2 {
			continue
		}
		date, _ := row[0].(string)
		amount := toFloat(row[1])
		payload.Total += amount
		payload.Details = append(payload.Details, Detail{Date: date, Amount: amount})
	}
	return payload, nil
}

// tokenSource reads the authorized-user token from disk and refreshes it
// with the client id/secret from the environment.
func (y *YouTube) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET not set")
	}

	raw, err := os.ReadFile(y.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("reading token store %s: %w", y.tokenPath, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parsing token store %s: %w", y.tokenPath, err)
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{ytAnalyticsScope},
	}
	return cfg.TokenSource(ctx, &tok), nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
