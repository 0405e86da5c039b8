package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/veeresh/va-bot/internal/credentials"
)

var testWindow = Window{
	Start: time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 8, 25, 18, 30, 0, 0, time.UTC),
}

func TestPrintifyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shops.json" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer key", got)
		}
		fmt.Fprint(w, `[{"id":1,"title":"Main Store"},{"id":2,"title":"Side Store"}]`)
	}))
	defer srv.Close()

	p := NewPrintify(srv.Client())
	p.baseURL = srv.URL
	p.apiKey = func() string { return "test-key" }

	payload, err := p.Fetch(context.Background(), nil, testWindow)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if payload.Total != 0 {
		t.Errorf("Total = %v, want 0", payload.Total)
	}
	if payload.Note != "2 shops connected" {
		t.Errorf("Note = %q, want shop count", payload.Note)
	}
	if err := ValidatePayload(payload); err != nil {
		t.Errorf("payload fails validation: %v", err)
	}
}

func TestPrintifyFetchErrors(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		p := NewPrintify(nil)
		p.apiKey = func() string { return "" }
		_, err := p.Fetch(context.Background(), nil, testWindow)
		if err == nil || !strings.Contains(err.Error(), "PRINTIFY_API_KEY") {
			t.Errorf("error = %v, want missing key error", err)
		}
	})

	t.Run("upstream error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()

		p := NewPrintify(srv.Client())
		p.baseURL = srv.URL
		p.apiKey = func() string { return "bad-key" }

		_, err := p.Fetch(context.Background(), nil, testWindow)
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Fatalf("error = %v, want *Error", err)
		}
		if !strings.Contains(cerr.Message, "401") {
			t.Errorf("Message = %q, want status code included", cerr.Message)
		}
	})
}

func TestPrintifyCapabilities(t *testing.T) {
	if !NewPrintify(nil).Capabilities().IssuesAPIKeys {
		t.Error("Printify should declare API key issuance")
	}
	if NewMeshy(nil).Capabilities().IssuesAPIKeys {
		t.Error("Meshy should not declare API key issuance")
	}
}

func TestMeshyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/balance" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"balance": 742.50}`)
	}))
	defer srv.Close()

	m := NewMeshy(srv.Client())
	m.baseURL = srv.URL
	m.apiKey = func() string { return "meshy-key" }

	payload, err := m.Fetch(context.Background(), nil, testWindow)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if payload.Total != 742.50 {
		t.Errorf("Total = %v, want 742.50", payload.Total)
	}
	if len(payload.Details) != 1 || payload.Details[0].Date != "2025-08-25" {
		t.Errorf("Details = %+v, want single window-end line", payload.Details)
	}
}

func TestCadCrowdFetch(t *testing.T) {
	login := &credentials.Login{Owner: "riva", Email: "riva@example.com", Password: "pw"}

	t.Run("scrapes earnings figure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, _, ok := r.BasicAuth(); !ok {
				t.Error("request missing basic auth")
			}
			fmt.Fprint(w, `<html><body><div class="total-earnings">$1,234.56</div></body></html>`)
		}))
		defer srv.Close()

		c := NewCadCrowd(srv.Client())
		c.baseURL = srv.URL

		payload, err := c.Fetch(context.Background(), login, testWindow)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if payload.Total != 1234.56 {
			t.Errorf("Total = %v, want 1234.56", payload.Total)
		}
		if payload.Note != "scraped as riva" {
			t.Errorf("Note = %q", payload.Note)
		}
	})

	t.Run("figure missing from page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
		}))
		defer srv.Close()

		c := NewCadCrowd(srv.Client())
		c.baseURL = srv.URL

		_, err := c.Fetch(context.Background(), login, testWindow)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("error = %v, want figure-not-found", err)
		}
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"$1,234.56", 1234.56, false},
		{"  ₹500 ", 500, false},
		{"0.00", 0, false},
		{"no digits", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseAmount(%q) succeeded, want error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseAmount(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestFiverrFetch(t *testing.T) {
	login := &credentials.Login{Owner: "riva"}

	f := NewFiverr()
	f.apiKey = func() string { return "fiverr-key" }
	payload, err := f.Fetch(context.Background(), login, testWindow)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if payload.Note != "gig automation ready (account=riva)" {
		t.Errorf("Note = %q", payload.Note)
	}

	f.apiKey = func() string { return "" }
	if _, err := f.Fetch(context.Background(), login, testWindow); err == nil {
		t.Error("Fetch without key succeeded, want error")
	}
}

func TestYouTubeFetchWithoutClientConfig(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "")

	y := NewYouTube()
	_, err := y.Fetch(context.Background(), nil, testWindow)
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if cerr.Message != "oauth token" {
		t.Errorf("Message = %q, want oauth token stage", cerr.Message)
	}
}
