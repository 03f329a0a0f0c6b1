package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchQuoteMissingSymbol(t *testing.T) {
	q := NewQuote(QuoteOptions{BaseURL: "http://example.invalid"}, noopLogger())
	if _, err := q.FetchQuote(context.Background(), "  "); err == nil {
		t.Fatal("empty symbol should fail")
	}
}

func TestFetchQuoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
	}))
	defer srv.Close()

	q := NewQuote(QuoteOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := q.FetchQuote(context.Background(), "AAPL"); err == nil {
		t.Fatal("HTTP 429 should fail")
	}
}

func TestFetchQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Fatalf("expected symbol=AAPL, got %q", got)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Fatalf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"symbol":        "AAPL",
			"price":         151.25,
			"volume":        2000000,
			"previousClose": 148.0,
		})
	}))
	defer srv.Close()

	q := NewQuote(QuoteOptions{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second, UserAgent: "test"}, noopLogger())
	snapshot, err := q.FetchQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if snapshot.Symbol != "AAPL" {
		t.Fatalf("symbol should be uppercased, got %q", snapshot.Symbol)
	}
	if snapshot.Price.String() != "151.25" {
		t.Fatalf("unexpected price %s", snapshot.Price)
	}
	if snapshot.Volume == nil || snapshot.Volume.String() != "2000000" {
		t.Fatalf("unexpected volume %v", snapshot.Volume)
	}
	if snapshot.PreviousClose == nil {
		t.Fatal("previous close should be set")
	}
	if change := snapshot.ChangeValue(); change == nil || change.String() != "3.25" {
		t.Fatalf("unexpected change %v", change)
	}
}

func TestFetchQuotePartialPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"symbol": "TSLA", "price": 250.0})
	}))
	defer srv.Close()

	q := NewQuote(QuoteOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	snapshot, err := q.FetchQuote(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("partial payload should not fail: %v", err)
	}

	if snapshot.Volume != nil || snapshot.PreviousClose != nil {
		t.Fatal("absent optional fields should stay nil")
	}
	if snapshot.ChangeValue() != nil {
		t.Fatal("change should be nil without previous close")
	}
	if snapshot.PercentChange() != nil {
		t.Fatal("percent change should be nil without previous close")
	}
}

func TestFetchQuoteMissingPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"symbol": "TSLA"})
	}))
	defer srv.Close()

	q := NewQuote(QuoteOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := q.FetchQuote(context.Background(), "TSLA"); err == nil {
		t.Fatal("missing price should fail")
	}
}
