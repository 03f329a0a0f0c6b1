package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const quotePath = "/v1/quote"

// QuoteOptions parameterise the HTTP quote client.
type QuoteOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Quote fetches snapshots from an HTTP quote provider.
type Quote struct {
	opts    QuoteOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewQuote constructs a quote client.
func NewQuote(opts QuoteOptions, logger zerolog.Logger) *Quote {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Quote{
		opts:    opts,
		logger:  logger.With().Str("component", "quote_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

type quoteResponse struct {
	Symbol        string           `json:"symbol"`
	Price         *decimal.Decimal `json:"price"`
	Volume        *decimal.Decimal `json:"volume"`
	PreviousClose *decimal.Decimal `json:"previousClose"`
	Change        *decimal.Decimal `json:"change"`
	Timestamp     *int64           `json:"timestamp"`
}

// FetchQuote retrieves the current quote for one symbol. Optional fields the
// provider omits stay nil on the snapshot; only a missing price is an error.
func (q *Quote) FetchQuote(ctx context.Context, symbol string) (Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Snapshot{}, errors.New("symbol required")
	}
	if q.baseURL == "" {
		return Snapshot{}, errors.New("quote provider base URL required")
	}

	endpoint := fmt.Sprintf("%s%s?symbol=%s", q.baseURL, quotePath, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(q.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "stockwatch/1.0")
	}
	if q.opts.APIKey != "" {
		req.Header.Set("X-Api-Key", q.opts.APIKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Snapshot{}, fmt.Errorf("quote provider returned status %d: %s", resp.StatusCode, truncate(payload, 200))
	}

	var parsed quoteResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Snapshot{}, fmt.Errorf("decode quote payload: %w", err)
	}
	if parsed.Price == nil {
		return Snapshot{}, fmt.Errorf("quote for %s missing price", symbol)
	}

	asOf := time.Now().UTC()
	if parsed.Timestamp != nil && *parsed.Timestamp > 0 {
		asOf = time.Unix(*parsed.Timestamp, 0).UTC()
	}

	snapshot := Snapshot{
		Symbol:        symbol,
		Price:         *parsed.Price,
		Volume:        parsed.Volume,
		PreviousClose: parsed.PreviousClose,
		Change:        parsed.Change,
		AsOf:          asOf,
	}

	q.logger.Debug().
		Str("symbol", symbol).
		Str("price", snapshot.Price.String()).
		Time("as_of", snapshot.AsOf).
		Msg("quote fetched")

	return snapshot, nil
}

func truncate(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max]
	}
	return s
}

var _ QuoteFetcher = (*Quote)(nil)
