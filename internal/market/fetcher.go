package market

import "context"

// QuoteFetcher retrieves the latest snapshot for a symbol from an upstream
// market-data provider.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (Snapshot, error)
}
