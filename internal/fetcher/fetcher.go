package fetcher

import (
	"context"
	"fmt"
	"time"

	"CandleVault/internal/model"
)

// Fetcher defines the interface for fetching market data over a
// closed date range. Implementations may return a superset of the
// requested range; the gap-fill updater clamps the result.
type Fetcher interface {
	FetchRange(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error)
	Name() string
}

// Router dispatches to a fetcher per dataset classification.
type Router struct {
	Stock  Fetcher
	Crypto Fetcher
}

// NewRouter creates a Router with the given per-class fetchers.
func NewRouter(stock, crypto Fetcher) *Router {
	return &Router{Stock: stock, Crypto: crypto}
}

// For returns the fetcher serving the given classification.
func (r *Router) For(class model.Classification) (Fetcher, error) {
	switch class {
	case model.ClassCrypto:
		if r.Crypto != nil {
			return r.Crypto, nil
		}
	case model.ClassStock:
		if r.Stock != nil {
			return r.Stock, nil
		}
	}
	return nil, fmt.Errorf("no fetcher configured for classification %q", class)
}
