// Package provider contains the upstream market-data adapters. Each adapter
// owns one provider's base URL, auth token, and endpoint conventions, and
// translates that provider's payload shapes into the normalized domain types.
//
// Adapter methods follow one contract: a non-nil result means usable data,
// a nil result with a nil error means upstream had nothing for the query,
// and failures surface as *Error with a classified code.
package provider

import (
	"context"
	"io"
	"net/http"
	"time"

	"stockdesk/internal/domain"
)

// DefaultTimeout bounds every upstream HTTP call.
const DefaultTimeout = 15 * time.Second

// MarketDataProvider is the shared adapter interface. Adding a provider means
// implementing this over the normalized types; nothing downstream changes.
type MarketDataProvider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error)
	GetCandles(ctx context.Context, symbol, interval string, from, to int64) ([]domain.Candle, error)
	GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]domain.NewsItem, error)
	GetRsi(ctx context.Context, symbol, interval string, period int) ([]domain.RsiPoint, error)
	GetMacd(ctx context.Context, symbol, interval string) ([]domain.MacdPoint, error)
	GetKeyFinancials(ctx context.Context, symbol string) (*domain.KeyFinancials, error)
}

// doGet performs one bounded GET and returns the body for 2xx responses.
// Transport failures (including the per-call timeout) come back as NETWORK
// errors; non-2xx statuses are classified by code.
func doGet(ctx context.Context, client *http.Client, providerName, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(providerName, CodeNetwork, err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(providerName, CodeNetwork, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(providerName, CodeNetwork, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Provider: providerName,
			Code:     classifyStatus(resp.StatusCode),
			Message:  truncate(string(body), 200),
			Status:   resp.StatusCode,
		}
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
