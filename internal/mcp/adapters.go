package mcp

import (
	"context"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/market"
)

// MarketReader exposes the query operations the tools consume.
type MarketReader interface {
	GetQuote(ctx context.Context, symbol string) market.Result[*domain.Quote]
	GetCompanyProfile(ctx context.Context, symbol string) market.Result[*domain.CompanyProfile]
	GetCandles(ctx context.Context, symbol, interval string, from, to int64) market.Result[[]domain.Candle]
	GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) market.Result[[]domain.NewsItem]
	GetRsi(ctx context.Context, symbol, interval string, period int) market.Result[[]domain.RsiPoint]
	GetMacd(ctx context.Context, symbol, interval string) market.Result[[]domain.MacdPoint]
	GetKeyFinancials(ctx context.Context, symbol string) market.Result[*domain.KeyFinancials]
}
