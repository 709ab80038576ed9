package market

import (
	"context"
	"strings"
	"testing"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/provider"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubProvider struct {
	name string

	quote      *domain.Quote
	quoteErr   error
	profile    *domain.CompanyProfile
	profileErr error
	candles    []domain.Candle
	candlesErr error
	news       []domain.NewsItem
	newsErr    error
	rsi        []domain.RsiPoint
	rsiErr     error
	macd       []domain.MacdPoint
	macdErr    error
	fin        *domain.KeyFinancials
	finErr     error

	quoteCalls  int
	candleCalls int
	rsiCalls    int
	macdCalls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	s.quoteCalls++
	return s.quote, s.quoteErr
}

func (s *stubProvider) GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error) {
	return s.profile, s.profileErr
}

func (s *stubProvider) GetCandles(ctx context.Context, symbol, interval string, from, to int64) ([]domain.Candle, error) {
	s.candleCalls++
	return s.candles, s.candlesErr
}

func (s *stubProvider) GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]domain.NewsItem, error) {
	return s.news, s.newsErr
}

func (s *stubProvider) GetRsi(ctx context.Context, symbol, interval string, period int) ([]domain.RsiPoint, error) {
	s.rsiCalls++
	return s.rsi, s.rsiErr
}

func (s *stubProvider) GetMacd(ctx context.Context, symbol, interval string) ([]domain.MacdPoint, error) {
	s.macdCalls++
	return s.macd, s.macdErr
}

func (s *stubProvider) GetKeyFinancials(ctx context.Context, symbol string) (*domain.KeyFinancials, error) {
	return s.fin, s.finErr
}

func newTestService(primary, secondary provider.MarketDataProvider) *Service {
	return NewService(testTracer, zerolog.Nop(), primary, secondary)
}

func trendCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{Timestamp: int64(1000 + i*60), Close: 100 + float64(i)}
	}
	return candles
}

func TestServiceGetQuotePrimaryWins(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "finnhub", quote: &domain.Quote{Symbol: "AAPL", Price: 190}}
	secondary := &stubProvider{name: "alphavantage", quote: &domain.Quote{Symbol: "AAPL", Price: 189}}
	svc := newTestService(primary, secondary)

	res := svc.GetQuote(context.Background(), "AAPL")
	if !res.OK || res.Data.Price != 190 || res.Source != "finnhub" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if secondary.quoteCalls != 0 {
		t.Fatalf("fallback should not have been invoked, got %d calls", secondary.quoteCalls)
	}
}

func TestServiceGetQuoteFallsBackOnError(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "finnhub", quoteErr: &provider.Error{Provider: "finnhub", Code: provider.CodeUpstream, Message: "500"}}
	secondary := &stubProvider{name: "alphavantage", quote: &domain.Quote{Symbol: "AAPL", Price: 189}}
	svc := newTestService(primary, secondary)

	res := svc.GetQuote(context.Background(), "AAPL")
	if !res.OK || res.Source != "alphavantage" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Warning == "" {
		t.Fatal("expected a fallback warning")
	}
}

func TestServiceGetRsiUsesProviderData(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "finnhub", rsi: []domain.RsiPoint{{Timestamp: 1, Value: 55}}}
	svc := newTestService(primary, nil)

	res := svc.GetRsi(context.Background(), "AAPL", "D", 14)
	if !res.OK || res.Source != "finnhub" || len(res.Data) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if primary.candleCalls != 0 {
		t.Fatalf("candles should not be fetched when the provider has RSI, got %d calls", primary.candleCalls)
	}
}

func TestServiceGetRsiComputesLocallyFromCandles(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "finnhub", candles: trendCandles(40)}
	secondary := &stubProvider{name: "alphavantage"}
	svc := newTestService(primary, secondary)

	res := svc.GetRsi(context.Background(), "AAPL", "D", 14)
	if !res.OK {
		t.Fatalf("expected local computation to succeed: %+v", res)
	}
	if res.Source != "finnhub + local computation" {
		t.Fatalf("unexpected provenance: %q", res.Source)
	}
	if !strings.Contains(res.Warning, "computed locally") {
		t.Fatalf("expected local-computation warning, got %q", res.Warning)
	}
	// monotonic closes: every point is exactly 100
	for _, pt := range res.Data {
		if pt.Value != 100 {
			t.Fatalf("expected RSI 100, got %v", pt.Value)
		}
	}
	if primary.rsiCalls != 1 || secondary.rsiCalls != 1 {
		t.Fatalf("expected both indicator endpoints tried, got %d/%d", primary.rsiCalls, secondary.rsiCalls)
	}
}

func TestServiceGetMacdInsufficientCandles(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "finnhub", candles: trendCandles(20)}
	svc := newTestService(primary, nil)

	res := svc.GetMacd(context.Background(), "AAPL", "D")
	if res.OK {
		t.Fatalf("expected failure, got %+v", res)
	}
	if !strings.Contains(res.Err, "Could not compute MACD") {
		t.Fatalf("expected could-not-compute message, got %q", res.Err)
	}
}

func TestServiceGetMacdComputesLocally(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "finnhub", candles: trendCandles(60)}
	svc := newTestService(primary, nil)

	res := svc.GetMacd(context.Background(), "AAPL", "D")
	if !res.OK || res.Source != "finnhub + local computation" {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, pt := range res.Data {
		if pt.Histogram != pt.Macd-pt.Signal {
			t.Fatalf("histogram invariant violated: %+v", pt)
		}
	}
}

func TestServiceGetMacdCandleFailurePropagates(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "finnhub",
		candlesErr: &provider.Error{Provider: "finnhub", Code: provider.CodeRateLimit, Message: "quota"},
	}
	svc := newTestService(primary, nil)

	res := svc.GetMacd(context.Background(), "AAPL", "D")
	if res.OK || !strings.Contains(strings.ToLower(res.Err), "rate limit") {
		t.Fatalf("expected rate-limit terminal message, got %+v", res)
	}
}

func TestServiceNoProvidersConfigured(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, nil)
	res := svc.GetQuote(context.Background(), "AAPL")
	if res.OK || res.Err == "" {
		t.Fatalf("expected terminal error, got %+v", res)
	}
}
