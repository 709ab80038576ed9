package market

import (
	"context"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/metrics"
	"stockdesk/internal/provider"
	"stockdesk/internal/ta"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Service answers market queries through the primary/fallback provider chain.
// It holds no per-request state; concurrent queries are independent.
type Service struct {
	tracer    trace.Tracer
	log       zerolog.Logger
	primary   provider.MarketDataProvider
	secondary provider.MarketDataProvider
}

// NewService builds a query service. Either provider may be nil; a query with
// no configured source resolves to a terminal error result.
func NewService(tracer trace.Tracer, log zerolog.Logger, primary, secondary provider.MarketDataProvider) *Service {
	return &Service{
		tracer:    tracer,
		log:       log.With().Str("component", "market").Logger(),
		primary:   primary,
		secondary: secondary,
	}
}

// ProviderNames lists the configured providers in fallback order.
func (s *Service) ProviderNames() []string {
	names := []string{}
	for _, p := range []provider.MarketDataProvider{s.primary, s.secondary} {
		if p != nil {
			names = append(names, p.Name())
		}
	}
	return names
}

func (s *Service) GetQuote(ctx context.Context, symbol string) Result[*domain.Quote] {
	ctx, span := s.tracer.Start(ctx, "market.get-quote")
	defer span.End()

	res := Resolve(ctx,
		ptrSource(s.primary, "quote", func(ctx context.Context, p provider.MarketDataProvider) (*domain.Quote, error) {
			return p.GetQuote(ctx, symbol)
		}),
		ptrSource(s.secondary, "quote", func(ctx context.Context, p provider.MarketDataProvider) (*domain.Quote, error) {
			return p.GetQuote(ctx, symbol)
		}),
	)
	s.observe("quote", symbol, res.Warning, res.Err)
	return res
}

func (s *Service) GetCompanyProfile(ctx context.Context, symbol string) Result[*domain.CompanyProfile] {
	ctx, span := s.tracer.Start(ctx, "market.get-company-profile")
	defer span.End()

	res := Resolve(ctx,
		ptrSource(s.primary, "profile", func(ctx context.Context, p provider.MarketDataProvider) (*domain.CompanyProfile, error) {
			return p.GetCompanyProfile(ctx, symbol)
		}),
		ptrSource(s.secondary, "profile", func(ctx context.Context, p provider.MarketDataProvider) (*domain.CompanyProfile, error) {
			return p.GetCompanyProfile(ctx, symbol)
		}),
	)
	s.observe("profile", symbol, res.Warning, res.Err)
	return res
}

func (s *Service) GetCandles(ctx context.Context, symbol, interval string, from, to int64) Result[[]domain.Candle] {
	ctx, span := s.tracer.Start(ctx, "market.get-candles")
	defer span.End()

	res := Resolve(ctx,
		sliceSource(s.primary, "candles", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.Candle, error) {
			return p.GetCandles(ctx, symbol, interval, from, to)
		}),
		sliceSource(s.secondary, "candles", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.Candle, error) {
			return p.GetCandles(ctx, symbol, interval, from, to)
		}),
	)
	s.observe("candles", symbol, res.Warning, res.Err)
	return res
}

func (s *Service) GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) Result[[]domain.NewsItem] {
	ctx, span := s.tracer.Start(ctx, "market.get-news")
	defer span.End()

	res := Resolve(ctx,
		sliceSource(s.primary, "news", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.NewsItem, error) {
			return p.GetNews(ctx, symbol, from, to, limit)
		}),
		sliceSource(s.secondary, "news", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.NewsItem, error) {
			return p.GetNews(ctx, symbol, from, to, limit)
		}),
	)
	s.observe("news", symbol, res.Warning, res.Err)
	return res
}

func (s *Service) GetKeyFinancials(ctx context.Context, symbol string) Result[*domain.KeyFinancials] {
	ctx, span := s.tracer.Start(ctx, "market.get-key-financials")
	defer span.End()

	res := Resolve(ctx,
		ptrSource(s.primary, "financials", func(ctx context.Context, p provider.MarketDataProvider) (*domain.KeyFinancials, error) {
			return p.GetKeyFinancials(ctx, symbol)
		}),
		ptrSource(s.secondary, "financials", func(ctx context.Context, p provider.MarketDataProvider) (*domain.KeyFinancials, error) {
			return p.GetKeyFinancials(ctx, symbol)
		}),
	)
	s.observe("financials", symbol, res.Warning, res.Err)
	return res
}

// GetRsi tries provider-native RSI endpoints first, then falls back to local
// computation from candle history.
func (s *Service) GetRsi(ctx context.Context, symbol, interval string, period int) Result[[]domain.RsiPoint] {
	ctx, span := s.tracer.Start(ctx, "market.get-rsi")
	defer span.End()

	if period <= 0 {
		period = ta.DefaultRsiPeriod
	}

	res := Resolve(ctx,
		sliceSource(s.primary, "rsi", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.RsiPoint, error) {
			return p.GetRsi(ctx, symbol, interval, period)
		}),
		sliceSource(s.secondary, "rsi", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.RsiPoint, error) {
			return p.GetRsi(ctx, symbol, interval, period)
		}),
	)
	if res.OK {
		s.observe("rsi", symbol, res.Warning, "")
		return res
	}

	candles := s.candlesForIndicator(ctx, symbol, interval)
	if !candles.OK {
		s.observe("rsi", symbol, "", candles.Err)
		return Result[[]domain.RsiPoint]{Err: candles.Err, Failure: candles.Failure}
	}

	points := ta.CalculateRsiFromCandles(candles.Data, period)
	if len(points) == 0 {
		err := "Could not compute RSI: not enough candle history for the requested period."
		s.observe("rsi", symbol, "", err)
		return Result[[]domain.RsiPoint]{Err: err, Failure: provider.CodeNotFound}
	}

	metrics.LocalIndicatorsTotal.WithLabelValues("rsi").Inc()
	out := Result[[]domain.RsiPoint]{
		Data:    points,
		OK:      true,
		Source:  candles.Source + " + local computation",
		Warning: "Provider-native RSI data was unavailable; computed locally from candle history.",
	}
	s.observe("rsi", symbol, out.Warning, "")
	return out
}

// GetMacd mirrors GetRsi for the MACD indicator.
func (s *Service) GetMacd(ctx context.Context, symbol, interval string) Result[[]domain.MacdPoint] {
	ctx, span := s.tracer.Start(ctx, "market.get-macd")
	defer span.End()

	res := Resolve(ctx,
		sliceSource(s.primary, "macd", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.MacdPoint, error) {
			return p.GetMacd(ctx, symbol, interval)
		}),
		sliceSource(s.secondary, "macd", func(ctx context.Context, p provider.MarketDataProvider) ([]domain.MacdPoint, error) {
			return p.GetMacd(ctx, symbol, interval)
		}),
	)
	if res.OK {
		s.observe("macd", symbol, res.Warning, "")
		return res
	}

	candles := s.candlesForIndicator(ctx, symbol, interval)
	if !candles.OK {
		s.observe("macd", symbol, "", candles.Err)
		return Result[[]domain.MacdPoint]{Err: candles.Err, Failure: candles.Failure}
	}

	points := ta.CalculateMacdFromCandles(candles.Data, ta.DefaultMacdFast, ta.DefaultMacdSlow, ta.DefaultMacdSignal)
	if len(points) == 0 {
		err := "Could not compute MACD: not enough candle history for the 26/9 window."
		s.observe("macd", symbol, "", err)
		return Result[[]domain.MacdPoint]{Err: err, Failure: provider.CodeNotFound}
	}

	metrics.LocalIndicatorsTotal.WithLabelValues("macd").Inc()
	out := Result[[]domain.MacdPoint]{
		Data:    points,
		OK:      true,
		Source:  candles.Source + " + local computation",
		Warning: "Provider-native MACD data was unavailable; computed locally from candle history.",
	}
	s.observe("macd", symbol, out.Warning, "")
	return out
}

// candlesForIndicator runs the candle fallback chain over a lookback window
// sized so local indicator math has enough history.
func (s *Service) candlesForIndicator(ctx context.Context, symbol, interval string) Result[[]domain.Candle] {
	to := time.Now().Unix()
	from := to - indicatorLookbackSecs(interval)
	return s.GetCandles(ctx, symbol, interval, from, to)
}

func indicatorLookbackSecs(interval string) int64 {
	const day = 24 * 3600
	switch interval {
	case "D":
		return 300 * day
	case "W":
		return 4 * 365 * day
	case "M":
		return 12 * 365 * day
	default:
		return 30 * day
	}
}

func (s *Service) observe(query, symbol, warning, errMsg string) {
	switch {
	case errMsg != "":
		s.log.Warn().Str("query", query).Str("symbol", symbol).Str("error", errMsg).Msg("query failed")
	case warning != "":
		metrics.FallbacksTotal.WithLabelValues(query).Inc()
		s.log.Info().Str("query", query).Str("symbol", symbol).Str("warning", warning).Msg("query served with fallback")
	}
}

// ptrSource adapts a pointer-returning provider method into an orchestrator
// source. A nil provider yields a nil source (stage not configured).
func ptrSource[T any](p provider.MarketDataProvider, query string, fetch func(context.Context, provider.MarketDataProvider) (*T, error)) *Source[*T] {
	if p == nil {
		return nil
	}
	return &Source[*T]{
		Name: p.Name(),
		Fetch: func(ctx context.Context) (*T, bool, error) {
			data, err := fetch(ctx, p)
			countAttempt(p.Name(), query, data != nil, err)
			if err != nil {
				return nil, false, err
			}
			return data, data != nil, nil
		},
	}
}

// sliceSource is ptrSource for slice-returning provider methods; an empty
// slice counts as no data.
func sliceSource[T any](p provider.MarketDataProvider, query string, fetch func(context.Context, provider.MarketDataProvider) ([]T, error)) *Source[[]T] {
	if p == nil {
		return nil
	}
	return &Source[[]T]{
		Name: p.Name(),
		Fetch: func(ctx context.Context) ([]T, bool, error) {
			data, err := fetch(ctx, p)
			countAttempt(p.Name(), query, len(data) > 0, err)
			if err != nil {
				return nil, false, err
			}
			return data, len(data) > 0, nil
		},
	}
}

func countAttempt(providerName, query string, hasData bool, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case !hasData:
		outcome = "no_data"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(providerName, query, outcome).Inc()
}
