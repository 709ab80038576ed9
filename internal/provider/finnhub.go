package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"stockdesk/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	finnhubName    = "finnhub"
	finnhubBaseURL = "https://finnhub.io/api/v1"
)

// finnhubResolution translates boundary interval codes into Finnhub
// resolution strings.
var finnhubResolution = map[string]string{
	"1":  "1",
	"5":  "5",
	"15": "15",
	"30": "30",
	"60": "60",
	"D":  "D",
	"W":  "W",
	"M":  "M",
}

// FinnhubProvider adapts the Finnhub REST API to the normalized model.
type FinnhubProvider struct {
	client  *http.Client
	baseURL string
	token   string
	tracer  trace.Tracer
	log     zerolog.Logger
}

func NewFinnhubProvider(token string, timeout time.Duration, tracer trace.Tracer, log zerolog.Logger) *FinnhubProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FinnhubProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: finnhubBaseURL,
		token:   token,
		tracer:  tracer,
		log:     log.With().Str("provider", finnhubName).Logger(),
	}
}

func (p *FinnhubProvider) Name() string { return finnhubName }

// GetQuote fetches the latest quote. Finnhub reports unknown symbols as an
// all-zero payload, which maps to "no data" rather than an error.
func (p *FinnhubProvider) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-quote")
	defer span.End()

	body, err := p.get(ctx, "/quote", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Current       float64 `json:"c"`
		Change        float64 `json:"d"`
		PercentChange float64 `json:"dp"`
		High          float64 `json:"h"`
		Low           float64 `json:"l"`
		Open          float64 `json:"o"`
		PrevClose     float64 `json:"pc"`
		Timestamp     int64   `json:"t"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if raw.Current <= 0 {
		p.log.Debug().Str("symbol", symbol).Msg("quote has no usable price")
		return nil, nil
	}

	return &domain.Quote{
		Symbol:        symbol,
		Price:         raw.Current,
		Change:        raw.Change,
		PercentChange: raw.PercentChange,
		High:          raw.High,
		Low:           raw.Low,
		Open:          raw.Open,
		PreviousClose: raw.PrevClose,
		Timestamp:     raw.Timestamp,
		Source:        finnhubName,
	}, nil
}

func (p *FinnhubProvider) GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-company-profile")
	defer span.End()

	body, err := p.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Country   string  `json:"country"`
		Currency  string  `json:"currency"`
		Exchange  string  `json:"exchange"`
		IPO       string  `json:"ipo"`
		Industry  string  `json:"finnhubIndustry"`
		Logo      string  `json:"logo"`
		MarketCap float64 `json:"marketCapitalization"`
		Name      string  `json:"name"`
		Ticker    string  `json:"ticker"`
		WebURL    string  `json:"weburl"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	// An unknown symbol yields an empty object.
	if raw.Ticker == "" && raw.Name == "" {
		return nil, nil
	}

	profile := &domain.CompanyProfile{
		Symbol:   symbol,
		Name:     raw.Name,
		Exchange: raw.Exchange,
		Currency: raw.Currency,
		Country:  raw.Country,
		Industry: raw.Industry,
		IPO:      raw.IPO,
		Website:  raw.WebURL,
		Logo:     raw.Logo,
		Source:   finnhubName,
	}
	if raw.MarketCap > 0 {
		profile.MarketCap = domain.Float(raw.MarketCap)
	}
	return profile, nil
}

// GetCandles fetches OHLCV data for [from, to]. Finnhub applies the window
// server-side and returns parallel arrays in ascending time order.
func (p *FinnhubProvider) GetCandles(ctx context.Context, symbol, interval string, from, to int64) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-candles")
	defer span.End()

	resolution, ok := finnhubResolution[interval]
	if !ok {
		return nil, newError(finnhubName, CodeUpstream, fmt.Sprintf("unsupported interval %q", interval))
	}

	body, err := p.get(ctx, "/stock/candle", url.Values{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {fmt.Sprintf("%d", from)},
		"to":         {fmt.Sprintf("%d", to)},
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status     string    `json:"s"`
		Timestamps []int64   `json:"t"`
		Opens      []float64 `json:"o"`
		Highs      []float64 `json:"h"`
		Lows       []float64 `json:"l"`
		Closes     []float64 `json:"c"`
		Volumes    []float64 `json:"v"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if raw.Status == "no_data" || len(raw.Timestamps) == 0 {
		return nil, nil
	}
	if raw.Status != "ok" {
		return nil, newError(finnhubName, classifyText(raw.Status), "candle status "+raw.Status)
	}

	candles := make([]domain.Candle, 0, len(raw.Timestamps))
	for i, ts := range raw.Timestamps {
		c := domain.Candle{Timestamp: ts}
		if i < len(raw.Opens) {
			c.Open = raw.Opens[i]
		}
		if i < len(raw.Highs) {
			c.High = raw.Highs[i]
		}
		if i < len(raw.Lows) {
			c.Low = raw.Lows[i]
		}
		if i < len(raw.Closes) {
			c.Close = raw.Closes[i]
		}
		if i < len(raw.Volumes) {
			c.Volume = raw.Volumes[i]
		}
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}

func (p *FinnhubProvider) GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]domain.NewsItem, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-news")
	defer span.End()

	body, err := p.get(ctx, "/company-news", url.Values{
		"symbol": {symbol},
		"from":   {from.UTC().Format("2006-01-02")},
		"to":     {to.UTC().Format("2006-01-02")},
	})
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Datetime int64  `json:"datetime"`
		Headline string `json:"headline"`
		Source   string `json:"source"`
		Summary  string `json:"summary"`
		URL      string `json:"url"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	items := make([]domain.NewsItem, 0, len(raw))
	for _, article := range raw {
		headline := article.Headline
		if headline == "" {
			headline = "(no headline)"
		}
		items = append(items, domain.NewsItem{
			Headline: headline,
			Summary:  article.Summary,
			URL:      article.URL,
			Source:   article.Source,
			Datetime: article.Datetime,
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

// GetRsi fetches provider-computed RSI. The first period entries are the
// indicator warm-up and carry no meaningful value, so they are dropped.
func (p *FinnhubProvider) GetRsi(ctx context.Context, symbol, interval string, period int) ([]domain.RsiPoint, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-rsi")
	defer span.End()

	resolution, ok := finnhubResolution[interval]
	if !ok {
		return nil, newError(finnhubName, CodeUpstream, fmt.Sprintf("unsupported interval %q", interval))
	}
	now := time.Now().Unix()

	body, err := p.get(ctx, "/indicator", url.Values{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {fmt.Sprintf("%d", now-indicatorLookback(interval))},
		"to":         {fmt.Sprintf("%d", now)},
		"indicator":  {"rsi"},
		"timeperiod": {fmt.Sprintf("%d", period)},
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status     string    `json:"s"`
		Timestamps []int64   `json:"t"`
		RSI        []float64 `json:"rsi"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if raw.Status == "no_data" || len(raw.Timestamps) == 0 || len(raw.RSI) == 0 {
		return nil, nil
	}

	points := make([]domain.RsiPoint, 0, len(raw.Timestamps))
	for i, ts := range raw.Timestamps {
		if i < period || i >= len(raw.RSI) {
			continue
		}
		points = append(points, domain.RsiPoint{Timestamp: ts, Value: raw.RSI[i]})
	}
	if len(points) == 0 {
		return nil, nil
	}
	return points, nil
}

func (p *FinnhubProvider) GetMacd(ctx context.Context, symbol, interval string) ([]domain.MacdPoint, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-macd")
	defer span.End()

	resolution, ok := finnhubResolution[interval]
	if !ok {
		return nil, newError(finnhubName, CodeUpstream, fmt.Sprintf("unsupported interval %q", interval))
	}
	now := time.Now().Unix()

	body, err := p.get(ctx, "/indicator", url.Values{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {fmt.Sprintf("%d", now-indicatorLookback(interval))},
		"to":         {fmt.Sprintf("%d", now)},
		"indicator":  {"macd"},
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status     string    `json:"s"`
		Timestamps []int64   `json:"t"`
		MACD       []float64 `json:"macd"`
		Signal     []float64 `json:"macdSignal"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if raw.Status == "no_data" || len(raw.Timestamps) == 0 || len(raw.MACD) == 0 {
		return nil, nil
	}

	points := make([]domain.MacdPoint, 0, len(raw.Timestamps))
	for i, ts := range raw.Timestamps {
		if i >= len(raw.MACD) || i >= len(raw.Signal) {
			break
		}
		// Skip the warm-up prefix where both lines are still flat zero.
		if raw.MACD[i] == 0 && raw.Signal[i] == 0 {
			continue
		}
		points = append(points, domain.MacdPoint{
			Timestamp: ts,
			Macd:      raw.MACD[i],
			Signal:    raw.Signal[i],
			Histogram: raw.MACD[i] - raw.Signal[i],
		})
	}
	if len(points) == 0 {
		return nil, nil
	}
	return points, nil
}

func (p *FinnhubProvider) GetKeyFinancials(ctx context.Context, symbol string) (*domain.KeyFinancials, error) {
	ctx, span := p.tracer.Start(ctx, "finnhub.get-key-financials")
	defer span.End()

	body, err := p.get(ctx, "/stock/metric", url.Values{
		"symbol": {symbol},
		"metric": {"all"},
	})
	if err != nil {
		return nil, err
	}

	var raw struct {
		Metric map[string]any `json:"metric"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if len(raw.Metric) == 0 {
		return nil, nil
	}

	fin := &domain.KeyFinancials{Symbol: symbol, Source: finnhubName}
	fin.PERatio = metricFloat(raw.Metric, "peTTM", "peBasicExclExtraTTM")
	fin.EPS = metricFloat(raw.Metric, "epsTTM", "epsBasicExclExtraItemsTTM")
	fin.BookValue = metricFloat(raw.Metric, "bookValuePerShareAnnual")
	fin.DividendYield = metricFloat(raw.Metric, "currentDividendYieldTTM", "dividendYieldIndicatedAnnual")
	fin.Week52High = metricFloat(raw.Metric, "52WeekHigh")
	fin.Week52Low = metricFloat(raw.Metric, "52WeekLow")
	fin.MarketCap = metricFloat(raw.Metric, "marketCapitalization")
	fin.Beta = metricFloat(raw.Metric, "beta")
	return fin, nil
}

// metricFloat returns the first present numeric value among keys.
func metricFloat(metrics map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := metrics[key]; ok {
			if f, ok := v.(float64); ok {
				return domain.Float(f)
			}
		}
	}
	return nil
}

// indicatorLookback sizes the request window so provider indicators have
// enough history for a stable series.
func indicatorLookback(interval string) int64 {
	switch interval {
	case "D":
		return 200 * 24 * 3600
	case "W":
		return 3 * 365 * 24 * 3600
	case "M":
		return 10 * 365 * 24 * 3600
	default:
		return 30 * 24 * 3600
	}
}

func (p *FinnhubProvider) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("token", p.token)
	return doGet(ctx, p.client, finnhubName, p.baseURL+path+"?"+params.Encode())
}

// decode unmarshals a 2xx body, first surfacing provider-reported error
// conditions that Finnhub embeds in 200 responses.
func (p *FinnhubProvider) decode(body []byte, v any) error {
	var probe struct {
		ErrorMsg string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.ErrorMsg != "" {
		return newError(finnhubName, classifyText(probe.ErrorMsg), probe.ErrorMsg)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return newError(finnhubName, CodeBadResponse, err.Error())
	}
	return nil
}
