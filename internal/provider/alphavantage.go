package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockdesk/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	alphaVantageName    = "alphavantage"
	alphaVantageBaseURL = "https://www.alphavantage.co/query"
)

// alphaVantageInterval translates boundary interval codes into Alpha Vantage
// interval strings. Intraday codes become minute intervals; D/W/M select the
// daily, weekly, and monthly series.
var alphaVantageInterval = map[string]string{
	"1":  "1min",
	"5":  "5min",
	"15": "15min",
	"30": "30min",
	"60": "60min",
	"D":  "daily",
	"W":  "weekly",
	"M":  "monthly",
}

// AlphaVantageProvider adapts the Alpha Vantage REST API to the normalized
// model. Alpha Vantage reports every error inside a 200 body (the "Error
// Message", "Note", and "Information" keys), so each decode starts with an
// error probe.
type AlphaVantageProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	log     zerolog.Logger
}

func NewAlphaVantageProvider(apiKey string, timeout time.Duration, tracer trace.Tracer, log zerolog.Logger) *AlphaVantageProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AlphaVantageProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: alphaVantageBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		log:     log.With().Str("provider", alphaVantageName).Logger(),
	}
}

func (p *AlphaVantageProvider) Name() string { return alphaVantageName }

func (p *AlphaVantageProvider) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-quote")
	defer span.End()

	body, err := p.get(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var raw struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if len(raw.GlobalQuote) == 0 {
		return nil, nil
	}

	price := avFloat(raw.GlobalQuote["05. price"])
	if price <= 0 {
		p.log.Debug().Str("symbol", symbol).Msg("global quote has no usable price")
		return nil, nil
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        avFloat(raw.GlobalQuote["09. change"]),
		PercentChange: avFloat(strings.TrimSuffix(raw.GlobalQuote["10. change percent"], "%")),
		High:          avFloat(raw.GlobalQuote["03. high"]),
		Low:           avFloat(raw.GlobalQuote["04. low"]),
		Open:          avFloat(raw.GlobalQuote["02. open"]),
		PreviousClose: avFloat(raw.GlobalQuote["08. previous close"]),
		Source:        alphaVantageName,
	}
	if day := raw.GlobalQuote["07. latest trading day"]; day != "" {
		if t, err := time.Parse("2006-01-02", day); err == nil {
			quote.Timestamp = t.Unix()
		}
	}
	return quote, nil
}

func (p *AlphaVantageProvider) GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-company-profile")
	defer span.End()

	overview, err := p.fetchOverview(ctx, symbol)
	if err != nil || overview == nil {
		return nil, err
	}

	profile := &domain.CompanyProfile{
		Symbol:   symbol,
		Name:     overview["Name"],
		Exchange: overview["Exchange"],
		Currency: overview["Currency"],
		Country:  overview["Country"],
		Industry: overview["Industry"],
		IPO:      overview["LatestQuarter"],
		Website:  overview["OfficialSite"],
		Source:   alphaVantageName,
	}
	if cap := avFloat(overview["MarketCapitalization"]); cap > 0 {
		profile.MarketCap = domain.Float(cap)
	}
	return profile, nil
}

// GetCandles fetches a time series and flattens Alpha Vantage's keyed-map
// shape into an ascending sequence. The API has no server-side range
// filtering, so the [from, to] window is applied here.
func (p *AlphaVantageProvider) GetCandles(ctx context.Context, symbol, interval string, from, to int64) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-candles")
	defer span.End()

	avInterval, ok := alphaVantageInterval[interval]
	if !ok {
		return nil, newError(alphaVantageName, CodeUpstream, fmt.Sprintf("unsupported interval %q", interval))
	}

	params := url.Values{"symbol": {symbol}, "outputsize": {"full"}}
	switch avInterval {
	case "daily":
		params.Set("function", "TIME_SERIES_DAILY")
	case "weekly":
		params.Set("function", "TIME_SERIES_WEEKLY")
	case "monthly":
		params.Set("function", "TIME_SERIES_MONTHLY")
	default:
		params.Set("function", "TIME_SERIES_INTRADAY")
		params.Set("interval", avInterval)
	}

	body, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}

	series, err := p.findKeyedSeries(body, "Time Series", "Weekly Time Series", "Monthly Time Series")
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(series))
	for stamp, fields := range series {
		ts, ok := avTimestamp(stamp)
		if !ok {
			continue
		}
		if ts < from || ts > to {
			continue
		}
		candles = append(candles, domain.Candle{
			Timestamp: ts,
			Open:      avFloat(fields["1. open"]),
			High:      avFloat(fields["2. high"]),
			Low:       avFloat(fields["3. low"]),
			Close:     avFloat(fields["4. close"]),
			Volume:    avFloat(fields["5. volume"]),
		})
	}
	if len(candles) == 0 {
		return nil, nil
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}

func (p *AlphaVantageProvider) GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]domain.NewsItem, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-news")
	defer span.End()

	params := url.Values{
		"function":  {"NEWS_SENTIMENT"},
		"tickers":   {symbol},
		"time_from": {from.UTC().Format("20060102T1504")},
		"time_to":   {to.UTC().Format("20060102T1504")},
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Feed []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			TimePublished string `json:"time_published"`
			Summary       string `json:"summary"`
			Source        string `json:"source"`
		} `json:"feed"`
	}
	if err := p.decode(body, &raw); err != nil {
		return nil, err
	}
	if len(raw.Feed) == 0 {
		return nil, nil
	}

	items := make([]domain.NewsItem, 0, len(raw.Feed))
	for _, article := range raw.Feed {
		headline := article.Title
		if headline == "" {
			headline = "(no headline)"
		}
		item := domain.NewsItem{
			Headline: headline,
			Summary:  article.Summary,
			URL:      article.URL,
			Source:   article.Source,
		}
		if t, err := time.Parse("20060102T150405", article.TimePublished); err == nil {
			item.Datetime = t.Unix()
		}
		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (p *AlphaVantageProvider) GetRsi(ctx context.Context, symbol, interval string, period int) ([]domain.RsiPoint, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-rsi")
	defer span.End()

	avInterval, ok := alphaVantageInterval[interval]
	if !ok {
		return nil, newError(alphaVantageName, CodeUpstream, fmt.Sprintf("unsupported interval %q", interval))
	}

	body, err := p.get(ctx, url.Values{
		"function":    {"RSI"},
		"symbol":      {symbol},
		"interval":    {avInterval},
		"time_period": {strconv.Itoa(period)},
		"series_type": {"close"},
	})
	if err != nil {
		return nil, err
	}

	series, err := p.findKeyedSeries(body, "Technical Analysis: RSI")
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}

	points := make([]domain.RsiPoint, 0, len(series))
	for stamp, fields := range series {
		ts, ok := avTimestamp(stamp)
		if !ok {
			continue
		}
		points = append(points, domain.RsiPoint{Timestamp: ts, Value: avFloat(fields["RSI"])})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return points, nil
}

func (p *AlphaVantageProvider) GetMacd(ctx context.Context, symbol, interval string) ([]domain.MacdPoint, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-macd")
	defer span.End()

	avInterval, ok := alphaVantageInterval[interval]
	if !ok {
		return nil, newError(alphaVantageName, CodeUpstream, fmt.Sprintf("unsupported interval %q", interval))
	}

	body, err := p.get(ctx, url.Values{
		"function":    {"MACD"},
		"symbol":      {symbol},
		"interval":    {avInterval},
		"series_type": {"close"},
	})
	if err != nil {
		return nil, err
	}

	series, err := p.findKeyedSeries(body, "Technical Analysis: MACD")
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}

	points := make([]domain.MacdPoint, 0, len(series))
	for stamp, fields := range series {
		ts, ok := avTimestamp(stamp)
		if !ok {
			continue
		}
		macd := avFloat(fields["MACD"])
		signal := avFloat(fields["MACD_Signal"])
		points = append(points, domain.MacdPoint{
			Timestamp: ts,
			Macd:      macd,
			Signal:    signal,
			Histogram: macd - signal,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return points, nil
}

func (p *AlphaVantageProvider) GetKeyFinancials(ctx context.Context, symbol string) (*domain.KeyFinancials, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.get-key-financials")
	defer span.End()

	overview, err := p.fetchOverview(ctx, symbol)
	if err != nil || overview == nil {
		return nil, err
	}

	fin := &domain.KeyFinancials{Symbol: symbol, Source: alphaVantageName}
	fin.PERatio = avOptFloat(overview["PERatio"])
	fin.EPS = avOptFloat(overview["EPS"])
	fin.BookValue = avOptFloat(overview["BookValue"])
	fin.DividendYield = avOptFloat(overview["DividendYield"])
	fin.Week52High = avOptFloat(overview["52WeekHigh"])
	fin.Week52Low = avOptFloat(overview["52WeekLow"])
	fin.MarketCap = avOptFloat(overview["MarketCapitalization"])
	fin.Beta = avOptFloat(overview["Beta"])
	return fin, nil
}

// fetchOverview loads the company OVERVIEW payload, shared by profile and
// financials. An empty object or missing Symbol means the company is unknown.
func (p *AlphaVantageProvider) fetchOverview(ctx context.Context, symbol string) (map[string]string, error) {
	body, err := p.get(ctx, url.Values{"function": {"OVERVIEW"}, "symbol": {symbol}})
	if err != nil {
		return nil, err
	}

	var overview map[string]string
	if err := p.decode(body, &overview); err != nil {
		return nil, err
	}
	if len(overview) == 0 || (overview["Symbol"] == "" && overview["Name"] == "") {
		return nil, nil
	}
	return overview, nil
}

// findKeyedSeries locates the time-series object in a payload whose top-level
// key varies by function (e.g. "Time Series (5min)", "Technical Analysis:
// RSI") and returns it as stamp -> field map.
func (p *AlphaVantageProvider) findKeyedSeries(body []byte, keyPrefixes ...string) (map[string]map[string]string, error) {
	var top map[string]json.RawMessage
	if err := p.decode(body, &top); err != nil {
		return nil, err
	}

	for key, value := range top {
		for _, prefix := range keyPrefixes {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			var series map[string]map[string]string
			if err := json.Unmarshal(value, &series); err != nil {
				return nil, newError(alphaVantageName, CodeBadResponse, err.Error())
			}
			return series, nil
		}
	}
	return nil, nil
}

func (p *AlphaVantageProvider) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", p.apiKey)
	return doGet(ctx, p.client, alphaVantageName, p.baseURL+"?"+params.Encode())
}

// decode unmarshals a 2xx body after probing for the error conditions Alpha
// Vantage embeds in 200 responses.
func (p *AlphaVantageProvider) decode(body []byte, v any) error {
	var probe struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	if err := json.Unmarshal(body, &probe); err == nil {
		if probe.Note != "" {
			return newError(alphaVantageName, classifyText(probe.Note), probe.Note)
		}
		if probe.Information != "" {
			return newError(alphaVantageName, classifyText(probe.Information), probe.Information)
		}
		if probe.ErrorMessage != "" {
			code := classifyText(probe.ErrorMessage)
			if code == CodeUpstream {
				// "Invalid API call" is how Alpha Vantage reports unknown
				// symbols and malformed function arguments.
				code = CodeNotFound
			}
			return newError(alphaVantageName, code, probe.ErrorMessage)
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return newError(alphaVantageName, CodeBadResponse, err.Error())
	}
	return nil
}

// avFloat parses Alpha Vantage's string-encoded numerics, returning 0 for
// absent or malformed values.
func avFloat(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" || v == "None" || v == "-" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

// avOptFloat parses an optional numeric, mapping absent values to nil.
func avOptFloat(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" || v == "None" || v == "-" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return domain.Float(n)
}

// avTimestamp parses the stamp formats used across Alpha Vantage series.
func avTimestamp(stamp string) (int64, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}
