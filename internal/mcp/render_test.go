package mcp

import (
	"strings"
	"testing"

	"stockdesk/internal/domain"
	"stockdesk/internal/market"
)

func TestFormatQuote(t *testing.T) {
	t.Parallel()

	res := market.Result[*domain.Quote]{
		Data: &domain.Quote{
			Symbol: "AAPL", Price: 189.5, Change: 1.25, PercentChange: 0.66,
			High: 190.2, Low: 187.1, Open: 188.0, PreviousClose: 188.25,
			Timestamp: 1700000000,
		},
		OK:     true,
		Source: "finnhub",
	}

	out := FormatQuote("AAPL", res)
	for _, want := range []string{"AAPL quote", "Price: 189.50 (+1.25, +0.66%)", "Prev close: 188.25", "Source: finnhub"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatQuoteError(t *testing.T) {
	t.Parallel()

	res := market.Result[*domain.Quote]{Err: "Provider rate limit reached. Try again shortly or use API keys with a higher quota."}
	if out := FormatQuote("AAPL", res); out != res.Err {
		t.Errorf("error result should render verbatim, got %q", out)
	}
}

func TestFormatProfileSkipsEmptyFields(t *testing.T) {
	t.Parallel()

	res := market.Result[*domain.CompanyProfile]{
		Data:   &domain.CompanyProfile{Symbol: "AAPL", Name: "Apple Inc", Currency: "USD"},
		OK:     true,
		Source: "alphavantage",
	}

	out := FormatProfile("AAPL", res)
	if !strings.Contains(out, "Name: Apple Inc") || !strings.Contains(out, "Currency: USD") {
		t.Fatalf("expected populated fields in output:\n%s", out)
	}
	if strings.Contains(out, "Exchange:") || strings.Contains(out, "Market cap:") {
		t.Errorf("absent fields should not render:\n%s", out)
	}
}

func TestFormatCandlesTruncatesToRecentRows(t *testing.T) {
	t.Parallel()

	candles := make([]domain.Candle, 40)
	for i := range candles {
		candles[i] = domain.Candle{Timestamp: int64(1700000000 + i*86400), Open: 1, High: 2, Low: 0.5, Close: float64(i), Volume: 100}
	}
	res := market.Result[[]domain.Candle]{Data: candles, OK: true, Source: "finnhub"}

	out := FormatCandles("AAPL", "D", res)
	if !strings.Contains(out, "40 returned") {
		t.Errorf("header should report the full count:\n%s", out)
	}
	rows := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "20") {
			rows++
		}
	}
	if rows != maxSeriesRows {
		t.Errorf("expected %d rendered rows, got %d", maxSeriesRows, rows)
	}
	if !strings.Contains(out, "39.00") {
		t.Errorf("most recent candle should survive truncation:\n%s", out)
	}
}

func TestFormatRsiWithWarning(t *testing.T) {
	t.Parallel()

	res := market.Result[[]domain.RsiPoint]{
		Data:    []domain.RsiPoint{{Timestamp: 1700000000, Value: 62.35}},
		OK:      true,
		Source:  "finnhub + local computation",
		Warning: "Provider-native RSI data was unavailable; computed locally from candle history.",
	}

	out := FormatRsi("AAPL", 14, res)
	for _, want := range []string{"AAPL RSI(14)", "62.35", "Source: finnhub + local computation", "Note: Provider-native RSI"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMacdColumns(t *testing.T) {
	t.Parallel()

	res := market.Result[[]domain.MacdPoint]{
		Data:   []domain.MacdPoint{{Timestamp: 1700000000, Macd: 1.5, Signal: 1.0, Histogram: 0.5}},
		OK:     true,
		Source: "alphavantage",
	}

	out := FormatMacd("AAPL", res)
	if !strings.Contains(out, "macd") || !strings.Contains(out, "0.5000") {
		t.Errorf("expected macd header and histogram value:\n%s", out)
	}
}

func TestFormatFinancialsRendersMissingAsNotAvailable(t *testing.T) {
	t.Parallel()

	res := market.Result[*domain.KeyFinancials]{
		Data:   &domain.KeyFinancials{Symbol: "AAPL", PERatio: domain.Float(31.2)},
		OK:     true,
		Source: "alphavantage",
	}

	out := FormatFinancials("AAPL", res)
	if !strings.Contains(out, "P/E ratio: 31.2000") {
		t.Errorf("expected P/E value:\n%s", out)
	}
	if !strings.Contains(out, "Beta: not available") {
		t.Errorf("missing optionals should render as not available:\n%s", out)
	}
}

func TestFormatNews(t *testing.T) {
	t.Parallel()

	res := market.Result[[]domain.NewsItem]{
		Data: []domain.NewsItem{
			{Headline: "Apple ships new chip", Summary: "Faster cores.", URL: "https://example.com/a", Source: "Reuters", Datetime: 1700000000},
			{Headline: "(no headline)"},
		},
		OK:     true,
		Source: "finnhub",
	}

	out := FormatNews("AAPL", res)
	for _, want := range []string{"2 articles", "- Apple ships new chip", "[Reuters]", "https://example.com/a", "- (no headline)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
