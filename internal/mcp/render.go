package mcp

import (
	"fmt"
	"strings"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/market"
)

// maxSeriesRows caps tabular tool output so responses stay readable.
const maxSeriesRows = 30

func FormatQuote(symbol string, res market.Result[*domain.Quote]) string {
	if res.Err != "" {
		return res.Err
	}
	q := res.Data
	var b strings.Builder
	fmt.Fprintf(&b, "%s quote\n", symbol)
	fmt.Fprintf(&b, "Price: %.2f (%+.2f, %+.2f%%)\n", q.Price, q.Change, q.PercentChange)
	fmt.Fprintf(&b, "Open: %.2f  High: %.2f  Low: %.2f  Prev close: %.2f\n", q.Open, q.High, q.Low, q.PreviousClose)
	if q.Timestamp > 0 {
		fmt.Fprintf(&b, "As of: %s\n", time.Unix(q.Timestamp, 0).UTC().Format(time.RFC3339))
	}
	return withProvenance(b.String(), res.Source, res.Warning)
}

func FormatProfile(symbol string, res market.Result[*domain.CompanyProfile]) string {
	if res.Err != "" {
		return res.Err
	}
	p := res.Data
	var b strings.Builder
	fmt.Fprintf(&b, "%s company profile\n", symbol)
	writeField(&b, "Name", p.Name)
	writeField(&b, "Exchange", p.Exchange)
	writeField(&b, "Currency", p.Currency)
	writeField(&b, "Country", p.Country)
	writeField(&b, "Industry", p.Industry)
	writeField(&b, "IPO / latest quarter", p.IPO)
	if p.MarketCap != nil {
		fmt.Fprintf(&b, "Market cap: %.0f\n", *p.MarketCap)
	}
	writeField(&b, "Website", p.Website)
	return withProvenance(b.String(), res.Source, res.Warning)
}

func FormatCandles(symbol, interval string, res market.Result[[]domain.Candle]) string {
	if res.Err != "" {
		return res.Err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s candles (interval %s, %d returned)\n", symbol, interval, len(res.Data))
	b.WriteString("time                  open      high      low       close     volume\n")
	for _, c := range tail(res.Data) {
		fmt.Fprintf(&b, "%s  %-8.2f  %-8.2f  %-8.2f  %-8.2f  %.0f\n",
			time.Unix(c.Timestamp, 0).UTC().Format("2006-01-02T15:04:05Z"),
			c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	return withProvenance(b.String(), res.Source, res.Warning)
}

func FormatNews(symbol string, res market.Result[[]domain.NewsItem]) string {
	if res.Err != "" {
		return res.Err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s news (%d articles)\n", symbol, len(res.Data))
	for _, item := range res.Data {
		b.WriteString("- " + item.Headline)
		if item.Datetime > 0 {
			fmt.Fprintf(&b, " (%s)", time.Unix(item.Datetime, 0).UTC().Format("2006-01-02"))
		}
		if item.Source != "" {
			fmt.Fprintf(&b, " [%s]", item.Source)
		}
		b.WriteString("\n")
		if item.Summary != "" {
			b.WriteString("  " + item.Summary + "\n")
		}
		if item.URL != "" {
			b.WriteString("  " + item.URL + "\n")
		}
	}
	return withProvenance(b.String(), res.Source, res.Warning)
}

func FormatRsi(symbol string, period int, res market.Result[[]domain.RsiPoint]) string {
	if res.Err != "" {
		return res.Err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s RSI(%d), %d points\n", symbol, period, len(res.Data))
	for _, pt := range tail(res.Data) {
		fmt.Fprintf(&b, "%s  %.2f\n", time.Unix(pt.Timestamp, 0).UTC().Format("2006-01-02T15:04:05Z"), pt.Value)
	}
	return withProvenance(b.String(), res.Source, res.Warning)
}

func FormatMacd(symbol string, res market.Result[[]domain.MacdPoint]) string {
	if res.Err != "" {
		return res.Err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s MACD(12,26,9), %d points\n", symbol, len(res.Data))
	b.WriteString("time                  macd      signal    histogram\n")
	for _, pt := range tail(res.Data) {
		fmt.Fprintf(&b, "%s  %-8.4f  %-8.4f  %.4f\n",
			time.Unix(pt.Timestamp, 0).UTC().Format("2006-01-02T15:04:05Z"), pt.Macd, pt.Signal, pt.Histogram)
	}
	return withProvenance(b.String(), res.Source, res.Warning)
}

func FormatFinancials(symbol string, res market.Result[*domain.KeyFinancials]) string {
	if res.Err != "" {
		return res.Err
	}
	f := res.Data
	var b strings.Builder
	fmt.Fprintf(&b, "%s key financials\n", symbol)
	writeOptional(&b, "P/E ratio", f.PERatio)
	writeOptional(&b, "EPS", f.EPS)
	writeOptional(&b, "Book value", f.BookValue)
	writeOptional(&b, "Dividend yield", f.DividendYield)
	writeOptional(&b, "52-week high", f.Week52High)
	writeOptional(&b, "52-week low", f.Week52Low)
	writeOptional(&b, "Market cap", f.MarketCap)
	writeOptional(&b, "Beta", f.Beta)
	return withProvenance(b.String(), res.Source, res.Warning)
}

func withProvenance(body, source, warning string) string {
	out := strings.TrimRight(body, "\n")
	if source != "" {
		out += "\nSource: " + source
	}
	if warning != "" {
		out += "\nNote: " + warning
	}
	return out
}

func writeField(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func writeOptional(b *strings.Builder, label string, value *float64) {
	if value == nil {
		fmt.Fprintf(b, "%s: not available\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %.4f\n", label, *value)
}

// tail returns the most recent rows of a series.
func tail[T any](points []T) []T {
	if len(points) <= maxSeriesRows {
		return points
	}
	return points[len(points)-maxSeriesRows:]
}
