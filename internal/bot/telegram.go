// Package bot serves a small set of stock query commands over Telegram.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"stockdesk/internal/domain"
	"stockdesk/internal/market"
	"stockdesk/internal/ta"
)

// StartTelegramBot launches the long-polling bot in the background. An empty
// token disables the bot.
func StartTelegramBot(token string, svc *market.Service, log zerolog.Logger) {
	if token == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Error().Err(err).Msg("failed to create Telegram bot")
		return
	}

	RegisterCommands(b, svc)

	log.Info().Msg("Telegram bot started")
	go b.Start()
}

// RegisterCommands wires the query commands onto the bot.
func RegisterCommands(b *tele.Bot, svc *market.Service) {
	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/quote", func(c tele.Context) error {
		symbol, ok := symbolArg(c)
		if !ok {
			return c.Send("Usage: /quote AAPL")
		}
		res := svc.GetQuote(context.Background(), symbol)
		if res.Err != "" {
			return c.Send(res.Err)
		}
		q := res.Data
		msg := fmt.Sprintf("%s\nPrice: %.2f (%+.2f, %+.2f%%)\nOpen: %.2f  High: %.2f  Low: %.2f",
			symbol, q.Price, q.Change, q.PercentChange, q.Open, q.High, q.Low)
		return c.Send(withNote(msg, res.Source, res.Warning))
	})

	b.Handle("/profile", func(c tele.Context) error {
		symbol, ok := symbolArg(c)
		if !ok {
			return c.Send("Usage: /profile AAPL")
		}
		res := svc.GetCompanyProfile(context.Background(), symbol)
		if res.Err != "" {
			return c.Send(res.Err)
		}
		p := res.Data
		lines := []string{symbol}
		if p.Name != "" {
			lines = append(lines, p.Name)
		}
		if p.Exchange != "" {
			lines = append(lines, "Exchange: "+p.Exchange)
		}
		if p.Industry != "" {
			lines = append(lines, "Industry: "+p.Industry)
		}
		if p.MarketCap != nil {
			lines = append(lines, fmt.Sprintf("Market cap: %.0f", *p.MarketCap))
		}
		return c.Send(withNote(strings.Join(lines, "\n"), res.Source, res.Warning))
	})

	b.Handle("/rsi", func(c tele.Context) error {
		symbol, ok := symbolArg(c)
		if !ok {
			return c.Send("Usage: /rsi AAPL")
		}
		res := svc.GetRsi(context.Background(), symbol, "D", ta.DefaultRsiPeriod)
		if res.Err != "" {
			return c.Send(res.Err)
		}
		last := res.Data[len(res.Data)-1]
		msg := fmt.Sprintf("%s RSI(%d): %.2f as of %s",
			symbol, ta.DefaultRsiPeriod, last.Value, time.Unix(last.Timestamp, 0).UTC().Format("2006-01-02"))
		return c.Send(withNote(msg, res.Source, res.Warning))
	})

	b.Handle("/macd", func(c tele.Context) error {
		symbol, ok := symbolArg(c)
		if !ok {
			return c.Send("Usage: /macd AAPL")
		}
		res := svc.GetMacd(context.Background(), symbol, "D")
		if res.Err != "" {
			return c.Send(res.Err)
		}
		last := res.Data[len(res.Data)-1]
		msg := fmt.Sprintf("%s MACD(12,26,9) as of %s\nMACD: %.4f  Signal: %.4f  Histogram: %.4f",
			symbol, time.Unix(last.Timestamp, 0).UTC().Format("2006-01-02"), last.Macd, last.Signal, last.Histogram)
		return c.Send(withNote(msg, res.Source, res.Warning))
	})

	b.Handle("/news", func(c tele.Context) error {
		symbol, ok := symbolArg(c)
		if !ok {
			return c.Send("Usage: /news AAPL")
		}
		to := time.Now()
		res := svc.GetNews(context.Background(), symbol, to.AddDate(0, 0, -7), to, 5)
		if res.Err != "" {
			return c.Send(res.Err)
		}
		return c.Send(withNote(newsDigest(symbol, res.Data), res.Source, res.Warning))
	})
}

func symbolArg(c tele.Context) (string, bool) {
	args := c.Args()
	if len(args) == 0 {
		return "", false
	}
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	return symbol, symbol != ""
}

func newsDigest(symbol string, items []domain.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s news\n", symbol)
	for _, item := range items {
		b.WriteString("- " + item.Headline)
		if item.Source != "" {
			b.WriteString(" [" + item.Source + "]")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func withNote(msg, source, warning string) string {
	out := msg + "\nSource: " + source
	if warning != "" {
		out += "\nNote: " + warning
	}
	return out
}
