// Package mcp registers the stock query tools on a Model Context Protocol
// server. It is a thin adapter: argument validation and text rendering live
// here, everything else is delegated to the market service.
package mcp

import (
	"context"
	"strings"
	"time"

	"stockdesk/internal/ta"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

const serverName = "stockdesk"

type Server struct {
	reader   MarketReader
	validate *validator.Validate
	log      zerolog.Logger
}

type QuoteArgs struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=12"`
}

type CandlesArgs struct {
	Symbol   string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=12"`
	Interval string `json:"interval,omitempty" jsonschema:"Candle interval: 1, 5, 15, 30, 60, D, W or M (default D)" validate:"omitempty,oneof=1 5 15 30 60 D W M"`
	From     int64  `json:"from,omitempty" jsonschema:"Window start as epoch seconds (default 90 days ago)" validate:"omitempty,gt=0"`
	To       int64  `json:"to,omitempty" jsonschema:"Window end as epoch seconds (default now)" validate:"omitempty,gt=0"`
}

type NewsArgs struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=12"`
	Days   int    `json:"days,omitempty" jsonschema:"Lookback window in days (default 7)" validate:"omitempty,gt=0,lte=90"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum articles to return (default 10)" validate:"omitempty,gt=0,lte=50"`
}

type RsiArgs struct {
	Symbol   string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=12"`
	Interval string `json:"interval,omitempty" jsonschema:"Series interval: 1, 5, 15, 30, 60, D, W or M (default D)" validate:"omitempty,oneof=1 5 15 30 60 D W M"`
	Period   int    `json:"period,omitempty" jsonschema:"RSI period (default 14)" validate:"omitempty,gt=1,lte=100"`
}

type MacdArgs struct {
	Symbol   string `json:"symbol" jsonschema:"Ticker symbol, e.g. AAPL" validate:"required,max=12"`
	Interval string `json:"interval,omitempty" jsonschema:"Series interval: 1, 5, 15, 30, 60, D, W or M (default D)" validate:"omitempty,oneof=1 5 15 30 60 D W M"`
}

func NewServer(reader MarketReader, log zerolog.Logger) *mcp.Server {
	s := &Server{
		reader:   reader,
		validate: validator.New(),
		log:      log.With().Str("component", "mcp").Logger(),
	}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_quote",
		Description: "Get the current price quote for a stock symbol.",
	}, s.getQuote)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_company_profile",
		Description: "Get company profile information for a stock symbol.",
	}, s.getCompanyProfile)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_candles",
		Description: "Get OHLCV candle history for a stock symbol over a time window.",
	}, s.getCandles)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_news",
		Description: "Get recent company news for a stock symbol.",
	}, s.getNews)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_rsi",
		Description: "Get the RSI indicator series for a stock symbol. Falls back to local computation from candles when providers have no indicator data.",
	}, s.getRsi)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_macd",
		Description: "Get the MACD indicator series for a stock symbol. Falls back to local computation from candles when providers have no indicator data.",
	}, s.getMacd)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_key_financials",
		Description: "Get key financial ratios (P/E, EPS, 52-week range, beta) for a stock symbol.",
	}, s.getKeyFinancials)

	return server
}

// Run serves the tools over stdio until ctx is cancelled.
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) getQuote(ctx context.Context, req *mcp.CallToolRequest, args QuoteArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	res := s.reader.GetQuote(ctx, args.Symbol)
	return textResult(FormatQuote(args.Symbol, res)), nil, nil
}

func (s *Server) getCompanyProfile(ctx context.Context, req *mcp.CallToolRequest, args QuoteArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	res := s.reader.GetCompanyProfile(ctx, args.Symbol)
	return textResult(FormatProfile(args.Symbol, res)), nil, nil
}

func (s *Server) getCandles(ctx context.Context, req *mcp.CallToolRequest, args CandlesArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	interval := args.Interval
	if interval == "" {
		interval = "D"
	}
	to := args.To
	if to == 0 {
		to = time.Now().Unix()
	}
	from := args.From
	if from == 0 {
		from = to - 90*24*3600
	}
	res := s.reader.GetCandles(ctx, args.Symbol, interval, from, to)
	return textResult(FormatCandles(args.Symbol, interval, res)), nil, nil
}

func (s *Server) getNews(ctx context.Context, req *mcp.CallToolRequest, args NewsArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	days := args.Days
	if days == 0 {
		days = 7
	}
	limit := args.Limit
	if limit == 0 {
		limit = 10
	}
	to := time.Now()
	res := s.reader.GetNews(ctx, args.Symbol, to.AddDate(0, 0, -days), to, limit)
	return textResult(FormatNews(args.Symbol, res)), nil, nil
}

func (s *Server) getRsi(ctx context.Context, req *mcp.CallToolRequest, args RsiArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	interval := args.Interval
	if interval == "" {
		interval = "D"
	}
	period := args.Period
	if period == 0 {
		period = ta.DefaultRsiPeriod
	}
	res := s.reader.GetRsi(ctx, args.Symbol, interval, period)
	return textResult(FormatRsi(args.Symbol, period, res)), nil, nil
}

func (s *Server) getMacd(ctx context.Context, req *mcp.CallToolRequest, args MacdArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	interval := args.Interval
	if interval == "" {
		interval = "D"
	}
	res := s.reader.GetMacd(ctx, args.Symbol, interval)
	return textResult(FormatMacd(args.Symbol, res)), nil, nil
}

func (s *Server) getKeyFinancials(ctx context.Context, req *mcp.CallToolRequest, args QuoteArgs) (*mcp.CallToolResult, any, error) {
	if msg := s.check(&args, &args.Symbol); msg != "" {
		return textResult(msg), nil, nil
	}
	res := s.reader.GetKeyFinancials(ctx, args.Symbol)
	return textResult(FormatFinancials(args.Symbol, res)), nil, nil
}

// check validates tool arguments and normalizes the symbol in place. A
// non-empty return is the user-facing validation message.
func (s *Server) check(args any, symbol *string) string {
	*symbol = strings.ToUpper(strings.TrimSpace(*symbol))
	if err := s.validate.Struct(args); err != nil {
		s.log.Debug().Err(err).Msg("invalid tool arguments")
		return "Invalid arguments: " + err.Error()
	}
	return ""
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
