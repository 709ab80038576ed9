// Command mcp serves the stock query tools over stdio for Model Context
// Protocol clients. All logging goes to stderr; stdout carries the protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stockdesk/internal/config"
	"stockdesk/internal/logging"
	"stockdesk/internal/market"
	mcpserver "stockdesk/internal/mcp"
	"stockdesk/internal/provider"
	"stockdesk/pkg/tracing"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	log := logging.New(os.Getenv("LOG_LEVEL"))
	cfg := config.Load(log)
	log = logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := tracing.InitTracer(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var primary, secondary provider.MarketDataProvider
	if cfg.FinnhubAPIKey != "" {
		primary = provider.NewFinnhubProvider(cfg.FinnhubAPIKey, cfg.ProviderTimeout, tracer, log)
	}
	if cfg.AlphaVantageAPIKey != "" {
		secondary = provider.NewAlphaVantageProvider(cfg.AlphaVantageAPIKey, cfg.ProviderTimeout, tracer, log)
	}

	svc := market.NewService(tracer, log, primary, secondary)
	server := mcpserver.NewServer(svc, log)

	log.Info().Msg("mcp server listening on stdio")
	if err := mcpserver.Run(ctx, server); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("mcp server stopped")
	}
}
