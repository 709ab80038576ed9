package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockdesk/internal/bot"
	"stockdesk/internal/config"
	"stockdesk/internal/handler"
	"stockdesk/internal/logging"
	"stockdesk/internal/market"
	"stockdesk/internal/provider"
	"stockdesk/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	newFinnhubFunc = func(token string, timeout time.Duration, tracer trace.Tracer, log zerolog.Logger) provider.MarketDataProvider {
		return provider.NewFinnhubProvider(token, timeout, tracer, log)
	}
	newAlphaVantageFunc = func(apiKey string, timeout time.Duration, tracer trace.Tracer, log zerolog.Logger) provider.MarketDataProvider {
		return provider.NewAlphaVantageProvider(apiKey, timeout, tracer, log)
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	log := logging.New(os.Getenv("LOG_LEVEL"))
	cfg := loadConfigFunc(log)
	log = logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	var primary, secondary provider.MarketDataProvider
	if cfg.FinnhubAPIKey != "" {
		primary = newFinnhubFunc(cfg.FinnhubAPIKey, cfg.ProviderTimeout, tracer, log)
	}
	if cfg.AlphaVantageAPIKey != "" {
		secondary = newAlphaVantageFunc(cfg.AlphaVantageAPIKey, cfg.ProviderTimeout, tracer, log)
	}

	svc := market.NewService(tracer, log, primary, secondary)

	startTelegramBotFunc(cfg.TelegramBotToken, svc, log)

	r := newRouterFunc()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("stockdesk"))

	handler.New(tracer, svc).RegisterRoutes(r, cfg.APIAuthKey)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}
