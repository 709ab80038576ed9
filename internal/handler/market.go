package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"stockdesk/internal/domain"
	"stockdesk/internal/market"
	"stockdesk/internal/provider"
	"stockdesk/internal/ta"
)

// GetQuote returns the current quote for a symbol.
func (h *Handler) GetQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := pathSymbol(c)
	span.SetAttributes(attribute.String("symbol", symbol))

	respond(c, h.service.GetQuote(ctx, symbol))
}

// GetCompanyProfile returns descriptive company data for a symbol.
func (h *Handler) GetCompanyProfile(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-company-profile")
	defer span.End()

	symbol := pathSymbol(c)
	span.SetAttributes(attribute.String("symbol", symbol))

	respond(c, h.service.GetCompanyProfile(ctx, symbol))
}

// GetCandles returns OHLCV history for a symbol over a [from,to] window.
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	symbol := pathSymbol(c)
	interval := c.DefaultQuery("interval", "D")
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	if !domain.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	to := queryInt64(c, "to", time.Now().Unix())
	from := queryInt64(c, "from", to-90*24*3600)

	respond(c, h.service.GetCandles(ctx, symbol, interval, from, to), "interval", interval)
}

// GetNews returns recent company news for a symbol.
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	symbol := pathSymbol(c)
	span.SetAttributes(attribute.String("symbol", symbol))

	days := int(queryInt64(c, "days", 7))
	if days <= 0 || days > 90 {
		days = 7
	}
	limit := int(queryInt64(c, "limit", 10))
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	to := time.Now()

	respond(c, h.service.GetNews(ctx, symbol, to.AddDate(0, 0, -days), to, limit))
}

// GetRsi returns the RSI series for a symbol, computed locally when no
// provider has native indicator data.
func (h *Handler) GetRsi(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-rsi")
	defer span.End()

	symbol := pathSymbol(c)
	interval := c.DefaultQuery("interval", "D")
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	if !domain.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	period := int(queryInt64(c, "period", ta.DefaultRsiPeriod))
	if period <= 1 || period > 100 {
		period = ta.DefaultRsiPeriod
	}

	respond(c, h.service.GetRsi(ctx, symbol, interval, period), "interval", interval, "period", period)
}

// GetMacd returns the MACD series for a symbol.
func (h *Handler) GetMacd(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-macd")
	defer span.End()

	symbol := pathSymbol(c)
	interval := c.DefaultQuery("interval", "D")
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	if !domain.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	respond(c, h.service.GetMacd(ctx, symbol, interval), "interval", interval)
}

// GetKeyFinancials returns fundamental ratios for a symbol.
func (h *Handler) GetKeyFinancials(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-key-financials")
	defer span.End()

	symbol := pathSymbol(c)
	span.SetAttributes(attribute.String("symbol", symbol))

	respond(c, h.service.GetKeyFinancials(ctx, symbol))
}

func pathSymbol(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
}

func queryInt64(c *gin.Context, name string, fallback int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// respond writes the resolved result, with extra key/value pairs merged into
// the success body.
func respond[T any](c *gin.Context, res market.Result[T], extras ...any) {
	if res.Err != "" {
		c.JSON(failureStatus(res.Failure), gin.H{"error": res.Err})
		return
	}

	body := gin.H{
		"data":   res.Data,
		"source": res.Source,
	}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	for i := 0; i+1 < len(extras); i += 2 {
		if key, ok := extras[i].(string); ok {
			body[key] = extras[i+1]
		}
	}
	c.JSON(http.StatusOK, body)
}

func failureStatus(code provider.Code) int {
	switch code {
	case provider.CodeRateLimit:
		return http.StatusTooManyRequests
	case provider.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
