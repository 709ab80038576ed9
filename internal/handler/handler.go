// Package handler exposes the market query service over HTTP. Responses are
// plain JSON: the resolved data plus source/warning provenance, or a single
// error message with a status derived from the failure class.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"stockdesk/internal/market"
)

type Handler struct {
	tracer  trace.Tracer
	service *market.Service
}

func New(tracer trace.Tracer, service *market.Service) *Handler {
	return &Handler{
		tracer:  tracer,
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/quote/:symbol", h.GetQuote)
	api.GET("/profile/:symbol", h.GetCompanyProfile)
	api.GET("/candles/:symbol", h.GetCandles)
	api.GET("/news/:symbol", h.GetNews)
	api.GET("/rsi/:symbol", h.GetRsi)
	api.GET("/macd/:symbol", h.GetMacd)
	api.GET("/financials/:symbol", h.GetKeyFinancials)
}
