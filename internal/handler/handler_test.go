package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"stockdesk/internal/domain"
	"stockdesk/internal/market"
	"stockdesk/internal/provider"
)

// fakeProvider serves canned data for the router tests.
type fakeProvider struct {
	name     string
	quote    *domain.Quote
	quoteErr error
	candles  []domain.Candle
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeProvider) GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error) {
	return nil, nil
}

func (f *fakeProvider) GetCandles(ctx context.Context, symbol, interval string, from, to int64) ([]domain.Candle, error) {
	return f.candles, nil
}

func (f *fakeProvider) GetNews(ctx context.Context, symbol string, from, to time.Time, limit int) ([]domain.NewsItem, error) {
	return nil, nil
}

func (f *fakeProvider) GetRsi(ctx context.Context, symbol, interval string, period int) ([]domain.RsiPoint, error) {
	return nil, nil
}

func (f *fakeProvider) GetMacd(ctx context.Context, symbol, interval string) ([]domain.MacdPoint, error) {
	return nil, nil
}

func (f *fakeProvider) GetKeyFinancials(ctx context.Context, symbol string) (*domain.KeyFinancials, error) {
	return nil, nil
}

func newTestRouter(primary, secondary provider.MarketDataProvider, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	svc := market.NewService(tracer, zerolog.Nop(), primary, secondary)
	r := gin.New()
	New(tracer, svc).RegisterRoutes(r, apiKey)
	return r
}

func get(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReportsProviders(t *testing.T) {
	r := newTestRouter(&fakeProvider{name: "finnhub"}, &fakeProvider{name: "alphavantage"}, "")

	w := get(r, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Status    string   `json:"status"`
		Providers []string `json:"providers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("expected healthy status, got %q", body.Status)
	}
	if len(body.Providers) != 2 || body.Providers[0] != "finnhub" {
		t.Errorf("expected both providers in order, got %v", body.Providers)
	}
}

func TestGetQuoteSuccess(t *testing.T) {
	primary := &fakeProvider{
		name:  "finnhub",
		quote: &domain.Quote{Symbol: "AAPL", Price: 189.5, Source: "finnhub"},
	}
	r := newTestRouter(primary, nil, "")

	w := get(r, "/api/quote/aapl", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data   domain.Quote `json:"data"`
		Source string       `json:"source"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Price != 189.5 || body.Source != "finnhub" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestGetQuoteFallbackCarriesWarning(t *testing.T) {
	primary := &fakeProvider{
		name:     "finnhub",
		quoteErr: &provider.Error{Provider: "finnhub", Code: provider.CodeUpstream, Message: "boom"},
	}
	secondary := &fakeProvider{
		name:  "alphavantage",
		quote: &domain.Quote{Symbol: "AAPL", Price: 190, Source: "alphavantage"},
	}
	r := newTestRouter(primary, secondary, "")

	w := get(r, "/api/quote/AAPL", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "served from fallback provider") {
		t.Errorf("expected fallback warning in body: %s", w.Body.String())
	}
}

func TestGetQuoteRateLimitStatus(t *testing.T) {
	primary := &fakeProvider{
		name:     "finnhub",
		quoteErr: &provider.Error{Provider: "finnhub", Code: provider.CodeRateLimit, Message: "limit"},
	}
	r := newTestRouter(primary, nil, "")

	w := get(r, "/api/quote/AAPL", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rate limit") {
		t.Errorf("expected rate-limit message: %s", w.Body.String())
	}
}

func TestGetQuoteNoDataStatus(t *testing.T) {
	r := newTestRouter(&fakeProvider{name: "finnhub"}, nil, "")

	w := get(r, "/api/quote/ZZZZ", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCandlesRejectsUnknownInterval(t *testing.T) {
	r := newTestRouter(&fakeProvider{name: "finnhub"}, nil, "")

	w := get(r, "/api/candles/AAPL?interval=2h", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "supported_intervals") {
		t.Errorf("expected supported intervals in body: %s", w.Body.String())
	}
}

func TestGetCandlesSuccess(t *testing.T) {
	primary := &fakeProvider{
		name:    "finnhub",
		candles: []domain.Candle{{Timestamp: 1700000000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}},
	}
	r := newTestRouter(primary, nil, "")

	w := get(r, "/api/candles/AAPL?interval=D", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "\"interval\":\"D\"") {
		t.Errorf("expected interval echoed in body: %s", w.Body.String())
	}
}

func TestAPIKeyAuth(t *testing.T) {
	primary := &fakeProvider{
		name:  "finnhub",
		quote: &domain.Quote{Symbol: "AAPL", Price: 1, Source: "finnhub"},
	}
	r := newTestRouter(primary, nil, "secret")

	if w := get(r, "/api/quote/AAPL", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing key should be 401, got %d", w.Code)
	}
	if w := get(r, "/api/quote/AAPL", map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusForbidden {
		t.Errorf("wrong key should be 403, got %d", w.Code)
	}
	if w := get(r, "/api/quote/AAPL", map[string]string{"X-API-Key": "secret"}); w.Code != http.StatusOK {
		t.Errorf("valid key should be 200, got %d", w.Code)
	}
	if w := get(r, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health should bypass auth, got %d", w.Code)
	}
}
