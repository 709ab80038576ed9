package domain

// Quote is the latest price snapshot for a symbol, normalized across
// providers. Adapters never return a quote with a zero or negative price;
// such upstream payloads are treated as "no data".
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
	Timestamp     int64   `json:"timestamp,omitempty"`
	Source        string  `json:"source"`
}

// CompanyProfile carries descriptive company data. Everything beyond the
// symbol is optional; absent strings stay empty and absent numerics stay nil.
type CompanyProfile struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name,omitempty"`
	Exchange  string   `json:"exchange,omitempty"`
	Currency  string   `json:"currency,omitempty"`
	Country   string   `json:"country,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	IPO       string   `json:"ipo,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Website   string   `json:"website,omitempty"`
	Logo      string   `json:"logo,omitempty"`
	Source    string   `json:"source"`
}

// NewsItem is a single news article. Headline is always set; adapters
// substitute a placeholder when upstream omits it.
type NewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary,omitempty"`
	URL      string `json:"url,omitempty"`
	Source   string `json:"source,omitempty"`
	Datetime int64  `json:"datetime,omitempty"`
}

// KeyFinancials holds fundamental ratios. All numeric fields are optional
// pointers so "not available" renders uniformly downstream.
type KeyFinancials struct {
	Symbol        string   `json:"symbol"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	EPS           *float64 `json:"eps,omitempty"`
	BookValue     *float64 `json:"book_value,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	Week52High    *float64 `json:"week_52_high,omitempty"`
	Week52Low     *float64 `json:"week_52_low,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
	Source        string   `json:"source"`
}

// Float returns a pointer to v, for filling optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
