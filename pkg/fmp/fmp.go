// Package fmp is a small client for the Financial Modeling Prep REST API.
package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/agdev/finagent/internal/agent/model"
	errx "github.com/agdev/finagent/internal/core/error"
	logx "github.com/agdev/finagent/pkg/logger"
)

type Config struct {
	APIKey        string        `envconfig:"FMP_API_KEY"`
	BaseURL       string        `envconfig:"FMP_BASE_URL" default:"https://financialmodelingprep.com/api/v3"`
	Timeout       time.Duration `envconfig:"FMP_TIMEOUT" default:"10s"`
	RatePerSecond float64       `envconfig:"FMP_RATE_PER_SECOND" default:"5"`
	Burst         int           `envconfig:"FMP_BURST" default:"5"`
}

// Client implements model.FinancialDataProvider over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

func (c Config) New() *Client {
	limit := rate.Inf
	if c.RatePerSecond > 0 {
		limit = rate.Limit(c.RatePerSecond)
	}
	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: c.Timeout},
		baseURL:    strings.TrimRight(c.BaseURL, "/"),
		apiKey:     strings.TrimSpace(c.APIKey),
		limiter:    rate.NewLimiter(limit, burst),
	}
}

var _ model.FinancialDataProvider = (*Client)(nil)

type profileDTO struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	MktCap      float64 `json:"mktCap"`
	Industry    string  `json:"industry"`
	Sector      string  `json:"sector"`
	Website     string  `json:"website"`
	Beta        float64 `json:"beta"`
	Price       float64 `json:"price"`
}

type incomeStatementDTO struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	GrossProfit float64 `json:"grossProfit"`
	NetIncome   float64 `json:"netIncome"`
	EBITDA      float64 `json:"ebitda"`
	EPS         float64 `json:"eps"`
	EPSDiluted  float64 `json:"epsdiluted"`
}

type quoteDTO struct {
	Symbol               string  `json:"symbol"`
	Price                float64 `json:"price"`
	Volume               float64 `json:"volume"`
	PriceAvg50           float64 `json:"priceAvg50"`
	PriceAvg200          float64 `json:"priceAvg200"`
	EPS                  float64 `json:"eps"`
	PE                   float64 `json:"pe"`
	EarningsAnnouncement string  `json:"earningsAnnouncement"`
}

func (c *Client) CompanyFinancials(ctx context.Context, symbol, apiKey string) (*model.CompanyFinancials, error) {
	var rows []profileDTO
	if err := c.getJSON(ctx, "/profile/"+url.PathEscape(symbol), nil, apiKey, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: company profile for %s", model.ErrNotFound, symbol)
	}
	p := rows[0]
	return &model.CompanyFinancials{
		Symbol:      p.Symbol,
		CompanyName: p.CompanyName,
		MarketCap:   p.MktCap,
		Industry:    p.Industry,
		Sector:      p.Sector,
		Website:     p.Website,
		Beta:        p.Beta,
		Price:       p.Price,
	}, nil
}

func (c *Client) IncomeStatement(ctx context.Context, symbol, apiKey string) (*model.IncomeStatement, error) {
	var rows []incomeStatementDTO
	q := url.Values{"period": {"annual"}}
	if err := c.getJSON(ctx, "/income-statement/"+url.PathEscape(symbol), q, apiKey, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: income statement for %s", model.ErrNotFound, symbol)
	}
	s := rows[0]
	return &model.IncomeStatement{
		Date:        s.Date,
		Revenue:     s.Revenue,
		GrossProfit: s.GrossProfit,
		NetIncome:   s.NetIncome,
		EBITDA:      s.EBITDA,
		EPS:         s.EPS,
		EPSDiluted:  s.EPSDiluted,
	}, nil
}

func (c *Client) StockPrice(ctx context.Context, symbol, apiKey string) (*model.StockPrice, error) {
	var rows []quoteDTO
	if err := c.getJSON(ctx, "/quote-order/"+url.PathEscape(symbol), nil, apiKey, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: quote for %s", model.ErrNotFound, symbol)
	}
	q := rows[0]
	return &model.StockPrice{
		Symbol:               q.Symbol,
		Price:                q.Price,
		Volume:               q.Volume,
		PriceAvg50:           q.PriceAvg50,
		PriceAvg200:          q.PriceAvg200,
		EPS:                  q.EPS,
		PE:                   q.PE,
		EarningsAnnouncement: parseAnnouncement(q.EarningsAnnouncement),
	}, nil
}

var announcementLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02",
}

func parseAnnouncement(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range announcementLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	logx.Debug().Str("value", v).Msg("unparseable earnings announcement")
	return time.Time{}
}

// getJSON issues a rate limited GET and decodes a JSON array into dst. FMP reports bad keys
// and plan limits as a JSON object with an "Error Message" field, sometimes with status 200.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, apiKey string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("fmp rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = c.apiKey
	}
	query.Set("apikey", key)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build fmp request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errx.WrapUpstream(fmt.Errorf("GET %s: %w", path, err), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errx.WrapUpstream(fmt.Errorf("read %s: %w", path, err), 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errx.WrapUpstream(fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, snippet(body)), resp.StatusCode)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr struct {
			Message string `json:"Error Message"`
		}
		if json.Unmarshal(trimmed, &apiErr) == nil && apiErr.Message != "" {
			return errx.WrapUpstream(fmt.Errorf("GET %s: %s", path, apiErr.Message), http.StatusUnauthorized)
		}
		// A bare object with no error is treated as an empty result.
		return nil
	}

	if err := json.Unmarshal(trimmed, dst); err != nil {
		return errx.WrapUpstream(fmt.Errorf("decode %s: %w", path, err), http.StatusBadGateway)
	}
	return nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
