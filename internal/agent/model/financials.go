package model

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is the fetcher not-found signal, distinct from transport failures.
var ErrNotFound = errors.New("no record available")

// IncomeStatement is the latest annual income statement of a company.
type IncomeStatement struct {
	Date        string
	Revenue     float64
	GrossProfit float64
	NetIncome   float64
	EBITDA      float64
	EPS         float64
	EPSDiluted  float64
}

// CompanyFinancials is the company profile overview.
type CompanyFinancials struct {
	Symbol      string
	CompanyName string
	MarketCap   float64
	Industry    string
	Sector      string
	Website     string
	Beta        float64
	Price       float64
}

// StockPrice is the current quote of a symbol.
type StockPrice struct {
	Symbol               string
	Price                float64
	Volume               float64
	PriceAvg50           float64
	PriceAvg200          float64
	EPS                  float64
	PE                   float64
	EarningsAnnouncement time.Time
}

// FinancialDataProvider fetches typed records for a symbol. Implementations return an error
// wrapping ErrNotFound when no record exists. An empty apiKey means the provider default.
type FinancialDataProvider interface {
	IncomeStatement(ctx context.Context, symbol, apiKey string) (*IncomeStatement, error)
	CompanyFinancials(ctx context.Context, symbol, apiKey string) (*CompanyFinancials, error)
	StockPrice(ctx context.Context, symbol, apiKey string) (*StockPrice, error)
}
