package nodes

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agdev/finagent/internal/agent/model"
	"github.com/agdev/finagent/internal/agent/render"
	"github.com/agdev/finagent/internal/metrics"
	logx "github.com/agdev/finagent/pkg/logger"
)

// FetchStep fetches and renders one dataset.
type FetchStep struct {
	dataset  model.Category
	provider model.FinancialDataProvider
}

func NewFetchStep(dataset model.Category, provider model.FinancialDataProvider) *FetchStep {
	if !dataset.IsDataset() {
		panic(fmt.Sprintf("nodes: %s is not a dataset category", dataset))
	}
	return &FetchStep{dataset: dataset, provider: provider}
}

func (s *FetchStep) Dataset() model.Category {
	return s.dataset
}

// Fetch returns the rendered block, or "" when the provider has no record.
func (s *FetchStep) Fetch(ctx context.Context, symbol, apiKey string) (string, error) {
	var (
		block string
		err   error
	)
	switch s.dataset {
	case model.CategoryIncomeStatement:
		var rec *model.IncomeStatement
		if rec, err = s.provider.IncomeStatement(ctx, symbol, apiKey); err == nil {
			block = render.IncomeStatement(rec)
		}
	case model.CategoryCompanyFinancials:
		var rec *model.CompanyFinancials
		if rec, err = s.provider.CompanyFinancials(ctx, symbol, apiKey); err == nil {
			block = render.CompanyFinancials(rec)
		}
	case model.CategoryStockPrice:
		var rec *model.StockPrice
		if rec, err = s.provider.StockPrice(ctx, symbol, apiKey); err == nil {
			block = render.StockPrice(rec)
		}
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		metrics.Fetches.WithLabelValues(s.dataset.String(), "not_found").Inc()
		logx.Info().Str("dataset", s.dataset.String()).Str("symbol", symbol).Msg("no record for symbol")
		return "", nil
	case err != nil:
		metrics.Fetches.WithLabelValues(s.dataset.String(), "error").Inc()
		return "", fmt.Errorf("fetch %s for %s: %w", s.dataset, symbol, err)
	}
	metrics.Fetches.WithLabelValues(s.dataset.String(), "ok").Inc()
	return block, nil
}

func (s *FetchStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	block, err := s.Fetch(ctx, st.Symbol, st.APIKey)
	if err != nil {
		return nil, err
	}
	setDataset(st, s.dataset, block)
	return st, nil
}

func setDataset(st *model.InvocationState, dataset model.Category, block string) {
	switch dataset {
	case model.CategoryIncomeStatement:
		st.IncomeStatement = block
	case model.CategoryCompanyFinancials:
		st.CompanyFinancials = block
	case model.CategoryStockPrice:
		st.StockPrice = block
	}
}

// PassStep fans out to every fetcher concurrently and joins on all of them before
// writing the results into the state. The first fetch failure cancels the others.
type PassStep struct {
	fetchers []*FetchStep
}

func NewPassStep(fetchers ...*FetchStep) *PassStep {
	return &PassStep{fetchers: fetchers}
}

func (s *PassStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	results, err := s.FanOut(ctx, st.Symbol, st.APIKey)
	if err != nil {
		return nil, err
	}
	for dataset, block := range results {
		setDataset(st, dataset, block)
	}
	return st, nil
}

// FanOut returns one entry per fetcher keyed by dataset; a not-found dataset maps to "".
func (s *PassStep) FanOut(ctx context.Context, symbol, apiKey string) (map[model.Category]string, error) {
	blocks := make([]string, len(s.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range s.fetchers {
		g.Go(func() error {
			block, err := f.Fetch(gctx, symbol, apiKey)
			if err != nil {
				return err
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("report fan-out: %w", err)
	}

	results := make(map[model.Category]string, len(s.fetchers))
	for i, f := range s.fetchers {
		results[f.Dataset()] = blocks[i]
	}
	return results, nil
}

// GenerateReportStep merges the three datasets into the report body.
type GenerateReportStep struct{}

func (GenerateReportStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	st.ReportMD = render.Report(st.CompanyFinancials, st.IncomeStatement, st.StockPrice)
	return st, nil
}
