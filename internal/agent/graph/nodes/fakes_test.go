package nodes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agdev/finagent/internal/agent/model"
)

type fakeExtractor struct {
	symbol string
	err    error
}

func (f fakeExtractor) ExtractSymbol(ctx context.Context, request string) (string, error) {
	if f.err != nil {
		return model.UnknownSymbol, f.err
	}
	return f.symbol, nil
}

type fakeSummarizer struct {
	mu    sync.Mutex
	reqs  []model.SummaryRequest
	reply string
	err   error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req model.SummaryRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeProvider serves canned records; a missing record is ErrNotFound.
type fakeProvider struct {
	income    *model.IncomeStatement
	financial *model.CompanyFinancials
	price     *model.StockPrice
	failOn    model.Category
	// barrier, when set, blocks each call until all expected calls have started.
	barrier *sync.WaitGroup

	mu   sync.Mutex
	keys []string
}

func (f *fakeProvider) enter(ctx context.Context, c model.Category, apiKey string) error {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()

	if f.barrier != nil {
		f.barrier.Done()
		done := make(chan struct{})
		go func() { f.barrier.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			return errors.New("fetchers did not run concurrently")
		}
	}
	if f.failOn == c {
		return fmt.Errorf("provider down for %s", c)
	}
	if f.failOn != model.CategoryUnknown {
		// siblings of a failing fetch wait for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return errors.New("sibling was not cancelled")
		}
	}
	return nil
}

func (f *fakeProvider) IncomeStatement(ctx context.Context, symbol, apiKey string) (*model.IncomeStatement, error) {
	if err := f.enter(ctx, model.CategoryIncomeStatement, apiKey); err != nil {
		return nil, err
	}
	if f.income == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}
	return f.income, nil
}

func (f *fakeProvider) CompanyFinancials(ctx context.Context, symbol, apiKey string) (*model.CompanyFinancials, error) {
	if err := f.enter(ctx, model.CategoryCompanyFinancials, apiKey); err != nil {
		return nil, err
	}
	if f.financial == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}
	return f.financial, nil
}

func (f *fakeProvider) StockPrice(ctx context.Context, symbol, apiKey string) (*model.StockPrice, error) {
	if err := f.enter(ctx, model.CategoryStockPrice, apiKey); err != nil {
		return nil, err
	}
	if f.price == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}
	return f.price, nil
}

// failingMemory fails every call.
type failingMemory struct{}

func (failingMemory) GetSummary(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store offline")
}
func (failingMemory) SetSummary(context.Context, string, string) error {
	return errors.New("store offline")
}
func (failingMemory) GetLastSymbol(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store offline")
}
func (failingMemory) SetLastSymbol(context.Context, string, string) error {
	return errors.New("store offline")
}
