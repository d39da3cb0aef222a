package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agdev/finagent/internal/agent/graph/conversations"
	"github.com/agdev/finagent/internal/agent/graph/nodes"
	"github.com/agdev/finagent/internal/agent/model"
	"github.com/agdev/finagent/internal/agent/render"
	"github.com/agdev/finagent/internal/agent/repo"
	errx "github.com/agdev/finagent/internal/core/error"
)

// scriptedRouter routes by keyword so tests read like conversations.
type scriptedRouter struct{ err error }

func (r scriptedRouter) Route(ctx context.Context, req model.RouteRequest) (model.Category, error) {
	if r.err != nil {
		return model.CategoryUnknown, r.err
	}
	q := strings.ToLower(req.Request)
	switch {
	case strings.Contains(q, "report"):
		return model.CategoryReport, nil
	case strings.Contains(q, "price"):
		return model.CategoryStockPrice, nil
	case strings.Contains(q, "income"):
		return model.CategoryIncomeStatement, nil
	case strings.Contains(q, "profile"):
		return model.CategoryCompanyFinancials, nil
	case strings.Contains(q, "horoscope"):
		return model.CategoryUnknown, nil
	default:
		return model.CategoryChat, nil
	}
}

// tickerExtractor returns the first all-caps word of 2-5 letters.
type tickerExtractor struct{ err error }

func (e tickerExtractor) ExtractSymbol(ctx context.Context, request string) (string, error) {
	if e.err != nil {
		return model.UnknownSymbol, e.err
	}
	for _, w := range strings.Fields(request) {
		w = strings.Trim(w, "?.,!")
		if len(w) >= 2 && len(w) <= 5 && w == strings.ToUpper(w) && strings.ToLower(w) != w {
			return w, nil
		}
	}
	return model.UnknownSymbol, nil
}

type echoChat struct{ reply string }

func (c echoChat) Respond(ctx context.Context, req model.ChatRequest) (string, error) {
	return c.reply, nil
}

// countingSummarizer numbers each summary so every call yields a new value.
type countingSummarizer struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSummarizer) Summarize(ctx context.Context, req model.SummaryRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return fmt.Sprintf("#%d %s", s.calls, strings.SplitN(req.Conversation, "\n", 2)[0]), nil
}

type stubProvider struct {
	known map[string]bool
	err   error
}

func (p stubProvider) lookup(symbol string) error {
	if p.err != nil {
		return p.err
	}
	if !p.known[symbol] {
		return fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}
	return nil
}

func (p stubProvider) IncomeStatement(ctx context.Context, symbol, apiKey string) (*model.IncomeStatement, error) {
	if err := p.lookup(symbol); err != nil {
		return nil, err
	}
	return &model.IncomeStatement{Date: "2024-09-28", Revenue: 391035000000}, nil
}

func (p stubProvider) CompanyFinancials(ctx context.Context, symbol, apiKey string) (*model.CompanyFinancials, error) {
	if err := p.lookup(symbol); err != nil {
		return nil, err
	}
	return &model.CompanyFinancials{Symbol: symbol, CompanyName: symbol + " Inc."}, nil
}

func (p stubProvider) StockPrice(ctx context.Context, symbol, apiKey string) (*model.StockPrice, error) {
	if err := p.lookup(symbol); err != nil {
		return nil, err
	}
	return &model.StockPrice{Symbol: symbol, Price: 227.52}, nil
}

type harness struct {
	runner  Runner
	memory  model.MemoryStore
	threads *conversations.ThreadManager
	summary *countingSummarizer
}

type harnessOpt func(*GraphConfig)

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	h := &harness{
		memory:  repo.NewInMemoryStore(),
		threads: conversations.NewThreadManager(repo.NewInMemoryThreadRepository(), model.ThreadConfig{MaxTurns: 10}),
		summary: &countingSummarizer{},
	}
	cfg := &GraphConfig{
		Capabilities: model.Capabilities{
			Router:     scriptedRouter{},
			Extractor:  tickerExtractor{},
			Chat:       echoChat{reply: "Apple is a technology company."},
			Summarizer: h.summary,
		},
		Memory:        h.memory,
		DataProvider:  stubProvider{known: map[string]bool{"AAPL": true, "MSFT": true}},
		ThreadManager: h.threads,
	}
	for _, o := range opts {
		o(cfg)
	}
	runner, err := BuildRunner(context.Background(), cfg)
	require.NoError(t, err)
	h.runner = runner
	return h
}

func (h *harness) ask(t *testing.T, user, query string) model.Result {
	t.Helper()
	res, err := h.runner.Invoke(context.Background(), model.QueryInput{UserID: user, ThreadID: "t-" + user, Query: query})
	require.NoError(t, err)
	require.NotEmpty(t, res.FinalAnswer)
	return res
}

func TestChatAnswerIsVerbatim(t *testing.T) {
	h := newHarness(t)
	res := h.ask(t, "u1", "Tell me about Apple")

	assert.Equal(t, "Apple is a technology company.", res.FinalAnswer)
	assert.Equal(t, model.CategoryChat, res.Category)
	assert.Equal(t, []string{nodes.NodeRouter, nodes.NodeChat, nodes.NodeFinalAnswer, nodes.NodeSummarize}, res.Path)
	assert.NotEmpty(t, res.InvocationID)
}

func TestStockPriceAnswer(t *testing.T) {
	h := newHarness(t)
	res := h.ask(t, "u1", "What is the price of AAPL?")

	assert.True(t, strings.HasPrefix(res.FinalAnswer, "# Stock Price for (AAPL) \n## Stock Price Information"), res.FinalAnswer)
	assert.Equal(t, model.SymbolExtracted, res.SymbolSource)
	assert.Equal(t, []string{nodes.NodeRouter, nodes.NodeSymbolExtractionAlone, nodes.NodeFetchStockPrice, nodes.NodeFinalAnswer, nodes.NodeSummarize}, res.Path)

	last, ok, err := h.memory.GetLastSymbol(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "AAPL", last)
}

func TestUnknownSymbolWithoutMemory(t *testing.T) {
	h := newHarness(t)
	res := h.ask(t, "u1", "show me the income statement")

	assert.Equal(t, "Unknown Symbol: UNKNOWN\nCan not produce report for this symbol.", res.FinalAnswer)
	assert.Contains(t, res.Path, nodes.NodeError)

	_, ok, err := h.memory.GetLastSymbol(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRememberedSymbol(t *testing.T) {
	h := newHarness(t)
	h.ask(t, "u1", "income statement for AAPL")

	res := h.ask(t, "u1", "and the price?")
	assert.True(t, strings.HasPrefix(res.FinalAnswer, "# Stock Price for (AAPL) \n"), res.FinalAnswer)
	assert.Equal(t, model.SymbolRemembered, res.SymbolSource)
}

func TestExtractorFailureFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(c *GraphConfig) { c.Capabilities.Extractor = tickerExtractor{err: errors.New("model timeout")} })
	require.NoError(t, h.memory.SetLastSymbol(ctx, "u1", "MSFT"))

	res := h.ask(t, "u1", "price please")
	assert.True(t, strings.HasPrefix(res.FinalAnswer, "# Stock Price for (MSFT) \n"), res.FinalAnswer)
}

func TestSummaryUpdatedAfterEveryInvocation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var previous string
	for _, q := range []string{"hello", "price of AAPL", "horoscope for MSFT", "price of ZZZZ"} {
		h.ask(t, "u1", q)
		summary, ok, err := h.memory.GetSummary(ctx, "u1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEqual(t, previous, summary, q)
		previous = summary
	}
	assert.Equal(t, 4, h.summary.calls)
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var wg sync.WaitGroup
	for _, c := range []struct{ user, query string }{{"u1", "price of AAPL"}, {"u2", "price of MSFT"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.runner.Invoke(ctx, model.QueryInput{UserID: c.user, Query: c.query})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s1, _, _ := h.memory.GetSummary(ctx, "u1")
	s2, _, _ := h.memory.GetSummary(ctx, "u2")
	assert.NotEqual(t, s1, s2)
	assert.Contains(t, s1, "AAPL")
	assert.Contains(t, s2, "MSFT")

	l1, _, _ := h.memory.GetLastSymbol(ctx, "u1")
	l2, _, _ := h.memory.GetLastSymbol(ctx, "u2")
	assert.Equal(t, "AAPL", l1)
	assert.Equal(t, "MSFT", l2)
}

func TestChatDoesNotTouchLastSymbol(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.ask(t, "u1", "price of AAPL")
	h.ask(t, "u1", "what do you think about MSFT")

	last, _, _ := h.memory.GetLastSymbol(ctx, "u1")
	assert.Equal(t, "AAPL", last)
}

func TestReportWithPlaceholders(t *testing.T) {
	h := newHarness(t)

	res := h.ask(t, "u1", "full report on AAPL")
	assert.True(t, strings.HasPrefix(res.FinalAnswer, "# Report for (AAPL) \n## Company Overview"), res.FinalAnswer)
	assert.Equal(t, []string{nodes.NodeRouter, nodes.NodeSymbolExtractionReport, nodes.NodePass, nodes.NodeGenerateReport, nodes.NodeFinalAnswer, nodes.NodeSummarize}, res.Path)

	res = h.ask(t, "u1", "full report on ZZZZ")
	assert.Equal(t, "# Report for (ZZZZ) \n"+render.Report("", "", ""), res.FinalAnswer)
	for _, p := range []string{render.NoCompanyFinancials, render.NoIncomeStatement, render.NoStockPrice} {
		assert.Contains(t, res.FinalAnswer, p)
	}
}

func TestReportUnknownSymbol(t *testing.T) {
	h := newHarness(t)
	res := h.ask(t, "u1", "give me a report")
	assert.True(t, strings.HasPrefix(res.FinalAnswer, "Unknown Symbol: UNKNOWN"))
	assert.Equal(t, []string{nodes.NodeRouter, nodes.NodeSymbolExtractionReport, nodes.NodeError, nodes.NodeFinalAnswer, nodes.NodeSummarize}, res.Path)
}

func TestUnknownCategoryFallback(t *testing.T) {
	h := newHarness(t)
	res := h.ask(t, "u1", "horoscope for AAPL")
	assert.Equal(t, nodes.NoAnswerText, res.FinalAnswer)
	assert.Equal(t, model.CategoryUnknown, res.Category)
}

func TestFetchErrorPropagates(t *testing.T) {
	h := newHarness(t, func(c *GraphConfig) {
		c.DataProvider = stubProvider{err: errx.WrapUpstream(errors.New("connection reset"), 0)}
	})

	_, err := h.runner.Invoke(context.Background(), model.QueryInput{UserID: "u1", Query: "report on AAPL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	_, ok, _ := h.memory.GetSummary(context.Background(), "u1")
	assert.False(t, ok)
}

func TestRouterErrorPropagates(t *testing.T) {
	h := newHarness(t, func(c *GraphConfig) {
		c.Capabilities.Router = scriptedRouter{err: errx.ErrModelInvoke}
	})
	_, err := h.runner.Invoke(context.Background(), model.QueryInput{UserID: "u1", Query: "hi"})
	assert.ErrorContains(t, err, errx.ErrModelInvoke.Error())
}

func TestMissingUserIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.runner.Invoke(context.Background(), model.QueryInput{Query: "hi"})
	assert.ErrorIs(t, err, errx.ErrValidation)
	assert.Equal(t, 400, errx.StatusOf(err))
}

func TestThreadCheckpoint(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.ask(t, "u1", "hello")
	h.ask(t, "u1", "price of AAPL")

	turns, err := h.threads.History(ctx, "t-u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.CategoryChat, turns[0].Category)
	assert.Empty(t, turns[0].Symbol)
	assert.Equal(t, "AAPL", turns[1].Symbol)
}

func TestRedisBackedRun(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := newHarness(t, func(c *GraphConfig) {
		c.Memory = repo.NewRedisMemoryStore(rdb)
		c.ThreadManager = conversations.NewThreadManager(repo.NewRedisThreadRepository(rdb, 0), model.ThreadConfig{})
	})
	h.ask(t, "u1", "price of MSFT")

	assert.Equal(t, "MSFT", s.HGet("user:u1:memories", "last_symbol"))
	assert.NotEmpty(t, s.HGet("user:u1:memories", "conversation_summary"))
	assert.True(t, s.Exists("thread:t-u1:turns"))
}

func TestBuildGraphValidatesConfig(t *testing.T) {
	_, err := BuildGraph(context.Background(), nil)
	assert.Error(t, err)
	_, err = BuildGraph(context.Background(), &GraphConfig{})
	assert.ErrorContains(t, err, "capabilities")
}
