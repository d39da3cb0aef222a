package graph

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/agdev/finagent/internal/agent/graph/capabilities"
	"github.com/agdev/finagent/internal/agent/graph/conversations"
	"github.com/agdev/finagent/internal/agent/graph/nodes"
	"github.com/agdev/finagent/internal/agent/graph/observers"
	"github.com/agdev/finagent/internal/agent/model"
	errx "github.com/agdev/finagent/internal/core/error"
	"github.com/agdev/finagent/internal/metrics"
	logx "github.com/agdev/finagent/pkg/logger"
)

const defaultMaxRunSteps = 20

// Runner executes the compiled finance graph for one user request.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (model.Result, error)
}

// Config holds everything needed to compose the finance graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat models.
type Config struct {
	ChatModels   nodes.ChatModelConfig
	Memory       model.MemoryStore
	DataProvider model.FinancialDataProvider
	ThreadRepo   model.ThreadRepository
	Thread       model.ThreadConfig
}

// GraphConfig holds all dependencies needed to build the graph
type GraphConfig struct {
	Capabilities  model.Capabilities
	Memory        model.MemoryStore
	DataProvider  model.FinancialDataProvider
	ThreadManager *conversations.ThreadManager
	MaxRunSteps   int
}

// GraphBuilder handles the construction of the finance workflow graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[*model.InvocationState, *model.InvocationState]
	err    error
}

type graphRunner struct {
	runnable compose.Runnable[*model.InvocationState, *model.InvocationState]
	threads  *conversations.ThreadManager
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (model.Result, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return model.Result{}, errx.New(errx.ErrValidation, http.StatusBadRequest, "user_id is required")
	}

	st := &model.InvocationState{
		InvocationID: uuid.NewString(),
		UserID:       in.UserID,
		ThreadID:     in.ThreadID,
		APIKey:       in.APIKey,
		Request:      in.Query,
	}
	log := logx.Invocation(st.InvocationID, st.UserID, st.ThreadID)
	ctx = log.WithContext(ctx)

	out, err := r.runnable.Invoke(ctx, st, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		metrics.Invocations.WithLabelValues(st.Category.String(), "error").Inc()
		log.Error().Err(err).Str("category", st.Category.String()).Msg("invocation failed")
		return model.Result{InvocationID: st.InvocationID}, err
	}
	metrics.Invocations.WithLabelValues(out.Category.String(), "ok").Inc()

	if r.threads != nil {
		if err := r.threads.Checkpoint(ctx, out); err != nil {
			// best effort
			log.Warn().Err(err).Msg("thread checkpoint failed")
		}
	}

	log.Info().
		Str("category", out.Category.String()).
		Str("symbol", out.Symbol).
		Strs("path", out.Path).
		Msg("invocation finished")

	return model.Result{
		InvocationID: out.InvocationID,
		FinalAnswer:  out.FinalAnswer,
		Category:     out.Category,
		Symbol:       out.Symbol,
		SymbolSource: out.SymbolSource,
		Path:         out.Path,
	}, nil
}

// BuildFinanceGraph creates the chat models and capabilities, builds the graph, and returns a Runner.
func BuildFinanceGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Memory == nil {
		return nil, fmt.Errorf("memory store is nil")
	}
	if cfg.DataProvider == nil {
		return nil, fmt.Errorf("data provider is nil")
	}

	cms, err := nodes.NewChatModels(ctx, cfg.ChatModels)
	if err != nil {
		return nil, err
	}
	caps, err := capabilities.New(ctx, cms)
	if err != nil {
		return nil, err
	}

	var tm *conversations.ThreadManager
	if cfg.ThreadRepo != nil {
		tm = conversations.NewThreadManager(cfg.ThreadRepo, cfg.Thread)
	}

	runner, err := BuildRunner(ctx, &GraphConfig{
		Capabilities:  caps,
		Memory:        cfg.Memory,
		DataProvider:  cfg.DataProvider,
		ThreadManager: tm,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Finance graph built successfully")
	return runner, nil
}

// BuildRunner compiles the graph for config and wraps it in a Runner.
func BuildRunner(ctx context.Context, config *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	return &graphRunner{runnable: runnable, threads: config.ThreadManager}, nil
}

// BuildGraph constructs and returns the compiled finance graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*model.InvocationState, *model.InvocationState], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	c := config.Capabilities
	if c.Router == nil || c.Extractor == nil || c.Chat == nil || c.Summarizer == nil {
		return nil, fmt.Errorf("capabilities are not properly initialized")
	}
	if config.Memory == nil {
		return nil, fmt.Errorf("memory store is nil")
	}
	if config.DataProvider == nil {
		return nil, fmt.Errorf("data provider is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[*model.InvocationState, *model.InvocationState](
			compose.WithGenLocalState(func(ctx context.Context) *model.RunTrace {
				return model.NewRunTrace()
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()
	builder.addBranches()
	if builder.err != nil {
		return nil, builder.err
	}

	return builder.compile(ctx)
}

func (b *GraphBuilder) addNode(name string, step nodes.Step) {
	if b.err != nil {
		return
	}
	err := b.graph.AddLambdaNode(name, nodes.Lambda(step),
		compose.WithNodeName(name),
		compose.WithStatePreHandler(nodes.NewTracePreHandler(name)),
		compose.WithStatePostHandler(nodes.NewTracePostHandler(name)),
	)
	if err != nil {
		logx.Error().Err(err).Str("node", name).Msg("Error adding node")
		b.err = fmt.Errorf("error adding node %s: %w", name, err)
	}
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	caps := b.config.Capabilities
	memory := b.config.Memory
	provider := b.config.DataProvider

	income := nodes.NewFetchStep(model.CategoryIncomeStatement, provider)
	financials := nodes.NewFetchStep(model.CategoryCompanyFinancials, provider)
	price := nodes.NewFetchStep(model.CategoryStockPrice, provider)

	b.addNode(nodes.NodeRouter, nodes.NewRouterStep(caps.Router, memory))
	b.addNode(nodes.NodeSymbolExtractionReport, nodes.NewSymbolExtractionStep(caps.Extractor, memory))
	b.addNode(nodes.NodeSymbolExtractionAlone, nodes.NewSymbolExtractionStep(caps.Extractor, memory))
	b.addNode(nodes.NodePass, nodes.NewPassStep(financials, income, price))
	b.addNode(nodes.NodeFetchIncomeStatement, income)
	b.addNode(nodes.NodeFetchCompanyFinancials, financials)
	b.addNode(nodes.NodeFetchStockPrice, price)
	b.addNode(nodes.NodeGenerateReport, nodes.GenerateReportStep{})
	b.addNode(nodes.NodeError, nodes.ErrorStep{})
	b.addNode(nodes.NodeChat, nodes.NewChatStep(caps.Chat, memory))
	b.addNode(nodes.NodeFinalAnswer, nodes.FinalAnswerStep{})
	b.addNode(nodes.NodeSummarize, nodes.NewSummarizeStep(caps.Summarizer, memory))
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeRouter},
		{nodes.NodePass, nodes.NodeGenerateReport},
		{nodes.NodeGenerateReport, nodes.NodeFinalAnswer},
		{nodes.NodeFetchIncomeStatement, nodes.NodeFinalAnswer},
		{nodes.NodeFetchCompanyFinancials, nodes.NodeFinalAnswer},
		{nodes.NodeFetchStockPrice, nodes.NodeFinalAnswer},
		{nodes.NodeError, nodes.NodeFinalAnswer},
		{nodes.NodeChat, nodes.NodeFinalAnswer},
		{nodes.NodeFinalAnswer, nodes.NodeSummarize},
		{nodes.NodeSummarize, compose.END},
	}

	for _, edge := range edges {
		if b.err != nil {
			return
		}
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			b.err = fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() {
	branches := []struct {
		from   string
		branch *compose.GraphBranch
	}{
		{nodes.NodeRouter, compose.NewGraphBranch(
			nodes.NewRouteCondition(),
			map[string]bool{
				nodes.NodeSymbolExtractionReport: true,
				nodes.NodeSymbolExtractionAlone:  true,
				nodes.NodeChat:                   true,
			},
		)},
		{nodes.NodeSymbolExtractionReport, compose.NewGraphBranch(
			nodes.NewReportSymbolCondition(),
			map[string]bool{
				nodes.NodePass:  true,
				nodes.NodeError: true,
			},
		)},
		{nodes.NodeSymbolExtractionAlone, compose.NewGraphBranch(
			nodes.NewAloneCondition(),
			map[string]bool{
				nodes.NodeError:                  true,
				nodes.NodeFetchIncomeStatement:   true,
				nodes.NodeFetchCompanyFinancials: true,
				nodes.NodeFetchStockPrice:        true,
				nodes.NodeFinalAnswer:            true,
			},
		)},
	}

	for _, br := range branches {
		if b.err != nil {
			return
		}
		if err := b.graph.AddBranch(br.from, br.branch); err != nil {
			logx.Error().Err(err).Str("node", br.from).Msg("Error adding branch")
			b.err = fmt.Errorf("error adding %s branch: %w", br.from, err)
		}
	}
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.InvocationState, *model.InvocationState], error) {
	maxSteps := b.config.MaxRunSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxRunSteps
	}

	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("finance_graph"),
		compose.WithMaxRunSteps(maxSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
