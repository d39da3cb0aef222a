package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/agdev/finagent/internal/agent/model"
	"github.com/agdev/finagent/internal/agent/render"
	"github.com/agdev/finagent/internal/metrics"
	logx "github.com/agdev/finagent/pkg/logger"
)

const (
	NoAnswerText          = "Can not provide an answer"
	NoChatResponseText    = "No response available"
	NoPreviousSummaryText = "No previous summary available."
)

// readSummary returns the user's summary, or "" when none exists yet.
func readSummary(ctx context.Context, memory model.MemoryStore, userID string) (string, error) {
	summary, ok, err := memory.GetSummary(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("read conversation summary: %w", err)
	}
	if !ok {
		return "", nil
	}
	return summary, nil
}

// ================ Router ================

type RouterStep struct {
	router model.Router
	memory model.MemoryStore
}

func NewRouterStep(router model.Router, memory model.MemoryStore) *RouterStep {
	return &RouterStep{router: router, memory: memory}
}

func (s *RouterStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	summary, err := readSummary(ctx, s.memory, st.UserID)
	if err != nil {
		return nil, err
	}

	category, err := s.router.Route(ctx, model.RouteRequest{
		Request:             st.Request,
		ConversationSummary: summary,
	})
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	st.Category = category

	logx.Debug().Str("user_id", st.UserID).Str("category", category.String()).Msg("request routed")
	return st, nil
}

// NewRouteCondition picks the path after the router. Anything that is neither report nor chat
// takes the standalone path.
func NewRouteCondition() func(context.Context, *model.InvocationState) (string, error) {
	return func(ctx context.Context, st *model.InvocationState) (string, error) {
		switch st.Category {
		case model.CategoryReport:
			return NodeSymbolExtractionReport, nil
		case model.CategoryChat:
			return NodeChat, nil
		default:
			return NodeSymbolExtractionAlone, nil
		}
	}
}

// ================ Symbol extraction ================

// SymbolResolution is the outcome of resolving the symbol of a request. ExtractErr holds a
// recovered extractor failure.
type SymbolResolution struct {
	Symbol     string
	Source     model.SymbolSource
	ExtractErr error
}

type SymbolExtractionStep struct {
	extractor model.SymbolExtractor
	memory    model.MemoryStore
}

func NewSymbolExtractionStep(extractor model.SymbolExtractor, memory model.MemoryStore) *SymbolExtractionStep {
	return &SymbolExtractionStep{extractor: extractor, memory: memory}
}

// Resolve runs the extractor and falls back to the user's last symbol. Extractor failures
// resolve to UNKNOWN; only memory store failures are returned.
func (s *SymbolExtractionStep) Resolve(ctx context.Context, userID, request string) (SymbolResolution, error) {
	res := SymbolResolution{Symbol: model.UnknownSymbol, Source: model.SymbolUnresolved}

	symbol, err := s.extractor.ExtractSymbol(ctx, request)
	if err != nil {
		res.ExtractErr = err
		metrics.ExtractionFailures.Inc()
		logx.Warn().Err(err).Str("user_id", userID).Msg("symbol extraction failed; falling back to last symbol")
	} else if !model.IsUnknownSymbol(symbol) {
		res.Symbol = model.NormalizeSymbol(symbol)
		res.Source = model.SymbolExtracted
		return res, nil
	}

	last, ok, err := s.memory.GetLastSymbol(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("read last symbol: %w", err)
	}
	if ok && !model.IsUnknownSymbol(last) {
		res.Symbol = model.NormalizeSymbol(last)
		res.Source = model.SymbolRemembered
		logx.Debug().Str("user_id", userID).Str("symbol", res.Symbol).Msg("using remembered symbol")
	}
	return res, nil
}

func (s *SymbolExtractionStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	res, err := s.Resolve(ctx, st.UserID, st.Request)
	if err != nil {
		return nil, err
	}
	st.Symbol = res.Symbol
	st.SymbolSource = res.Source
	metrics.SymbolResolutions.WithLabelValues(string(res.Source)).Inc()
	return st, nil
}

// NewReportSymbolCondition continues the report path only with a known symbol.
func NewReportSymbolCondition() func(context.Context, *model.InvocationState) (string, error) {
	return func(ctx context.Context, st *model.InvocationState) (string, error) {
		if model.IsUnknownSymbol(st.Symbol) {
			return NodeError, nil
		}
		return NodePass, nil
	}
}

// NewAloneCondition routes a standalone request to its single fetcher. An unrecognized
// category with a known symbol goes straight to the final answer.
func NewAloneCondition() func(context.Context, *model.InvocationState) (string, error) {
	return func(ctx context.Context, st *model.InvocationState) (string, error) {
		if model.IsUnknownSymbol(st.Symbol) {
			return NodeError, nil
		}
		switch st.Category {
		case model.CategoryIncomeStatement:
			return NodeFetchIncomeStatement, nil
		case model.CategoryCompanyFinancials:
			return NodeFetchCompanyFinancials, nil
		case model.CategoryStockPrice:
			return NodeFetchStockPrice, nil
		default:
			logx.Warn().Str("category", st.Category.String()).Msg("no fetcher for category")
			return NodeFinalAnswer, nil
		}
	}
}

// ================ Error ================

type ErrorStep struct{}

func (ErrorStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	st.Error = fmt.Sprintf("Unknown Symbol: %s\nCan not produce report for this symbol.", st.Symbol)
	return st, nil
}

// ================ Chat ================

type ChatStep struct {
	chat   model.ChatResponder
	memory model.MemoryStore
}

func NewChatStep(chat model.ChatResponder, memory model.MemoryStore) *ChatStep {
	return &ChatStep{chat: chat, memory: memory}
}

func (s *ChatStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	summary, err := readSummary(ctx, s.memory, st.UserID)
	if err != nil {
		return nil, err
	}
	resp, err := s.chat.Respond(ctx, model.ChatRequest{
		Request:             st.Request,
		ConversationSummary: summary,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	st.ChatResponse = resp
	return st, nil
}

// ================ Final answer ================

type FinalAnswerStep struct{}

func (FinalAnswerStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	st.FinalAnswer = FinalAnswer(st)
	return st, nil
}

// FinalAnswer formats the answer for the state's category. It never returns "".
func FinalAnswer(st *model.InvocationState) string {
	switch st.Category {
	case model.CategoryIncomeStatement:
		return datasetAnswer(st, st.IncomeStatement)
	case model.CategoryCompanyFinancials:
		return datasetAnswer(st, st.CompanyFinancials)
	case model.CategoryStockPrice:
		return datasetAnswer(st, st.StockPrice)
	case model.CategoryReport:
		if st.ReportMD != "" {
			return render.Header(st.Category, st.Symbol) + st.ReportMD
		}
		if st.Error != "" {
			return st.Error
		}
		return NoAnswerText
	case model.CategoryChat:
		if strings.TrimSpace(st.ChatResponse) == "" {
			return NoChatResponseText
		}
		return st.ChatResponse
	default:
		return NoAnswerText
	}
}

func datasetAnswer(st *model.InvocationState, block string) string {
	if st.Error != "" {
		return st.Error
	}
	return render.Header(st.Category, st.Symbol) + block
}

// ================ Summarize ================

type SummarizeStep struct {
	summarizer model.Summarizer
	memory     model.MemoryStore
}

func NewSummarizeStep(summarizer model.Summarizer, memory model.MemoryStore) *SummarizeStep {
	return &SummarizeStep{summarizer: summarizer, memory: memory}
}

// Run folds this invocation into the user's summary and remembers a known symbol of a data
// request. The state is returned unchanged.
func (s *SummarizeStep) Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error) {
	existing, err := readSummary(ctx, s.memory, st.UserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(existing) == "" {
		existing = NoPreviousSummaryText
	}

	summary, err := s.summarizer.Summarize(ctx, model.SummaryRequest{
		ExistingSummary: existing,
		Conversation:    ConversationRecord(st),
	})
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	if err := s.memory.SetSummary(ctx, st.UserID, summary); err != nil {
		return nil, fmt.Errorf("write conversation summary: %w", err)
	}

	if rememberSymbol(st) {
		if err := s.memory.SetLastSymbol(ctx, st.UserID, st.Symbol); err != nil {
			return nil, fmt.Errorf("write last symbol: %w", err)
		}
	}
	return st, nil
}

func rememberSymbol(st *model.InvocationState) bool {
	return st.Category != model.CategoryChat && !model.IsUnknownSymbol(st.Symbol)
}

// ConversationRecord is the text handed to the summarizer for one invocation.
func ConversationRecord(st *model.InvocationState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User: %s\n", st.Request)
	fmt.Fprintf(&b, "Request type: %s\n", st.Category.Label())
	if rememberSymbol(st) {
		fmt.Fprintf(&b, "Symbol: %s\n", st.Symbol)
	}
	fmt.Fprintf(&b, "Assistant: %s", st.FinalAnswer)
	return b.String()
}
