package nodes

import (
	"context"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/agdev/finagent/internal/agent/model"
	"github.com/agdev/finagent/internal/metrics"
)

// Node names of the finance graph.
const (
	NodeRouter                 = "Router"
	NodeSymbolExtractionReport = "SymbolExtractionReport"
	NodeSymbolExtractionAlone  = "SymbolExtractionAlone"
	NodePass                   = "Pass"
	NodeFetchIncomeStatement   = "FetchIncomeStatement"
	NodeFetchCompanyFinancials = "FetchCompanyFinancials"
	NodeFetchStockPrice        = "FetchStockPrice"
	NodeGenerateReport         = "GenerateReport"
	NodeError                  = "Error"
	NodeChat                   = "Chat"
	NodeFinalAnswer            = "FinalAnswer"
	NodeSummarize              = "Summarize"
)

// Step is one state of the workflow. Every step receives the invocation state and returns it.
type Step interface {
	Run(ctx context.Context, st *model.InvocationState) (*model.InvocationState, error)
}

// Lambda adapts a Step into an eino lambda node.
func Lambda(s Step) *compose.Lambda {
	return compose.InvokableLambda(s.Run)
}

// NewTracePreHandler stamps the node's entry time in the run trace.
func NewTracePreHandler(node string) func(context.Context, *model.InvocationState, *model.RunTrace) (*model.InvocationState, error) {
	return func(ctx context.Context, in *model.InvocationState, tr *model.RunTrace) (*model.InvocationState, error) {
		tr.Entered[node] = time.Now()
		return in, nil
	}
}

// NewTracePostHandler records the node's duration and appends it to the visited path.
func NewTracePostHandler(node string) func(context.Context, *model.InvocationState, *model.RunTrace) (*model.InvocationState, error) {
	return func(ctx context.Context, out *model.InvocationState, tr *model.RunTrace) (*model.InvocationState, error) {
		if t, ok := tr.Entered[node]; ok {
			metrics.NodeDuration.WithLabelValues(node).Observe(time.Since(t).Seconds())
			delete(tr.Entered, node)
		}
		if out != nil {
			out.Path = append(out.Path, node)
		}
		return out, nil
	}
}
