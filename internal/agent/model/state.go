package model

import "time"

// InvocationState is the per-request state flowing through the workflow graph.
// Every node receives the same pointer and returns it; the report fan-out writes its
// datasets only after the join, so no field is written concurrently.
type InvocationState struct {
	InvocationID string
	UserID       string
	ThreadID     string
	// APIKey is the data provider credential for this invocation.
	APIKey string `json:"-"`

	Request      string
	Category     Category
	Symbol       string
	SymbolSource SymbolSource

	// Rendered data blocks; empty means absent.
	IncomeStatement   string
	CompanyFinancials string
	StockPrice        string

	ReportMD     string
	ChatResponse string
	Error        string
	FinalAnswer  string

	Path []string
}

// QueryInput is the public input of one workflow invocation.
type QueryInput struct {
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id"`
	Query    string `json:"query"`
	APIKey   string `json:"-"`
}

// Result is what a finished invocation returns to its caller.
type Result struct {
	InvocationID string       `json:"invocation_id"`
	FinalAnswer  string       `json:"final_answer"`
	Category     Category     `json:"category"`
	Symbol       string       `json:"symbol"`
	SymbolSource SymbolSource `json:"symbol_source"`
	Path         []string     `json:"path"`
}

// RunTrace is graph-local bookkeeping, touched only inside eino state handlers.
// Entered holds the start time of each running node.
type RunTrace struct {
	Entered map[string]time.Time
}

func NewRunTrace() *RunTrace {
	return &RunTrace{Entered: make(map[string]time.Time)}
}
