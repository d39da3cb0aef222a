package model

import "context"

type RouteRequest struct {
	Request             string
	ConversationSummary string
}

// Router classifies a request into a Category.
type Router interface {
	Route(ctx context.Context, req RouteRequest) (Category, error)
}

// SymbolExtractor returns the ticker named by a request, or UnknownSymbol.
type SymbolExtractor interface {
	ExtractSymbol(ctx context.Context, request string) (string, error)
}

type ChatRequest struct {
	Request             string
	ConversationSummary string
}

// ChatResponder answers conversational requests.
type ChatResponder interface {
	Respond(ctx context.Context, req ChatRequest) (string, error)
}

type SummaryRequest struct {
	ExistingSummary string
	Conversation    string
}

// Summarizer folds a conversation record into the running summary.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// Capabilities bundles the inference capabilities the workflow depends on.
type Capabilities struct {
	Router     Router
	Extractor  SymbolExtractor
	Chat       ChatResponder
	Summarizer Summarizer
}
