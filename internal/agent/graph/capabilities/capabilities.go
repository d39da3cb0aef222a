package capabilities

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/agdev/finagent/internal/agent/graph/prompts"
	"github.com/agdev/finagent/internal/agent/model"
	errx "github.com/agdev/finagent/internal/core/error"
)

type routeOutput struct {
	Route string `json:"route"`
}

type extractionOutput struct {
	Symbol string `json:"symbol"`
}

type chatOutput struct {
	Response string `json:"response"`
}

type summaryOutput struct {
	Summary string `json:"summary"`
}

// LLMRouter classifies requests with a chat model.
type LLMRouter struct {
	llm *structuredLLM[routeOutput]
}

func NewRouter(ctx context.Context, chatModel einomodel.BaseChatModel) (*LLMRouter, error) {
	llm, err := compileStructuredLLMGraph[routeOutput](ctx, chatModel, prompts.RouterSystem(), prompts.RouterUser, "capability.router")
	if err != nil {
		return nil, err
	}
	return &LLMRouter{llm: llm}, nil
}

// Route returns CategoryUnknown, not an error, when the model names no known category.
func (r *LLMRouter) Route(ctx context.Context, req model.RouteRequest) (model.Category, error) {
	out, err := r.llm.invoke(ctx, map[string]any{
		"request":              req.Request,
		"conversation_summary": req.ConversationSummary,
	})
	if err != nil {
		return model.CategoryUnknown, fmt.Errorf("%w: router: %w", errx.ErrModelInvoke, err)
	}
	return model.ParseCategory(out.Route), nil
}

// LLMSymbolExtractor pulls a ticker out of a request.
type LLMSymbolExtractor struct {
	llm *structuredLLM[extractionOutput]
}

func NewSymbolExtractor(ctx context.Context, chatModel einomodel.BaseChatModel) (*LLMSymbolExtractor, error) {
	llm, err := compileStructuredLLMGraph[extractionOutput](ctx, chatModel, prompts.ExtractionSystem(), prompts.ExtractionUser, "capability.extraction")
	if err != nil {
		return nil, err
	}
	return &LLMSymbolExtractor{llm: llm}, nil
}

func (e *LLMSymbolExtractor) ExtractSymbol(ctx context.Context, request string) (string, error) {
	out, err := e.llm.invoke(ctx, map[string]any{"request": request})
	if err != nil {
		return model.UnknownSymbol, fmt.Errorf("%w: extraction: %w", errx.ErrModelInvoke, err)
	}
	return model.NormalizeSymbol(out.Symbol), nil
}

// LLMChatResponder answers conversational requests.
type LLMChatResponder struct {
	llm *structuredLLM[chatOutput]
}

func NewChatResponder(ctx context.Context, chatModel einomodel.BaseChatModel) (*LLMChatResponder, error) {
	llm, err := compileStructuredLLMGraph[chatOutput](ctx, chatModel, prompts.ChatSystem(), prompts.ChatUser, "capability.chat")
	if err != nil {
		return nil, err
	}
	return &LLMChatResponder{llm: llm}, nil
}

func (c *LLMChatResponder) Respond(ctx context.Context, req model.ChatRequest) (string, error) {
	out, err := c.llm.invoke(ctx, map[string]any{
		"request":              req.Request,
		"conversation_summary": req.ConversationSummary,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat: %w", errx.ErrModelInvoke, err)
	}
	return strings.TrimSpace(out.Response), nil
}

// LLMSummarizer maintains the rolling conversation summary.
type LLMSummarizer struct {
	llm *structuredLLM[summaryOutput]
}

func NewSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel) (*LLMSummarizer, error) {
	llm, err := compileStructuredLLMGraph[summaryOutput](ctx, chatModel, prompts.SummarySystem(), prompts.SummaryUser, "capability.summarizer")
	if err != nil {
		return nil, err
	}
	return &LLMSummarizer{llm: llm}, nil
}

func (s *LLMSummarizer) Summarize(ctx context.Context, req model.SummaryRequest) (string, error) {
	out, err := s.llm.invoke(ctx, map[string]any{
		"existing_summary": req.ExistingSummary,
		"conversation":     req.Conversation,
	})
	if err != nil {
		return "", fmt.Errorf("%w: summarizer: %w", errx.ErrModelInvoke, err)
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", fmt.Errorf("%w: summarizer returned an empty summary", errx.ErrSchemaViolation)
	}
	return summary, nil
}

// Models are the chat models backing each capability.
type Models struct {
	Router     einomodel.BaseChatModel
	Extraction einomodel.BaseChatModel
	Chat       einomodel.BaseChatModel
	Summary    einomodel.BaseChatModel
}

// New compiles all four capabilities.
func New(ctx context.Context, m Models) (model.Capabilities, error) {
	router, err := NewRouter(ctx, m.Router)
	if err != nil {
		return model.Capabilities{}, fmt.Errorf("router capability: %w", err)
	}
	extractor, err := NewSymbolExtractor(ctx, m.Extraction)
	if err != nil {
		return model.Capabilities{}, fmt.Errorf("extraction capability: %w", err)
	}
	chat, err := NewChatResponder(ctx, m.Chat)
	if err != nil {
		return model.Capabilities{}, fmt.Errorf("chat capability: %w", err)
	}
	summarizer, err := NewSummarizer(ctx, m.Summary)
	if err != nil {
		return model.Capabilities{}, fmt.Errorf("summarizer capability: %w", err)
	}
	return model.Capabilities{
		Router:     router,
		Extractor:  extractor,
		Chat:       chat,
		Summarizer: summarizer,
	}, nil
}

var (
	_ model.Router          = (*LLMRouter)(nil)
	_ model.SymbolExtractor = (*LLMSymbolExtractor)(nil)
	_ model.ChatResponder   = (*LLMChatResponder)(nil)
	_ model.Summarizer      = (*LLMSummarizer)(nil)
)
