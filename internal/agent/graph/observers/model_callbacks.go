package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	agentmodel "github.com/agdev/finagent/internal/agent/model"
	"github.com/agdev/finagent/internal/metrics"
	logx "github.com/agdev/finagent/pkg/logger"
)

const maxLoggedContent = 500

// newModelHandler logs model calls and records token usage and estimated cost.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", string(info.Component)).Str("name", info.Name)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).Str("user", truncate(lastUserContent(input.Messages)))
			}
			ev.Msg("model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			if output == nil || output.Message == nil {
				return ctx
			}
			modelName := ""
			if output.Config != nil {
				modelName = output.Config.Model
			}
			ev := logx.Debug().Str("name", info.Name).Str("model", modelName).
				Str("assistant", truncate(output.Message.Content))
			if meta := output.Message.ResponseMeta; meta != nil && meta.Usage != nil {
				recordUsage(modelName, meta.Usage)
				ev = ev.Int("prompt_tokens", meta.Usage.PromptTokens).
					Int("completion_tokens", meta.Usage.CompletionTokens)
			}
			ev.Msg("model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("name", info.Name).Msg("model error")
			return ctx
		},
	}
}

func recordUsage(modelName string, usage *schema.TokenUsage) {
	if modelName == "" {
		modelName = "unknown"
	}
	metrics.ModelTokens.WithLabelValues(modelName, "prompt").Add(float64(usage.PromptTokens))
	metrics.ModelTokens.WithLabelValues(modelName, "completion").Add(float64(usage.CompletionTokens))

	inC, outC, totalC := agentmodel.ComputeCost(usage, agentmodel.ResolvePricing(modelName))
	if totalC > 0 {
		metrics.ModelCostUSD.WithLabelValues(modelName).Add(totalC)
	}
	logx.Debug().
		Str("model", modelName).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLoggedContent {
		return s
	}
	return s[:maxLoggedContent] + "..."
}
