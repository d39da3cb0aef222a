package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/agdev/finagent/internal/agent/graph/capabilities"
	"github.com/agdev/finagent/internal/agent/model"
	logx "github.com/agdev/finagent/pkg/logger"
	"github.com/agdev/finagent/pkg/openrouter"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiBaseURL string
	OpenRouter    *openrouter.Config
	Models        model.ModelsConfig
}

// NewChatModels creates one chat model per capability on the configured provider.
func NewChatModels(ctx context.Context, config ChatModelConfig) (capabilities.Models, error) {
	var build func(model.LLMModelConfig) (einomodel.BaseChatModel, error)

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", ProviderGemini:
		clientCfg := &genai.ClientConfig{
			APIKey:  config.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if config.GeminiBaseURL != "" {
			clientCfg.HTTPOptions.BaseURL = config.GeminiBaseURL
		}
		client, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			logx.Error().Err(err).Msg("Error creating Gemini client")
			return capabilities.Models{}, fmt.Errorf("error creating Gemini client: %w", err)
		}
		build = func(c model.LLMModelConfig) (einomodel.BaseChatModel, error) {
			return newGeminiModel(ctx, client, c)
		}
	case ProviderOpenRouter:
		if config.OpenRouter == nil {
			return capabilities.Models{}, fmt.Errorf("openrouter config is nil")
		}
		build = func(c model.LLMModelConfig) (einomodel.BaseChatModel, error) {
			return config.OpenRouter.New(ctx, c.Model, c.MaxTokens, c.Temperature)
		}
	default:
		return capabilities.Models{}, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}

	var (
		out capabilities.Models
		err error
	)
	targets := []struct {
		name string
		cfg  model.LLMModelConfig
		dst  *einomodel.BaseChatModel
	}{
		{"router", config.Models.Router, &out.Router},
		{"extraction", config.Models.Extraction, &out.Extraction},
		{"chat", config.Models.Chat, &out.Chat},
		{"summary", config.Models.Summary, &out.Summary},
	}
	for _, t := range targets {
		if *t.dst, err = build(t.cfg); err != nil {
			logx.Error().Err(err).Str("capability", t.name).Msg("Error creating chat model")
			return capabilities.Models{}, fmt.Errorf("error creating %s model: %w", t.name, err)
		}
		logx.Debug().Str("capability", t.name).Str("model", t.cfg.Model).Msg("chat model ready")
	}
	return out, nil
}

func newGeminiModel(ctx context.Context, client *genai.Client, c model.LLMModelConfig) (*gemini.ChatModel, error) {
	temperature := c.Temperature
	maxTokens := c.MaxTokens
	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       c.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(c.ThinkingBudget)),
		},
	})
}
