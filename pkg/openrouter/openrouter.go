package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config holds the OpenRouter connection. Model, token and temperature settings come from the
// per-capability model config passed to New.
type Config struct {
	BaseURL string        `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	APIKey  string        `envconfig:"OPENROUTER_API_KEY"`
	Timeout time.Duration `envconfig:"OPENROUTER_TIMEOUT" default:"30s"`
}

// New creates an OpenAI-compatible chat model pointed at OpenRouter.
func (c *Config) New(ctx context.Context, modelName string, maxTokens int, temperature float32) (model.ToolCallingChatModel, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("openrouter: api key is empty")
	}

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(modelName),
		Temperature: &temperature,
		Timeout:     c.Timeout,
	}
	if maxTokens > 0 {
		conf.MaxTokens = &maxTokens
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openrouter: create chat model: %w", err)
	}
	return m, nil
}
