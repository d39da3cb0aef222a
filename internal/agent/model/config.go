package model

import "time"

// ================ Config ================

// LLMModelConfig configures one capability's chat model.
type LLMModelConfig struct {
	Model       string  `default:"gemini-2.5-flash"`
	MaxTokens   int     `split_words:"true" default:"2000"`
	Temperature float32 `default:"0"`
	// ThinkingBudget is the Gemini thinking token budget; 0 disables thinking.
	ThinkingBudget int `split_words:"true" default:"0"`
}

type ModelsConfig struct {
	Provider   string         `envconfig:"LLM_PROVIDER" default:"gemini"`
	Router     LLMModelConfig `envconfig:"ROUTER"`
	Extraction LLMModelConfig `envconfig:"EXTRACTION"`
	Chat       LLMModelConfig `envconfig:"CHAT"`
	Summary    LLMModelConfig `envconfig:"SUMMARY"`
}

type ThreadConfig struct {
	TTL      time.Duration `envconfig:"THREAD_TTL" default:"24h"`
	MaxTurns int           `envconfig:"THREAD_MAX_TURNS" default:"20"`
}

type MemoryConfig struct {
	Backend string `envconfig:"MEMORY_BACKEND" default:"memory"`
}
