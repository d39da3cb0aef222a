// Package capabilities implements the typed inference capabilities on top of eino chat models.
// Each capability is a small compiled graph: chat template -> chat model -> JSON parser.
package capabilities

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/agdev/finagent/internal/agent/graph/parsers"
	"github.com/agdev/finagent/internal/agent/graph/prompts"
)

const (
	nodePrompt = "prompt"
	nodeModel  = "model"
	nodeParse  = "parse_json"
)

// structuredLLM is a compiled prompt -> model -> parse graph returning T.
type structuredLLM[T any] struct {
	runner compose.Runnable[map[string]any, T]
	system string
}

func compileStructuredLLMGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	userTemplate string,
	graphName string,
) (*structuredLLM[T], error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%s: chat model is nil", graphName)
	}

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode(nodePrompt, prompts.NewCapabilityTemplate(userTemplate)); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode(nodeModel, chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode(nodeParse, compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (T, error) {
		if msg == nil {
			var zero T
			return zero, fmt.Errorf("model returned no message")
		}
		return parsers.ParseStructured[T](msg.Content)
	})); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, nodePrompt},
		{nodePrompt, nodeModel},
		{nodeModel, nodeParse},
		{nodeParse, compose.END},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("add structured edge %s->%s: %w", e[0], e[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph %s: %w", graphName, err)
	}
	return &structuredLLM[T]{
		runner: runner,
		system: systemPrompt,
	}, nil
}

func (s *structuredLLM[T]) invoke(ctx context.Context, vars map[string]any) (T, error) {
	return s.runner.Invoke(ctx, prompts.Inputs(s.system, vars))
}
