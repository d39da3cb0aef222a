package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterSystemListsCategories(t *testing.T) {
	sys := RouterSystem()
	for _, c := range []string{"income_statement", "report", "company_financials", "stock_price", "chat"} {
		assert.Contains(t, sys, "- "+c)
	}
	assert.NotContains(t, sys, "{categories}")
	assert.Contains(t, sys, `{"route": "<category>"}`)
}

func TestExtractionSystemNamesSentinel(t *testing.T) {
	sys := ExtractionSystem()
	assert.NotContains(t, sys, "{unknown}")
	assert.Contains(t, sys, "UNKNOWN")
}

func format(t *testing.T, systemPrompt, userTemplate string, vars map[string]any) []*schema.Message {
	t.Helper()
	msgs, err := NewCapabilityTemplate(userTemplate).Format(context.Background(), Inputs(systemPrompt, vars))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	return msgs
}

func TestInputsKeepSystemBracesAndFormatUser(t *testing.T) {
	msgs := format(t, RouterSystem(), RouterUser, map[string]any{
		"conversation_summary": "asked about {AAPL}",
		"request":              "and the price?",
	})

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.True(t, strings.Contains(msgs[0].Content, `{"route": "<category>"}`))

	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "Conversation summary: asked about {AAPL}\n\nUser request: and the price?", msgs[1].Content)
}

func TestSummaryTemplate(t *testing.T) {
	msgs := format(t, SummarySystem(), SummaryUser, map[string]any{
		"existing_summary": "No previous summary available.",
		"conversation":     "User: hi\nAssistant: hello",
	})
	assert.Contains(t, msgs[1].Content, "<previous_summary>No previous summary available.</previous_summary>")
	assert.Contains(t, msgs[1].Content, "<conversation>\nUser: hi\nAssistant: hello\n</conversation>")
}

func TestInputsDoNotMutateVars(t *testing.T) {
	vars := map[string]any{"request": "hi"}
	in := Inputs("sys", vars)

	assert.Len(t, vars, 1)
	require.Contains(t, in, KeySystemMessages)
	sys := in[KeySystemMessages].([]*schema.Message)
	require.Len(t, sys, 1)
	assert.Equal(t, "sys", sys[0].Content)
	assert.Equal(t, "hi", in["request"])
}
