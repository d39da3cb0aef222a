package prompts

import (
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/agdev/finagent/internal/agent/model"
)

// KeySystemMessages is the placeholder holding the system prompt of every capability template.
const KeySystemMessages = "system_messages"

// User message templates, formatted with schema.FString.
const (
	RouterUser     = "Conversation summary: {conversation_summary}\n\nUser request: {request}"
	ExtractionUser = "{request}"
	ChatUser       = "Conversation summary: {conversation_summary}\n\nUser request: {request}"
	SummaryUser    = "Previous summary: <previous_summary>{existing_summary}</previous_summary>\n\n" +
		"Conversation:\n<conversation>\n{conversation}\n</conversation>\n\n" +
		"Provide an updated summary that incorporates both the previous summary and this new conversation. " +
		"Focus on financial symbols, request types, and specific data that was provided."
)

var (
	//go:embed template/router_system.txt
	routerSystemPrompt string
	//go:embed template/extraction_system.txt
	extractionSystemPrompt string
	//go:embed template/chat_system.txt
	chatSystemPrompt string
	//go:embed template/summary_system.txt
	summarySystemPrompt string
)

// RouterSystem renders the router system prompt. Only known tokens are replaced so the JSON
// braces in the template survive.
func RouterSystem() string {
	lines := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		lines = append(lines, "- "+c.String())
	}
	return strings.NewReplacer("{categories}", strings.Join(lines, "\n")).Replace(routerSystemPrompt)
}

func ExtractionSystem() string {
	return strings.NewReplacer("{unknown}", model.UnknownSymbol).Replace(extractionSystemPrompt)
}

func ChatSystem() string {
	return chatSystemPrompt
}

func SummarySystem() string {
	return summarySystemPrompt
}

// NewCapabilityTemplate builds the chat template of one capability. The system prompt goes in
// through a messages placeholder so it is never run through the FString formatter.
func NewCapabilityTemplate(userTemplate string) prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder(KeySystemMessages, false),
		schema.UserMessage(userTemplate),
	)
}

// Inputs merges the template variables with the system prompt placeholder.
func Inputs(systemPrompt string, vars map[string]any) map[string]any {
	all := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		all[k] = v
	}
	all[KeySystemMessages] = []*schema.Message{schema.SystemMessage(systemPrompt)}
	return all
}
