package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"helpdesk/pkg/logger"
)

// ContextWindow bounds how much history goes into a prompt. Callers can
// trim their history fetch to this many messages; Generate enforces it
// either way.
const ContextWindow = 10

const systemPrompt = `You are an AI customer support agent. You MUST only respond to customer service related queries.

CAPABILITIES: account help, order tracking, billing issues, technical support, policy information.

STRICT GUIDELINES:
1. ONLY answer questions related to: accounts, orders, payments, shipping, returns, technical issues, company policies
2. If asked about coding, math, science, or ANY non-customer-service topic, respond with: "I'm here to help with customer support questions like account issues, orders, billing, or technical support. How can I assist you with our services?"
3. Maintain a professional, empathetic customer service tone
4. Use conversation history for context
5. If you cannot help, suggest escalation to a human agent
6. NEVER provide code, mathematical solutions, or general knowledge outside customer support`

const summaryPrompt = `Summarize this customer support conversation for escalation purposes. Include:
1. Main issues discussed
2. Attempted solutions
3. Current status
4. Recommended next actions

Provide a concise summary.`

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client       *openai.Client
	model        string
	summaryModel string
}

// NewOpenAI builds a client. baseURL overrides the default endpoint so
// compatible providers can be swapped in; summaryModel falls back to
// model when empty.
func NewOpenAI(apiKey, baseURL, model, summaryModel string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if summaryModel == "" {
		summaryModel = model
	}
	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		summaryModel: summaryModel,
	}
}

// Generate produces a support reply for prompt, carrying the tail of the
// conversation as context.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, history []Message) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, m := range tail(history, ContextWindow) {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: toOpenAIRole(m.Role), Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		logger.Error("llm_generate_failed", "model", c.model, "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Summarize condenses the whole conversation into a hand-off summary.
func (c *OpenAIClient) Summarize(ctx context.Context, history []Message) (string, error) {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
	})
	if err != nil {
		logger.Error("llm_summarize_failed", "model", c.summaryModel, "error", err)
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// toOpenAIRole maps transcript roles onto the provider's role names.
// System annotations are carried as system turns so the model sees
// escalation markers.
func toOpenAIRole(role string) string {
	switch role {
	case "assistant":
		return openai.ChatMessageRoleAssistant
	case "system":
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

func tail(msgs []Message, n int) []Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
