// Package anthropicprovider adapts github.com/anthropics/anthropic-sdk-go
// to the llm.Provider interface.
package anthropicprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/noscope-dev/noscope/internal/llm"
)

// DefaultModel is used when the caller does not specify one.
const DefaultModel = "claude-sonnet-4-20250514"

const defaultMaxTokens = 8192

// MessagesClient is the subset of the Anthropic SDK's Messages resource
// this provider depends on. Narrowing to an interface keeps tests free of
// network calls.
type MessagesClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// Option configures a Client.
type Option func(*Client)

// WithMaxTokens overrides the default max_tokens budget per completion.
func WithMaxTokens(n int64) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithMessagesClient overrides the underlying Messages client, primarily
// for tests.
func WithMessagesClient(mc MessagesClient) Option {
	return func(c *Client) { c.messages = mc }
}

// Client wraps the Anthropic Messages API.
type Client struct {
	messages  MessagesClient
	maxTokens int64
}

// New constructs a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{messages: sdk.Messages, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends messages (and, if present, tool schemas) to the model and
// returns its reply.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.Schema, model string) (llm.Response, error) {
	if model == "" {
		model = DefaultModel
	}

	var system string
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system += m.Content + "\n"
		case llm.RoleUser:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleTool:
			converted = append(converted, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		}
	}

	toolParams := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		toolParams = append(toolParams, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Parameters["properties"],
				},
			},
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages:  converted,
		Tools:     toolParams,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.messages.New(ctx, params)
	if err != nil {
		return llm.Response{}, fmt.Errorf("anthropic completion: %w", err)
	}

	return toResponse(msg), nil
}

func toResponse(msg *anthropic.Message) llm.Response {
	resp := llm.Response{
		StopReason: string(msg.StopReason),
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += b.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(b.Input, &args)
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	return resp
}
