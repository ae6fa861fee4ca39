// Package openaiprovider adapts github.com/openai/openai-go to the
// llm.Provider interface.
package openaiprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	noscopellm "github.com/noscope-dev/noscope/internal/llm"
)

// DefaultModel is used when the caller does not specify one.
const DefaultModel = openai.ChatModelGPT4o

// ChatClient is the subset of the OpenAI SDK's Chat Completions resource
// this provider depends on.
type ChatClient interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Option configures a Client.
type Option func(*Client)

// WithChatClient overrides the underlying chat client, primarily for
// tests.
func WithChatClient(cc ChatClient) Option {
	return func(c *Client) { c.chat = cc }
}

// Client wraps the OpenAI Chat Completions API.
type Client struct {
	chat ChatClient
}

// New constructs a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	sdk := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{chat: sdk.Chat.Completions}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends messages (and, if present, tool schemas) to the model and
// returns its reply.
func (c *Client) Complete(ctx context.Context, messages []noscopellm.Message, tools []noscopellm.Schema, model string) (noscopellm.Response, error) {
	if model == "" {
		model = DefaultModel
	}

	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case noscopellm.RoleSystem:
			converted = append(converted, openai.SystemMessage(m.Content))
		case noscopellm.RoleUser:
			converted = append(converted, openai.UserMessage(m.Content))
		case noscopellm.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(m.Content))
		case noscopellm.RoleTool:
			converted = append(converted, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	toolParams := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		toolParams = append(toolParams, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		})
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: converted,
		Tools:    toolParams,
	}

	completion, err := c.chat.New(ctx, params)
	if err != nil {
		return noscopellm.Response{}, fmt.Errorf("openai completion: %w", err)
	}
	return toResponse(completion), nil
}

func toResponse(completion *openai.ChatCompletion) noscopellm.Response {
	if len(completion.Choices) == 0 {
		return noscopellm.Response{}
	}
	choice := completion.Choices[0]
	resp := noscopellm.Response{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: noscopellm.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		resp.ToolCalls = append(resp.ToolCalls, noscopellm.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return resp
}
