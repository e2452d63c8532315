// Package llm provides the OpenAI chat adapter implementing ports.ChatModel.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
)

// DefaultModel is used when no chat model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIAdapter invokes the OpenAI chat completions API with tool
// definitions, translating between domain messages and the wire shapes.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAIAdapter creates a chat adapter. Extra request options are
// passed through to the client so tests can point it at a local server.
func NewOpenAIAdapter(model string, opts ...option.RequestOption) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(opts...)
	return &OpenAIAdapter{client: &client, model: model}
}

// Generate invokes the model once. The returned message carries either
// final content or one or more tool calls.
func (a *OpenAIAdapter) Generate(ctx context.Context, req ports.ModelRequest) (entities.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    toWireMessages(req.System, req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	for _, def := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  openai.FunctionParameters(def.Parameters),
		}))
	}

	completion, err := callWithRetry(ctx, a.client, params)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return entities.Message{}, err
		}
		return entities.Message{}, fmt.Errorf("%w: chat completion: %v", entities.ErrAgent, err)
	}
	if len(completion.Choices) == 0 {
		return entities.Message{}, fmt.Errorf("%w: chat completion returned no choices", entities.ErrAgent)
	}

	wire := completion.Choices[0].Message
	msg := entities.Message{Role: entities.RoleAssistant, Content: wire.Content}
	for _, call := range wire.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, entities.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return msg, nil
}

// toWireMessages converts the system policy and domain messages into
// chat completion params, preserving tool-call linkage within the turn.
func toWireMessages(system string, messages []entities.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		switch m.Role {
		case entities.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case entities.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case entities.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, call := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: call.Arguments,
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

// callWithRetry retries rate-limit and server errors with spaced waits,
// respecting context cancellation between attempts.
func callWithRetry(ctx context.Context, client *openai.Client, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	const maxAttempts = 3
	rateLimitWaits := []time.Duration{5 * time.Second, 15 * time.Second}
	serverErrorWaits := []time.Duration{2 * time.Second, 8 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		completion, err := client.Chat.Completions.New(ctx, params)
		if err == nil {
			return completion, nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case attempt >= maxAttempts-1:
			return nil, err
		case isRateLimitError(err):
			wait = rateLimitWaits[attempt]
		case isServerError(err):
			wait = serverErrorWaits[attempt]
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %v", maxAttempts, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}
