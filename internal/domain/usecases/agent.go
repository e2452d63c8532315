package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/log"
)

// DefaultMaxSteps bounds the Decide/Act/Observe cycle per turn.
const DefaultMaxSteps = 8

// AgentLoop is the conversational core: a bounded iterative tool-use
// loop over the language model. Each step the model either returns a
// final answer or requests tool calls; tool observations are fed back
// into the working context and the loop continues.
//
// Tool failures never abort the turn by themselves: unknown tools and
// execution errors become observations so the model can recover.
type AgentLoop struct {
	model       ports.ChatModel
	language    string
	temperature float64
	maxSteps    int
	logger      log.Logger
}

// NewAgentLoop creates an agent loop with injected dependencies.
func NewAgentLoop(model ports.ChatModel, language string, temperature float64, maxSteps int, logger log.Logger) *AgentLoop {
	if language == "" {
		language = "Korean"
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &AgentLoop{
		model:       model,
		language:    language,
		temperature: temperature,
		maxSteps:    maxSteps,
		logger:      logger,
	}
}

// Run executes one turn: user input plus prior history in, final answer
// plus the tool invocation trace out. History is passed explicitly on
// every call; the loop holds no state between turns.
func (l *AgentLoop) Run(ctx context.Context, userInput string, history []entities.Message, tools []ports.Tool) (entities.TurnResult, error) {
	system := systemPolicy(l.language, tools)

	messages := make([]entities.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, entities.Message{Role: entities.RoleUser, Content: userInput})

	byName := make(map[string]ports.Tool, len(tools))
	definitions := make([]entities.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
		definitions = append(definitions, entities.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	var trace []entities.ToolInvocation
	for step := 1; step <= l.maxSteps; step++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.TurnResult{}, ctxErr
		}

		assistant, err := l.model.Generate(ctx, ports.ModelRequest{
			System:      system,
			Messages:    messages,
			Tools:       definitions,
			Temperature: l.temperature,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return entities.TurnResult{}, err
			}
			if errors.Is(err, entities.ErrAgent) {
				return entities.TurnResult{}, err
			}
			return entities.TurnResult{}, fmt.Errorf("%w: model call: %v", entities.ErrAgent, err)
		}
		messages = append(messages, assistant)

		if len(assistant.ToolCalls) == 0 {
			return entities.TurnResult{
				FinalAnswer: assistant.Content,
				Invocations: trace,
			}, nil
		}

		// Tool calls run strictly sequentially; each observation is in
		// the context before the next model decision.
		for _, call := range assistant.ToolCalls {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return entities.TurnResult{}, ctxErr
			}

			query := parseToolQuery(call.Arguments)
			observation, obsErr := l.invokeTool(ctx, byName, call.Name, query)
			if obsErr != nil {
				return entities.TurnResult{}, obsErr
			}

			trace = append(trace, entities.ToolInvocation{
				ToolName: call.Name,
				Input:    query,
				Output:   observation,
			})
			messages = append(messages, entities.Message{
				Role:       entities.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
			})
		}
	}

	return entities.TurnResult{}, fmt.Errorf("%w: %w (%d steps)", entities.ErrAgent, entities.ErrMaxSteps, l.maxSteps)
}

// invokeTool executes one tool call and always produces an observation
// string; only context cancellation escapes as an error.
func (l *AgentLoop) invokeTool(ctx context.Context, byName map[string]ports.Tool, name, query string) (string, error) {
	tool, ok := byName[name]
	if !ok {
		l.logger.Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("tool %q is not available; available tools: %s. %v",
			name, toolNames(byName), entities.ErrUnknownTool), nil
	}

	output, err := tool.Invoke(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		l.logger.Warn("tool invocation failed", "tool", name, "error", err)
		return fmt.Sprintf("tool %q is currently unavailable (%v); "+
			"try another tool or answer from your own knowledge", name, err), nil
	}
	return output, nil
}

// parseToolQuery extracts the query argument from the model's JSON
// payload. A well-formed payload is authoritative even when the field
// is empty; only malformed JSON falls back to the raw string.
func parseToolQuery(arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err == nil {
		return strings.TrimSpace(args.Query)
	}
	return strings.TrimSpace(arguments)
}

func toolNames(byName map[string]ports.Tool) string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
