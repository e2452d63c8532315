package usecases

import (
	"context"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/log"
)

// FallbackAnswer is returned to the user when a turn cannot complete.
const FallbackAnswer = "죄송해요, 지금은 답변을 드릴 수 없어요. 잠시 후 다시 시도해 주세요. 🙏"

// ToolSource yields the currently available tools for a turn. The set
// can change between turns, for example after new documents are
// indexed.
type ToolSource interface {
	Tools() []ports.Tool
}

// Orchestrator ties sessions and the agent loop together: it loads a
// session's history, runs one agent turn and persists the exchange.
type Orchestrator struct {
	sessions ports.SessionStore
	agent    *AgentLoop
	tools    ToolSource
	logger   log.Logger
}

// NewOrchestrator creates a conversation orchestrator.
func NewOrchestrator(sessions ports.SessionStore, agent *AgentLoop, tools ToolSource, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{
		sessions: sessions,
		agent:    agent,
		tools:    tools,
		logger:   logger,
	}
}

// HandleTurn runs one full conversational turn for the given session.
// On failure the session history is left untouched and a graceful
// user-facing answer is returned alongside the error.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userInput string) (string, error) {
	o.sessions.GetOrCreate(sessionID)
	history := o.sessions.History(sessionID)

	result, err := o.agent.Run(ctx, userInput, history, o.tools.Tools())
	if err != nil {
		o.logger.Error("turn failed", "session", sessionID, "error", err)
		return FallbackAnswer, err
	}

	o.sessions.Append(sessionID, entities.Message{Role: entities.RoleUser, Content: userInput})
	o.sessions.Append(sessionID, entities.Message{Role: entities.RoleAssistant, Content: result.FinalAnswer})

	o.logger.Info("turn completed",
		"session", sessionID,
		"tool_invocations", len(result.Invocations))
	return result.FinalAnswer, nil
}

// Reset wipes every session's history.
func (o *Orchestrator) Reset() {
	o.sessions.ClearAll()
	o.logger.Info("all sessions cleared")
}
