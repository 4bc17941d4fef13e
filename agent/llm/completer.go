package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/rs/zerolog/log"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

// Completer runs one compiled chat graph per role: a chat template holding the
// role's system prompt feeding a role-specific chat model.
type Completer struct {
	agentType contractx.AgentType
	runnable  compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Completer = (*Completer)(nil)

// NewCompleter compiles the chat graph for one role.
func NewCompleter(ctx context.Context, cfg Config, agentType contractx.AgentType, systemPrompt string) (*Completer, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: empty system prompt for %s", contractx.ErrPromptMissing, agentType)
	}

	modelCfg := cfg.OpenRouterFor(agentType)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("build chat model for %s: %w", agentType, err)
	}

	chatTemplate := newChatTemplate(systemPrompt)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("template", chatTemplate); err != nil {
		return nil, fmt.Errorf("add template node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "template"); err != nil {
		return nil, fmt.Errorf("edge start->template: %w", err)
	}
	if err := graph.AddEdge("template", "model"); err != nil {
		return nil, fmt.Errorf("edge template->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("edge model->end: %w", err)
	}

	runnable, err := graph.Compile(ctx, compose.WithGraphName(string(agentType)+"_chat"))
	if err != nil {
		return nil, fmt.Errorf("compile %s chat graph: %w", agentType, err)
	}

	return &Completer{agentType: agentType, runnable: runnable}, nil
}

// newChatTemplate pairs the role's system prompt with the single-placeholder
// user turn. The system prompt is literal text full of JSON examples, so its
// braces must be doubled to survive the FString pass intact.
func newChatTemplate(systemPrompt string) prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(escapeBraces(systemPrompt)),
		schema.UserMessage("{input}"),
	)
}

func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// Complete renders the request into the role's user turn and invokes the model.
func (c *Completer) Complete(ctx context.Context, req contractx.CompletionRequest) (string, error) {
	payload := map[string]any{
		"context": req.Context,
		"history": formatHistory(req.History),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	log.Debug().
		Str("agent", string(c.agentType)).
		Int("history_len", len(req.History)).
		Msg("invoking chat model")

	msg, err := c.runnable.Invoke(ctx, map[string]any{"input": string(raw)})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, c.agentType, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: %s returned empty content", contractx.ErrModelInvoke, c.agentType)
	}
	return msg.Content, nil
}

// formatHistory flattens the transcript into speaker-tagged lines so the model
// sees the whole exchange inside a single user turn.
func formatHistory(history []statex.Message) []string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		speaker := strings.ToUpper(string(m.Role))
		if agent, ok := m.Metadata["agent"].(string); ok && agent != "" {
			speaker = speaker + "/" + agent
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return lines
}
