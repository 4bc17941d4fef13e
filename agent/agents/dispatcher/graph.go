package dispatcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	statex "github.com/iafluence/agentic-seller/agent/state"
)

func (d *Dispatcher) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[turnInput, *statex.ConversationState], error) {
	graph := compose.NewGraph[turnInput, *statex.ConversationState]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in turnInput) (*turnState, error) {
			return d.validateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return d.loadOrCreateState(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("append_prospect_message",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return d.appendProspectMessage(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node append_prospect_message: %w", err)
	}

	if err := graph.AddLambdaNode("run_roles",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return d.runRoles(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_roles: %w", err)
	}

	if err := graph.AddLambdaNode("validate_and_save_state",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return d.validateAndSaveState(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_and_save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*statex.ConversationState, error) {
			return d.finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_state"},
		{"load_or_create_state", "append_prospect_message"},
		{"append_prospect_message", "run_roles"},
		{"run_roles", "validate_and_save_state"},
		{"validate_and_save_state", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatcher turn graph: %w", err)
	}
	return runner, nil
}
