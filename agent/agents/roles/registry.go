// Package roles implements the specialist role agents of the sales pipeline.
// Each role is a stateless transform over the shared conversation state with
// an explicit degradation policy for unreadable model replies.
package roles

import (
	"context"
	"fmt"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	llmx "github.com/iafluence/agentic-seller/agent/llm"
	promptx "github.com/iafluence/agentic-seller/agent/prompt"
)

type registryImpl struct {
	classifier contractx.Classifier
	seller     contractx.Seller
	negotiator contractx.Negotiator
	supervisor contractx.Supervisor
	recorder   contractx.Recorder
}

func (r *registryImpl) Classifier() contractx.Classifier { return r.classifier }
func (r *registryImpl) Seller() contractx.Seller         { return r.seller }
func (r *registryImpl) Negotiator() contractx.Negotiator { return r.negotiator }
func (r *registryImpl) Supervisor() contractx.Supervisor { return r.supervisor }
func (r *registryImpl) Recorder() contractx.Recorder     { return r.recorder }

// NewRegistry builds one completer per model-backed role and wires the
// recorder to the given sink.
func NewRegistry(ctx context.Context, llmCfg llmx.Config, roleCfg Config, sink contractx.RecordSink) (contractx.Registry, error) {
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}
	roleCfg = roleCfg.withDefaults()

	prompts := promptx.LoadPromptSet()

	classifierCompleter, err := llmx.NewCompleter(ctx, llmCfg, contractx.AgentTypeClassifier, prompts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	sellerCompleter, err := llmx.NewCompleter(ctx, llmCfg, contractx.AgentTypeSeller, prompts.Seller)
	if err != nil {
		return nil, fmt.Errorf("build seller: %w", err)
	}
	negotiatorCompleter, err := llmx.NewCompleter(ctx, llmCfg, contractx.AgentTypeNegotiator, prompts.Negotiator)
	if err != nil {
		return nil, fmt.Errorf("build negotiator: %w", err)
	}
	supervisorCompleter, err := llmx.NewCompleter(ctx, llmCfg, contractx.AgentTypeSupervisor, prompts.Supervisor)
	if err != nil {
		return nil, fmt.Errorf("build supervisor: %w", err)
	}

	return &registryImpl{
		classifier: newClassifier(classifierCompleter, roleCfg),
		seller:     newSeller(sellerCompleter, roleCfg),
		negotiator: newNegotiator(negotiatorCompleter, roleCfg),
		supervisor: newSupervisor(supervisorCompleter, roleCfg),
		recorder:   newRecorder(sink, roleCfg),
	}, nil
}

// NewRegistryWith assembles a registry from prebuilt parts, used by tests and
// by callers that supply their own completion service.
func NewRegistryWith(completers map[contractx.AgentType]contractx.Completer, roleCfg Config, sink contractx.RecordSink) contractx.Registry {
	roleCfg = roleCfg.withDefaults()
	return &registryImpl{
		classifier: newClassifier(completers[contractx.AgentTypeClassifier], roleCfg),
		seller:     newSeller(completers[contractx.AgentTypeSeller], roleCfg),
		negotiator: newNegotiator(completers[contractx.AgentTypeNegotiator], roleCfg),
		supervisor: newSupervisor(completers[contractx.AgentTypeSupervisor], roleCfg),
		recorder:   newRecorder(sink, roleCfg),
	}
}
