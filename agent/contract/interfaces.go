package contract

import (
	"context"

	statex "github.com/iafluence/agentic-seller/agent/state"
)

// Completer is the opaque text-completion service behind every role. The reply
// is free text; callers must tolerate markdown fences and malformed JSON.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Role agents are stateless transforms over the shared conversation state.
// A returned error means the role could not run at all; model-quality problems
// (malformed replies) are absorbed inside the role per its degradation policy
// and never surface here.

type Classifier interface {
	Classify(ctx context.Context, st *statex.ConversationState) error
}

type Seller interface {
	Sell(ctx context.Context, st *statex.ConversationState) error
}

type Negotiator interface {
	Negotiate(ctx context.Context, st *statex.ConversationState) error
}

type Supervisor interface {
	Review(ctx context.Context, st *statex.ConversationState) error
}

// Recorder closes a conversation: it builds the CRM record, pushes it to the
// sink, and marks the state closed. It is always terminal.
type Recorder interface {
	Record(ctx context.Context, st *statex.ConversationState) error
}

type Registry interface {
	Classifier() Classifier
	Seller() Seller
	Negotiator() Negotiator
	Supervisor() Supervisor
	Recorder() Recorder
}

// RecordSink receives the final CRM record. Real integrations live outside
// this system; the default implementation is a webhook stub.
type RecordSink interface {
	Push(ctx context.Context, record CRMRecord) error
}
