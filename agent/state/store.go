package state

import (
	"context"
	"errors"
)

var (
	ErrStateNotFound = errors.New("conversation state not found")
	ErrNilState      = errors.New("conversation state is nil")
)

// Store is the persistence contract used by the dispatcher. A Save must be
// fully durable from the caller's point of view before the turn result is
// returned, so a later Load observes a consistent state.
type Store interface {
	Load(ctx context.Context, sessionID string) (*ConversationState, error)
	Save(ctx context.Context, st *ConversationState) error
	Delete(ctx context.Context, sessionID string) error
}
