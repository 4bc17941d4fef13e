// Package dispatcher is the control plane of the sales pipeline. It owns the
// conversation lifecycle and the routing policy between role agents; the
// roles themselves never talk to each other directly.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

type Config struct {
	// MaxTurnSteps bounds the number of role invocations per prospect
	// message. A turn that exhausts the budget degrades to waiting for the
	// prospect instead of looping.
	MaxTurnSteps int
	// ConversionPhrases overrides the built-in acceptance wordlist.
	ConversionPhrases []string
}

type Dispatcher struct {
	store   statex.Store
	roles   contractx.Registry
	matcher *conversionMatcher

	turnRunner compose.Runnable[turnInput, *statex.ConversationState]

	maxTurnSteps int
	now          func() time.Time
}

func New(store statex.Store, roles contractx.Registry, cfg Config) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if roles == nil {
		return nil, errors.New("role registry is required")
	}

	maxTurnSteps := cfg.MaxTurnSteps
	if maxTurnSteps <= 0 {
		maxTurnSteps = 10
	}

	d := &Dispatcher{
		store:        store,
		roles:        roles,
		matcher:      newConversionMatcher(cfg.ConversionPhrases),
		maxTurnSteps: maxTurnSteps,
		now:          time.Now,
	}

	turnRunner, err := d.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.turnRunner = turnRunner

	return d, nil
}

// Start opens a new conversation with the prospect's first message. A seed
// carries contact data known before the conversation, typically from a form.
func (d *Dispatcher) Start(ctx context.Context, sessionID, message string, seed *statex.LeadInfo) (*statex.ConversationState, error) {
	return d.turnRunner.Invoke(ctx, turnInput{
		SessionID: sessionID,
		Text:      message,
		Seed:      seed,
		Create:    true,
	})
}

// Continue feeds the next prospect message into an existing conversation.
// A closed conversation is returned as stored without running any role.
func (d *Dispatcher) Continue(ctx context.Context, sessionID, message string) (*statex.ConversationState, error) {
	return d.turnRunner.Invoke(ctx, turnInput{
		SessionID: sessionID,
		Text:      message,
	})
}

// History returns the transcript of a session, empty for unknown sessions.
func (d *Dispatcher) History(ctx context.Context, sessionID string) ([]statex.Message, error) {
	st, err := d.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return st.Messages, nil
}

type turnInput struct {
	SessionID string
	Text      string
	Seed      *statex.LeadInfo
	Create    bool
}

// turnState threads the conversation through the turn graph. skip marks a
// turn against a closed conversation, which passes through untouched.
type turnState struct {
	in   turnInput
	st   *statex.ConversationState
	skip bool
}

func (d *Dispatcher) validateRequest(in turnInput) (*turnState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		if !in.Create {
			return nil, fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
		}
		sessionID = uuid.NewString()
	}
	in.Text = text
	in.SessionID = sessionID
	return &turnState{in: in}, nil
}

func (d *Dispatcher) loadOrCreateState(ctx context.Context, ts *turnState) (*turnState, error) {
	if ts.in.Create {
		st := statex.NewConversationState(ts.in.SessionID, d.now())
		if ts.in.Seed != nil {
			st.LeadInfo.Merge(*ts.in.Seed)
		}
		ts.st = st
		return ts, nil
	}

	st, err := d.store.Load(ctx, ts.in.SessionID)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			return nil, fmt.Errorf("%w: %s", contractx.ErrSessionNotFound, ts.in.SessionID)
		}
		return nil, err
	}
	ts.st = st
	ts.skip = st.Closed
	return ts, nil
}

func (d *Dispatcher) appendProspectMessage(ts *turnState) (*turnState, error) {
	if ts.skip {
		return ts, nil
	}
	ts.st.AppendMessage(statex.RoleProspect, ts.in.Text, nil, d.now())
	// Routing restarts from scratch on every prospect message.
	ts.st.NextAction = statex.NextUnset
	return ts, nil
}

// runRoles drives role agents until the turn settles on waiting for the
// prospect or the conversation ends.
func (d *Dispatcher) runRoles(ctx context.Context, ts *turnState) (*turnState, error) {
	if ts.skip {
		return ts, nil
	}
	st := ts.st

	for step := 0; step < d.maxTurnSteps; step++ {
		route := d.decide(st)

		log.Debug().
			Str("session_id", st.SessionID).
			Int("step", step).
			Str("route", string(route)).
			Msg("dispatch step")

		var err error
		switch route {
		case routeEnd, routeWait:
			return ts, nil
		case routeClassifier:
			err = d.roles.Classifier().Classify(ctx, st)
		case routeSeller:
			err = d.roles.Seller().Sell(ctx, st)
		case routeNegotiator:
			err = d.roles.Negotiator().Negotiate(ctx, st)
		case routeSupervisor:
			err = d.roles.Supervisor().Review(ctx, st)
		case routeCRM:
			err = d.roles.Recorder().Record(ctx, st)
		}
		if err != nil {
			return nil, err
		}
	}

	// Budget exhausted: park the conversation instead of looping further.
	log.Warn().
		Str("session_id", st.SessionID).
		Int("max_turn_steps", d.maxTurnSteps).
		Msg("turn step budget exhausted, waiting for prospect")
	st.NextAction = statex.NextWaitForResponse
	return ts, nil
}

type routeTarget string

const (
	routeEnd        routeTarget = "end"
	routeWait       routeTarget = "wait"
	routeClassifier routeTarget = "classifier"
	routeSeller     routeTarget = "seller"
	routeNegotiator routeTarget = "negotiator"
	routeSupervisor routeTarget = "supervisor"
	routeCRM        routeTarget = "crm"
)

// decide is the routing policy. The order is load-bearing: a closed
// conversation always ends, an unclassified prospect is always classified
// first, and conversion or escalation reaches the recorder before any further
// role runs.
func (d *Dispatcher) decide(st *statex.ConversationState) routeTarget {
	if st.Closed {
		return routeEnd
	}
	// One classification attempt per turn: a degraded classifier leaves
	// LeadType unset but routes onward via NextAction, and must not be
	// re-invoked until the next prospect message.
	if st.LeadType == "" && st.NextAction == statex.NextUnset {
		return routeClassifier
	}
	if st.NextAction == statex.NextCRM || st.NextAction == statex.NextEnd {
		return routeCRM
	}
	if len(st.OffersMade) > 0 && !st.Converted && d.matcher.Matches(st.LatestProspectMessage()) {
		st.Converted = true
		return routeCRM
	}
	if st.Escalated {
		return routeCRM
	}

	switch st.NextAction {
	case statex.NextWaitForResponse:
		return routeWait
	case statex.NextEscalate:
		return routeCRM
	case statex.NextClassifier:
		return routeClassifier
	case statex.NextSeller:
		return routeSeller
	case statex.NextNegotiator:
		return routeNegotiator
	case statex.NextSupervisor, statex.NextUnset:
		return routeSupervisor
	}
	return routeSupervisor
}

func (d *Dispatcher) validateAndSaveState(ctx context.Context, ts *turnState) (*turnState, error) {
	if ts.skip {
		return ts, nil
	}
	if err := ts.st.Validate(); err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, ts.st); err != nil {
		return nil, fmt.Errorf("save session %s: %w", ts.st.SessionID, err)
	}
	return ts, nil
}

func (d *Dispatcher) finalize(ts *turnState) (*statex.ConversationState, error) {
	return ts.st, nil
}
