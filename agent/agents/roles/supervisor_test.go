package roles

import (
	"context"
	"testing"

	statex "github.com/iafluence/agentic-seller/agent/state"
)

func TestReviewRoutesToNextAgent(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{
			"analysis": "prospect raised a price objection",
			"prospect_sentiment": "neutral",
			"goal_achieved": false,
			"next_agent": "negotiator",
			"should_escalate": false,
			"should_close": false
		}`,
	}
	supervisor := newSupervisor(fake, Config{}.withDefaults())

	st := newTestState(t, "that seems expensive")
	if err := supervisor.Review(context.Background(), st); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if st.NextAction != statex.NextNegotiator {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	if st.Sentiment != statex.SentimentNeutral {
		t.Fatalf("unexpected sentiment: %s", st.Sentiment)
	}
	if len(st.KeyInsights) != 1 {
		t.Fatalf("expected analysis insight, got %#v", st.KeyInsights)
	}
}

func TestReviewGoalAchievedRoutesToCRM(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{"prospect_sentiment":"positive","goal_achieved":true,"next_agent":"none"}`,
	}
	supervisor := newSupervisor(fake, Config{}.withDefaults())

	st := newTestState(t, "let's book the assessment")
	if err := supervisor.Review(context.Background(), st); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if st.NextAction != statex.NextCRM {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	if st.Sentiment != statex.SentimentPositive {
		t.Fatalf("unexpected sentiment: %s", st.Sentiment)
	}
}

func TestReviewCloseWithEscalationSetsFlag(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{"should_close":true,"should_escalate":true,"next_agent":"none"}`,
	}
	supervisor := newSupervisor(fake, Config{}.withDefaults())

	st := newTestState(t, "this is a big strategic program")
	if err := supervisor.Review(context.Background(), st); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if !st.Escalated {
		t.Fatal("expected escalated flag")
	}
	if st.NextAction != statex.NextCRM {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
}

func TestReviewEscalationWithoutCloseRoutesToEscalate(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{"should_escalate":true,"next_agent":"negotiator"}`,
	}
	supervisor := newSupervisor(fake, Config{}.withDefaults())

	st := newTestState(t, "I need to speak to the founder")
	if err := supervisor.Review(context.Background(), st); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if !st.Escalated || st.NextAction != statex.NextEscalate {
		t.Fatalf("expected escalation, got escalated=%v next=%s", st.Escalated, st.NextAction)
	}
}

func TestReviewUnknownAgentWaits(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{"next_agent":"astrologer"}`,
	}
	supervisor := newSupervisor(fake, Config{}.withDefaults())

	st := newTestState(t, "hmm")
	if err := supervisor.Review(context.Background(), st); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if st.NextAction != statex.NextWaitForResponse {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
}

func TestReviewParseFailureWaits(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{reply: "the conversation is going fine"}
	supervisor := newSupervisor(fake, Config{}.withDefaults())

	st := newTestState(t, "ok")
	if err := supervisor.Review(context.Background(), st); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if st.NextAction != statex.NextWaitForResponse {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	if len(st.Messages) != 1 {
		t.Fatalf("degraded review must not append messages, got %d", len(st.Messages))
	}
}
