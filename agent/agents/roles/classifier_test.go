package roles

import (
	"context"
	"errors"
	"testing"

	statex "github.com/iafluence/agentic-seller/agent/state"
)

func TestClassifyQualifiedLead(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{
			"lead_type": "hot",
			"sector": "tech",
			"company_size": "sme",
			"decision_maker": true,
			"ai_maturity": "explorer",
			"pain_points": ["shadow AI"],
			"interests": ["training"],
			"lead_score": 85,
			"key_insights": ["urgent need"],
			"recommended_offer": "assessment"
		}`,
	}
	classifier := newClassifier(fake, Config{}.withDefaults())

	st := newTestState(t, "We urgently need help with uncontrolled ChatGPT usage")
	if err := classifier.Classify(context.Background(), st); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if st.LeadType != statex.LeadHot {
		t.Fatalf("unexpected lead type: %s", st.LeadType)
	}
	if st.LeadScore != 85 {
		t.Fatalf("unexpected lead score: %v", st.LeadScore)
	}
	if !st.Qualified {
		t.Fatal("expected qualified lead")
	}
	if st.NextAction != statex.NextSeller {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	if st.LeadInfo.Sector != "tech" || !st.LeadInfo.DecisionMaker {
		t.Fatalf("lead info not merged: %#v", st.LeadInfo)
	}
	if len(st.KeyInsights) != 1 || st.KeyInsights[0] != "urgent need" {
		t.Fatalf("unexpected insights: %#v", st.KeyInsights)
	}
	if st.CurrentAgent != "classifier" {
		t.Fatalf("unexpected current agent: %s", st.CurrentAgent)
	}
}

func TestClassifyUnqualifiedFollowsConfiguredRoute(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{"lead_type":"cold","lead_score":15}`,
	}
	classifier := newClassifier(fake, Config{UnqualifiedRoute: statex.NextSupervisor}.withDefaults())

	st := newTestState(t, "just curious what AI is")
	if err := classifier.Classify(context.Background(), st); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if st.Qualified {
		t.Fatal("expected unqualified lead")
	}
	if st.NextAction != statex.NextSupervisor {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
}

func TestClassifyScoreClampedAndTypeInferred(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{
		reply: `{"lead_type":"volcanic","lead_score":250}`,
	}
	classifier := newClassifier(fake, Config{}.withDefaults())

	st := newTestState(t, "we need everything now")
	if err := classifier.Classify(context.Background(), st); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if st.LeadScore != 100 {
		t.Fatalf("expected clamped score 100, got %v", st.LeadScore)
	}
	if st.LeadType != statex.LeadHot {
		t.Fatalf("expected inferred hot lead, got %s", st.LeadType)
	}
}

func TestClassifyParseFailureDegrades(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{reply: "I think this lead looks promising."}
	classifier := newClassifier(fake, Config{}.withDefaults())

	st := newTestState(t, "hello")
	st.LeadScore = 50
	st.Qualified = true

	if err := classifier.Classify(context.Background(), st); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if st.Qualified {
		t.Fatal("expected degraded state to be unqualified")
	}
	if st.LeadScore != 0 {
		t.Fatalf("expected degraded score 0, got %v", st.LeadScore)
	}
	if st.NextAction != statex.NextSeller {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Role != statex.RoleAgent || last.Content != fake.reply {
		t.Fatalf("expected raw reply appended, got %#v", last)
	}
	if last.Metadata["error"] != "parse_failed" {
		t.Fatalf("expected parse_failed marker, got %#v", last.Metadata)
	}
}

func TestClassifyModelFailureDegrades(t *testing.T) {
	t.Parallel()

	classifier := newClassifier(&fakeCompleter{err: errors.New("model unavailable")}, Config{}.withDefaults())

	st := newTestState(t, "hello")
	if err := classifier.Classify(context.Background(), st); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if st.Qualified {
		t.Fatal("expected degraded state to be unqualified")
	}
	if st.NextAction != statex.NextSeller {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Content != degradedFallback {
		t.Fatalf("expected fallback message, got %q", last.Content)
	}
	if last.Metadata["error"] != "completion_failed" {
		t.Fatalf("expected completion_failed marker, got %#v", last.Metadata)
	}
}

func TestClassifySendsHistoryWindow(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{reply: `{"lead_type":"warm","lead_score":50}`}
	classifier := newClassifier(fake, Config{HistoryWindow: 2}.withDefaults())

	st := newTestState(t, "first")
	st.AppendMessage(statex.RoleAgent, "reply", map[string]any{"agent": "seller"}, st.UpdatedAt)
	st.AppendMessage(statex.RoleProspect, "second", nil, st.UpdatedAt)

	if err := classifier.Classify(context.Background(), st); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(fake.lastReq.History) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(fake.lastReq.History))
	}
	if fake.lastReq.Context["latest_message"] != "second" {
		t.Fatalf("unexpected latest message: %#v", fake.lastReq.Context["latest_message"])
	}
}
