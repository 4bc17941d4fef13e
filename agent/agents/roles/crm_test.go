package roles

import (
	"context"
	"errors"
	"strings"
	"testing"

	statex "github.com/iafluence/agentic-seller/agent/state"
)

func TestRecordConvertedConversation(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	recorder := newRecorder(sink, Config{}.withDefaults())

	st := newTestState(t, "ok let's do it")
	st.LeadType = statex.LeadHot
	st.LeadScore = 85
	st.Qualified = true
	st.Converted = true
	st.LeadInfo.RecommendedOffer = "strategy"
	st.RecordOffer(statex.Offer{OfferType: "strategy", Price: 3500, Discount: 10}, st.UpdatedAt)

	if err := recorder.Record(context.Background(), st); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 pushed record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if !record.Converted || record.LeadScore != 85 {
		t.Fatalf("unexpected record: %#v", record)
	}
	if record.FinalOffer == nil || record.FinalOffer.OfferType != "strategy" {
		t.Fatalf("expected final offer, got %#v", record.FinalOffer)
	}
	if !strings.HasPrefix(record.Summary, "converted |") {
		t.Fatalf("unexpected summary: %s", record.Summary)
	}
	if len(record.FollowUpTasks) != 4 {
		t.Fatalf("unexpected tasks: %#v", record.FollowUpTasks)
	}

	if !st.CRMSynced || !st.Closed {
		t.Fatalf("expected synced and closed, got synced=%v closed=%v", st.CRMSynced, st.Closed)
	}
	if st.NextAction != statex.NextEnd {
		t.Fatalf("unexpected next action: %s", st.NextAction)
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Role != statex.RoleAgent || !strings.Contains(last.Content, "free assessment") {
		t.Fatalf("unexpected closing message: %#v", last)
	}
}

func TestRecordEscalatedTasksListObjections(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	recorder := newRecorder(sink, Config{}.withDefaults())

	st := newTestState(t, "I need something custom")
	st.Qualified = true
	st.Escalated = true
	st.LeadInfo.CompanySize = "enterprise"
	st.Objections = []string{"price", "timing", "trust", "competition"}

	if err := recorder.Record(context.Background(), st); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	record := sink.records[0]
	joined := strings.Join(record.FollowUpTasks, "\n")
	if !strings.Contains(joined, "call back within 24 hours") {
		t.Fatalf("expected callback task, got %#v", record.FollowUpTasks)
	}
	if !strings.Contains(joined, "timing, trust, competition") {
		t.Fatalf("expected last three objections, got %#v", record.FollowUpTasks)
	}
	if !strings.Contains(joined, "mid-market/enterprise") {
		t.Fatalf("expected enterprise task, got %#v", record.FollowUpTasks)
	}
	if !strings.HasPrefix(record.Summary, "escalated |") {
		t.Fatalf("unexpected summary: %s", record.Summary)
	}
}

func TestRecordUnqualifiedNurtureTasks(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	recorder := newRecorder(sink, Config{}.withDefaults())

	st := newTestState(t, "just looking around")

	if err := recorder.Record(context.Background(), st); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	record := sink.records[0]
	if len(record.FollowUpTasks) != 3 {
		t.Fatalf("unexpected tasks: %#v", record.FollowUpTasks)
	}
	if !strings.HasPrefix(record.Summary, "unqualified |") {
		t.Fatalf("unexpected summary: %s", record.Summary)
	}
}

func TestRecordSinkFailureStillCloses(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{err: errors.New("webhook down")}
	recorder := newRecorder(sink, Config{}.withDefaults())

	st := newTestState(t, "bye")
	if err := recorder.Record(context.Background(), st); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if st.CRMSynced {
		t.Fatal("expected crm_synced false after sink failure")
	}
	if !st.Closed || st.NextAction != statex.NextEnd {
		t.Fatalf("expected closed state, got closed=%v next=%s", st.Closed, st.NextAction)
	}
}
