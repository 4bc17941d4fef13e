package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

// recorderImpl closes a conversation without any model call: it snapshots the
// state into a CRM record, pushes it, and leaves a closing message matched to
// the outcome.
type recorderImpl struct {
	sink contractx.RecordSink
	cfg  Config
	now  func() time.Time
}

var _ contractx.Recorder = (*recorderImpl)(nil)

func newRecorder(sink contractx.RecordSink, cfg Config) *recorderImpl {
	return &recorderImpl{sink: sink, cfg: cfg, now: time.Now}
}

func (r *recorderImpl) Record(ctx context.Context, st *statex.ConversationState) error {
	st.SetAgent(string(contractx.AgentTypeCRM))

	record := r.buildRecord(st)
	if err := r.sink.Push(ctx, record); err != nil {
		// A sink outage must not strand the conversation open; the record is
		// recoverable from the persisted state.
		log.Error().Err(err).Str("session_id", st.SessionID).Msg("crm sink push failed")
		st.CRMSynced = false
	} else {
		st.CRMSynced = true
	}

	st.AppendMessage(statex.RoleAgent, r.closingMessage(st), map[string]any{
		"agent":  string(contractx.AgentTypeCRM),
		"synced": st.CRMSynced,
	}, r.now())

	st.Closed = true
	st.NextAction = statex.NextEnd

	log.Info().
		Str("session_id", st.SessionID).
		Bool("converted", st.Converted).
		Bool("escalated", st.Escalated).
		Bool("crm_synced", st.CRMSynced).
		Msg("conversation closed")
	return nil
}

func (r *recorderImpl) buildRecord(st *statex.ConversationState) contractx.CRMRecord {
	record := contractx.CRMRecord{
		SessionID:         st.SessionID,
		Timestamp:         r.now().UTC().Format(time.RFC3339),
		LeadInfo:          st.LeadInfo,
		LeadType:          string(st.LeadType),
		LeadScore:         st.LeadScore,
		Qualified:         st.Qualified,
		Converted:         st.Converted,
		Escalated:         st.Escalated,
		OffersMade:        st.OffersMade,
		Objections:        st.Objections,
		NegotiationRounds: st.NegotiationCount,
		KeyInsights:       st.KeyInsights,
		Sentiment:         string(st.Sentiment),
		Summary:           summarize(st),
		FollowUpTasks:     r.followUpTasks(st),
	}
	if offer, ok := st.CurrentOffer(); ok {
		record.FinalOffer = &offer
	}
	return record
}

func summarize(st *statex.ConversationState) string {
	status := "unqualified"
	switch {
	case st.Converted:
		status = "converted"
	case st.Escalated:
		status = "escalated"
	case st.Qualified:
		status = "qualified"
	}

	maturity := st.LeadInfo.AIMaturity
	if maturity == "" {
		maturity = "unknown"
	}
	offer := st.LeadInfo.RecommendedOffer
	if offer == "" {
		offer = "assessment"
	}

	return fmt.Sprintf("%s | score: %.0f | ai maturity: %s | recommended offer: %s | messages: %d",
		status, st.LeadScore, maturity, offer, len(st.Messages))
}

func (r *recorderImpl) followUpTasks(st *statex.ConversationState) []string {
	c := r.cfg.Contact
	var tasks []string

	switch {
	case st.Converted:
		tasks = append(tasks,
			"Send meeting confirmation for the assessment call",
			"Send a preparation email ahead of the assessment",
			"Call to confirm the time slot: "+c.Phone,
		)
		if st.LeadInfo.RecommendedOffer != "" {
			tasks = append(tasks, "Draft a "+st.LeadInfo.RecommendedOffer+" proposal")
		}
	case st.Escalated:
		tasks = append(tasks,
			c.Founder+" to call back within 24 hours",
			"Prepare a tailored proposal",
		)
		if len(st.Objections) > 0 {
			tasks = append(tasks, "Address the objections: "+strings.Join(lastN(st.Objections, 3), ", "))
		}
		switch st.LeadInfo.CompanySize {
		case "mid_market", "enterprise":
			tasks = append(tasks, "Prepare a dedicated mid-market/enterprise offer")
		}
	case st.Qualified:
		tasks = append(tasks,
			"Send a follow-up email in 3-5 days",
			"Send documentation matched to the sector",
		)
		if len(st.LeadInfo.PainPoints) > 0 {
			tasks = append(tasks, "Target content on: "+strings.Join(lastN(st.LeadInfo.PainPoints, 2), ", "))
		}
	default:
		tasks = append(tasks,
			"Add to the newsletter",
			"Follow up in 30 days",
			"Connect on LinkedIn",
		)
	}

	return tasks
}

func (r *recorderImpl) closingMessage(st *statex.ConversationState) string {
	c := r.cfg.Contact
	switch {
	case st.Converted:
		return fmt.Sprintf("Great, I have noted your interest in working with us. "+
			"To schedule your free assessment with %s, our founder, you can book a slot directly (%s), "+
			"email us (%s) or call us (%s). %s will get back to you within 24 hours to prepare the session. "+
			"Talk soon!",
			c.Founder, c.Calendar, c.Email, c.Phone, c.Founder)
	case st.Escalated:
		return fmt.Sprintf("I have noted your specific requirements. %s, our founder, will call you back "+
			"personally within 24 hours to discuss a tailored engagement. In the meantime you can book a slot "+
			"directly (%s), call (%s) or write (%s). Talk soon!",
			c.Founder, c.Calendar, c.Phone, c.Email)
	default:
		return fmt.Sprintf("Thank you for the conversation! If you would like to pick this up again, "+
			"feel free to reach out to %s by email (%s), by phone (%s) or book a slot directly (%s).",
			c.Founder, c.Email, c.Phone, c.Calendar)
	}
}
