package roles

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

type supervisorImpl struct {
	completer contractx.Completer
	cfg       Config
	now       func() time.Time
}

var _ contractx.Supervisor = (*supervisorImpl)(nil)

func newSupervisor(completer contractx.Completer, cfg Config) *supervisorImpl {
	return &supervisorImpl{completer: completer, cfg: cfg, now: time.Now}
}

func (s *supervisorImpl) Review(ctx context.Context, st *statex.ConversationState) error {
	raw, err := s.completer.Complete(ctx, contractx.CompletionRequest{
		Context: map[string]any{
			"latest_message":    st.LatestProspectMessage(),
			"lead_type":         st.LeadType,
			"lead_score":        st.LeadScore,
			"qualified":         st.Qualified,
			"offers_made":       len(st.OffersMade),
			"objections":        len(st.Objections),
			"negotiation_count": st.NegotiationCount,
			"converted":         st.Converted,
			"escalated":         st.Escalated,
			"last_agent":        st.CurrentAgent,
		},
		History: st.HistoryWindow(s.cfg.HistoryWindow),
	})
	st.SetAgent(string(contractx.AgentTypeSupervisor))

	var reply *contractx.SupervisorReply
	if err == nil {
		reply, err = decodeReply[contractx.SupervisorReply](raw)
	}
	if err != nil {
		// An unreadable or failed review must not derail the conversation;
		// wait for the prospect instead.
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("supervisor reply unusable")
		st.NextAction = statex.NextWaitForResponse
		return nil
	}

	st.Sentiment = normalizeSentiment(reply.ProspectSentiment)
	if analysis := strings.TrimSpace(reply.Analysis); analysis != "" {
		st.AddInsight("supervisor: "+analysis, s.now())
	}

	switch {
	case reply.GoalAchieved || reply.ShouldClose:
		if reply.ShouldEscalate {
			st.Escalated = true
		}
		st.NextAction = statex.NextCRM
	case reply.ShouldEscalate:
		st.Escalated = true
		st.NextAction = statex.NextEscalate
	default:
		st.NextAction = routeFromAgent(reply.NextAgent)
	}

	log.Info().
		Str("session_id", st.SessionID).
		Str("sentiment", string(st.Sentiment)).
		Float64("conversion_probability", reply.ConversionProbability).
		Str("next_action", string(st.NextAction)).
		Msg("conversation reviewed")
	return nil
}

func routeFromAgent(nextAgent string) statex.NextAction {
	switch strings.ToLower(strings.TrimSpace(nextAgent)) {
	case "classifier":
		return statex.NextClassifier
	case "seller":
		return statex.NextSeller
	case "negotiator":
		return statex.NextNegotiator
	case "crm":
		return statex.NextCRM
	}
	return statex.NextWaitForResponse
}

func normalizeSentiment(raw string) statex.Sentiment {
	switch statex.Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case statex.SentimentPositive:
		return statex.SentimentPositive
	case statex.SentimentNegative:
		return statex.SentimentNegative
	}
	return statex.SentimentNeutral
}
