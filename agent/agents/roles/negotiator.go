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

type negotiatorImpl struct {
	completer contractx.Completer
	cfg       Config
	now       func() time.Time
}

var _ contractx.Negotiator = (*negotiatorImpl)(nil)

func newNegotiator(completer contractx.Completer, cfg Config) *negotiatorImpl {
	return &negotiatorImpl{completer: completer, cfg: cfg, now: time.Now}
}

func (n *negotiatorImpl) Negotiate(ctx context.Context, st *statex.ConversationState) error {
	// Round cap reached: hand off to a human without another model call.
	if st.NegotiationCount >= n.cfg.MaxNegotiationRounds {
		st.SetAgent(string(contractx.AgentTypeNegotiator))
		st.Escalated = true
		st.AppendMessage(statex.RoleAgent, n.handoffMessage(), map[string]any{
			"agent":  string(contractx.AgentTypeNegotiator),
			"action": "escalate",
		}, n.now())
		st.NextAction = statex.NextEscalate
		log.Info().
			Str("session_id", st.SessionID).
			Int("negotiation_count", st.NegotiationCount).
			Msg("negotiation round cap reached, escalating")
		return nil
	}

	currentOffer, _ := st.CurrentOffer()
	raw, err := n.completer.Complete(ctx, contractx.CompletionRequest{
		Context: map[string]any{
			"latest_message":    st.LatestProspectMessage(),
			"current_offer":     currentOffer,
			"objections":        lastN(st.Objections, 3),
			"negotiation_round": st.NegotiationCount + 1,
			"lead_info":         st.LeadInfo,
			"lead_score":        st.LeadScore,
		},
		History: st.HistoryWindow(n.cfg.HistoryWindow),
	})
	st.SetAgent(string(contractx.AgentTypeNegotiator))
	// The attempt is consumed even when the reply is unusable.
	st.NegotiationCount++

	var reply *contractx.NegotiatorReply
	if err == nil {
		reply, err = decodeReply[contractx.NegotiatorReply](raw)
	}
	if err != nil || strings.TrimSpace(reply.Response) == "" {
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("negotiator reply unusable")
		st.AppendMessage(statex.RoleAgent, degradedContent(raw), map[string]any{
			"agent": string(contractx.AgentTypeNegotiator),
			"error": degradeReason(raw),
		}, n.now())
		st.NextAction = statex.NextWaitForResponse
		return nil
	}

	objection := strings.TrimSpace(reply.ObjectionSummary)
	if objection == "" {
		objection = st.LatestProspectMessage()
	}
	st.AddObjection(objection, n.now())

	if reply.AdjustedOffer != nil {
		adjusted := statex.Offer{
			OfferType:  reply.AdjustedOffer.OfferType,
			Price:      reply.AdjustedOffer.Price,
			Discount:   clamp(reply.AdjustedOffer.Discount, 0, n.cfg.MaxDiscountPercent),
			Duration:   reply.AdjustedOffer.Duration,
			Commitment: reply.AdjustedOffer.Commitment,
			Items:      reply.AdjustedOffer.Items,
			Conditions: reply.AdjustedOffer.Conditions,
		}
		st.RecordOffer(adjusted, n.now())
	}

	st.AppendMessage(statex.RoleAgent, reply.Response, map[string]any{
		"agent":              string(contractx.AgentTypeNegotiator),
		"objection_category": reply.ObjectionCategory,
		"negotiation_round":  st.NegotiationCount,
	}, n.now())

	if reply.ShouldEscalate {
		st.Escalated = true
		reason := strings.TrimSpace(reply.EscalationReason)
		if reason == "" {
			reason = "unspecified"
		}
		st.AddInsight("escalation requested: "+reason, n.now())
		st.NextAction = statex.NextEscalate
	} else {
		st.NextAction = statex.NextWaitForResponse
	}

	log.Info().
		Str("session_id", st.SessionID).
		Str("objection_category", reply.ObjectionCategory).
		Int("negotiation_count", st.NegotiationCount).
		Bool("escalated", st.Escalated).
		Msg("negotiation round handled")
	return nil
}

func (n *negotiatorImpl) handoffMessage() string {
	c := n.cfg.Contact
	return fmt.Sprintf("I understand your concerns and I genuinely want to find terms that work for you. "+
		"Let me set up a direct conversation with %s, our founder, who can put together a fully tailored engagement. "+
		"Would you be available for a 30-minute call this week? You can also book a slot directly: %s",
		c.Founder, c.Calendar)
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
