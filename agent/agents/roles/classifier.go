package roles

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

type classifierImpl struct {
	completer contractx.Completer
	cfg       Config
	now       func() time.Time
}

var _ contractx.Classifier = (*classifierImpl)(nil)

func newClassifier(completer contractx.Completer, cfg Config) *classifierImpl {
	return &classifierImpl{completer: completer, cfg: cfg, now: time.Now}
}

func (c *classifierImpl) Classify(ctx context.Context, st *statex.ConversationState) error {
	raw, err := c.completer.Complete(ctx, contractx.CompletionRequest{
		Context: map[string]any{
			"latest_message": st.LatestProspectMessage(),
			"lead_info":      st.LeadInfo,
			"lead_score":     st.LeadScore,
		},
		History: st.HistoryWindow(c.cfg.HistoryWindow),
	})
	st.SetAgent(string(contractx.AgentTypeClassifier))

	var reply *contractx.ClassifierReply
	if err == nil {
		reply, err = decodeReply[contractx.ClassifierReply](raw)
	}
	if err != nil {
		// Classification failed: treat the lead as unqualified but keep the
		// conversation moving through the seller. Completion failures degrade
		// the same way, never the turn itself.
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("classifier reply unusable")
		st.Qualified = false
		st.LeadScore = 0
		st.AppendMessage(statex.RoleAgent, degradedContent(raw), map[string]any{
			"agent": string(contractx.AgentTypeClassifier),
			"error": degradeReason(raw),
		}, c.now())
		st.NextAction = statex.NextSeller
		return nil
	}

	st.LeadInfo.Merge(statex.LeadInfo{
		Sector:           reply.Sector,
		CompanySize:      reply.CompanySize,
		DecisionMaker:    reply.DecisionMaker,
		AIMaturity:       reply.AIMaturity,
		PainPoints:       reply.PainPoints,
		Interests:        reply.Interests,
		RecommendedOffer: reply.RecommendedOffer,
	})

	st.LeadScore = clamp(reply.LeadScore, 0, 100)
	st.LeadType = normalizeLeadType(reply.LeadType, st.LeadScore)
	st.Qualified = st.LeadScore >= c.cfg.QualificationThreshold

	for _, insight := range reply.KeyInsights {
		st.AddInsight(insight, c.now())
	}

	if st.Qualified {
		st.NextAction = statex.NextSeller
	} else {
		st.NextAction = c.cfg.UnqualifiedRoute
	}

	log.Info().
		Str("session_id", st.SessionID).
		Str("lead_type", string(st.LeadType)).
		Float64("lead_score", st.LeadScore).
		Bool("qualified", st.Qualified).
		Msg("prospect classified")
	return nil
}

// normalizeLeadType falls back to the score bands when the model invents a
// label outside the closed set.
func normalizeLeadType(raw string, score float64) statex.LeadType {
	switch statex.LeadType(strings.ToLower(strings.TrimSpace(raw))) {
	case statex.LeadHot:
		return statex.LeadHot
	case statex.LeadWarm:
		return statex.LeadWarm
	case statex.LeadCold:
		return statex.LeadCold
	}
	switch {
	case score >= 70:
		return statex.LeadHot
	case score >= 40:
		return statex.LeadWarm
	default:
		return statex.LeadCold
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
