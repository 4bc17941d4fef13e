package roles

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

type sellerImpl struct {
	completer contractx.Completer
	cfg       Config
	now       func() time.Time
}

var _ contractx.Seller = (*sellerImpl)(nil)

func newSeller(completer contractx.Completer, cfg Config) *sellerImpl {
	return &sellerImpl{completer: completer, cfg: cfg, now: time.Now}
}

func (s *sellerImpl) Sell(ctx context.Context, st *statex.ConversationState) error {
	raw, err := s.completer.Complete(ctx, contractx.CompletionRequest{
		Context: map[string]any{
			"latest_message": st.LatestProspectMessage(),
			"lead_info":      st.LeadInfo,
			"lead_score":     st.LeadScore,
			"objections":     st.Objections,
		},
		History: st.HistoryWindow(s.cfg.HistoryWindow),
	})
	st.SetAgent(string(contractx.AgentTypeSeller))

	var reply *contractx.SellerReply
	if err == nil {
		reply, err = decodeReply[contractx.SellerReply](raw)
	}
	if err != nil || strings.TrimSpace(reply.Pitch) == "" {
		// No structured offer: surface what text there is so the prospect
		// still gets an answer, but record nothing.
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("seller reply unusable")
		st.AppendMessage(statex.RoleAgent, degradedContent(raw), map[string]any{
			"agent": string(contractx.AgentTypeSeller),
			"error": degradeReason(raw),
		}, s.now())
		st.NextAction = statex.NextWaitForResponse
		return nil
	}

	offer := s.toOffer(reply.Offer)
	st.RecordOffer(offer, s.now())
	st.AppendMessage(statex.RoleAgent, reply.Pitch, map[string]any{
		"agent":      string(contractx.AgentTypeSeller),
		"offer_type": offer.OfferType,
		"next_step":  reply.NextStep,
	}, s.now())
	st.NextAction = statex.NextWaitForResponse

	log.Info().
		Str("session_id", st.SessionID).
		Str("offer_type", offer.OfferType).
		Float64("price", offer.Price).
		Float64("discount", offer.Discount).
		Msg("offer presented")
	return nil
}

// toOffer converts the wire offer, clamping the discount to the configured
// ceiling regardless of what the model proposed.
func (s *sellerImpl) toOffer(r contractx.OfferReply) statex.Offer {
	return statex.Offer{
		OfferType:  r.OfferType,
		Price:      r.Price,
		Discount:   clamp(r.Discount, 0, s.cfg.MaxDiscountPercent),
		Duration:   r.Duration,
		Commitment: r.Commitment,
		Items:      r.Items,
		Conditions: r.Conditions,
	}
}
