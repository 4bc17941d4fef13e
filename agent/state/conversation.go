package state

import (
	"errors"
	"fmt"
	"time"
)

// ConversationState is the persistent source-of-truth for one prospect
// interaction. It is owned by exactly one in-flight dispatcher run at a time;
// there is no intra-session concurrency.
type ConversationState struct {
	SessionID string `json:"session_id"`

	Messages []Message `json:"messages,omitempty"`

	LeadInfo  LeadInfo `json:"lead_info"`
	LeadType  LeadType `json:"lead_type,omitempty"`
	LeadScore float64  `json:"lead_score"`

	CurrentAgent string `json:"current_agent,omitempty"`
	LastAgent    string `json:"last_agent,omitempty"`

	OffersMade       []Offer  `json:"offers_made,omitempty"`
	Objections       []string `json:"objections,omitempty"`
	NegotiationCount int      `json:"negotiation_count"`

	Qualified bool `json:"qualified"`
	Converted bool `json:"converted"`
	Escalated bool `json:"escalated"`
	Closed    bool `json:"closed"`
	CRMSynced bool `json:"crm_synced"`

	KeyInsights []string   `json:"key_insights,omitempty"`
	Sentiment   Sentiment  `json:"sentiment,omitempty"`
	NextAction  NextAction `json:"next_action,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LeadType string

const (
	LeadHot  LeadType = "hot"
	LeadWarm LeadType = "warm"
	LeadCold LeadType = "cold"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type MessageRole string

const (
	RoleProspect MessageRole = "prospect"
	RoleAgent    MessageRole = "agent"
	RoleSystem   MessageRole = "system"
)

// NextAction is the dispatcher's routing intent for the upcoming turn. It is a
// closed set: Valid() rejects anything the dispatcher does not switch on, so a
// bad token is a validation error instead of a silent fallthrough.
type NextAction string

const (
	NextUnset           NextAction = ""
	NextClassifier      NextAction = "classifier"
	NextSeller          NextAction = "seller"
	NextNegotiator      NextAction = "negotiator"
	NextSupervisor      NextAction = "supervisor"
	NextCRM             NextAction = "crm"
	NextWaitForResponse NextAction = "wait_for_response"
	NextEscalate        NextAction = "escalate"
	NextEnd             NextAction = "end"
)

func (a NextAction) Valid() bool {
	switch a {
	case NextUnset, NextClassifier, NextSeller, NextNegotiator, NextSupervisor,
		NextCRM, NextWaitForResponse, NextEscalate, NextEnd:
		return true
	}
	return false
}

type Message struct {
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// LeadInfo accumulates what the classifier learns about the prospect. Fields
// are merged key-by-key and never erased by a later classification that omits
// them.
type LeadInfo struct {
	Name             string   `json:"name,omitempty"`
	Company          string   `json:"company,omitempty"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Sector           string   `json:"sector,omitempty"`
	CompanySize      string   `json:"company_size,omitempty"`
	Budget           float64  `json:"budget,omitempty"`
	DecisionMaker    bool     `json:"decision_maker"`
	AIMaturity       string   `json:"ai_maturity,omitempty"`
	PainPoints       []string `json:"pain_points,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	RecommendedOffer string   `json:"recommended_offer,omitempty"`
}

// Merge applies non-empty fields of patch on top of the receiver. Pain points
// and interests are unioned; a patch that omits them leaves history intact.
func (l *LeadInfo) Merge(patch LeadInfo) {
	if patch.Name != "" {
		l.Name = patch.Name
	}
	if patch.Company != "" {
		l.Company = patch.Company
	}
	if patch.Email != "" {
		l.Email = patch.Email
	}
	if patch.Phone != "" {
		l.Phone = patch.Phone
	}
	if patch.Sector != "" {
		l.Sector = patch.Sector
	}
	if patch.CompanySize != "" {
		l.CompanySize = patch.CompanySize
	}
	if patch.Budget > 0 {
		l.Budget = patch.Budget
	}
	if patch.DecisionMaker {
		l.DecisionMaker = true
	}
	if patch.AIMaturity != "" {
		l.AIMaturity = patch.AIMaturity
	}
	if patch.RecommendedOffer != "" {
		l.RecommendedOffer = patch.RecommendedOffer
	}
	l.PainPoints = unionStrings(l.PainPoints, patch.PainPoints)
	l.Interests = unionStrings(l.Interests, patch.Interests)
}

func unionStrings(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range base {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range extra {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Offer is immutable once appended to OffersMade.
type Offer struct {
	OfferType  string   `json:"offer_type"`
	Price      float64  `json:"price"`
	Discount   float64  `json:"discount"`
	Duration   string   `json:"duration,omitempty"`
	Commitment string   `json:"commitment,omitempty"`
	Items      []string `json:"items,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

func (o Offer) FinalPrice() float64 {
	return o.Price * (1 - o.Discount/100)
}

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidState   = errors.New("conversation state is invalid")
)

func NewConversationState(sessionID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		Sentiment: SentimentNeutral,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// AppendMessage appends an entry to the history. Entries are never edited or
// removed afterwards.
func (s *ConversationState) AppendMessage(role MessageRole, content string, metadata map[string]any, now time.Time) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		Timestamp: now.UTC(),
	})
	s.Touch(now)
}

// LatestProspectMessage returns the content of the most recent prospect
// message, or "" when the prospect has not spoken yet.
func (s *ConversationState) LatestProspectMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleProspect {
			return s.Messages[i].Content
		}
	}
	return ""
}

// HistoryWindow returns up to the last n messages in chronological order.
func (s *ConversationState) HistoryWindow(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// CurrentOffer returns the most recent offer; offers are never replaced, only
// superseded by a later append.
func (s *ConversationState) CurrentOffer() (Offer, bool) {
	if len(s.OffersMade) == 0 {
		return Offer{}, false
	}
	return s.OffersMade[len(s.OffersMade)-1], true
}

// RecordOffer appends an offer, making it current.
func (s *ConversationState) RecordOffer(o Offer, now time.Time) {
	s.OffersMade = append(s.OffersMade, o)
	s.Touch(now)
}

func (s *ConversationState) AddObjection(summary string, now time.Time) {
	if summary == "" {
		return
	}
	s.Objections = append(s.Objections, summary)
	s.Touch(now)
}

func (s *ConversationState) AddInsight(insight string, now time.Time) {
	if insight == "" {
		return
	}
	s.KeyInsights = append(s.KeyInsights, insight)
	s.Touch(now)
}

// SetAgent records which role is acting, keeping the previous one around for
// supervisor context and loop diagnostics.
func (s *ConversationState) SetAgent(name string) {
	s.LastAgent = s.CurrentAgent
	s.CurrentAgent = name
}

// Validate checks the structural invariants a state must satisfy before it is
// persisted or acted on.
func (s *ConversationState) Validate() error {
	if s.SessionID == "" {
		return ErrInvalidSession
	}
	if s.LeadScore < 0 || s.LeadScore > 100 {
		return fmt.Errorf("%w: lead_score=%v out of range", ErrInvalidState, s.LeadScore)
	}
	if s.NegotiationCount < 0 {
		return fmt.Errorf("%w: negotiation_count=%d", ErrInvalidState, s.NegotiationCount)
	}
	if !s.NextAction.Valid() {
		return fmt.Errorf("%w: unknown next_action=%q", ErrInvalidState, s.NextAction)
	}
	switch s.LeadType {
	case "", LeadHot, LeadWarm, LeadCold:
	default:
		return fmt.Errorf("%w: unknown lead_type=%q", ErrInvalidState, s.LeadType)
	}
	if s.Closed && s.NextAction != NextEnd {
		return fmt.Errorf("%w: closed state must end, got next_action=%q", ErrInvalidState, s.NextAction)
	}
	return nil
}
