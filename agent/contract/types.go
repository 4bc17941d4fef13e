package contract

import (
	statex "github.com/iafluence/agentic-seller/agent/state"
)

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeSeller     AgentType = "seller"
	AgentTypeNegotiator AgentType = "negotiator"
	AgentTypeSupervisor AgentType = "supervisor"
	AgentTypeCRM        AgentType = "crm"
)

// CompletionRequest is what a role hands to the completion service: a bag of
// named context values plus a window of recent conversation. The service
// returns free text; nothing about its shape is guaranteed.
type CompletionRequest struct {
	Context map[string]any   `json:"context"`
	History []statex.Message `json:"history,omitempty"`
}

// ClassifierReply is the structured payload expected back from the
// classification prompt.
type ClassifierReply struct {
	LeadType         string   `json:"lead_type"`
	Sector           string   `json:"sector,omitempty"`
	CompanySize      string   `json:"company_size,omitempty"`
	DecisionMaker    bool     `json:"decision_maker,omitempty"`
	AIMaturity       string   `json:"ai_maturity,omitempty"`
	PainPoints       []string `json:"pain_points,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	LeadScore        float64  `json:"lead_score"`
	Reasoning        string   `json:"reasoning,omitempty"`
	KeyInsights      []string `json:"key_insights,omitempty"`
	RecommendedOffer string   `json:"recommended_offer,omitempty"`
}

// OfferReply mirrors statex.Offer on the wire, produced by the seller and
// negotiator prompts.
type OfferReply struct {
	OfferType  string   `json:"offer_type"`
	Price      float64  `json:"price"`
	Discount   float64  `json:"discount,omitempty"`
	Duration   string   `json:"duration,omitempty"`
	Commitment string   `json:"commitment,omitempty"`
	Items      []string `json:"items,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

type SellerReply struct {
	Offer     OfferReply `json:"offer"`
	NextStep  string     `json:"next_step,omitempty"`
	Pitch     string     `json:"pitch"`
	Reasoning string     `json:"reasoning,omitempty"`
}

type NegotiatorReply struct {
	ObjectionCategory string      `json:"objection_category,omitempty"`
	ObjectionSummary  string      `json:"objection_summary,omitempty"`
	ResponseStrategy  string      `json:"response_strategy,omitempty"`
	AdjustedOffer     *OfferReply `json:"adjusted_offer,omitempty"`
	Response          string      `json:"response"`
	ShouldEscalate    bool        `json:"should_escalate,omitempty"`
	EscalationReason  string      `json:"escalation_reason,omitempty"`
}

type SupervisorReply struct {
	Analysis              string  `json:"analysis,omitempty"`
	ProspectSentiment     string  `json:"prospect_sentiment,omitempty"`
	GoalAchieved          bool    `json:"goal_achieved,omitempty"`
	ConversionProbability float64 `json:"conversion_probability,omitempty"`
	NextAgent             string  `json:"next_agent,omitempty"`
	ShouldEscalate        bool    `json:"should_escalate,omitempty"`
	ShouldClose           bool    `json:"should_close,omitempty"`
	Reasoning             string  `json:"reasoning,omitempty"`
	RecommendedAction     string  `json:"recommended_action,omitempty"`
}

// CRMRecord is the snapshot handed to the external CRM at close.
type CRMRecord struct {
	SessionID         string          `json:"session_id"`
	Timestamp         string          `json:"timestamp"`
	LeadInfo          statex.LeadInfo `json:"lead_info"`
	LeadType          string          `json:"lead_type,omitempty"`
	LeadScore         float64         `json:"lead_score"`
	Qualified         bool            `json:"qualified"`
	Converted         bool            `json:"converted"`
	Escalated         bool            `json:"escalated"`
	OffersMade        []statex.Offer  `json:"offers_made,omitempty"`
	FinalOffer        *statex.Offer   `json:"final_offer,omitempty"`
	Objections        []string        `json:"objections,omitempty"`
	NegotiationRounds int             `json:"negotiation_rounds"`
	KeyInsights       []string        `json:"key_insights,omitempty"`
	Sentiment         string          `json:"sentiment,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	FollowUpTasks     []string        `json:"follow_up_tasks,omitempty"`
}
