package llm

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/iafluence/agentic-seller/agent/contract"
	promptx "github.com/iafluence/agentic-seller/agent/prompt"
	statex "github.com/iafluence/agentic-seller/agent/state"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "sk-or-test", Model: "openai/gpt-4o-mini"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.APIKey = "  "
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	cfg = Config{APIKey: "sk-or-test"}
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() without model error = %v, want ErrValidation", err)
	}
}

func TestOpenRouterForAppliesRoleOverride(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:            "sk-or-test",
		Model:             "openai/gpt-4o-mini",
		Temperature:       0.7,
		NegotiatorModel:   "anthropic/claude-sonnet",
		SellerTemperature: 0.2,

		ClassifierTemperature: -1,
		NegotiatorTemperature: -1,
		SupervisorTemperature: -1,
	}

	got := cfg.OpenRouterFor(contractx.AgentTypeNegotiator)
	if got.Model != "anthropic/claude-sonnet" {
		t.Fatalf("negotiator model = %q, want override", got.Model)
	}
	if got.Temperature != 0.7 {
		t.Fatalf("negotiator temperature = %v, want inherited 0.7", got.Temperature)
	}

	got = cfg.OpenRouterFor(contractx.AgentTypeSeller)
	if got.Model != "openai/gpt-4o-mini" {
		t.Fatalf("seller model = %q, want default", got.Model)
	}
	if got.Temperature != 0.2 {
		t.Fatalf("seller temperature = %v, want override 0.2", got.Temperature)
	}

	got = cfg.OpenRouterFor(contractx.AgentTypeClassifier)
	if got.Model != "openai/gpt-4o-mini" || got.Temperature != 0.7 {
		t.Fatalf("classifier config = %q/%v, want defaults", got.Model, got.Temperature)
	}
}

func TestNewCompleterRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "sk-or-test", Model: "openai/gpt-4o-mini"}
	_, err := NewCompleter(context.Background(), cfg, contractx.AgentTypeSeller, "   ")
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("NewCompleter() error = %v, want ErrPromptMissing", err)
	}
}

func TestChatTemplateRendersEmbeddedPrompts(t *testing.T) {
	t.Parallel()

	prompts := promptx.LoadPromptSet()
	cases := map[string]string{
		"classifier": prompts.Classifier,
		"seller":     prompts.Seller,
		"negotiator": prompts.Negotiator,
		"supervisor": prompts.Supervisor,
	}

	input := `{"context":{"latest_message":"hello"},"history":[]}`
	for name, systemPrompt := range cases {
		msgs, err := newChatTemplate(systemPrompt).Format(context.Background(), map[string]any{"input": input})
		if err != nil {
			t.Fatalf("%s: Format() error = %v", name, err)
		}
		if len(msgs) != 2 {
			t.Fatalf("%s: expected 2 messages, got %d", name, len(msgs))
		}
		if msgs[0].Content != systemPrompt {
			t.Fatalf("%s: system prompt changed by rendering:\n%s", name, msgs[0].Content)
		}
		if msgs[1].Content != input {
			t.Fatalf("%s: user turn = %q, want payload verbatim", name, msgs[1].Content)
		}
	}
}

func TestFormatHistoryTagsSpeakers(t *testing.T) {
	t.Parallel()

	history := []statex.Message{
		{Role: statex.RoleProspect, Content: "Bonjour"},
		{Role: statex.RoleAgent, Content: "Welcome", Metadata: map[string]any{"agent": "seller"}},
		{Role: statex.RoleAgent, Content: "Scored", Metadata: map[string]any{"agent": ""}},
	}

	lines := formatHistory(history)
	want := []string{"PROSPECT: Bonjour", "AGENT/seller: Welcome", "AGENT: Scored"}
	if len(lines) != len(want) {
		t.Fatalf("formatHistory() returned %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
