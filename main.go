package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iafluence/agentic-seller/agent/agents/dispatcher"
	"github.com/iafluence/agentic-seller/agent/agents/roles"
	contractx "github.com/iafluence/agentic-seller/agent/contract"
	llmx "github.com/iafluence/agentic-seller/agent/llm"
	statex "github.com/iafluence/agentic-seller/agent/state"
	configx "github.com/iafluence/agentic-seller/pkg/config"
	crmx "github.com/iafluence/agentic-seller/pkg/crm"
	_ "github.com/iafluence/agentic-seller/pkg/logger/autoload"
	openrouterx "github.com/iafluence/agentic-seller/pkg/openrouter"
)

type AppConfig struct {
	StoreBackend string `envconfig:"STORE_BACKEND" split_words:"true" default:"memory"`
	SessionDir   string `envconfig:"SESSION_DIR" split_words:"true" default:"./data/sessions"`

	QualificationThreshold float64 `envconfig:"QUALIFICATION_THRESHOLD" split_words:"true" default:"40"`
	MaxNegotiationRounds   int     `envconfig:"MAX_NEGOTIATION_ROUNDS" split_words:"true" default:"3"`
	MaxDiscountPercent     float64 `envconfig:"MAX_DISCOUNT_PERCENT" split_words:"true" default:"15"`
	MaxTurnSteps           int     `envconfig:"MAX_TURN_STEPS" split_words:"true" default:"10"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("SALES")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")

	// The raw SDK client is what outbound integrations use; building it here
	// surfaces credential problems before the first conversation.
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	if openrouterx.NewClient(*openRouterCfg) == nil {
		panic("failed to initialize openrouter client")
	}

	store, err := buildStore(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build session store")
	}

	registry, err := roles.NewRegistry(ctx, *llmCfg, roles.Config{
		QualificationThreshold: appCfg.QualificationThreshold,
		MaxNegotiationRounds:   appCfg.MaxNegotiationRounds,
		MaxDiscountPercent:     appCfg.MaxDiscountPercent,
	}, buildSink())
	if err != nil {
		log.Fatal().Err(err).Msg("build role registry")
	}

	d, err := dispatcher.New(store, registry, dispatcher.Config{
		MaxTurnSteps: appCfg.MaxTurnSteps,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build dispatcher")
	}

	runInteractive(ctx, d)
}

func buildStore(cfg AppConfig) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreBackend)) {
	case "", "memory":
		return statex.NewMemoryStore(), nil
	case "file":
		return statex.NewFileStore(cfg.SessionDir)
	case "redis":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		return statex.NewUpstashRedisStore(*redisCfg)
	case "postgres":
		pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		return statex.NewPostgresStore(*pgCfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildSink() contractx.RecordSink {
	crmCfg := configx.MustNew[crmx.Config]("CRM")
	if strings.TrimSpace(crmCfg.URL) == "" {
		log.Info().Msg("no crm webhook configured, records go to the log")
		return crmx.LogSink{}
	}
	sink, err := crmx.NewWebhookSink(*crmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build crm sink")
	}
	return sink
}

func runInteractive(ctx context.Context, d *dispatcher.Dispatcher) {
	fmt.Println("Agentic seller - interactive demo")
	fmt.Println("Type your messages as a prospect; 'quit' ends the session.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("prospect> ")
	if !scanner.Scan() {
		return
	}
	first := strings.TrimSpace(scanner.Text())
	if first == "" || isQuit(first) {
		return
	}

	st, err := d.Start(ctx, "", first, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("start conversation")
	}
	printNewMessages(st.Messages, 0)
	shown := len(st.Messages)

	for !st.Closed {
		fmt.Print("prospect> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if isQuit(text) {
			break
		}

		st, err = d.Continue(ctx, st.SessionID, text)
		if err != nil {
			log.Error().Err(err).Msg("continue conversation")
			continue
		}
		printNewMessages(st.Messages, shown)
		shown = len(st.Messages)
	}

	printSummary(st)
}

func isQuit(text string) bool {
	switch strings.ToLower(text) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func printNewMessages(messages []statex.Message, from int) {
	for _, msg := range messages[from:] {
		if msg.Role != statex.RoleAgent {
			continue
		}
		agent := "agent"
		if name, ok := msg.Metadata["agent"].(string); ok && name != "" {
			agent = name
		}
		fmt.Printf("\n[%s] %s\n\n", agent, msg.Content)
	}
}

func printSummary(st *statex.ConversationState) {
	fmt.Println()
	fmt.Println("conversation summary")
	fmt.Printf("  session:            %s\n", st.SessionID)
	fmt.Printf("  lead type:          %s\n", orUnknown(string(st.LeadType)))
	fmt.Printf("  lead score:         %.0f/100\n", st.LeadScore)
	fmt.Printf("  qualified:          %v\n", st.Qualified)
	fmt.Printf("  converted:          %v\n", st.Converted)
	fmt.Printf("  escalated:          %v\n", st.Escalated)
	fmt.Printf("  messages:           %d\n", len(st.Messages))
	fmt.Printf("  offers made:        %d\n", len(st.OffersMade))
	fmt.Printf("  negotiation rounds: %d\n", st.NegotiationCount)

	if len(st.KeyInsights) > 0 {
		fmt.Println("\nkey insights")
		for i, insight := range st.KeyInsights {
			fmt.Printf("  %d. %s\n", i+1, insight)
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
