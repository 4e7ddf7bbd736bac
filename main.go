package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/classification"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/details"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/guard"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/order"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/recommendation"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/router"
	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	gatewayx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/gateway"
	knowledgex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/knowledge"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
	sessionx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/session"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/api"
	configx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/config"
	_ "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/openrouter"
	qstashx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/qstash"
)

func main() {
	ctx := context.Background()

	llmCfg := configx.MustNew[llm.Config]("OPENROUTER")
	openRouterCfg := llmCfg.OpenRouter()

	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize openrouter chat model")
	}
	baseGateway, err := gatewayx.New(chatModel, llmCfg.PromptFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gateway")
	}
	gw := gatewayx.NewRateLimited(baseGateway, "openrouter", llmCfg.RateLimit, llmCfg.RateBurst)

	prompts := promptx.LoadPromptSet()
	repairer := mustRepairer(llmCfg, openRouterCfg, gw, prompts)

	guardCfg := configx.MustNew[guard.Config]("GUARD")
	guardAgent, err := guard.New(ctx, gw, repairer, llmCfg.ParamsFor(contractx.AgentTypeGuard), prompts.Guard, *guardCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize guard stage")
	}

	classifier, err := classification.New(gw, repairer, llmCfg.ParamsFor(contractx.AgentTypeClassification), prompts.Classification)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize classification stage")
	}

	detailsAgent, err := details.New(gw, llmCfg.ParamsFor(contractx.AgentTypeDetails), prompts.Details, knowledgex.MustLoad())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize details stage")
	}

	cat := catalogx.Default()
	recommender, err := recommendation.New(gw, llmCfg.ParamsFor(contractx.AgentTypeRecommendation), prompts.Recommendation, cat)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize recommender")
	}
	orderOpts := []order.Option{order.WithRecommender(recommender)}

	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	if qstashCfg.Enabled() {
		orderOpts = append(orderOpts, order.WithNotifier(
			qstashx.NewCheckoutNotifier(qstashx.MustNew(*qstashCfg), qstashCfg.OrderWebhook),
		))
	}

	orderCfg := configx.MustNew[order.Config]("ORDER")
	orderAgent, err := order.New(gw, llmCfg.ParamsFor(contractx.AgentTypeOrder), prompts.Order, cat, *orderCfg, orderOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize order stage")
	}

	r, err := router.New(router.Stages{
		Guard:          guardAgent,
		Classification: classifier,
		Details:        detailsAgent,
		Order:          orderAgent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}

	store, closeStore := mustSessionStore(ctx)
	defer closeStore()

	httpCfg := configx.MustNew[api.Config]("HTTP")
	h := api.Build(*httpCfg, api.NewHandler(r, store))
	log.Info().Str("addr", httpCfg.Addr).Str("model", llmCfg.Model).Msg("plantify assistant listening")
	h.Spin()
}

func mustRepairer(cfg *llm.Config, orCfg openrouterx.Config, gw contractx.Gateway, prompts promptx.PromptSet) contractx.Repairer {
	params := cfg.ParamsFor(contractx.AgentTypeRepair)
	if !cfg.RepairJSONMode {
		return gatewayx.NewPromptRepairer(gw, prompts.Repair, params)
	}

	client := openrouterx.NewClient(orCfg)
	if client == nil {
		log.Fatal().Msg("failed to initialize openrouter client")
	}
	repairer, err := gatewayx.NewJSONModeRepairer(client, params.Model, prompts.Repair)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize json repairer")
	}
	return repairer
}

func mustSessionStore(ctx context.Context) (sessionx.Store, func()) {
	cfg := configx.MustNew[sessionx.Config]("SESSION")

	switch cfg.Kind {
	case sessionx.KindUpstash:
		redisCfg := configx.MustNew[sessionx.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := sessionx.NewUpstashRedisStore(*redisCfg, *cfg, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize upstash session store")
		}
		return store, func() {}

	case sessionx.KindPostgres:
		pgCfg := configx.MustNew[sessionx.PostgresConfig]("POSTGRES")
		store, err := sessionx.NewPostgresStore(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize postgres session store")
		}
		if err := store.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create session table")
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("close postgres session store")
			}
		}

	default:
		return sessionx.NewMemoryStore(), func() {}
	}
}
