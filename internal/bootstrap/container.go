package bootstrap

import (
	"fmt"
	"log"
	"time"

	"sat-sight-be/internal/config"
	"sat-sight-be/internal/controller"
	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/internal/service"
	"sat-sight-be/pkg/agent/critic"
	"sat-sight-be/pkg/agent/executor"
	"sat-sight-be/pkg/agent/guardrail"
	"sat-sight-be/pkg/agent/memory"
	"sat-sight-be/pkg/agent/planner"
	"sat-sight-be/pkg/agent/reasoning"
	agentrouter "sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/source"
	"sat-sight-be/pkg/embedding"
	"sat-sight-be/pkg/llm/factory"
	"sat-sight-be/pkg/memstore"
	"sat-sight-be/pkg/retrieval"
	pgvectorstore "sat-sight-be/pkg/retrieval/pgvector"
	"sat-sight-be/pkg/retrieval/geo"
	"sat-sight-be/pkg/retrieval/rerank"
	"sat-sight-be/pkg/retrieval/web"
	"sat-sight-be/pkg/retrieval/wiki"

	pktNats "sat-sight-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController controller.IQueryController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	natsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	var natsPublisher *pktNats.Publisher
	if cfg.App.NatsEnabled {
		p, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS unavailable, events disabled: %v", err)
		} else {
			natsPublisher = p
		}
	}

	// 3. Model Backends
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewProvider(cfg.Ai.LLMProvider, cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval Backends
	imageIndex, err := pgvectorstore.NewImageIndex(db, embeddingProvider)
	if err != nil {
		return nil, err
	}
	docStore, err := pgvectorstore.NewDocumentStore(db, embeddingProvider)
	if err != nil {
		return nil, err
	}

	var reranker retrieval.Reranker
	if cfg.Ai.RerankerURL != "" {
		reranker = rerank.NewClient(cfg.Ai.RerankerURL)
	}

	var webSearcher retrieval.WebSearcher
	if cfg.Keys.Tavily != "" {
		webSearcher = web.NewTavilyClient(cfg.Keys.Tavily)
		log.Printf("[INFO] Using Web Search: TAVILY")
	} else {
		webSearcher = web.NewDuckDuckGoClient()
		log.Printf("[INFO] Using Web Search: DUCKDUCKGO (no Tavily key)")
	}

	wikiFetcher := wiki.NewFetcher()
	geoLookup := geo.NewFileLookup(cfg.Agent.GeoMetadataPath)

	// 5. Memory Stores
	var shortTerm memstore.ShortTerm
	if cfg.App.RedisEnabled {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		ttl := time.Duration(cfg.Memory.ShortTermTTLMin) * time.Minute
		shortTerm = memstore.NewRedisShortTerm(redis.NewClient(opts), cfg.Memory.ShortTermWindow, ttl)
		log.Printf("[INFO] Using Short-Term Memory: REDIS")
	} else {
		shortTerm = memstore.NewInMemoryShortTerm(cfg.Memory.ShortTermWindow)
	}

	longTerm, err := memstore.NewGormLongTerm(db)
	if err != nil {
		return nil, err
	}
	episodic, err := memstore.NewGormEpisodic(db)
	if err != nil {
		return nil, err
	}

	// 6. Orchestration Graph
	router, err := agentrouter.New()
	if err != nil {
		return nil, err
	}

	nodes := []executor.Node{
		planner.New(nil, sysLogger),
		source.NewVisionAdapter(imageIndex, reranker, router, sysLogger, cfg.Agent.RetrievalK, cfg.Agent.RerankTopK),
		source.NewTextAdapter(docStore, reranker, router, sysLogger, cfg.Agent.RetrievalK, cfg.Agent.RerankTopK),
		source.NewWebAdapter(webSearcher, router, sysLogger, cfg.Agent.WebMaxResults),
		source.NewWikiAdapter(wikiFetcher, router, sysLogger),
		source.NewGeoAdapter(geoLookup, router, sysLogger),
		memory.New(shortTerm, longTerm, episodic, sysLogger),
		reasoning.New(llmProvider, sysLogger),
		critic.New(llmProvider, sysLogger),
	}

	engine, err := executor.New(nodes, guardrail.New(sysLogger), router, shortTerm, pubSub, cfg.Agent.InteractionTopic, sysLogger)
	if err != nil {
		return nil, err
	}

	// 7. Services & Controllers
	var eventPublisher service.EventPublisher
	if natsPublisher != nil {
		eventPublisher = natsPublisher
	}

	queryService := service.NewQueryService(engine, longTerm, eventPublisher, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Agent.InteractionTopic, episodic, eventPublisher, sysLogger)

	return &Container{
		QueryController: controller.NewQueryController(queryService),
		ConsumerService: consumerService,
		Logger:          sysLogger,
		natsPublisher:   natsPublisher,
	}, nil
}

// Close releases external connections held by the container.
func (c *Container) Close() {
	if c.natsPublisher != nil {
		c.natsPublisher.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
