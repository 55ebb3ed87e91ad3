// Package app 组装应用的全部依赖
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	bookapp "bookgen-ai-api/internal/application/book"
	"bookgen-ai-api/internal/application/generation"
	"bookgen-ai-api/internal/application/progress"
	"bookgen-ai-api/internal/application/research"
	"bookgen-ai-api/internal/application/retrieval"
	"bookgen-ai-api/internal/config"
	"bookgen-ai-api/internal/infrastructure/embedding"
	"bookgen-ai-api/internal/infrastructure/llm"
	"bookgen-ai-api/internal/infrastructure/messaging"
	"bookgen-ai-api/internal/infrastructure/persistence/milvus"
	"bookgen-ai-api/internal/infrastructure/persistence/postgres"
	redisinfra "bookgen-ai-api/internal/infrastructure/persistence/redis"
	"bookgen-ai-api/internal/infrastructure/search"
	"bookgen-ai-api/internal/interfaces/http/handler"
	"bookgen-ai-api/internal/interfaces/http/router"
	"bookgen-ai-api/internal/workflow/chain"
	"bookgen-ai-api/pkg/logger"
)

// App 组装完成的应用
type App struct {
	router *router.Router
	bridge *progress.Bridge
	hub    *progress.Hub

	pg     *postgres.Client
	redis  *redisinfra.Client
	milvus *milvus.Client
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// Initialize 构建全部依赖并启动后台组件。
// Milvus 与 Embedding 是可选依赖：连接失败记录告警并以
// 检索禁用模式继续，写作流水线会降级为无上下文生成。
func Initialize(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	log := logger.FromContext(ctx)

	// 持久化
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	redisClient, err := redisinfra.NewClient(&cfg.Cache.Redis)
	if err != nil {
		pgClient.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	bookRepo := postgres.NewBookRepository(pgClient)
	chapterRepo := postgres.NewChapterRepository(pgClient)
	sourceRepo := postgres.NewSourceRepository(pgClient)
	agentLogRepo := postgres.NewAgentLogRepository(pgClient)
	txMgr := postgres.NewTxManager(pgClient)

	cache := redisinfra.NewCache(redisClient)
	limiter := redisinfra.NewRateLimiter(redisClient)

	// 向量检索（可选）
	var vectorRepo retrieval.VectorRepository
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		log.Warn("milvus unavailable, retrieval disabled", "error", err)
	} else {
		vectorRepo = milvus.NewRetrievalVectorRepository(milvus.NewRepository(milvusClient))
	}

	embedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		log.Warn("embedder unavailable, retrieval disabled", "error", err)
		embedder = nil
	}

	retrievalEngine := retrieval.NewEngine(embedder, vectorRepo)
	indexer := retrieval.NewIndexer(embedder, vectorRepo, cfg.Embedding.BatchSize)

	// 资料采集（可选）
	var researcher bookapp.Researcher
	if cfg.Research.SearchEndpoint != "" {
		searcher := search.NewClient(&cfg.Research)
		researcher = research.NewGatherer(searcher, indexer, sourceRepo)
	} else {
		log.Warn("search endpoint not configured, research disabled")
	}

	// LLM
	completion := chain.NewCompletionChain(llm.NewEinoFactory(cfg))

	// 进度事件
	hub := progress.NewHub()
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
	notifier := generation.NewStreamNotifier(producer)

	hostname, _ := os.Hostname()
	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       messaging.StreamBookEvents,
		Group:        messaging.ConsumerGroupEventBridge,
		ConsumerName: hostname,
		BlockTimeout: cfg.Messaging.RedisStream.BlockTimeout,
	})
	bridge := progress.NewBridge(consumer, hub)
	if err := bridge.Start(ctx); err != nil {
		log.Warn("event bridge failed to start, live progress disabled", "error", err)
	}

	// 应用服务
	pipeline := generation.NewPipeline(
		completion, retrievalEngine,
		chapterRepo, bookRepo, agentLogRepo,
		notifier, cache, cfg.Generation,
	)
	genService := generation.NewService(pipeline, bookRepo, chapterRepo, notifier, cache)

	initializer := bookapp.NewInitializer(
		completion, researcher, retrievalEngine,
		bookRepo, chapterRepo, agentLogRepo,
		txMgr, cfg.Generation,
	)
	bookService := bookapp.NewService(
		bookRepo, chapterRepo, sourceRepo, agentLogRepo,
		initializer, researcher, indexer, cache,
	)

	// HTTP
	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		Book:     handler.NewBookHandler(bookService),
		Chapter:  handler.NewChapterHandler(bookService, genService),
		Research: handler.NewResearchHandler(bookService),
		Event:    handler.NewEventHandler(hub),
	}

	a := &App{
		router: router.New(cfg, handlers, limiter),
		bridge: bridge,
		hub:    hub,
		pg:     pgClient,
		redis:  redisClient,
		milvus: milvusClient,
	}

	cleanup := func() {
		a.bridge.Stop()
		if a.milvus != nil {
			_ = a.milvus.Close()
		}
		_ = a.redis.Close()
		_ = a.pg.Close()
	}
	return a, cleanup, nil
}
