package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/IGabriel/ai-knowledge-bench/internal/app"
	"github.com/IGabriel/ai-knowledge-bench/internal/clients/openai"
	redisbus "github.com/IGabriel/ai-knowledge-bench/internal/clients/redis"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/blob"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/db"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	httpserver "github.com/IGabriel/ai-knowledge-bench/internal/http"
	"github.com/IGabriel/ai-knowledge-bench/internal/http/handlers"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/envutil"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/realtime"
	"github.com/IGabriel/ai-knowledge-bench/internal/retrieval"
	"github.com/IGabriel/ai-knowledge-bench/internal/services"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector/pgvector"

	evalpkg "github.com/IGabriel/ai-knowledge-bench/internal/eval"
)

func main() {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	documentRepo := repos.NewDocumentRepo(thePG, log)
	profileRepo := repos.NewChunkProfileRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	jobRepo := repos.NewIngestJobRepo(thePG, log)
	evalRepo := repos.NewEvaluationRepo(thePG, log)

	// Clients and stores
	blobStore, err := blob.NewFSStore(log)
	if err != nil {
		log.Fatal("Blob store init failed", "error", err)
	}
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	vectorStore := pgvector.NewStore(thePG, log)

	// Realtime status fan-out. Without redis the API still serves events
	// produced in-process.
	hub := realtime.NewStatusHub(log)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if os.Getenv("REDIS_ADDR") != "" {
		bus, err := redisbus.NewEventBus(log)
		if err != nil {
			log.Warn("Redis event bus init failed", "error", err)
		} else {
			defer bus.Close()
			if err := bus.StartForwarder(ctx, hub.Broadcast); err != nil {
				log.Warn("Redis event forwarder failed to start", "error", err)
			}
		}
	}

	// Services
	documentService := services.NewDocumentService(log, documentRepo, profileRepo, jobRepo, blobStore)
	retriever := retrieval.NewRetriever(log, chunkRepo, vectorStore, aiClient)
	evaluator := evalpkg.NewEvaluator(log, retriever, aiClient, aiClient, evalRepo)

	defaults := handlers.RetrievalDefaults{
		EmbeddingModel:      cfg.EmbeddingModel,
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}

	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:               log,
		DocumentHandler:   handlers.NewDocumentHandler(log, documentService),
		ProfileHandler:    handlers.NewProfileHandler(log, profileRepo),
		QueryHandler:      handlers.NewQueryHandler(log, retriever, profileRepo, defaults),
		ChatHandler:       handlers.NewChatHandler(log, retriever, aiClient, profileRepo, defaults),
		EvaluationHandler: handlers.NewEvaluationHandler(log, evaluator, evalRepo, profileRepo, defaults, cfg.SemanticThreshold),
		EventsHandler:     handlers.NewEventsHandler(log, hub),
		HealthHandler:     handlers.NewHealthHandler(thePG),
	})

	addr := ":" + envutil.GetEnv("API_PORT", "8080", log)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("API listening", "addr", addr)
		return server.Run(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("API stopped", "error", err)
	}
}
