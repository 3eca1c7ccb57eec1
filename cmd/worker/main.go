package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/IGabriel/ai-knowledge-bench/internal/app"
	"github.com/IGabriel/ai-knowledge-bench/internal/clients/openai"
	redisbus "github.com/IGabriel/ai-knowledge-bench/internal/clients/redis"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/blob"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/db"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	"github.com/IGabriel/ai-knowledge-bench/internal/ingest"
	"github.com/IGabriel/ai-knowledge-bench/internal/jobs"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/realtime"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector/pgvector"
)

// busNotifier forwards pipeline status events to the shared redis channel so
// API processes can stream them to their SSE clients.
type busNotifier struct {
	log *logger.Logger
	bus redisbus.EventBus
}

func (n *busNotifier) Notify(ctx context.Context, ev realtime.StatusEvent) {
	if n.bus == nil {
		return
	}
	if err := n.bus.Publish(ctx, ev); err != nil {
		n.log.Warn("Failed to publish status event", "document_id", ev.DocumentID.String(), "error", err)
	}
}

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

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	documentRepo := repos.NewDocumentRepo(thePG, log)
	sectionRepo := repos.NewSectionRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	profileRepo := repos.NewChunkProfileRepo(thePG, log)
	jobRepo := repos.NewIngestJobRepo(thePG, log)

	blobStore, err := blob.NewFSStore(log)
	if err != nil {
		log.Fatal("Blob store init failed", "error", err)
	}
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	vectorStore := pgvector.NewStore(thePG, log)

	notifier := &busNotifier{log: log}
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err := redisbus.NewEventBus(log)
		if err != nil {
			log.Warn("Redis event bus init failed, status events stay local", "error", err)
		} else {
			defer bus.Close()
			notifier.bus = bus
		}
	}

	pipeline := ingest.NewPipeline(log, documentRepo, sectionRepo, chunkRepo,
		blobStore, vectorStore, aiClient, notifier, cfg.EmbeddingModel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := jobs.NewWorker(log, jobRepo, profileRepo, pipeline)
	worker.Start(ctx)

	<-ctx.Done()
	log.Info("Worker shutting down")
}
