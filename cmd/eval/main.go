package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/IGabriel/ai-knowledge-bench/internal/app"
	"github.com/IGabriel/ai-knowledge-bench/internal/clients/openai"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/db"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	"github.com/IGabriel/ai-knowledge-bench/internal/eval"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/retrieval"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector/pgvector"
)

func main() {
	_ = godotenv.Load()

	datasetPath := flag.String("dataset", "", "path to the golden set (.jsonl, .yaml, or .json)")
	profileID := flag.String("profile", "", "chunk profile id (defaults to the active profile)")
	topK := flag.Int("top-k", 0, "retrieved candidates per item (defaults to RETRIEVAL_TOP_K)")
	flag.Parse()

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

	if *datasetPath == "" {
		log.Fatal("Missing required -dataset flag")
	}

	cfg := app.LoadConfig(log)

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	thePG := postgresService.DB()

	profileRepo := repos.NewChunkProfileRepo(thePG, log)
	chunkRepo := repos.NewChunkRepo(thePG, log)
	evalRepo := repos.NewEvaluationRepo(thePG, log)

	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	vectorStore := pgvector.NewStore(thePG, log)
	retriever := retrieval.NewRetriever(log, chunkRepo, vectorStore, aiClient)
	evaluator := eval.NewEvaluator(log, retriever, aiClient, aiClient, evalRepo)

	ctx := context.Background()
	dbc := dbctx.New(ctx)

	name, items, err := eval.LoadDataset(*datasetPath)
	if err != nil {
		log.Fatal("Failed to load dataset", "error", err)
	}

	profile, err := profileRepo.GetActive(dbc)
	if *profileID != "" {
		id, perr := uuid.Parse(*profileID)
		if perr != nil {
			log.Fatal("Invalid -profile id", "error", perr)
		}
		profile, err = profileRepo.GetByID(dbc, id)
		if err == nil && profile == nil {
			log.Fatal("Chunk profile not found", "profile_id", id.String())
		}
	}
	if err != nil {
		log.Fatal("Failed to resolve chunk profile", "error", err)
	}

	k := cfg.TopK
	if *topK > 0 {
		k = *topK
	}

	run, _, err := evaluator.Run(ctx, eval.Params{
		DatasetName:         name,
		Items:               items,
		Profile:             profile,
		EmbeddingModel:      cfg.EmbeddingModel,
		TopK:                k,
		SimilarityThreshold: cfg.SimilarityThreshold,
		SemanticThreshold:   cfg.SemanticThreshold,
	})
	if err != nil {
		log.Fatal("Evaluation failed", "error", err)
	}

	var agg eval.Aggregate
	_ = json.Unmarshal(run.Metrics, &agg)
	report, _ := json.MarshalIndent(map[string]any{
		"run_id":          run.ID,
		"dataset":         run.DatasetName,
		"profile_id":      run.ChunkProfileID,
		"embedding_model": run.EmbeddingModel,
		"generator_model": run.GeneratorModel,
		"top_k":           run.TopK,
		"metrics":         agg,
	}, "", "  ")
	fmt.Println(string(report))
}
