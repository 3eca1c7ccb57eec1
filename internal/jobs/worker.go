package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/ingest"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/envutil"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

// Worker claims ingest jobs and drives the pipeline. Each claimed job is
// processed to completion by one goroutine; failures mark the job failed and
// the claim query makes it runnable again after the retry delay, up to the
// attempt cap. A crashed worker's jobs are reclaimed once their heartbeat
// goes stale.
type Worker struct {
	log      *logger.Logger
	jobs     repos.IngestJobRepo
	profiles repos.ChunkProfileRepo
	pipeline *ingest.Pipeline

	concurrency  int
	pollInterval time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	staleRunning time.Duration
}

func NewWorker(baseLog *logger.Logger, jobs repos.IngestJobRepo, profiles repos.ChunkProfileRepo, pipeline *ingest.Pipeline) *Worker {
	log := baseLog.With("component", "IngestWorker")
	return &Worker{
		log:          log,
		jobs:         jobs,
		profiles:     profiles,
		pipeline:     pipeline,
		concurrency:  envutil.GetEnvAsInt("WORKER_CONCURRENCY", 2, log),
		pollInterval: time.Duration(envutil.GetEnvAsInt("WORKER_POLL_INTERVAL_MS", 1000, log)) * time.Millisecond,
		maxAttempts:  envutil.GetEnvAsInt("WORKER_MAX_ATTEMPTS", 5, log),
		retryDelay:   time.Duration(envutil.GetEnvAsInt("WORKER_RETRY_DELAY_SECONDS", 30, log)) * time.Second,
		staleRunning: time.Duration(envutil.GetEnvAsInt("WORKER_STALE_RUNNING_SECONDS", 120, log)) * time.Second,
	}
}

func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		go w.loop(ctx, i)
	}
	w.log.Info("Worker started", "concurrency", w.concurrency)
}

func (w *Worker) loop(ctx context.Context, slot int) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.jobs.ClaimNextRunnable(dbctx.New(ctx), w.maxAttempts, w.retryDelay, w.staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "slot", slot, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job *types.IngestJob) {
	log := w.log.With("job_id", job.ID.String(), "kind", job.Kind, "document_id", job.DocumentID.String())
	dbc := dbctx.New(ctx)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	go w.heartbeat(hbCtx, job)
	defer stopHeartbeat()

	// A panicking pipeline must not take the worker loop down with it.
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
			if err := w.jobs.MarkFailed(dbc, job.ID, fmt.Sprintf("panic: %v", r)); err != nil {
				log.Error("Failed to mark panicked job", "error", err)
			}
		}
	}()

	profile, err := w.profiles.GetByID(dbc, job.ChunkProfileID)
	if err == nil && profile == nil {
		err = types.NewConfigError("chunk profile %s not found", job.ChunkProfileID)
	}
	if err == nil {
		err = w.pipeline.Run(ctx, job, profile)
	}

	if err != nil {
		log.Warn("Job failed", "attempt", job.Attempts, "error", err)
		if merr := w.jobs.MarkFailed(dbc, job.ID, err.Error()); merr != nil {
			log.Error("Failed to mark job failed", "error", merr)
		}
		return
	}
	if err := w.jobs.MarkSucceeded(dbc, job.ID); err != nil {
		log.Error("Failed to mark job succeeded", "error", err)
		return
	}
	log.Info("Job finished")
}

func (w *Worker) heartbeat(ctx context.Context, job *types.IngestJob) {
	interval := w.staleRunning / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.jobs.Heartbeat(dbctx.New(ctx), job.ID); err != nil {
				w.log.Warn("Heartbeat failed", "job_id", job.ID.String(), "error", err)
			}
		}
	}
}
