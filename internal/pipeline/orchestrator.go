package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"ingestd/internal/chunker"
	"ingestd/internal/config"
	"ingestd/internal/notify"
	"ingestd/internal/parser"
	"ingestd/internal/store"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs     *JobStore
	pool     *ants.Pool
	st       *store.Store
	notifier *notify.Client
	log      *slog.Logger
	cfg      config.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline with a bounded worker pool.
func NewOrchestrator(cfg config.Config, st *store.Store, notifier *notify.Client, log *slog.Logger) (*Orchestrator, error) {
	pool, err := ants.NewPool(cfg.WorkerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		pool:     pool,
		st:       st,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Evict finished jobs past their TTL.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()

	return o, nil
}

// Stop gracefully shuts down the pipeline, waiting for in-flight jobs.
func (o *Orchestrator) Stop() {
	o.cancel()
	o.pool.Release()
	o.wg.Wait()
}

// Submit registers a job and schedules it on the worker pool.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	if err := o.pool.Submit(func() { o.process(o.ctx, job) }); err != nil {
		job.SetStatus(StatusFailed, "worker pool unavailable")
		return fmt.Errorf("submit job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob returns a job by ID, or nil if unknown or expired.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Store returns the chunk store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.st
}

// process runs a job through parse, chunk, store and notify.
func (o *Orchestrator) process(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "document_id", job.DocumentID, "filename", job.Filename)
	started := time.Now()

	job.SetStatus(StatusParsing, "parsing document")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		o.fail(ctx, job, log, fmt.Errorf("select parser: %w", err))
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = o.cfg.PDFFallbackPdftotext
	}
	docs, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		o.fail(ctx, job, log, fmt.Errorf("parse %s: %w", job.Filename, err))
		return
	}
	// Parsed bytes are no longer needed; let them be collected.
	job.SetFileData(nil)

	job.SetStatus(StatusChunking, "splitting into chunks")
	result, err := chunker.ChunkDocuments(docs, job.BatchSize, chunker.Options{
		ChunkSize:    job.ChunkSize,
		LanguageCode: job.LanguageCode,
	})
	if err != nil {
		o.fail(ctx, job, log, fmt.Errorf("chunk %s: %w", job.Filename, err))
		return
	}

	job.SetStatus(StatusStoring, "storing results")
	resultsID := uuid.NewString()
	if err := o.st.PutBatches(resultsID, result.Batches); err != nil {
		o.fail(ctx, job, log, fmt.Errorf("store batches: %w", err))
		return
	}
	err = o.st.PutChunkDocument(job.NamespaceID, job.DocumentID, store.ChunkDocument{
		Metadata: map[string]any{
			"filename":     job.Filename,
			"content_hash": job.ContentHash,
		},
		TotalChunks:     result.TotalChunks,
		TotalCharacters: result.TotalCharacters,
		Chunks:          result.Flatten(),
	})
	if err != nil {
		o.fail(ctx, job, log, fmt.Errorf("store chunk document: %w", err))
		return
	}
	job.SetResult(resultsID, store.BatchKeyTemplate(resultsID), result.TotalChunks, result.TotalBatches, result.TotalCharacters)

	if tokenID, accessToken := job.Waitpoint(); tokenID != "" && o.notifier != nil {
		job.SetStatus(StatusNotifying, "completing workflow waitpoint")
		err := o.notifier.Complete(ctx, tokenID, accessToken, 200, map[string]any{
			"results_id":       resultsID,
			"batch_template":   store.BatchKeyTemplate(resultsID),
			"total_chunks":     result.TotalChunks,
			"total_batches":    result.TotalBatches,
			"total_characters": result.TotalCharacters,
		})
		if err != nil {
			// Results are stored; the workflow can still poll job status.
			job.AddError(fmt.Sprintf("notify waitpoint: %v", err))
			log.Warn("waitpoint completion failed", "error", err)
		}
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("job completed",
		"total_chunks", result.TotalChunks,
		"total_batches", result.TotalBatches,
		"duration", time.Since(started))
}

// fail marks the job failed and reports the failure to the waitpoint if one
// was registered.
func (o *Orchestrator) fail(ctx context.Context, job *Job, log *slog.Logger, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, err.Error())
	log.Error("job failed", "error", err)

	if tokenID, accessToken := job.Waitpoint(); tokenID != "" && o.notifier != nil {
		nerr := o.notifier.Complete(ctx, tokenID, accessToken, 500, map[string]any{
			"error": err.Error(),
		})
		if nerr != nil {
			log.Warn("waitpoint failure report failed", "error", nerr)
		}
	}
}
