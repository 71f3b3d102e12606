package worker

import (
	"context"
	"time"

	"photolab_miniapp/internal/metrics"
	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/genapi"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"
)

// GenerationWorker drives queued generation jobs through the provider:
// it submits claimed jobs as batches and polls running batches for
// progress until they finish or fail.
type GenerationWorker struct {
	repo      service.GenerationRepository
	provider  service.GenerationProvider
	hub       *service.EventHub
	interval  time.Duration
	batchSize int
}

func NewGenerationWorker(repo service.GenerationRepository, provider service.GenerationProvider,
	hub *service.EventHub, interval time.Duration) *GenerationWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &GenerationWorker{
		repo:      repo,
		provider:  provider,
		hub:       hub,
		interval:  interval,
		batchSize: 10,
	}
}

func (w *GenerationWorker) Run(ctx context.Context) {
	log := logger.Logger()
	log.Info("generation worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("generation worker stopped")
			return
		case <-ticker.C:
			w.dispatchQueued(ctx)
			w.pollProcessing(ctx)
		}
	}
}

func (w *GenerationWorker) dispatchQueued(ctx context.Context) {
	log := logger.Logger()

	jobs, err := w.repo.ClaimQueuedJobs(ctx, w.batchSize)
	if err != nil {
		log.Error("failed to claim queued jobs", zap.Error(err))
		return
	}

	for _, job := range jobs {
		prompts, err := w.repo.ListPackPrompts(ctx, job.PackID)
		if err != nil {
			log.Error("failed to load pack prompts",
				zap.String("job_id", job.ID), zap.Error(err))
			w.failJob(ctx, job)
			continue
		}

		in := make([]genapi.Prompt, len(prompts))
		for i, p := range prompts {
			in[i] = genapi.Prompt{
				Text:     p.PromptText,
				Negative: p.NegativePrompt,
				Tags:     p.StyleTags,
			}
		}

		batchID, err := w.provider.Submit(ctx, in, job.TotalPhotos)
		if err != nil {
			log.Error("failed to submit batch",
				zap.String("job_id", job.ID), zap.Error(err))
			w.failJob(ctx, job)
			continue
		}

		if err := w.repo.SetJobBatchID(ctx, job.ID, batchID); err != nil {
			log.Error("failed to store batch id",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		log.Info("generation batch submitted",
			zap.String("job_id", job.ID),
			zap.String("batch_id", batchID),
			zap.Int("total_photos", job.TotalPhotos))
	}
}

func (w *GenerationWorker) pollProcessing(ctx context.Context) {
	log := logger.Logger()

	jobs, err := w.repo.ListProcessingJobs(ctx)
	if err != nil {
		log.Error("failed to list processing jobs", zap.Error(err))
		return
	}

	for _, job := range jobs {
		status, err := w.provider.Status(ctx, job.ProviderBatchID)
		if err != nil {
			log.Warn("failed to poll batch status",
				zap.String("job_id", job.ID),
				zap.String("batch_id", job.ProviderBatchID),
				zap.Error(err))
			continue
		}

		if status.Failed {
			w.failJob(ctx, job)
			continue
		}

		if status.Completed == job.CompletedPhotos && !status.Done {
			continue
		}

		err = w.repo.UpdateJobProgress(ctx, job.ID, status.Completed, status.URLs, status.Done)
		if err != nil {
			log.Error("failed to update job progress",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}

		if status.Done {
			metrics.ObserveJobFinished(string(model.JobStatusCompleted))
			log.Info("generation job completed",
				zap.String("job_id", job.ID),
				zap.Int("photos", status.Completed))
			w.hub.Publish(job.UserTelegramID, service.Message{
				Type: "GENERATION_COMPLETED",
				Payload: map[string]any{
					"job_id":      job.ID,
					"result_urls": status.URLs,
				},
			})
		} else {
			w.hub.Publish(job.UserTelegramID, service.Message{
				Type: "GENERATION_PROGRESS",
				Payload: map[string]any{
					"job_id":    job.ID,
					"completed": status.Completed,
					"total":     job.TotalPhotos,
				},
			})
		}
	}
}

func (w *GenerationWorker) failJob(ctx context.Context, job *model.GenerationJob) {
	log := logger.Logger()

	if err := w.repo.FailJob(ctx, job.ID); err != nil {
		log.Error("failed to mark job failed",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	metrics.ObserveJobFinished(string(model.JobStatusFailed))
	log.Warn("generation job failed", zap.String("job_id", job.ID))

	w.hub.Publish(job.UserTelegramID, service.Message{
		Type: "GENERATION_FAILED",
		Payload: map[string]any{
			"job_id": job.ID,
		},
	})
}
