package worker

import (
	"context"
	"testing"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/internal/service/mocks"
	"photolab_miniapp/pkg/genapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGenerationWorker_DispatchQueued(t *testing.T) {
	job := &model.GenerationJob{
		ID:             "job-1",
		UserTelegramID: 100,
		PackID:         "pack-1",
		TotalPhotos:    30,
		Status:         model.JobStatusProcessing,
	}
	prompts := []model.PackPrompt{
		{PromptText: "studio portrait", StyleTags: []string{"studio"}},
		{PromptText: "street style", NegativePrompt: "blurry"},
	}

	t.Run("Submits claimed job as a batch", func(t *testing.T) {
		repo := &mocks.MockGenerationRepository{}
		repo.On("ClaimQueuedJobs", mock.Anything, 10).
			Return([]*model.GenerationJob{job}, nil)
		repo.On("ListPackPrompts", mock.Anything, "pack-1").Return(prompts, nil)
		repo.On("SetJobBatchID", mock.Anything, "job-1", "batch-7").Return(nil)

		provider := &mocks.MockGenerationProvider{}
		provider.On("Submit", mock.Anything, mock.MatchedBy(func(in []genapi.Prompt) bool {
			return len(in) == 2 && in[0].Text == "studio portrait"
		}), 30).Return("batch-7", nil)

		w := NewGenerationWorker(repo, provider, service.NewEventHub(), 0)
		w.dispatchQueued(context.Background())

		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("Submit failure fails the job", func(t *testing.T) {
		repo := &mocks.MockGenerationRepository{}
		repo.On("ClaimQueuedJobs", mock.Anything, 10).
			Return([]*model.GenerationJob{job}, nil)
		repo.On("ListPackPrompts", mock.Anything, "pack-1").Return(prompts, nil)
		repo.On("FailJob", mock.Anything, "job-1").Return(nil)

		provider := &mocks.MockGenerationProvider{}
		provider.On("Submit", mock.Anything, mock.Anything, 30).
			Return("", assert.AnError)

		w := NewGenerationWorker(repo, provider, service.NewEventHub(), 0)
		w.dispatchQueued(context.Background())

		repo.AssertExpectations(t)
	})
}

func TestGenerationWorker_PollProcessing(t *testing.T) {
	job := &model.GenerationJob{
		ID:              "job-1",
		UserTelegramID:  100,
		PackID:          "pack-1",
		TotalPhotos:     30,
		CompletedPhotos: 10,
		Status:          model.JobStatusProcessing,
		ProviderBatchID: "batch-7",
	}

	t.Run("Progress publishes event", func(t *testing.T) {
		repo := &mocks.MockGenerationRepository{}
		repo.On("ListProcessingJobs", mock.Anything).
			Return([]*model.GenerationJob{job}, nil)
		repo.On("UpdateJobProgress", mock.Anything, "job-1", 20,
			mock.Anything, false).Return(nil)

		provider := &mocks.MockGenerationProvider{}
		provider.On("Status", mock.Anything, "batch-7").
			Return(&genapi.BatchStatus{Completed: 20, Total: 30}, nil)

		hub := service.NewEventHub()
		ch := hub.Subscribe(100)

		w := NewGenerationWorker(repo, provider, hub, 0)
		w.pollProcessing(context.Background())

		msg := <-ch
		assert.Equal(t, "GENERATION_PROGRESS", msg.Type)
		assert.Equal(t, 20, msg.Payload["completed"])
		repo.AssertExpectations(t)
	})

	t.Run("Done publishes completion with urls", func(t *testing.T) {
		urls := []string{"https://cdn/1.jpg", "https://cdn/2.jpg"}

		repo := &mocks.MockGenerationRepository{}
		repo.On("ListProcessingJobs", mock.Anything).
			Return([]*model.GenerationJob{job}, nil)
		repo.On("UpdateJobProgress", mock.Anything, "job-1", 30, urls, true).
			Return(nil)

		provider := &mocks.MockGenerationProvider{}
		provider.On("Status", mock.Anything, "batch-7").
			Return(&genapi.BatchStatus{Completed: 30, Total: 30, URLs: urls, Done: true}, nil)

		hub := service.NewEventHub()
		ch := hub.Subscribe(100)

		w := NewGenerationWorker(repo, provider, hub, 0)
		w.pollProcessing(context.Background())

		msg := <-ch
		assert.Equal(t, "GENERATION_COMPLETED", msg.Type)
		repo.AssertExpectations(t)
	})

	t.Run("Provider failure fails the job", func(t *testing.T) {
		repo := &mocks.MockGenerationRepository{}
		repo.On("ListProcessingJobs", mock.Anything).
			Return([]*model.GenerationJob{job}, nil)
		repo.On("FailJob", mock.Anything, "job-1").Return(nil)

		provider := &mocks.MockGenerationProvider{}
		provider.On("Status", mock.Anything, "batch-7").
			Return(&genapi.BatchStatus{Failed: true}, nil)

		hub := service.NewEventHub()
		ch := hub.Subscribe(100)

		w := NewGenerationWorker(repo, provider, hub, 0)
		w.pollProcessing(context.Background())

		msg := <-ch
		assert.Equal(t, "GENERATION_FAILED", msg.Type)
		repo.AssertExpectations(t)
	})

	t.Run("Unchanged progress skips the update", func(t *testing.T) {
		repo := &mocks.MockGenerationRepository{}
		repo.On("ListProcessingJobs", mock.Anything).
			Return([]*model.GenerationJob{job}, nil)

		provider := &mocks.MockGenerationProvider{}
		provider.On("Status", mock.Anything, "batch-7").
			Return(&genapi.BatchStatus{Completed: 10, Total: 30}, nil)

		w := NewGenerationWorker(repo, provider, service.NewEventHub(), 0)
		w.pollProcessing(context.Background())

		repo.AssertNotCalled(t, "UpdateJobProgress",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
