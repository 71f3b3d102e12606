package service

import (
	"context"
	"errors"
	"fmt"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
)

type GenerationService struct {
	repo GenerationRepository
}

func NewGenerationService(repo GenerationRepository) *GenerationService {
	return &GenerationService{
		repo: repo,
	}
}

func (s *GenerationService) ListMyJobs(ctx context.Context, userID int64) ([]*model.GenerationJob, error) {
	jobs, err := s.repo.ListJobsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *GenerationService) GetJob(ctx context.Context, userID int64, isAdmin bool, id string) (*model.GenerationJob, error) {
	job, err := s.repo.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if !isAdmin && job.UserTelegramID != userID {
		return nil, ErrAccessDenied
	}

	return job, nil
}
