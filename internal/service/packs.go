package service

import (
	"context"
	"errors"
	"fmt"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"

	"github.com/google/uuid"
)

type PackService struct {
	repo PackRepository
}

func NewPackService(repo PackRepository) *PackService {
	return &PackService{
		repo: repo,
	}
}

func (s *PackService) ListActive(ctx context.Context) ([]*model.PhotoPack, error) {
	packs, err := s.repo.ListPacks(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}
	return packs, nil
}

func (s *PackService) ListAll(ctx context.Context) ([]*model.PhotoPack, error) {
	packs, err := s.repo.ListPacks(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}
	return packs, nil
}

func (s *PackService) ListOwned(ctx context.Context, partnerID int64) ([]*model.PhotoPack, error) {
	packs, err := s.repo.ListPacksByOwner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned packs: %w", err)
	}
	return packs, nil
}

func (s *PackService) GetPack(ctx context.Context, id string) (*model.PhotoPack, error) {
	pack, err := s.repo.GetPackByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	return pack, nil
}

func (s *PackService) CreatePack(ctx context.Context, pack *model.PhotoPack) error {
	pack.ID = uuid.New().String()
	err := s.repo.CreatePack(ctx, pack)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to create pack: %w", err)
	}
	return nil
}

// checkOwnership lets admins touch any pack and partners only their own.
func (s *PackService) checkOwnership(ctx context.Context, actorID int64, actorIsAdmin bool, packID string) error {
	if actorIsAdmin {
		return nil
	}

	pack, err := s.repo.GetPackByID(ctx, packID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPackNotFound
		}
		return fmt.Errorf("failed to get pack: %w", err)
	}

	if pack.OwnerPartnerID == nil || *pack.OwnerPartnerID != actorID {
		return ErrAccessDenied
	}
	return nil
}

func (s *PackService) UpdatePack(ctx context.Context, actorID int64, actorIsAdmin bool, pack *model.PhotoPack) error {
	if err := s.checkOwnership(ctx, actorID, actorIsAdmin, pack.ID); err != nil {
		return err
	}

	err := s.repo.UpdatePack(ctx, pack)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPackNotFound
		}
		return fmt.Errorf("failed to update pack: %w", err)
	}
	return nil
}

// DeletePack reports disabled=true when the pack had generation history and
// was only deactivated instead of removed.
func (s *PackService) DeletePack(ctx context.Context, actorID int64, actorIsAdmin bool, id string) (bool, error) {
	if err := s.checkOwnership(ctx, actorID, actorIsAdmin, id); err != nil {
		return false, err
	}

	err := s.repo.DeletePack(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPackInUse) {
			return true, nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrPackNotFound
		}
		return false, fmt.Errorf("failed to delete pack: %w", err)
	}
	return false, nil
}

func (s *PackService) AddPrompt(ctx context.Context, actorID int64, actorIsAdmin bool, prompt *model.PackPrompt) error {
	if err := s.checkOwnership(ctx, actorID, actorIsAdmin, prompt.PackID); err != nil {
		return err
	}

	prompt.ID = uuid.New().String()
	err := s.repo.CreatePackPrompt(ctx, prompt)
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	return nil
}

func (s *PackService) UpdatePrompt(ctx context.Context, actorID int64, actorIsAdmin bool, prompt *model.PackPrompt) error {
	if err := s.checkOwnership(ctx, actorID, actorIsAdmin, prompt.PackID); err != nil {
		return err
	}

	err := s.repo.UpdatePackPrompt(ctx, prompt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPackNotFound
		}
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return nil
}

func (s *PackService) DeletePrompt(ctx context.Context, actorID int64, actorIsAdmin bool, packID, promptID string) error {
	if err := s.checkOwnership(ctx, actorID, actorIsAdmin, packID); err != nil {
		return err
	}

	err := s.repo.DeletePackPrompt(ctx, packID, promptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPackNotFound
		}
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	return nil
}
