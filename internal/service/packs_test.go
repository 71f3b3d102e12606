package service

import (
	"context"
	"testing"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
	"photolab_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPackService_DeletePack(t *testing.T) {
	partnerID := int64(300)
	ownedPack := &model.PhotoPack{ID: "pack-1", OwnerPartnerID: &partnerID}

	tests := []struct {
		name             string
		actorID          int64
		actorIsAdmin     bool
		mockSetup        func(repo *mocks.MockPackRepository)
		expectedDisabled bool
		expectedError    error
	}{
		{
			name:         "Admin deletes unused pack",
			actorID:      1,
			actorIsAdmin: true,
			mockSetup: func(repo *mocks.MockPackRepository) {
				repo.On("DeletePack", mock.Anything, "pack-1").Return(nil)
			},
		},
		{
			name:         "Pack with history is disabled instead",
			actorID:      1,
			actorIsAdmin: true,
			mockSetup: func(repo *mocks.MockPackRepository) {
				repo.On("DeletePack", mock.Anything, "pack-1").
					Return(repository.ErrPackInUse)
			},
			expectedDisabled: true,
		},
		{
			name:    "Partner deletes own pack",
			actorID: 300,
			mockSetup: func(repo *mocks.MockPackRepository) {
				repo.On("GetPackByID", mock.Anything, "pack-1").Return(ownedPack, nil)
				repo.On("DeletePack", mock.Anything, "pack-1").Return(nil)
			},
		},
		{
			name:    "Partner cannot delete someone else's pack",
			actorID: 999,
			mockSetup: func(repo *mocks.MockPackRepository) {
				repo.On("GetPackByID", mock.Anything, "pack-1").Return(ownedPack, nil)
			},
			expectedError: ErrAccessDenied,
		},
		{
			name:    "Partner cannot delete a global pack",
			actorID: 300,
			mockSetup: func(repo *mocks.MockPackRepository) {
				repo.On("GetPackByID", mock.Anything, "pack-1").
					Return(&model.PhotoPack{ID: "pack-1"}, nil)
			},
			expectedError: ErrAccessDenied,
		},
		{
			name:         "Pack not found",
			actorID:      1,
			actorIsAdmin: true,
			mockSetup: func(repo *mocks.MockPackRepository) {
				repo.On("DeletePack", mock.Anything, "pack-1").
					Return(repository.ErrNotFound)
			},
			expectedError: ErrPackNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockPackRepository{}
			tt.mockSetup(mockRepo)
			service := NewPackService(mockRepo)

			disabled, err := service.DeletePack(context.Background(), tt.actorID, tt.actorIsAdmin, "pack-1")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedDisabled, disabled)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPackService_CreatePack(t *testing.T) {
	t.Run("Assigns id", func(t *testing.T) {
		mockRepo := &mocks.MockPackRepository{}
		mockRepo.On("CreatePack", mock.Anything, mock.MatchedBy(func(p *model.PhotoPack) bool {
			return p.ID != ""
		})).Return(nil)

		service := NewPackService(mockRepo)
		err := service.CreatePack(context.Background(), &model.PhotoPack{Title: "Business", Slug: "business"})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Duplicate slug", func(t *testing.T) {
		mockRepo := &mocks.MockPackRepository{}
		mockRepo.On("CreatePack", mock.Anything, mock.Anything).
			Return(repository.ErrAlreadyExists)

		service := NewPackService(mockRepo)
		err := service.CreatePack(context.Background(), &model.PhotoPack{Title: "Business", Slug: "business"})

		assert.ErrorIs(t, err, ErrSlugTaken)
	})
}

func TestPackService_AddPrompt(t *testing.T) {
	partnerID := int64(300)
	ownedPack := &model.PhotoPack{ID: "pack-1", OwnerPartnerID: &partnerID}

	mockRepo := &mocks.MockPackRepository{}
	mockRepo.On("GetPackByID", mock.Anything, "pack-1").Return(ownedPack, nil)
	mockRepo.On("CreatePackPrompt", mock.Anything, mock.MatchedBy(func(p *model.PackPrompt) bool {
		return p.ID != "" && p.PackID == "pack-1"
	})).Return(nil)

	service := NewPackService(mockRepo)
	err := service.AddPrompt(context.Background(), 300, false, &model.PackPrompt{
		PackID:     "pack-1",
		PromptText: "studio portrait, soft light",
		StyleTags:  []string{"studio", "portrait"},
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
