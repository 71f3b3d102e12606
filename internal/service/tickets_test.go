package service

import (
	"context"
	"errors"
	"testing"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
	"photolab_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTicketService_AddMessage(t *testing.T) {
	ownTicket := &model.Ticket{ID: "t-1", UserTelegramID: 100, Status: model.TicketStatusAnswered}

	tests := []struct {
		name          string
		userID        int64
		mockSetup     func(repo *mocks.MockTicketRepository)
		expectedError error
	}{
		{
			name:   "Owner appends message",
			userID: 100,
			mockSetup: func(repo *mocks.MockTicketRepository) {
				repo.On("GetTicket", mock.Anything, "t-1").Return(ownTicket, nil)
				repo.On("AddTicketMessage", mock.Anything, "t-1", false, "still broken").
					Return(nil)
			},
		},
		{
			name:   "Not the owner",
			userID: 999,
			mockSetup: func(repo *mocks.MockTicketRepository) {
				repo.On("GetTicket", mock.Anything, "t-1").Return(ownTicket, nil)
			},
			expectedError: ErrAccessDenied,
		},
		{
			name:   "Closed ticket",
			userID: 100,
			mockSetup: func(repo *mocks.MockTicketRepository) {
				repo.On("GetTicket", mock.Anything, "t-1").Return(ownTicket, nil)
				repo.On("AddTicketMessage", mock.Anything, "t-1", false, "still broken").
					Return(repository.ErrAlreadyProcessed)
			},
			expectedError: ErrTicketClosed,
		},
		{
			name:   "Ticket not found",
			userID: 100,
			mockSetup: func(repo *mocks.MockTicketRepository) {
				repo.On("GetTicket", mock.Anything, "t-1").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrTicketNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockTicketRepository{}
			tt.mockSetup(mockRepo)
			service := NewTicketService(mockRepo, nil)

			err := service.AddMessage(context.Background(), tt.userID, "t-1", "still broken")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTicketService_Reply(t *testing.T) {
	ticket := &model.Ticket{ID: "t-1", UserTelegramID: 100, Subject: "No photos", Status: model.TicketStatusOpen}

	t.Run("Reply notifies the user", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{}
		mockRepo.On("GetTicket", mock.Anything, "t-1").Return(ticket, nil)
		mockRepo.On("AddTicketMessage", mock.Anything, "t-1", true, "fixed, try again").
			Return(nil)

		mockNotifier := &mocks.MockUserNotifier{}
		mockNotifier.On("NotifyUser", int64(100), mock.Anything).Return(nil)

		service := NewTicketService(mockRepo, mockNotifier)
		err := service.Reply(context.Background(), "t-1", "fixed, try again")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("Notification failure does not fail the reply", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{}
		mockRepo.On("GetTicket", mock.Anything, "t-1").Return(ticket, nil)
		mockRepo.On("AddTicketMessage", mock.Anything, "t-1", true, "fixed").
			Return(nil)

		mockNotifier := &mocks.MockUserNotifier{}
		mockNotifier.On("NotifyUser", int64(100), mock.Anything).
			Return(errors.New("blocked by user"))

		service := NewTicketService(mockRepo, mockNotifier)
		err := service.Reply(context.Background(), "t-1", "fixed")

		assert.NoError(t, err)
	})

	t.Run("Reply to closed ticket", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{}
		mockRepo.On("GetTicket", mock.Anything, "t-1").Return(ticket, nil)
		mockRepo.On("AddTicketMessage", mock.Anything, "t-1", true, "hello").
			Return(repository.ErrAlreadyProcessed)

		service := NewTicketService(mockRepo, nil)
		err := service.Reply(context.Background(), "t-1", "hello")

		assert.ErrorIs(t, err, ErrTicketClosed)
	})
}

func TestTicketService_GetTicket(t *testing.T) {
	ticket := &model.Ticket{ID: "t-1", UserTelegramID: 100}

	mockRepo := &mocks.MockTicketRepository{}
	mockRepo.On("GetTicket", mock.Anything, "t-1").Return(ticket, nil)
	service := NewTicketService(mockRepo, nil)

	// Admin reads any ticket.
	got, err := service.GetTicket(context.Background(), 999, true, "t-1")
	assert.NoError(t, err)
	assert.Equal(t, "t-1", got.ID)

	// Stranger does not.
	_, err = service.GetTicket(context.Background(), 999, false, "t-1")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestTicketService_CloseTicket(t *testing.T) {
	tests := []struct {
		name          string
		repoError     error
		expectedError error
	}{
		{
			name: "Open ticket closed",
		},
		{
			name:          "Unknown ticket",
			repoError:     repository.ErrNotFound,
			expectedError: ErrTicketNotFound,
		},
		{
			name:          "Already closed",
			repoError:     repository.ErrAlreadyProcessed,
			expectedError: ErrTicketClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockTicketRepository{}
			mockRepo.On("CloseTicket", mock.Anything, "t-1").Return(tt.repoError)

			service := NewTicketService(mockRepo, nil)
			err := service.CloseTicket(context.Background(), "t-1")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}
