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

func TestUserService_RegisterUser(t *testing.T) {
	tests := []struct {
		name          string
		user          *model.User
		referralCode  string
		mockSetup     func(repo *mocks.MockUserRepository)
		check         func(t *testing.T, user *model.User)
		expectedError error
	}{
		{
			name:         "No referral code",
			user:         &model.User{TelegramID: 100, Handle: "alice"},
			referralCode: "",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Nil(t, user.ReferrerID)
				assert.Len(t, user.ReferralCode, 10)
			},
		},
		{
			name:         "Valid referral code",
			user:         &model.User{TelegramID: 100, Handle: "alice"},
			referralCode: "ab12cd34ef",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByReferralCode", mock.Anything, "ab12cd34ef").
					Return(&model.User{TelegramID: 200}, nil)
				repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.NotNil(t, user.ReferrerID)
				assert.Equal(t, int64(200), *user.ReferrerID)
			},
		},
		{
			name:         "Unknown referral code",
			user:         &model.User{TelegramID: 100, Handle: "alice"},
			referralCode: "nope",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByReferralCode", mock.Anything, "nope").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrInvalidReferralCode,
		},
		{
			name:         "Self referral",
			user:         &model.User{TelegramID: 100, Handle: "alice"},
			referralCode: "owncode123",
			mockSetup: func(repo *mocks.MockUserRepository) {
				repo.On("GetUserByReferralCode", mock.Anything, "owncode123").
					Return(&model.User{TelegramID: 100}, nil)
			},
			expectedError: ErrCannotReferSelf,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			tt.mockSetup(mockRepo)
			service := NewUserService(mockRepo)

			err := service.RegisterUser(context.Background(), tt.user, tt.referralCode)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, tt.user)
				}
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetUserByTelegramID(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	mockRepo.On("GetUserByTelegramID", mock.Anything, int64(404)).
		Return(nil, repository.ErrNotFound)

	_, err := NewUserService(mockRepo).GetUserByTelegramID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ListUsers_ClampsLimit(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	mockRepo.On("ListUsers", mock.Anything, "", 50, 0).
		Return([]*model.UserListItem{}, nil)

	_, err := NewUserService(mockRepo).ListUsers(context.Background(), "", 9999, -5)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
