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

func TestReferralService_Withdraw(t *testing.T) {
	tests := []struct {
		name          string
		amount        int64
		mockSetup     func(repo *mocks.MockReferralRepository)
		expectedTax   int64
		expectedNet   int64
		expectedError error
	}{
		{
			name:          "Below minimum",
			amount:        49999,
			mockSetup:     func(repo *mocks.MockReferralRepository) {},
			expectedError: ErrBelowMinimumAmount,
		},
		{
			name:   "Exactly minimum, tax rounds to whole rubles",
			amount: 50000, // 500 RUB
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("CreateWithdrawal", mock.Anything, mock.Anything).Return(nil)
			},
			expectedTax: 6500, // 65 RUB
			expectedNet: 43500,
		},
		{
			name:   "Tax rounds half-up",
			amount: 55000, // 550 RUB, 13% = 71.50 RUB -> 72 RUB
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("CreateWithdrawal", mock.Anything, mock.Anything).Return(nil)
			},
			expectedTax: 7200,
			expectedNet: 47800,
		},
		{
			name:   "Tax rounds down below half",
			amount: 54000, // 540 RUB, 13% = 70.20 RUB -> 70 RUB
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("CreateWithdrawal", mock.Anything, mock.Anything).Return(nil)
			},
			expectedTax: 7000,
			expectedNet: 47000,
		},
		{
			name:   "Insufficient balance",
			amount: 100000,
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("CreateWithdrawal", mock.Anything, mock.Anything).
					Return(repository.ErrInsufficientBalance)
			},
			expectedError: ErrInsufficientEarnings,
		},
		{
			name:   "Unknown user",
			amount: 100000,
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("CreateWithdrawal", mock.Anything, mock.Anything).
					Return(repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockReferralRepository{}
			tt.mockSetup(mockRepo)
			service := NewReferralService(mockRepo)

			w, err := service.Withdraw(context.Background(), 100, tt.amount, "card **1234")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, w)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.amount, w.Amount)
				assert.Equal(t, tt.expectedTax, w.Tax)
				assert.Equal(t, tt.expectedNet, w.Net)
				assert.Equal(t, model.WithdrawalStatusPending, w.Status)
				assert.NotEmpty(t, w.ID)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReferralService_ResolveWithdrawal(t *testing.T) {
	tests := []struct {
		name          string
		mockSetup     func(repo *mocks.MockReferralRepository)
		expectedError error
	}{
		{
			name: "Approved",
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("ResolveWithdrawal", mock.Anything, "w-1", true).Return(nil)
			},
		},
		{
			name: "Not found",
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("ResolveWithdrawal", mock.Anything, "w-1", true).
					Return(repository.ErrNotFound)
			},
			expectedError: ErrWithdrawalNotFound,
		},
		{
			name: "Already resolved",
			mockSetup: func(repo *mocks.MockReferralRepository) {
				repo.On("ResolveWithdrawal", mock.Anything, "w-1", true).
					Return(repository.ErrAlreadyProcessed)
			},
			expectedError: ErrWithdrawalResolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockReferralRepository{}
			tt.mockSetup(mockRepo)
			service := NewReferralService(mockRepo)

			err := service.ResolveWithdrawal(context.Background(), "w-1", true)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReferralService_GetStats(t *testing.T) {
	mockRepo := &mocks.MockReferralRepository{}
	mockRepo.On("GetReferralStats", mock.Anything, int64(100)).
		Return(&model.ReferralStats{
			Referrals:     5,
			PaidReferrals: 2,
			TotalEarned:   19960,
			Available:     9960,
			Withdrawn:     10000,
		}, nil)

	service := NewReferralService(mockRepo)

	stats, err := service.GetStats(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, 5, stats.Referrals)
	assert.Equal(t, int64(19960), stats.TotalEarned)

	mockRepo2 := &mocks.MockReferralRepository{}
	mockRepo2.On("GetReferralStats", mock.Anything, int64(200)).
		Return(nil, repository.ErrNotFound)

	_, err = NewReferralService(mockRepo2).GetStats(context.Background(), 200)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
