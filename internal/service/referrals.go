package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"

	"github.com/google/uuid"
)

const (
	// MinWithdrawalAmount is 500 RUB in kopecks.
	MinWithdrawalAmount = 50000
	// NDFLPercent is the Russian personal income tax withheld on payouts.
	NDFLPercent = 13
)

type ReferralService struct {
	repo ReferralRepository
}

func NewReferralService(repo ReferralRepository) *ReferralService {
	return &ReferralService{
		repo: repo,
	}
}

func (s *ReferralService) GetStats(ctx context.Context, telegramID int64) (*model.ReferralStats, error) {
	stats, err := s.repo.GetReferralStats(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}
	return stats, nil
}

func (s *ReferralService) ListEarnings(ctx context.Context, telegramID int64) ([]*model.ReferralEarning, error) {
	earnings, err := s.repo.ListEarnings(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}
	return earnings, nil
}

// Withdraw creates a pending withdrawal request. Amount is the gross amount
// in kopecks; NDFL is withheld and the net payout reported back. Tax rounds
// half-up to whole rubles, the way the payout ledger reports it.
func (s *ReferralService) Withdraw(ctx context.Context, telegramID int64, amount int64, destination string) (*model.Withdrawal, error) {
	if amount < MinWithdrawalAmount {
		return nil, ErrBelowMinimumAmount
	}

	tax := (amount*NDFLPercent + 5000) / 10000 * 100

	w := &model.Withdrawal{
		ID:             uuid.New().String(),
		UserTelegramID: telegramID,
		Amount:         amount,
		Tax:            tax,
		Net:            amount - tax,
		Destination:    destination,
		Status:         model.WithdrawalStatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	err := s.repo.CreateWithdrawal(ctx, w)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientEarnings
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	return w, nil
}

func (s *ReferralService) ListMyWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	withdrawals, err := s.repo.ListWithdrawalsByUser(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (s *ReferralService) ListWithdrawals(ctx context.Context, status model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	withdrawals, err := s.repo.ListWithdrawalsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (s *ReferralService) ResolveWithdrawal(ctx context.Context, id string, approve bool) error {
	err := s.repo.ResolveWithdrawal(ctx, id, approve)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return ErrWithdrawalResolved
		}
		return fmt.Errorf("failed to resolve withdrawal: %w", err)
	}
	return nil
}
