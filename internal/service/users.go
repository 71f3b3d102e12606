package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// RegisterUser creates the user, resolving an optional referral code into
// the referrer edge. Unknown codes and self-referrals are rejected.
func (s *UserService) RegisterUser(ctx context.Context, user *model.User, referralCode string) error {
	if referralCode != "" {
		referrer, err := s.repo.GetUserByReferralCode(ctx, referralCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidReferralCode
			}
			return fmt.Errorf("failed to resolve referral code: %w", err)
		}
		if referrer.TelegramID == user.TelegramID {
			return ErrCannotReferSelf
		}
		user.ReferrerID = &referrer.TelegramID
	}

	code, err := newReferralCode()
	if err != nil {
		return fmt.Errorf("failed to generate referral code: %w", err)
	}
	user.ReferralCode = code

	err = s.repo.CreateUser(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, search string, limit, offset int) ([]*model.UserListItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.ListUsers(ctx, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	stats, err := s.repo.GetAdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}
	return stats, nil
}

func newReferralCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
