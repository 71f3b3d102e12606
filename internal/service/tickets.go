package service

import (
	"context"
	"errors"
	"fmt"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
	"photolab_miniapp/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserNotifier delivers out-of-band notifications, normally the bot.
type UserNotifier interface {
	NotifyUser(chatID int64, text string) error
}

type TicketService struct {
	repo     TicketRepository
	notifier UserNotifier
}

func NewTicketService(repo TicketRepository, notifier UserNotifier) *TicketService {
	return &TicketService{
		repo:     repo,
		notifier: notifier,
	}
}

func (s *TicketService) CreateTicket(ctx context.Context, userID int64, subject, message string) (*model.Ticket, error) {
	t := &model.Ticket{
		ID:             uuid.New().String(),
		UserTelegramID: userID,
		Subject:        subject,
		Status:         model.TicketStatusOpen,
	}

	err := s.repo.CreateTicket(ctx, t, message)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return t, nil
}

func (s *TicketService) ListMyTickets(ctx context.Context, userID int64) ([]*model.Ticket, error) {
	tickets, err := s.repo.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (s *TicketService) GetTicket(ctx context.Context, userID int64, isAdmin bool, id string) (*model.Ticket, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	if !isAdmin && t.UserTelegramID != userID {
		return nil, ErrAccessDenied
	}

	return t, nil
}

// AddMessage appends a user message; answered tickets reopen.
func (s *TicketService) AddMessage(ctx context.Context, userID int64, id, body string) error {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to get ticket: %w", err)
	}

	if t.UserTelegramID != userID {
		return ErrAccessDenied
	}

	err = s.repo.AddTicketMessage(ctx, id, false, body)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrTicketClosed
		}
		return fmt.Errorf("failed to add message: %w", err)
	}

	return nil
}

func (s *TicketService) ListTickets(ctx context.Context, status model.TicketStatus) ([]*model.Ticket, error) {
	tickets, err := s.repo.ListTicketsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// Reply records an admin answer and notifies the user through the bot. A
// notification failure does not fail the reply.
func (s *TicketService) Reply(ctx context.Context, id, body string) error {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to get ticket: %w", err)
	}

	err = s.repo.AddTicketMessage(ctx, id, true, body)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrTicketClosed
		}
		return fmt.Errorf("failed to add reply: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyUser(t.UserTelegramID,
			fmt.Sprintf("Support replied to your ticket \"%s\"", t.Subject)); err != nil {
			logger.Logger().Warn("failed to notify user about ticket reply",
				zap.String("ticket_id", id), zap.Error(err))
		}
	}

	return nil
}

func (s *TicketService) CloseTicket(ctx context.Context, id string) error {
	err := s.repo.CloseTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTicketNotFound
		}
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return ErrTicketClosed
		}
		return fmt.Errorf("failed to close ticket: %w", err)
	}
	return nil
}
