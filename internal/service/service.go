package service

import (
	"context"
	"errors"
	"time"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/pkg/genapi"
	"photolab_miniapp/pkg/tbank"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrCannotReferSelf     = errors.New("cannot refer yourself")

	ErrUnknownTier          = errors.New("unknown pricing tier")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrUnknownMethod        = errors.New("unknown payment method")
	ErrPackNotFound         = errors.New("pack not found")
	ErrSlugTaken            = errors.New("pack slug already exists")
	ErrPackInactive         = errors.New("pack is not active")
	ErrAmountMismatch       = errors.New("notification amount does not match payment")
	ErrInvalidSignature     = errors.New("invalid notification signature")
	ErrMethodNotConfigured  = errors.New("payment method is not configured")
	ErrBelowMinimumAmount   = errors.New("amount is below the withdrawal minimum")
	ErrInsufficientEarnings = errors.New("insufficient referral balance")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalResolved   = errors.New("withdrawal already resolved")

	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket is closed")
	ErrAccessDenied   = errors.New("access denied")

	ErrJobNotFound = errors.New("generation job not found")
)

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User, referralCode string) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*model.UserListItem, error)
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	AddUserGenerations(ctx context.Context, telegramID int64, delta int) error
	UpdateUserAuthDate(ctx context.Context, telegramID int64, authDate time.Time) error
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*model.UserListItem, error)
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)
}

type PaymentServiceI interface {
	Tiers() []model.Tier
	CreatePayment(ctx context.Context, userID int64, tier string, method model.PaymentMethod, packID string) (*model.PaymentLink, error)
	GetPayment(ctx context.Context, orderID string) (*model.Payment, error)
	HandleTBankNotification(ctx context.Context, n *tbank.Notification) error
	ConfirmByOrderID(ctx context.Context, orderID, providerID string) error
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, p *model.Payment, amountRUB int64) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	ConfirmPayment(ctx context.Context, orderID, providerID string, photos, defaultPercent, partnerPercent int) (*model.Payment, error)
	RejectPayment(ctx context.Context, orderID, providerID string) error
	GetPackByID(ctx context.Context, id string) (*model.PhotoPack, error)
}

type ReferralServiceI interface {
	GetStats(ctx context.Context, telegramID int64) (*model.ReferralStats, error)
	ListEarnings(ctx context.Context, telegramID int64) ([]*model.ReferralEarning, error)
	Withdraw(ctx context.Context, telegramID int64, amount int64, destination string) (*model.Withdrawal, error)
	ListMyWithdrawals(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error)
	ListWithdrawals(ctx context.Context, status model.WithdrawalStatus) ([]*model.Withdrawal, error)
	ResolveWithdrawal(ctx context.Context, id string, approve bool) error
}

type ReferralRepository interface {
	GetReferralStats(ctx context.Context, telegramID int64) (*model.ReferralStats, error)
	ListEarnings(ctx context.Context, telegramID int64) ([]*model.ReferralEarning, error)
	CreateWithdrawal(ctx context.Context, w *model.Withdrawal) error
	ListWithdrawalsByUser(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error)
	ListWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus) ([]*model.Withdrawal, error)
	ResolveWithdrawal(ctx context.Context, id string, approve bool) error
	GetWithdrawal(ctx context.Context, id string) (*model.Withdrawal, error)
}

type PackServiceI interface {
	ListActive(ctx context.Context) ([]*model.PhotoPack, error)
	GetPack(ctx context.Context, id string) (*model.PhotoPack, error)
	ListAll(ctx context.Context) ([]*model.PhotoPack, error)
	ListOwned(ctx context.Context, partnerID int64) ([]*model.PhotoPack, error)
	CreatePack(ctx context.Context, pack *model.PhotoPack) error
	UpdatePack(ctx context.Context, actorID int64, actorIsAdmin bool, pack *model.PhotoPack) error
	DeletePack(ctx context.Context, actorID int64, actorIsAdmin bool, id string) (disabled bool, err error)
	AddPrompt(ctx context.Context, actorID int64, actorIsAdmin bool, prompt *model.PackPrompt) error
	UpdatePrompt(ctx context.Context, actorID int64, actorIsAdmin bool, prompt *model.PackPrompt) error
	DeletePrompt(ctx context.Context, actorID int64, actorIsAdmin bool, packID, promptID string) error
}

type PackRepository interface {
	CreatePack(ctx context.Context, p *model.PhotoPack) error
	UpdatePack(ctx context.Context, p *model.PhotoPack) error
	DeletePack(ctx context.Context, id string) error
	ListPacks(ctx context.Context, activeOnly bool) ([]*model.PhotoPack, error)
	ListPacksByOwner(ctx context.Context, partnerID int64) ([]*model.PhotoPack, error)
	GetPackByID(ctx context.Context, id string) (*model.PhotoPack, error)
	CreatePackPrompt(ctx context.Context, p *model.PackPrompt) error
	UpdatePackPrompt(ctx context.Context, p *model.PackPrompt) error
	DeletePackPrompt(ctx context.Context, packID, promptID string) error
}

type TicketServiceI interface {
	CreateTicket(ctx context.Context, userID int64, subject, message string) (*model.Ticket, error)
	ListMyTickets(ctx context.Context, userID int64) ([]*model.Ticket, error)
	GetTicket(ctx context.Context, userID int64, isAdmin bool, id string) (*model.Ticket, error)
	AddMessage(ctx context.Context, userID int64, id, body string) error
	ListTickets(ctx context.Context, status model.TicketStatus) ([]*model.Ticket, error)
	Reply(ctx context.Context, id, body string) error
	CloseTicket(ctx context.Context, id string) error
}

type TicketRepository interface {
	CreateTicket(ctx context.Context, t *model.Ticket, firstMessage string) error
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	ListTicketsByUser(ctx context.Context, telegramID int64) ([]*model.Ticket, error)
	ListTicketsByStatus(ctx context.Context, status model.TicketStatus) ([]*model.Ticket, error)
	AddTicketMessage(ctx context.Context, ticketID string, fromAdmin bool, body string) error
	CloseTicket(ctx context.Context, id string) error
}

type GenerationServiceI interface {
	ListMyJobs(ctx context.Context, userID int64) ([]*model.GenerationJob, error)
	GetJob(ctx context.Context, userID int64, isAdmin bool, id string) (*model.GenerationJob, error)
}

type GenerationRepository interface {
	GetJob(ctx context.Context, id string) (*model.GenerationJob, error)
	ListJobsByUser(ctx context.Context, telegramID int64) ([]*model.GenerationJob, error)
	ClaimQueuedJobs(ctx context.Context, limit int) ([]*model.GenerationJob, error)
	ListProcessingJobs(ctx context.Context) ([]*model.GenerationJob, error)
	SetJobBatchID(ctx context.Context, jobID, batchID string) error
	UpdateJobProgress(ctx context.Context, jobID string, completed int, urls []string, done bool) error
	FailJob(ctx context.Context, jobID string) error
	ListPackPrompts(ctx context.Context, packID string) ([]model.PackPrompt, error)
}

// GenerationProvider is the image-generation backend the worker drives.
type GenerationProvider interface {
	Submit(ctx context.Context, prompts []genapi.Prompt, totalPhotos int) (string, error)
	Status(ctx context.Context, batchID string) (*genapi.BatchStatus, error)
}
