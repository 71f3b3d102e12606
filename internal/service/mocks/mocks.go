package mocks

import (
	"context"
	"time"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/pkg/genapi"
	"photolab_miniapp/pkg/tbank"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) AddUserGenerations(ctx context.Context, telegramID int64, delta int) error {
	args := m.Called(ctx, telegramID, delta)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUserAuthDate(ctx context.Context, telegramID int64, authDate time.Time) error {
	args := m.Called(ctx, telegramID, authDate)
	return args.Error(0)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, search string, limit, offset int) ([]*model.UserListItem, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserListItem), args.Error(1)
}

func (m *MockUserRepository) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminStats), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, p *model.Payment, amountRUB int64) error {
	args := m.Called(ctx, p, amountRUB)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ConfirmPayment(ctx context.Context, orderID, providerID string, photos, defaultPercent, partnerPercent int) (*model.Payment, error) {
	args := m.Called(ctx, orderID, providerID, photos, defaultPercent, partnerPercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) RejectPayment(ctx context.Context, orderID, providerID string) error {
	args := m.Called(ctx, orderID, providerID)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPackByID(ctx context.Context, id string) (*model.PhotoPack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PhotoPack), args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetReferralStats(ctx context.Context, telegramID int64) (*model.ReferralStats, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralStats), args.Error(1)
}

func (m *MockReferralRepository) ListEarnings(ctx context.Context, telegramID int64) ([]*model.ReferralEarning, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReferralEarning), args.Error(1)
}

func (m *MockReferralRepository) CreateWithdrawal(ctx context.Context, w *model.Withdrawal) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockReferralRepository) ListWithdrawalsByUser(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockReferralRepository) ListWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

func (m *MockReferralRepository) ResolveWithdrawal(ctx context.Context, id string, approve bool) error {
	args := m.Called(ctx, id, approve)
	return args.Error(0)
}

func (m *MockReferralRepository) GetWithdrawal(ctx context.Context, id string) (*model.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Withdrawal), args.Error(1)
}

type MockPackRepository struct {
	mock.Mock
}

func (m *MockPackRepository) CreatePack(ctx context.Context, p *model.PhotoPack) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPackRepository) UpdatePack(ctx context.Context, p *model.PhotoPack) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPackRepository) DeletePack(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPackRepository) ListPacks(ctx context.Context, activeOnly bool) ([]*model.PhotoPack, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PhotoPack), args.Error(1)
}

func (m *MockPackRepository) ListPacksByOwner(ctx context.Context, partnerID int64) ([]*model.PhotoPack, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PhotoPack), args.Error(1)
}

func (m *MockPackRepository) GetPackByID(ctx context.Context, id string) (*model.PhotoPack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PhotoPack), args.Error(1)
}

func (m *MockPackRepository) CreatePackPrompt(ctx context.Context, p *model.PackPrompt) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPackRepository) UpdatePackPrompt(ctx context.Context, p *model.PackPrompt) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPackRepository) DeletePackPrompt(ctx context.Context, packID, promptID string) error {
	args := m.Called(ctx, packID, promptID)
	return args.Error(0)
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateTicket(ctx context.Context, t *model.Ticket, firstMessage string) error {
	args := m.Called(ctx, t, firstMessage)
	return args.Error(0)
}

func (m *MockTicketRepository) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListTicketsByUser(ctx context.Context, telegramID int64) ([]*model.Ticket, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListTicketsByStatus(ctx context.Context, status model.TicketStatus) ([]*model.Ticket, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *MockTicketRepository) AddTicketMessage(ctx context.Context, ticketID string, fromAdmin bool, body string) error {
	args := m.Called(ctx, ticketID, fromAdmin, body)
	return args.Error(0)
}

func (m *MockTicketRepository) CloseTicket(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockGenerationRepository struct {
	mock.Mock
}

func (m *MockGenerationRepository) GetJob(ctx context.Context, id string) (*model.GenerationJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GenerationJob), args.Error(1)
}

func (m *MockGenerationRepository) ListJobsByUser(ctx context.Context, telegramID int64) ([]*model.GenerationJob, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GenerationJob), args.Error(1)
}

func (m *MockGenerationRepository) ClaimQueuedJobs(ctx context.Context, limit int) ([]*model.GenerationJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GenerationJob), args.Error(1)
}

func (m *MockGenerationRepository) ListProcessingJobs(ctx context.Context) ([]*model.GenerationJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GenerationJob), args.Error(1)
}

func (m *MockGenerationRepository) SetJobBatchID(ctx context.Context, jobID, batchID string) error {
	args := m.Called(ctx, jobID, batchID)
	return args.Error(0)
}

func (m *MockGenerationRepository) UpdateJobProgress(ctx context.Context, jobID string, completed int, urls []string, done bool) error {
	args := m.Called(ctx, jobID, completed, urls, done)
	return args.Error(0)
}

func (m *MockGenerationRepository) FailJob(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockGenerationRepository) ListPackPrompts(ctx context.Context, packID string) ([]model.PackPrompt, error) {
	args := m.Called(ctx, packID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PackPrompt), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Tiers() []model.Tier {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Tier)
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, userID int64, tier string, method model.PaymentMethod, packID string) (*model.PaymentLink, error) {
	args := m.Called(ctx, userID, tier, method, packID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentLink), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, orderID string) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) HandleTBankNotification(ctx context.Context, n *tbank.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockPaymentService) ConfirmByOrderID(ctx context.Context, orderID, providerID string) error {
	args := m.Called(ctx, orderID, providerID)
	return args.Error(0)
}

type MockStarsInvoiceCreator struct {
	mock.Mock
}

func (m *MockStarsInvoiceCreator) CreateInvoiceLink(ctx context.Context, title, description, payload string, amount int64) (string, error) {
	args := m.Called(ctx, title, description, payload, amount)
	return args.String(0), args.Error(1)
}

type MockUserNotifier struct {
	mock.Mock
}

func (m *MockUserNotifier) NotifyUser(chatID int64, text string) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

type MockGenerationProvider struct {
	mock.Mock
}

func (m *MockGenerationProvider) Submit(ctx context.Context, prompts []genapi.Prompt, totalPhotos int) (string, error) {
	args := m.Called(ctx, prompts, totalPhotos)
	return args.String(0), args.Error(1)
}

func (m *MockGenerationProvider) Status(ctx context.Context, batchID string) (*genapi.BatchStatus, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genapi.BatchStatus), args.Error(1)
}

type MockPackService struct {
	mock.Mock
}

func (m *MockPackService) ListActive(ctx context.Context) ([]*model.PhotoPack, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PhotoPack), args.Error(1)
}

func (m *MockPackService) GetPack(ctx context.Context, id string) (*model.PhotoPack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PhotoPack), args.Error(1)
}

func (m *MockPackService) ListAll(ctx context.Context) ([]*model.PhotoPack, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PhotoPack), args.Error(1)
}

func (m *MockPackService) ListOwned(ctx context.Context, partnerID int64) ([]*model.PhotoPack, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PhotoPack), args.Error(1)
}

func (m *MockPackService) CreatePack(ctx context.Context, pack *model.PhotoPack) error {
	args := m.Called(ctx, pack)
	return args.Error(0)
}

func (m *MockPackService) UpdatePack(ctx context.Context, actorID int64, actorIsAdmin bool, pack *model.PhotoPack) error {
	args := m.Called(ctx, actorID, actorIsAdmin, pack)
	return args.Error(0)
}

func (m *MockPackService) DeletePack(ctx context.Context, actorID int64, actorIsAdmin bool, id string) (bool, error) {
	args := m.Called(ctx, actorID, actorIsAdmin, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPackService) AddPrompt(ctx context.Context, actorID int64, actorIsAdmin bool, prompt *model.PackPrompt) error {
	args := m.Called(ctx, actorID, actorIsAdmin, prompt)
	return args.Error(0)
}

func (m *MockPackService) UpdatePrompt(ctx context.Context, actorID int64, actorIsAdmin bool, prompt *model.PackPrompt) error {
	args := m.Called(ctx, actorID, actorIsAdmin, prompt)
	return args.Error(0)
}

func (m *MockPackService) DeletePrompt(ctx context.Context, actorID int64, actorIsAdmin bool, packID, promptID string) error {
	args := m.Called(ctx, actorID, actorIsAdmin, packID, promptID)
	return args.Error(0)
}
