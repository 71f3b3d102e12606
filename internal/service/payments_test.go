package service

import (
	"context"
	"fmt"
	"testing"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
	"photolab_miniapp/internal/service/mocks"
	"photolab_miniapp/pkg/tbank"
	"photolab_miniapp/pkg/ton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testTerminalPassword = "usaf8fw8fsw21g"

func newTestPaymentService(repo *mocks.MockPaymentRepository, stars *mocks.MockStarsInvoiceCreator) *PaymentService {
	tb := tbank.NewClient("TestTerminal", testTerminalPassword, true)
	tc := ton.NewClient("", "", "UQtestwallet")
	return NewPaymentService(repo, tb, tc, stars, NewEventHub())
}

func signedNotification(orderID string, paymentID int64, amount int64, status string) *tbank.Notification {
	n := &tbank.Notification{
		TerminalKey: "TestTerminal",
		OrderID:     orderID,
		Success:     true,
		Status:      status,
		PaymentID:   paymentID,
		ErrorCode:   "0",
		Amount:      amount,
	}
	n.Token = tbank.GenerateToken(map[string]string{
		"TerminalKey": n.TerminalKey,
		"OrderId":     n.OrderID,
		"Success":     fmt.Sprintf("%t", n.Success),
		"Status":      n.Status,
		"PaymentId":   fmt.Sprintf("%d", n.PaymentID),
		"ErrorCode":   n.ErrorCode,
		"Amount":      fmt.Sprintf("%d", n.Amount),
	}, testTerminalPassword)
	return n
}

func TestPaymentService_HandleTBankNotification(t *testing.T) {
	pendingPayment := &model.Payment{
		OrderID:        "order-1",
		UserTelegramID: 100,
		Tier:           "start",
		Method:         model.PaymentMethodCard,
		Amount:         49900,
		Currency:       "RUB",
		Status:         model.PaymentStatusPending,
	}

	tests := []struct {
		name          string
		notification  *tbank.Notification
		mockSetup     func(repo *mocks.MockPaymentRepository)
		expectedError error
	}{
		{
			name: "Invalid signature",
			notification: func() *tbank.Notification {
				n := signedNotification("order-1", 777, 49900, tbank.StatusConfirmed)
				n.Token = "forged"
				return n
			}(),
			mockSetup:     func(repo *mocks.MockPaymentRepository) {},
			expectedError: ErrInvalidSignature,
		},
		{
			name:         "Unknown order",
			notification: signedNotification("order-missing", 777, 49900, tbank.StatusConfirmed),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-missing").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrPaymentNotFound,
		},
		{
			name:         "Amount mismatch",
			notification: signedNotification("order-1", 777, 100, tbank.StatusConfirmed),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-1").
					Return(pendingPayment, nil)
			},
			expectedError: ErrAmountMismatch,
		},
		{
			name:         "Confirmed",
			notification: signedNotification("order-1", 777, 49900, tbank.StatusConfirmed),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-1").
					Return(pendingPayment, nil)
				repo.On("ConfirmPayment", mock.Anything, "order-1", "777",
					30, DefaultReferralPercent, PartnerReferralPercent).
					Return(&model.Payment{
						OrderID:        "order-1",
						UserTelegramID: 100,
						Tier:           "start",
						Method:         model.PaymentMethodCard,
						Status:         model.PaymentStatusConfirmed,
					}, nil)
			},
			expectedError: nil,
		},
		{
			name:         "Confirmed replay is a no-op success",
			notification: signedNotification("order-1", 777, 49900, tbank.StatusConfirmed),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-1").
					Return(pendingPayment, nil)
				repo.On("ConfirmPayment", mock.Anything, "order-1", "777",
					30, DefaultReferralPercent, PartnerReferralPercent).
					Return(nil, repository.ErrAlreadyProcessed)
			},
			expectedError: nil,
		},
		{
			name:         "Rejected",
			notification: signedNotification("order-1", 777, 49900, tbank.StatusRejected),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-1").
					Return(pendingPayment, nil)
				repo.On("RejectPayment", mock.Anything, "order-1", "777").
					Return(nil)
			},
			expectedError: nil,
		},
		{
			name:         "Rejected replay is a no-op success",
			notification: signedNotification("order-1", 777, 49900, tbank.StatusRejected),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-1").
					Return(pendingPayment, nil)
				repo.On("RejectPayment", mock.Anything, "order-1", "777").
					Return(repository.ErrAlreadyProcessed)
			},
			expectedError: nil,
		},
		{
			name:         "Intermediate status ignored",
			notification: signedNotification("order-1", 777, 49900, "AUTHORIZED"),
			mockSetup: func(repo *mocks.MockPaymentRepository) {
				repo.On("GetPaymentByOrderID", mock.Anything, "order-1").
					Return(pendingPayment, nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockPaymentRepository{}
			tt.mockSetup(mockRepo)
			service := newTestPaymentService(mockRepo, &mocks.MockStarsInvoiceCreator{})

			err := service.HandleTBankNotification(context.Background(), tt.notification)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestPaymentService_CreatePayment_Stars(t *testing.T) {
	activePack := &model.PhotoPack{ID: "pack-1", Title: "Business", IsActive: true}

	tests := []struct {
		name          string
		tier          string
		packID        string
		mockSetup     func(repo *mocks.MockPaymentRepository, stars *mocks.MockStarsInvoiceCreator)
		check         func(t *testing.T, link *model.PaymentLink)
		expectedError error
	}{
		{
			name:          "Unknown tier",
			tier:          "platinum",
			packID:        "pack-1",
			mockSetup:     func(repo *mocks.MockPaymentRepository, stars *mocks.MockStarsInvoiceCreator) {},
			expectedError: ErrUnknownTier,
		},
		{
			name:   "Pack not found",
			tier:   "start",
			packID: "missing",
			mockSetup: func(repo *mocks.MockPaymentRepository, stars *mocks.MockStarsInvoiceCreator) {
				repo.On("GetPackByID", mock.Anything, "missing").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrPackNotFound,
		},
		{
			name:   "Inactive pack",
			tier:   "start",
			packID: "pack-1",
			mockSetup: func(repo *mocks.MockPaymentRepository, stars *mocks.MockStarsInvoiceCreator) {
				repo.On("GetPackByID", mock.Anything, "pack-1").
					Return(&model.PhotoPack{ID: "pack-1", IsActive: false}, nil)
			},
			expectedError: ErrPackInactive,
		},
		{
			name:   "Stars invoice created",
			tier:   "start",
			packID: "pack-1",
			mockSetup: func(repo *mocks.MockPaymentRepository, stars *mocks.MockStarsInvoiceCreator) {
				repo.On("GetPackByID", mock.Anything, "pack-1").
					Return(activePack, nil)
				stars.On("CreateInvoiceLink", mock.Anything,
					"PhotoLab start", mock.Anything, mock.Anything, int64(350)).
					Return("https://t.me/invoice/abc", nil)
				repo.On("CreatePayment", mock.Anything,
					mock.MatchedBy(func(p *model.Payment) bool {
						return p.Method == model.PaymentMethodStars &&
							p.Amount == 350 &&
							p.Currency == "XTR" &&
							p.Status == model.PaymentStatusPending
					}), int64(49900)).
					Return(nil)
			},
			check: func(t *testing.T, link *model.PaymentLink) {
				assert.Equal(t, "https://t.me/invoice/abc", link.PaymentURL)
				assert.Equal(t, int64(350), link.Amount)
				assert.Equal(t, "XTR", link.Currency)
				assert.NotEmpty(t, link.OrderID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockPaymentRepository{}
			mockStars := &mocks.MockStarsInvoiceCreator{}
			tt.mockSetup(mockRepo, mockStars)
			service := newTestPaymentService(mockRepo, mockStars)

			link, err := service.CreatePayment(context.Background(), 100, tt.tier,
				model.PaymentMethodStars, tt.packID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, link)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, link)
				}
			}
			mockRepo.AssertExpectations(t)
			mockStars.AssertExpectations(t)
		})
	}
}

func TestPaymentService_CreatePayment_TON(t *testing.T) {
	mockRepo := &mocks.MockPaymentRepository{}
	mockRepo.On("GetPackByID", mock.Anything, "pack-1").
		Return(&model.PhotoPack{ID: "pack-1", IsActive: true}, nil)
	mockRepo.On("CreatePayment", mock.Anything,
		mock.MatchedBy(func(p *model.Payment) bool {
			return p.Method == model.PaymentMethodTON &&
				p.Amount == 240_000_000 &&
				p.TONPayload == p.OrderID
		}), int64(79900)).
		Return(nil)

	service := newTestPaymentService(mockRepo, &mocks.MockStarsInvoiceCreator{})

	link, err := service.CreatePayment(context.Background(), 100, "pro",
		model.PaymentMethodTON, "pack-1")

	assert.NoError(t, err)
	assert.Equal(t, "UQtestwallet", link.TONAddress)
	assert.Equal(t, link.OrderID, link.TONComment)
	assert.Equal(t, int64(240_000_000), link.Amount)
	assert.Equal(t, "TON", link.Currency)
	mockRepo.AssertExpectations(t)
}

func TestPaymentService_Tiers(t *testing.T) {
	service := newTestPaymentService(&mocks.MockPaymentRepository{}, &mocks.MockStarsInvoiceCreator{})

	out := service.Tiers()
	assert.Len(t, out, 3)

	// Returned slice is a copy, mutating it must not touch the price list.
	out[0].PriceRUB = 1
	assert.Equal(t, int64(49900), service.Tiers()[0].PriceRUB)
}
