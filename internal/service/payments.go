package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photolab_miniapp/internal/metrics"
	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/repository"
	"photolab_miniapp/pkg/logger"
	"photolab_miniapp/pkg/tbank"
	"photolab_miniapp/pkg/ton"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultReferralPercent is the commission over the payment's RUB value
	// credited to a regular referrer; partners get the higher rate.
	DefaultReferralPercent = 20
	PartnerReferralPercent = 30
)

type StarsInvoiceCreator interface {
	CreateInvoiceLink(ctx context.Context, title, description, payload string, amount int64) (string, error)
}

type PaymentService struct {
	repo  PaymentRepository
	tbank *tbank.Client
	ton   *ton.Client
	stars StarsInvoiceCreator
	hub   *EventHub
}

func NewPaymentService(repo PaymentRepository, tb *tbank.Client, tc *ton.Client, stars StarsInvoiceCreator, hub *EventHub) *PaymentService {
	return &PaymentService{
		repo:  repo,
		tbank: tb,
		ton:   tc,
		stars: stars,
		hub:   hub,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, userID int64, tierName string, method model.PaymentMethod, packID string) (*model.PaymentLink, error) {
	tier, ok := tierByName(tierName)
	if !ok {
		return nil, ErrUnknownTier
	}

	pack, err := s.repo.GetPackByID(ctx, packID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to get pack: %w", err)
	}
	if !pack.IsActive {
		return nil, ErrPackInactive
	}

	orderID := uuid.New().String()
	description := fmt.Sprintf("PhotoLab %s: %d photos", tier.Name, tier.Photos)

	p := &model.Payment{
		OrderID:        orderID,
		UserTelegramID: userID,
		PackID:         &packID,
		Tier:           tier.Name,
		Method:         method,
		Status:         model.PaymentStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	link := &model.PaymentLink{OrderID: orderID, Method: method}

	switch method {
	case model.PaymentMethodCard:
		if !s.tbank.IsConfigured() {
			return nil, ErrMethodNotConfigured
		}
		resp, err := s.tbank.Init(ctx, orderID, tier.PriceRUB, description, "")
		if err != nil {
			return nil, fmt.Errorf("failed to init card payment: %w", err)
		}
		p.Amount = tier.PriceRUB
		p.Currency = "RUB"
		p.ProviderID = resp.PaymentID
		p.PaymentURL = resp.PaymentURL
		link.PaymentURL = resp.PaymentURL
		link.Amount = tier.PriceRUB
		link.Currency = "RUB"

	case model.PaymentMethodSBP:
		if !s.tbank.IsConfigured() {
			return nil, ErrMethodNotConfigured
		}
		resp, err := s.tbank.Init(ctx, orderID, tier.PriceRUB, description, tbank.PayTypeSBP)
		if err != nil {
			return nil, fmt.Errorf("failed to init sbp payment: %w", err)
		}
		qr, err := s.tbank.GetQR(ctx, resp.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get sbp qr: %w", err)
		}
		p.Amount = tier.PriceRUB
		p.Currency = "RUB"
		p.ProviderID = resp.PaymentID
		p.PaymentURL = resp.PaymentURL
		link.QRPayload = qr
		link.PaymentURL = resp.PaymentURL
		link.Amount = tier.PriceRUB
		link.Currency = "RUB"

	case model.PaymentMethodStars:
		invoiceLink, err := s.stars.CreateInvoiceLink(ctx,
			fmt.Sprintf("PhotoLab %s", tier.Name), description, orderID, tier.PriceStars)
		if err != nil {
			return nil, fmt.Errorf("failed to create stars invoice: %w", err)
		}
		p.Amount = tier.PriceStars
		p.Currency = "XTR"
		p.PaymentURL = invoiceLink
		link.PaymentURL = invoiceLink
		link.Amount = tier.PriceStars
		link.Currency = "XTR"

	case model.PaymentMethodTON:
		if !s.ton.IsConfigured() {
			return nil, ErrMethodNotConfigured
		}
		p.Amount = tier.PriceNano
		p.Currency = "TON"
		p.TONPayload = orderID
		link.TONAddress = s.ton.Wallet()
		link.TONComment = orderID
		link.Amount = tier.PriceNano
		link.Currency = "TON"

	default:
		return nil, ErrUnknownMethod
	}

	if err := s.repo.CreatePayment(ctx, p, tier.PriceRUB); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	return link, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, orderID string) (*model.Payment, error) {
	p, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// HandleTBankNotification applies a webhook notification. Signature and
// amount are checked before any state moves; replays of an already handled
// notification come back as success.
func (s *PaymentService) HandleTBankNotification(ctx context.Context, n *tbank.Notification) error {
	if !tbank.VerifyNotification(n, s.tbank.Password()) {
		return ErrInvalidSignature
	}

	p, err := s.repo.GetPaymentByOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	if n.Amount != p.Amount {
		return ErrAmountMismatch
	}

	providerID := fmt.Sprintf("%d", n.PaymentID)

	switch n.Status {
	case tbank.StatusConfirmed:
		return s.ConfirmByOrderID(ctx, n.OrderID, providerID)
	case tbank.StatusRejected:
		err := s.repo.RejectPayment(ctx, n.OrderID, providerID)
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return nil
		}
		return err
	default:
		// Intermediate statuses (AUTHORIZED etc.) need no state change.
		return nil
	}
}

// ConfirmByOrderID runs the shared confirmation path used by the T-Bank
// webhook, the Stars update listener and the TON poller.
func (s *PaymentService) ConfirmByOrderID(ctx context.Context, orderID, providerID string) error {
	p, err := s.repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	tier, ok := tierByName(p.Tier)
	if !ok {
		return ErrUnknownTier
	}

	confirmed, err := s.repo.ConfirmPayment(ctx, orderID, providerID,
		tier.Photos, DefaultReferralPercent, PartnerReferralPercent)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return nil
		}
		return err
	}

	metrics.ObservePaymentConfirmed(string(confirmed.Method))

	logger.Logger().Info("payment confirmed",
		zap.String("order_id", confirmed.OrderID),
		zap.Int64("user_id", confirmed.UserTelegramID),
		zap.String("method", string(confirmed.Method)))

	s.hub.Publish(confirmed.UserTelegramID, Message{
		Type: "PAYMENT_CONFIRMED",
		Payload: map[string]any{
			"order_id": confirmed.OrderID,
			"tier":     confirmed.Tier,
			"photos":   tier.Photos,
		},
	})

	return nil
}
