package worker

import (
	"context"
	"time"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/logger"
	"photolab_miniapp/pkg/ton"
	"go.uber.org/zap"
)

// PendingPaymentLister is the slice of the payment store the TON poller
// needs.
type PendingPaymentLister interface {
	ListPendingPaymentsByMethod(ctx context.Context, method model.PaymentMethod) ([]*model.Payment, error)
}

// TONWorker polls the wallet for incoming transfers and confirms pending
// TON payments. A transfer matches a payment when its comment carries the
// order id and the amount covers the invoiced nanotons.
type TONWorker struct {
	repo     PendingPaymentLister
	client   *ton.Client
	payments service.PaymentServiceI
	interval time.Duration
}

func NewTONWorker(repo PendingPaymentLister, client *ton.Client,
	payments service.PaymentServiceI, interval time.Duration) *TONWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TONWorker{
		repo:     repo,
		client:   client,
		payments: payments,
		interval: interval,
	}
}

func (w *TONWorker) Run(ctx context.Context) {
	log := logger.Logger()

	if !w.client.IsConfigured() {
		log.Info("ton worker disabled: wallet not configured")
		return
	}

	log.Info("ton worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("ton worker stopped")
			return
		case <-ticker.C:
			w.checkTransfers(ctx)
		}
	}
}

func (w *TONWorker) checkTransfers(ctx context.Context) {
	log := logger.Logger()

	pending, err := w.repo.ListPendingPaymentsByMethod(ctx, model.PaymentMethodTON)
	if err != nil {
		log.Error("failed to list pending ton payments", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	transfers, err := w.client.GetIncomingTransfers(ctx, 50)
	if err != nil {
		log.Warn("failed to fetch wallet transfers", zap.Error(err))
		return
	}

	byOrder := make(map[string]ton.Transfer, len(transfers))
	for _, t := range transfers {
		if t.Comment == "" {
			continue
		}
		byOrder[t.Comment] = t
	}

	for _, p := range pending {
		t, ok := byOrder[p.OrderID]
		if !ok {
			continue
		}
		if t.Amount < p.Amount {
			log.Warn("ton transfer amount below invoice",
				zap.String("order_id", p.OrderID),
				zap.Int64("expected", p.Amount),
				zap.Int64("got", t.Amount))
			continue
		}

		if err := w.payments.ConfirmByOrderID(ctx, p.OrderID, t.Hash); err != nil {
			log.Error("failed to confirm ton payment",
				zap.String("order_id", p.OrderID), zap.Error(err))
			continue
		}

		log.Info("ton payment confirmed",
			zap.String("order_id", p.OrderID),
			zap.String("tx_hash", t.Hash))
	}
}
