package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photolab_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type payment struct {
	OrderID        string     `db:"order_id"`
	UserTelegramID int64      `db:"user_telegram_id"`
	PackID         *string    `db:"pack_id"`
	Tier           string     `db:"tier"`
	Method         string     `db:"method"`
	Amount         int64      `db:"amount"`
	AmountRUB      int64      `db:"amount_rub"`
	Currency       string     `db:"currency"`
	Status         string     `db:"status"`
	ProviderID     string     `db:"provider_id"`
	PaymentURL     string     `db:"payment_url"`
	TONPayload     string     `db:"ton_payload"`
	CreatedAt      time.Time  `db:"created_at"`
	PaidAt         *time.Time `db:"paid_at"`
}

func (p *payment) toModel() *model.Payment {
	return &model.Payment{
		OrderID:        p.OrderID,
		UserTelegramID: p.UserTelegramID,
		PackID:         p.PackID,
		Tier:           p.Tier,
		Method:         model.PaymentMethod(p.Method),
		Amount:         p.Amount,
		Currency:       p.Currency,
		Status:         model.PaymentStatus(p.Status),
		ProviderID:     p.ProviderID,
		PaymentURL:     p.PaymentURL,
		TONPayload:     p.TONPayload,
		CreatedAt:      p.CreatedAt,
		PaidAt:         p.PaidAt,
	}
}

func (r *Repository) CreatePayment(ctx context.Context, p *model.Payment, amountRUB int64) error {
	query, args, err := squirrel.
		Insert("payments").
		SetMap(map[string]interface{}{
			"order_id":         p.OrderID,
			"user_telegram_id": p.UserTelegramID,
			"pack_id":          p.PackID,
			"tier":             p.Tier,
			"method":           string(p.Method),
			"amount":           p.Amount,
			"amount_rub":       amountRUB,
			"currency":         p.Currency,
			"status":           string(p.Status),
			"provider_id":      p.ProviderID,
			"payment_url":      p.PaymentURL,
			"ton_payload":      p.TONPayload,
			"created_at":       p.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payment insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	query, args, err := squirrel.
		Select("order_id", "user_telegram_id", "pack_id", "tier", "method",
			"amount", "amount_rub", "currency", "status", "provider_id",
			"payment_url", "ton_payload", "created_at", "paid_at").
		From("payments").
		Where(squirrel.Eq{"order_id": orderID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payment select query: %w", err)
	}

	var p payment
	err = r.db.GetContext(ctx, &p, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p.toModel(), nil
}

// ConfirmPayment transitions a pending payment to confirmed and applies all
// of its side effects in one transaction: generation credits, the referral
// earning (at most once per payment) and the generation job. A payment that
// is not pending anymore returns ErrAlreadyProcessed, which callers treat as
// success for webhook replays.
func (r *Repository) ConfirmPayment(ctx context.Context, orderID, providerID string, photos, defaultPercent, partnerPercent int) (*model.Payment, error) {
	var confirmed *model.Payment

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("payments").
			Set("status", string(model.PaymentStatusConfirmed)).
			Set("provider_id", providerID).
			Set("paid_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"order_id": orderID, "status": string(model.PaymentStatusPending)}).
			Suffix("RETURNING order_id, user_telegram_id, pack_id, tier, method, amount, amount_rub, currency, status, provider_id, payment_url, ton_payload, created_at, paid_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build payment confirm query: %w", err)
		}

		var p payment
		err = tx.GetContext(ctx, &p, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("failed to confirm payment: %w", err)
		}

		if err := addGenerations(ctx, tx, p.UserTelegramID, photos); err != nil {
			return fmt.Errorf("failed to credit generations: %w", err)
		}

		if err := r.insertEarning(ctx, tx, &p, defaultPercent, partnerPercent); err != nil {
			return err
		}

		if p.PackID != nil {
			jobQuery, jobArgs, err := squirrel.
				Insert("generation_jobs").
				SetMap(map[string]interface{}{
					"id":               uuid.New().String(),
					"user_telegram_id": p.UserTelegramID,
					"payment_order_id": p.OrderID,
					"pack_id":          *p.PackID,
					"total_photos":     photos,
					"status":           string(model.JobStatusQueued),
				}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build job insert query: %w", err)
			}

			_, err = tx.ExecContext(ctx, jobQuery, jobArgs...)
			if err != nil {
				return fmt.Errorf("failed to insert generation job: %w", err)
			}
		}

		confirmed = p.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return confirmed, nil
}

// insertEarning credits the referrer's commission over the payment's RUB
// value. The unique index on payment_order_id keeps replays from
// double-crediting; the balance updates only when the row actually landed.
func (r *Repository) insertEarning(ctx context.Context, tx *sqlx.Tx, p *payment, defaultPercent, partnerPercent int) error {
	refQuery, refArgs, err := squirrel.
		Select("u.telegram_id", "u.is_partner").
		From("referrals r").
		Join("users u ON u.telegram_id = r.referrer_id").
		Where(squirrel.Eq{"r.referred_id": p.UserTelegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build referrer select query: %w", err)
	}

	var referrer struct {
		TelegramID int64 `db:"telegram_id"`
		IsPartner  bool  `db:"is_partner"`
	}
	err = tx.GetContext(ctx, &referrer, refQuery, refArgs...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to get referrer: %w", err)
	}

	percent := defaultPercent
	if referrer.IsPartner {
		percent = partnerPercent
	}
	amount := p.AmountRUB * int64(percent) / 100

	earnQuery, earnArgs, err := squirrel.
		Insert("referral_earnings").
		SetMap(map[string]interface{}{
			"referrer_id":      referrer.TelegramID,
			"referred_id":      p.UserTelegramID,
			"payment_order_id": p.OrderID,
			"payment_amount":   p.AmountRUB,
			"percent":          percent,
			"amount":           amount,
		}).
		Suffix("ON CONFLICT (payment_order_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build earning insert query: %w", err)
	}

	res, err := tx.ExecContext(ctx, earnQuery, earnArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert referral earning: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil
	}

	balanceQuery, balanceArgs, err := squirrel.
		Update("referral_balances").
		Set("available", squirrel.Expr("available + ?", amount)).
		Set("total_earned", squirrel.Expr("total_earned + ?", amount)).
		Where(squirrel.Eq{"user_telegram_id": referrer.TelegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build balance update query: %w", err)
	}

	_, err = tx.ExecContext(ctx, balanceQuery, balanceArgs...)
	if err != nil {
		return fmt.Errorf("failed to update referral balance: %w", err)
	}

	return nil
}

// RejectPayment marks a pending payment rejected. Replays are no-ops.
func (r *Repository) RejectPayment(ctx context.Context, orderID, providerID string) error {
	query, args, err := squirrel.
		Update("payments").
		Set("status", string(model.PaymentStatusRejected)).
		Set("provider_id", providerID).
		Where(squirrel.Eq{"order_id": orderID, "status": string(model.PaymentStatusPending)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payment reject query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reject payment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyProcessed
	}

	return nil
}

func (r *Repository) ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int64, error) {
	query, args, err := squirrel.
		Update("payments").
		Set("status", string(model.PaymentStatusExpired)).
		Where(squirrel.Eq{"status": string(model.PaymentStatusPending)}).
		Where(squirrel.Expr("created_at < NOW() - ?::interval", fmt.Sprintf("%d seconds", int(olderThan.Seconds())))).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build expire query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to expire payments: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

func (r *Repository) ListPendingPaymentsByMethod(ctx context.Context, method model.PaymentMethod) ([]*model.Payment, error) {
	query, args, err := squirrel.
		Select("order_id", "user_telegram_id", "pack_id", "tier", "method",
			"amount", "amount_rub", "currency", "status", "provider_id",
			"payment_url", "ton_payload", "created_at", "paid_at").
		From("payments").
		Where(squirrel.Eq{"status": string(model.PaymentStatusPending), "method": string(method)}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending payments query: %w", err)
	}

	var rows []payment
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	out := make([]*model.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}
