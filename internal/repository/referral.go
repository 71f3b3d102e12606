package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photolab_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type withdrawal struct {
	ID             string     `db:"id"`
	UserTelegramID int64      `db:"user_telegram_id"`
	Amount         int64      `db:"amount"`
	Tax            int64      `db:"tax"`
	Net            int64      `db:"net"`
	Destination    string     `db:"destination"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	ResolvedAt     *time.Time `db:"resolved_at"`
}

func (w *withdrawal) toModel() *model.Withdrawal {
	return &model.Withdrawal{
		ID:             w.ID,
		UserTelegramID: w.UserTelegramID,
		Amount:         w.Amount,
		Tax:            w.Tax,
		Net:            w.Net,
		Destination:    w.Destination,
		Status:         model.WithdrawalStatus(w.Status),
		CreatedAt:      w.CreatedAt,
		ResolvedAt:     w.ResolvedAt,
	}
}

func (r *Repository) GetReferralStats(ctx context.Context, telegramID int64) (*model.ReferralStats, error) {
	query, args, err := squirrel.
		Select(
			"(SELECT COUNT(*) FROM referrals WHERE referrer_id = b.user_telegram_id) AS referrals",
			"(SELECT COUNT(DISTINCT referred_id) FROM referral_earnings WHERE referrer_id = b.user_telegram_id) AS paid_referrals",
			"(SELECT COALESCE(SUM(amount), 0) FROM referral_withdrawals WHERE user_telegram_id = b.user_telegram_id AND status = 'pending') AS pending",
			"b.total_earned",
			"b.available",
			"b.withdrawn",
		).
		From("referral_balances b").
		Where(squirrel.Eq{"b.user_telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build referral stats query: %w", err)
	}

	var row struct {
		Referrals     int   `db:"referrals"`
		PaidReferrals int   `db:"paid_referrals"`
		Pending       int64 `db:"pending"`
		TotalEarned   int64 `db:"total_earned"`
		Available     int64 `db:"available"`
		Withdrawn     int64 `db:"withdrawn"`
	}
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}

	return &model.ReferralStats{
		Referrals:     row.Referrals,
		PaidReferrals: row.PaidReferrals,
		TotalEarned:   row.TotalEarned,
		Available:     row.Available,
		Pending:       row.Pending,
		Withdrawn:     row.Withdrawn,
	}, nil
}

func (r *Repository) ListEarnings(ctx context.Context, telegramID int64) ([]*model.ReferralEarning, error) {
	query, args, err := squirrel.
		Select("e.id", "e.referrer_id", "e.referred_id", "e.payment_order_id",
			"e.payment_amount", "e.percent", "e.amount", "e.created_at",
			"u.handle AS referred_handle").
		From("referral_earnings e").
		Join("users u ON u.telegram_id = e.referred_id").
		Where(squirrel.Eq{"e.referrer_id": telegramID}).
		OrderBy("e.created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build earnings query: %w", err)
	}

	var rows []struct {
		ID             int64     `db:"id"`
		ReferrerID     int64     `db:"referrer_id"`
		ReferredID     int64     `db:"referred_id"`
		PaymentOrderID string    `db:"payment_order_id"`
		PaymentAmount  int64     `db:"payment_amount"`
		Percent        int       `db:"percent"`
		Amount         int64     `db:"amount"`
		CreatedAt      time.Time `db:"created_at"`
		ReferredHandle string    `db:"referred_handle"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}

	out := make([]*model.ReferralEarning, len(rows))
	for i, row := range rows {
		out[i] = &model.ReferralEarning{
			ID:             row.ID,
			ReferrerID:     row.ReferrerID,
			ReferredID:     row.ReferredID,
			PaymentOrderID: row.PaymentOrderID,
			PaymentAmount:  row.PaymentAmount,
			Percent:        row.Percent,
			Amount:         row.Amount,
			CreatedAt:      row.CreatedAt,
			ReferredHandle: row.ReferredHandle,
		}
	}

	return out, nil
}

// CreateWithdrawal inserts a pending withdrawal after checking the available
// balance under a row lock. Pending withdrawals count against the available
// amount until an admin resolves them.
func (r *Repository) CreateWithdrawal(ctx context.Context, w *model.Withdrawal) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := squirrel.
			Select("available").
			From("referral_balances").
			Where(squirrel.Eq{"user_telegram_id": w.UserTelegramID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build balance lock query: %w", err)
		}

		var available int64
		err = tx.GetContext(ctx, &available, lockQuery, lockArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		pendingQuery, pendingArgs, err := squirrel.
			Select("COALESCE(SUM(amount), 0)").
			From("referral_withdrawals").
			Where(squirrel.Eq{
				"user_telegram_id": w.UserTelegramID,
				"status":           string(model.WithdrawalStatusPending),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build pending sum query: %w", err)
		}

		var pending int64
		err = tx.GetContext(ctx, &pending, pendingQuery, pendingArgs...)
		if err != nil {
			return fmt.Errorf("failed to sum pending withdrawals: %w", err)
		}

		if w.Amount > available-pending {
			return ErrInsufficientBalance
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("referral_withdrawals").
			SetMap(map[string]interface{}{
				"id":               w.ID,
				"user_telegram_id": w.UserTelegramID,
				"amount":           w.Amount,
				"tax":              w.Tax,
				"net":              w.Net,
				"destination":      w.Destination,
				"status":           string(model.WithdrawalStatusPending),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build withdrawal insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert withdrawal: %w", err)
		}

		return nil
	})
}

func (r *Repository) ListWithdrawalsByUser(ctx context.Context, telegramID int64) ([]*model.Withdrawal, error) {
	return r.listWithdrawals(ctx, squirrel.Eq{"user_telegram_id": telegramID})
}

func (r *Repository) ListWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus) ([]*model.Withdrawal, error) {
	return r.listWithdrawals(ctx, squirrel.Eq{"status": string(status)})
}

func (r *Repository) listWithdrawals(ctx context.Context, where squirrel.Eq) ([]*model.Withdrawal, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "amount", "tax", "net",
			"destination", "status", "created_at", "resolved_at").
		From("referral_withdrawals").
		Where(where).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build withdrawals query: %w", err)
	}

	var rows []withdrawal
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}

	out := make([]*model.Withdrawal, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

// ResolveWithdrawal approves or rejects a pending withdrawal. Approval moves
// the amount from available to withdrawn; rejection leaves the balance
// untouched since pending amounts were never deducted. The status gate makes
// a second resolve attempt a no-op error.
func (r *Repository) ResolveWithdrawal(ctx context.Context, id string, approve bool) error {
	newStatus := model.WithdrawalStatusRejected
	if approve {
		newStatus = model.WithdrawalStatusApproved
	}

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("referral_withdrawals").
			Set("status", string(newStatus)).
			Set("resolved_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id, "status": string(model.WithdrawalStatusPending)}).
			Suffix("RETURNING user_telegram_id, amount").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build withdrawal resolve query: %w", err)
		}

		var row struct {
			UserTelegramID int64 `db:"user_telegram_id"`
			Amount         int64 `db:"amount"`
		}
		err = tx.GetContext(ctx, &row, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("failed to resolve withdrawal: %w", err)
		}

		if !approve {
			return nil
		}

		balanceQuery, balanceArgs, err := squirrel.
			Update("referral_balances").
			Set("available", squirrel.Expr("available - ?", row.Amount)).
			Set("withdrawn", squirrel.Expr("withdrawn + ?", row.Amount)).
			Where(squirrel.Eq{"user_telegram_id": row.UserTelegramID}).
			Where(squirrel.Expr("available >= ?", row.Amount)).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build balance update query: %w", err)
		}

		res, err := tx.ExecContext(ctx, balanceQuery, balanceArgs...)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrInsufficientBalance
		}

		return nil
	})
}

func (r *Repository) GetWithdrawal(ctx context.Context, id string) (*model.Withdrawal, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "amount", "tax", "net",
			"destination", "status", "created_at", "resolved_at").
		From("referral_withdrawals").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build withdrawal select query: %w", err)
	}

	var w withdrawal
	err = r.db.GetContext(ctx, &w, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}

	return w.toModel(), nil
}
