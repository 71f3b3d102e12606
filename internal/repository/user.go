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

type user struct {
	TelegramID       int64     `db:"telegram_id"`
	Handle           string    `db:"handle"`
	Username         string    `db:"username"`
	ReferralCode     string    `db:"referral_code"`
	ReferrerID       *int64    `db:"referrer_id"`
	Referrals        int       `db:"referrals"`
	Generations      int       `db:"generations"`
	IsAdmin          bool      `db:"is_admin"`
	IsPartner        bool      `db:"is_partner"`
	RegistrationDate time.Time `db:"registration_date"`
	AuthDate         time.Time `db:"last_auth_date"`
}

func (u *user) toModel() *model.User {
	return &model.User{
		TelegramID:       u.TelegramID,
		Handle:           u.Handle,
		Username:         u.Username,
		ReferralCode:     u.ReferralCode,
		ReferrerID:       u.ReferrerID,
		Referrals:        u.Referrals,
		Generations:      u.Generations,
		IsAdmin:          u.IsAdmin,
		IsPartner:        u.IsPartner,
		RegistrationDate: u.RegistrationDate,
		AuthDate:         u.AuthDate,
	}
}

func (r *Repository) CreateUser(ctx context.Context, u *model.User) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id":       u.TelegramID,
				"handle":            u.Handle,
				"username":          u.Username,
				"referral_code":     u.ReferralCode,
				"referrer_id":       u.ReferrerID,
				"registration_date": u.RegistrationDate,
				"last_auth_date":    u.AuthDate,
				"generations":       u.Generations,
				"referrals":         0,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if u.ReferrerID != nil {
			updateQuery, updateArgs, err := squirrel.
				Update("users").
				Set("referrals", squirrel.Expr("referrals + 1")).
				Where(squirrel.Eq{"telegram_id": u.ReferrerID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build referrer update query: %w", err)
			}

			_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
			if err != nil {
				return fmt.Errorf("failed to update referrer: %w", err)
			}

			refQuery, refArgs, err := squirrel.
				Insert("referrals").
				Columns("referrer_id", "referred_id").
				Values(u.ReferrerID, u.TelegramID).
				Suffix("ON CONFLICT (referred_id) DO NOTHING").
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build referral insert query: %w", err)
			}

			_, err = tx.ExecContext(ctx, refQuery, refArgs...)
			if err != nil {
				return fmt.Errorf("failed to insert referral: %w", err)
			}
		}

		balanceQuery, balanceArgs, err := squirrel.
			Insert("referral_balances").
			Columns("user_telegram_id", "available", "withdrawn", "total_earned").
			Values(u.TelegramID, 0, 0, 0).
			Suffix("ON CONFLICT (user_telegram_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build balance insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, balanceQuery, balanceArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert referral balance: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query, args, err := squirrel.
		Select("telegram_id", "handle", "username", "referral_code", "referrer_id",
			"referrals", "generations", "is_admin", "is_partner",
			"registration_date", "last_auth_date").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user select query: %w", err)
	}

	var u user
	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u.toModel(), nil
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	query, args, err := squirrel.
		Select("telegram_id", "handle", "username", "referral_code", "referrer_id",
			"referrals", "generations", "is_admin", "is_partner",
			"registration_date", "last_auth_date").
		From("users").
		Where(squirrel.Eq{"referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user select query: %w", err)
	}

	var u user
	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}

	return u.toModel(), nil
}

// AddUserGenerations credits (or debits, with negative delta) generation
// credits. The balance is never allowed below zero.
func (r *Repository) AddUserGenerations(ctx context.Context, telegramID int64, delta int) error {
	return addGenerations(ctx, r.db, telegramID, delta)
}

// addGenerations is the single mutation point for the generations balance,
// shared by payment crediting, job dispatch debits and failure refunds.
func addGenerations(ctx context.Context, ext sqlx.ExtContext, telegramID int64, delta int) error {
	query, args, err := squirrel.
		Update("users").
		Set("generations", squirrel.Expr("generations + ?", delta)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Where(squirrel.Expr("generations + ? >= 0", delta)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build generations update query: %w", err)
	}

	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update generations: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

func (r *Repository) UpdateUserAuthDate(ctx context.Context, telegramID int64, authDate time.Time) error {
	query, args, err := squirrel.
		Update("users").
		Set("last_auth_date", authDate).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build auth date update query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update auth date: %w", err)
	}

	return nil
}

func (r *Repository) ListUsers(ctx context.Context, search string, limit, offset int) ([]*model.UserListItem, error) {
	builder := squirrel.
		Select("telegram_id", "handle", "username", "generations", "referrals", "registration_date").
		From("users").
		OrderBy("registration_date DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	if search != "" {
		builder = builder.Where(squirrel.ILike{"handle": "%" + search + "%"})
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build users list query: %w", err)
	}

	var rows []struct {
		TelegramID       int64     `db:"telegram_id"`
		Handle           string    `db:"handle"`
		Username         string    `db:"username"`
		Generations      int       `db:"generations"`
		Referrals        int       `db:"referrals"`
		RegistrationDate time.Time `db:"registration_date"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]*model.UserListItem, len(rows))
	for i, row := range rows {
		out[i] = &model.UserListItem{
			TelegramID:       row.TelegramID,
			Handle:           row.Handle,
			Username:         row.Username,
			Generations:      row.Generations,
			Referrals:        row.Referrals,
			RegistrationDate: row.RegistrationDate,
		}
	}

	return out, nil
}
