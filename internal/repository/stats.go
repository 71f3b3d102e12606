package repository

import (
	"context"
	"fmt"

	"photolab_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
)

func (r *Repository) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	stats := &model.AdminStats{RevenueByMethod: make(map[string]int64)}

	query, args, err := squirrel.
		Select(
			"(SELECT COUNT(*) FROM users) AS users_total",
			"(SELECT COUNT(*) FROM users WHERE registration_date >= date_trunc('day', NOW())) AS users_today",
			"(SELECT COUNT(*) FROM referral_withdrawals WHERE status = 'pending') AS pending_withdrawals",
			"(SELECT COUNT(*) FROM tickets WHERE status = 'open') AS open_tickets",
			"(SELECT COUNT(*) FROM generation_jobs WHERE status IN ('queued', 'processing')) AS jobs_in_flight",
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	var row struct {
		UsersTotal         int `db:"users_total"`
		UsersToday         int `db:"users_today"`
		PendingWithdrawals int `db:"pending_withdrawals"`
		OpenTickets        int `db:"open_tickets"`
		JobsInFlight       int `db:"jobs_in_flight"`
	}
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}

	stats.UsersTotal = row.UsersTotal
	stats.UsersToday = row.UsersToday
	stats.PendingWithdrawals = row.PendingWithdrawals
	stats.OpenTickets = row.OpenTickets
	stats.JobsInFlight = row.JobsInFlight

	revenueQuery, revenueArgs, err := squirrel.
		Select("method", "COALESCE(SUM(amount_rub), 0) AS revenue").
		From("payments").
		Where(squirrel.Eq{"status": string(model.PaymentStatusConfirmed)}).
		GroupBy("method").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build revenue query: %w", err)
	}

	var revenues []struct {
		Method  string `db:"method"`
		Revenue int64  `db:"revenue"`
	}
	err = r.db.SelectContext(ctx, &revenues, revenueQuery, revenueArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue by method: %w", err)
	}

	for _, rev := range revenues {
		stats.RevenueByMethod[rev.Method] = rev.Revenue
	}

	return stats, nil
}
