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

type ticket struct {
	ID             string    `db:"id"`
	UserTelegramID int64     `db:"user_telegram_id"`
	Subject        string    `db:"subject"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (t *ticket) toModel() *model.Ticket {
	return &model.Ticket{
		ID:             t.ID,
		UserTelegramID: t.UserTelegramID,
		Subject:        t.Subject,
		Status:         model.TicketStatus(t.Status),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (r *Repository) CreateTicket(ctx context.Context, t *model.Ticket, firstMessage string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("tickets").
			SetMap(map[string]interface{}{
				"id":               t.ID,
				"user_telegram_id": t.UserTelegramID,
				"subject":          t.Subject,
				"status":           string(model.TicketStatusOpen),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build ticket insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert ticket: %w", err)
		}

		msgQuery, msgArgs, err := squirrel.
			Insert("ticket_messages").
			Columns("ticket_id", "from_admin", "body").
			Values(t.ID, false, firstMessage).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build message insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, msgQuery, msgArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert ticket message: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "subject", "status", "created_at", "updated_at").
		From("tickets").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ticket select query: %w", err)
	}

	var t ticket
	err = r.db.GetContext(ctx, &t, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	out := t.toModel()

	msgQuery, msgArgs, err := squirrel.
		Select("id", "ticket_id", "from_admin", "body", "created_at").
		From("ticket_messages").
		Where(squirrel.Eq{"ticket_id": id}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build messages query: %w", err)
	}

	var msgs []struct {
		ID        int64     `db:"id"`
		TicketID  string    `db:"ticket_id"`
		FromAdmin bool      `db:"from_admin"`
		Body      string    `db:"body"`
		CreatedAt time.Time `db:"created_at"`
	}
	err = r.db.SelectContext(ctx, &msgs, msgQuery, msgArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket messages: %w", err)
	}

	out.Messages = make([]model.TicketMessage, len(msgs))
	for i, m := range msgs {
		out.Messages[i] = model.TicketMessage{
			ID:        m.ID,
			TicketID:  m.TicketID,
			FromAdmin: m.FromAdmin,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		}
	}

	return out, nil
}

func (r *Repository) ListTicketsByUser(ctx context.Context, telegramID int64) ([]*model.Ticket, error) {
	return r.listTickets(ctx, squirrel.Eq{"user_telegram_id": telegramID})
}

func (r *Repository) ListTicketsByStatus(ctx context.Context, status model.TicketStatus) ([]*model.Ticket, error) {
	return r.listTickets(ctx, squirrel.Eq{"status": string(status)})
}

func (r *Repository) listTickets(ctx context.Context, where squirrel.Eq) ([]*model.Ticket, error) {
	query, args, err := squirrel.
		Select("id", "user_telegram_id", "subject", "status", "created_at", "updated_at").
		From("tickets").
		Where(where).
		OrderBy("updated_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tickets query: %w", err)
	}

	var rows []ticket
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	out := make([]*model.Ticket, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

// AddTicketMessage appends a message and moves the ticket's status: a user
// message on an answered ticket reopens it, an admin message marks it
// answered. Closed tickets reject new messages.
func (r *Repository) AddTicketMessage(ctx context.Context, ticketID string, fromAdmin bool, body string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		statusQuery, statusArgs, err := squirrel.
			Select("status").
			From("tickets").
			Where(squirrel.Eq{"id": ticketID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build status query: %w", err)
		}

		var status string
		err = tx.GetContext(ctx, &status, statusQuery, statusArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get ticket status: %w", err)
		}

		if model.TicketStatus(status) == model.TicketStatusClosed {
			return ErrAlreadyProcessed
		}

		msgQuery, msgArgs, err := squirrel.
			Insert("ticket_messages").
			Columns("ticket_id", "from_admin", "body").
			Values(ticketID, fromAdmin, body).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build message insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, msgQuery, msgArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		newStatus := model.TicketStatusOpen
		if fromAdmin {
			newStatus = model.TicketStatusAnswered
		}

		updateQuery, updateArgs, err := squirrel.
			Update("tickets").
			Set("status", string(newStatus)).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": ticketID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build ticket update query: %w", err)
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}

		return nil
	})
}

func (r *Repository) CloseTicket(ctx context.Context, id string) error {
	query, args, err := squirrel.
		Update("tickets").
		Set("status", string(model.TicketStatusClosed)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": string(model.TicketStatusClosed)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ticket close query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to close ticket: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either the ticket does not exist or it is closed already.
		existsQuery, existsArgs, err := squirrel.
			Select("1").
			From("tickets").
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build ticket exists query: %w", err)
		}

		var one int
		err = r.db.GetContext(ctx, &one, existsQuery, existsArgs...)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check ticket: %w", err)
		}
		return ErrAlreadyProcessed
	}

	return nil
}
