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
	"github.com/lib/pq"
)

type generationJob struct {
	ID              string         `db:"id"`
	UserTelegramID  int64          `db:"user_telegram_id"`
	PaymentOrderID  string         `db:"payment_order_id"`
	PackID          string         `db:"pack_id"`
	TotalPhotos     int            `db:"total_photos"`
	CompletedPhotos int            `db:"completed_photos"`
	Status          string         `db:"status"`
	ProviderBatchID string         `db:"provider_batch_id"`
	ResultURLs      pq.StringArray `db:"result_urls"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (j *generationJob) toModel() *model.GenerationJob {
	return &model.GenerationJob{
		ID:              j.ID,
		UserTelegramID:  j.UserTelegramID,
		PaymentOrderID:  j.PaymentOrderID,
		PackID:          j.PackID,
		TotalPhotos:     j.TotalPhotos,
		CompletedPhotos: j.CompletedPhotos,
		Status:          model.JobStatus(j.Status),
		ProviderBatchID: j.ProviderBatchID,
		ResultURLs:      j.ResultURLs,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

var jobColumns = []string{
	"id", "user_telegram_id", "payment_order_id", "pack_id",
	"total_photos", "completed_photos", "status", "provider_batch_id",
	"result_urls", "created_at", "updated_at",
}

func (r *Repository) GetJob(ctx context.Context, id string) (*model.GenerationJob, error) {
	query, args, err := squirrel.
		Select(jobColumns...).
		From("generation_jobs").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build job select query: %w", err)
	}

	var j generationJob
	err = r.db.GetContext(ctx, &j, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return j.toModel(), nil
}

func (r *Repository) ListJobsByUser(ctx context.Context, telegramID int64) ([]*model.GenerationJob, error) {
	query, args, err := squirrel.
		Select(jobColumns...).
		From("generation_jobs").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build jobs query: %w", err)
	}

	var rows []generationJob
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	out := make([]*model.GenerationJob, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

// ClaimQueuedJobs moves up to limit queued jobs to processing and returns
// them. SKIP LOCKED keeps concurrent workers from claiming the same job.
func (r *Repository) ClaimQueuedJobs(ctx context.Context, limit int) ([]*model.GenerationJob, error) {
	var claimed []*model.GenerationJob

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		selectQuery, selectArgs, err := squirrel.
			Select("id").
			From("generation_jobs").
			Where(squirrel.Eq{"status": string(model.JobStatusQueued)}).
			OrderBy("created_at ASC").
			Limit(uint64(limit)).
			Suffix("FOR UPDATE SKIP LOCKED").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build claim select query: %w", err)
		}

		var ids []string
		err = tx.SelectContext(ctx, &ids, selectQuery, selectArgs...)
		if err != nil {
			return fmt.Errorf("failed to select queued jobs: %w", err)
		}

		if len(ids) == 0 {
			return nil
		}

		updateQuery, updateArgs, err := squirrel.
			Update("generation_jobs").
			Set("status", string(model.JobStatusProcessing)).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": ids}).
			Suffix("RETURNING " + joinColumns(jobColumns)).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build claim update query: %w", err)
		}

		var rows []generationJob
		err = tx.SelectContext(ctx, &rows, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to claim jobs: %w", err)
		}

		// Dispatch consumes the job's credits. A user whose balance no
		// longer covers the job gets the job failed instead of claimed.
		claimed = claimed[:0]
		for i := range rows {
			err := addGenerations(ctx, tx, rows[i].UserTelegramID, -rows[i].TotalPhotos)
			if errors.Is(err, ErrInsufficientBalance) {
				if err := failJobTx(ctx, tx, rows[i].ID); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to debit credits for job: %w", err)
			}
			claimed = append(claimed, rows[i].toModel())
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

func (r *Repository) ListProcessingJobs(ctx context.Context) ([]*model.GenerationJob, error) {
	query, args, err := squirrel.
		Select(jobColumns...).
		From("generation_jobs").
		Where(squirrel.Eq{"status": string(model.JobStatusProcessing)}).
		Where(squirrel.NotEq{"provider_batch_id": ""}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build processing jobs query: %w", err)
	}

	var rows []generationJob
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing jobs: %w", err)
	}

	out := make([]*model.GenerationJob, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

func (r *Repository) SetJobBatchID(ctx context.Context, jobID, batchID string) error {
	query, args, err := squirrel.
		Update("generation_jobs").
		Set("provider_batch_id", batchID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": jobID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build batch id update query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set batch id: %w", err)
	}

	return nil
}

func (r *Repository) UpdateJobProgress(ctx context.Context, jobID string, completed int, urls []string, done bool) error {
	builder := squirrel.
		Update("generation_jobs").
		Set("completed_photos", completed).
		Set("result_urls", pq.Array(urls)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": jobID})

	if done {
		builder = builder.Set("status", string(model.JobStatusCompleted))
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build progress update query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	return nil
}

// FailJob marks a job failed. When the provider produced nothing at all the
// user's generation credits for the job are handed back in the same
// transaction.
func (r *Repository) FailJob(ctx context.Context, jobID string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("generation_jobs").
			Set("status", string(model.JobStatusFailed)).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": jobID}).
			Where(squirrel.NotEq{"status": string(model.JobStatusFailed)}).
			Suffix("RETURNING user_telegram_id, total_photos, completed_photos").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build job fail query: %w", err)
		}

		var row struct {
			UserTelegramID  int64 `db:"user_telegram_id"`
			TotalPhotos     int   `db:"total_photos"`
			CompletedPhotos int   `db:"completed_photos"`
		}
		err = tx.GetContext(ctx, &row, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("failed to fail job: %w", err)
		}

		if row.CompletedPhotos > 0 {
			return nil
		}

		if err := addGenerations(ctx, tx, row.UserTelegramID, row.TotalPhotos); err != nil {
			return fmt.Errorf("failed to refund credits: %w", err)
		}

		return nil
	})
}

// failJobTx marks a job failed without touching credits. Used when dispatch
// cannot debit the user's balance, so there is nothing to hand back.
func failJobTx(ctx context.Context, tx *sqlx.Tx, jobID string) error {
	query, args, err := squirrel.
		Update("generation_jobs").
		Set("status", string(model.JobStatusFailed)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": jobID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build job fail query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}

	return nil
}
