package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func claimedJobRows(id string, userID int64, totalPhotos int) *sqlmock.Rows {
	return sqlmock.NewRows(jobColumns).
		AddRow(id, userID, "order-1", "pack-1", totalPhotos, 0, "processing",
			"", "{}", time.Now(), time.Now())
}

func TestRepository_ClaimQueuedJobs(t *testing.T) {
	t.Run("Dispatch debits the job's credits", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM generation_jobs").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("job-1"))
		mock.ExpectQuery("UPDATE generation_jobs SET").
			WillReturnRows(claimedJobRows("job-1", 100, 30))
		mock.ExpectExec("UPDATE users SET generations").
			WithArgs(-30, int64(100), -30).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		claimed, err := repo.ClaimQueuedJobs(context.Background(), 10)
		assert.NoError(t, err)
		assert.Len(t, claimed, 1)
		assert.Equal(t, "job-1", claimed[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insufficient balance fails the job instead", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM generation_jobs").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("job-1"))
		mock.ExpectQuery("UPDATE generation_jobs SET").
			WillReturnRows(claimedJobRows("job-1", 100, 30))
		mock.ExpectExec("UPDATE users SET generations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE generation_jobs SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		claimed, err := repo.ClaimQueuedJobs(context.Background(), 10)
		assert.NoError(t, err)
		assert.Empty(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_FailJob(t *testing.T) {
	resultColumns := []string{"user_telegram_id", "total_photos", "completed_photos"}

	t.Run("Undelivered job hands the debited credits back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE generation_jobs SET").
			WillReturnRows(sqlmock.NewRows(resultColumns).AddRow(int64(100), 30, 0))
		mock.ExpectExec("UPDATE users SET generations").
			WithArgs(30, int64(100), 30).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.FailJob(context.Background(), "job-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Partial completion keeps the consumed credits", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE generation_jobs SET").
			WillReturnRows(sqlmock.NewRows(resultColumns).AddRow(int64(100), 30, 12))
		mock.ExpectCommit()

		err := repo.FailJob(context.Background(), "job-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failing an already failed job is a no-op", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE generation_jobs SET").
			WillReturnRows(sqlmock.NewRows(resultColumns))
		mock.ExpectRollback()

		err := repo.FailJob(context.Background(), "job-1")
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
