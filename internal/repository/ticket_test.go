package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestRepository_CloseTicket(t *testing.T) {
	t.Run("Open ticket closed", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE tickets SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CloseTicket(context.Background(), "t-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already closed ticket", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE tickets SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM tickets").
			WithArgs("t-1").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		err := repo.CloseTicket(context.Background(), "t-1")
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown ticket", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE tickets SET").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM tickets").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		err := repo.CloseTicket(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
