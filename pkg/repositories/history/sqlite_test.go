package history

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedpez/tucoroulette/pkg/entities"
)

func TestSaveRoundsRollsBackOnFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO rounds")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	repo := NewSQLiteRepository(conn)
	err = repo.SaveRounds(context.Background(), account, []entities.HistoryRecord{
		round("k1", 0, entities.NumberResult(3), entities.ResultTypeLoss),
		round("k2", 0, entities.NumberResult(4), entities.ResultTypeLoss),
	})

	assert.ErrorContains(t, err, "error saving round k2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRoundsEmptyIsNoop(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, NewSQLiteRepository(conn).SaveRounds(context.Background(), account, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoundsRejectsCorruptResult(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	columns := []string{"round_key", "account", "timestamp", "total_amount", "total_payout", "winning_raw",
		"resolved", "waiting", "recovered", "force_stopped", "result_type", "wagers"}
	mock.ExpectQuery("SELECT round_key").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("k1", "0xa1", int64(1772366400), "1", "0", 99, 1, 0, 0, 0, "unknown", "[]"))

	_, err = NewSQLiteRepository(conn).GetRounds(context.Background(), account, 10)

	assert.ErrorContains(t, err, "round k1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
