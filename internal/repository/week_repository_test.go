package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/medfac-dev/timetable-api/internal/models"
)

func newWeekRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func weekRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term_id", "label", "start_date", "status", "is_prep", "created_at", "updated_at"})
}

func TestWeekRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newWeekRepoMock(t)
	defer cleanup()

	repo := NewWeekRepository(db)
	start := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term_id, label, start_date")).
		WithArgs("w1").
		WillReturnRows(weekRows().AddRow("w1", "t1", "Week 1", start, "ACTIVE", false, time.Now(), time.Now()))

	week, err := repo.FindByID(context.Background(), "w1")
	require.NoError(t, err)
	require.Equal(t, models.WeekStatusActive, week.Status)
	require.Equal(t, start, week.StartDate.UTC())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepositoryFindActiveByTermMissing(t *testing.T) {
	db, mock, cleanup := newWeekRepoMock(t)
	defer cleanup()

	repo := NewWeekRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("status = $2 LIMIT 1")).
		WithArgs("t1", "ACTIVE").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByTerm(context.Background(), "t1")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

// Starting a week stops the previous active one, inserts the new week, and
// repoints the term inside one transaction.
func TestWeekRepositoryStartWeek(t *testing.T) {
	db, mock, cleanup := newWeekRepoMock(t)
	defer cleanup()

	repo := NewWeekRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weeks SET status = $1")).
		WithArgs("STOPPED", "t1", "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weeks")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET active_week_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	week := &models.Week{
		TermID:    "t1",
		Label:     "Week 2",
		StartDate: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		Status:    models.WeekStatusActive,
	}
	require.NoError(t, repo.StartWeek(context.Background(), week))
	require.NotEmpty(t, week.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newWeekRepoMock(t)
	defer cleanup()

	repo := NewWeekRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weeks SET status = $1, is_prep = $2")).
		WithArgs("RAMADAN", false, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.WeekStatusRamadan)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepositoryStopActive(t *testing.T) {
	db, mock, cleanup := newWeekRepoMock(t)
	defer cleanup()

	repo := NewWeekRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weeks SET status = $1")).
		WithArgs("STOPPED", "t1", "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET active_week_id = NULL")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.StopActive(context.Background(), "t1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepositoryResetTerm(t *testing.T) {
	db, mock, cleanup := newWeekRepoMock(t)
	defer cleanup()

	repo := NewWeekRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weeks WHERE term_id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weeks")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET active_week_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	first := &models.Week{TermID: "t1", Label: "Week 1", StartDate: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), Status: models.WeekStatusActive}
	require.NoError(t, repo.ResetTerm(context.Background(), "t1", first))
	require.NotEmpty(t, first.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
