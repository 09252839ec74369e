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

func newSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func slotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "week_id", "doctor_id", "day_of_week", "slot_number", "course_id", "room_code", "counts_hours", "extra_minutes", "created_at", "updated_at"})
}

func TestSlotRepositoryLockCell(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "week_id", "doctor_id", "day_of_week", "slot_number", "course_id", "room_code", "counts_hours", "extra_minutes", "created_at", "updated_at", "program", "year_level", "semester", "doctor_name"}).
		AddRow("s1", "w1", "doc-2", "MON", 1, "crs-1", "A1", true, 0, time.Now(), time.Now(), "MED", 2, 1, "Dr. Salem")
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF s")).
		WithArgs("w1", "MON", 1).
		WillReturnRows(rows)
	mock.ExpectRollback()

	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)
	cells, err := repo.LockCell(context.Background(), tx, "w1", models.DayMonday, 1)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Equal(t, "MED", cells[0].Program)
	require.Equal(t, "Dr. Salem", cells[0].DoctorName)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_slots")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(context.Background())
	require.NoError(t, err)

	slot := &models.ScheduleSlot{
		WeekID:     "w1",
		DoctorID:   "doc-1",
		DayOfWeek:  models.DayMonday,
		SlotNumber: 1,
		CourseID:   "crs-1",
		RoomCode:   "A1",
	}
	require.NoError(t, repo.Upsert(context.Background(), tx, slot))
	require.NotEmpty(t, slot.ID)
	require.False(t, slot.UpdatedAt.IsZero())
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryDeleteReturnsRemoved(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	rows := slotRows().AddRow("s1", "w1", "doc-1", "MON", 1, "crs-1", "A1", true, 15, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, week_id, doctor_id")).
		WithArgs("w1", "doc-1", "MON", 1).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_slots")).
		WithArgs("w1", "doc-1", "MON", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.Delete(context.Background(), "w1", "doc-1", models.DayMonday, 1)
	require.NoError(t, err)
	require.Equal(t, "crs-1", removed.CourseID)
	require.Equal(t, 15, removed.ExtraMinutes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, week_id, doctor_id")).
		WithArgs("w1", "doc-1", "MON", 1).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Delete(context.Background(), "w1", "doc-1", models.DayMonday, 1)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositorySumCourseDoneHours(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(1.5 + s.extra_minutes::float / 60.0), 0)")).
		WithArgs("crs-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3.5))

	done, err := repo.SumCourseDoneHours(context.Background(), "crs-1")
	require.NoError(t, err)
	require.InDelta(t, 3.5, done, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositorySumDoctorDoneHours(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(1.5 + s.extra_minutes::float / 60.0), 0)")).
		WithArgs("crs-1", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1.5))

	done, err := repo.SumDoctorDoneHours(context.Background(), "crs-1", "doc-1")
	require.NoError(t, err)
	require.InDelta(t, 1.5, done, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryListByDoctorWeek(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()

	repo := NewSlotRepository(db)
	rows := slotRows().
		AddRow("s1", "w1", "doc-1", "SUN", 1, "crs-1", "A1", true, 0, time.Now(), time.Now()).
		AddRow("s2", "w1", "doc-1", "SUN", 2, "crs-2", "B1", true, 30, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY day_of_week ASC, slot_number ASC")).
		WithArgs("w1", "doc-1").
		WillReturnRows(rows)

	slots, err := repo.ListByDoctorWeek(context.Background(), "w1", "doc-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.Equal(t, 30, slots[1].ExtraMinutes)
	require.NoError(t, mock.ExpectationsWereMet())
}
