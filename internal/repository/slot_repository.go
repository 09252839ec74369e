package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medfac-dev/timetable-api/internal/models"
)

// SlotRepository provides persistence for the weekly scheduling grid.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = "id, week_id, doctor_id, day_of_week, slot_number, course_id, room_code, counts_hours, extra_minutes, created_at, updated_at"

// BeginTx opens a transaction for the conflict-check-then-write sequence.
func (r *SlotRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin slot tx: %w", err)
	}
	return tx, nil
}

// LockCell loads every doctor's assignment in a (week, day, slot) cell and
// locks the rows. The lock spans all doctors because cohort and room checks
// read across rows the writer does not own.
func (r *SlotRepository) LockCell(ctx context.Context, tx *sqlx.Tx, weekID string, day models.DayOfWeek, slot int) ([]models.CellSlot, error) {
	const query = `
SELECT s.id, s.week_id, s.doctor_id, s.day_of_week, s.slot_number, s.course_id, s.room_code,
       s.counts_hours, s.extra_minutes, s.created_at, s.updated_at,
       c.program, c.year_level, c.semester, d.full_name AS doctor_name
FROM schedule_slots s
JOIN courses c ON c.id = s.course_id
JOIN doctors d ON d.id = s.doctor_id
WHERE s.week_id = $1 AND s.day_of_week = $2 AND s.slot_number = $3
FOR UPDATE OF s`
	var cells []models.CellSlot
	if err := tx.SelectContext(ctx, &cells, query, weekID, day, slot); err != nil {
		return nil, fmt.Errorf("lock cell: %w", err)
	}
	return cells, nil
}

// ListCell is the read-only counterpart of LockCell for pre-checks.
func (r *SlotRepository) ListCell(ctx context.Context, weekID string, day models.DayOfWeek, slot int) ([]models.CellSlot, error) {
	const query = `
SELECT s.id, s.week_id, s.doctor_id, s.day_of_week, s.slot_number, s.course_id, s.room_code,
       s.counts_hours, s.extra_minutes, s.created_at, s.updated_at,
       c.program, c.year_level, c.semester, d.full_name AS doctor_name
FROM schedule_slots s
JOIN courses c ON c.id = s.course_id
JOIN doctors d ON d.id = s.doctor_id
WHERE s.week_id = $1 AND s.day_of_week = $2 AND s.slot_number = $3`
	var cells []models.CellSlot
	if err := r.db.SelectContext(ctx, &cells, query, weekID, day, slot); err != nil {
		return nil, fmt.Errorf("list cell: %w", err)
	}
	return cells, nil
}

// Upsert writes a slot within the resolver transaction, replacing any prior
// assignment of the same cell.
func (r *SlotRepository) Upsert(ctx context.Context, tx *sqlx.Tx, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO schedule_slots (id, week_id, doctor_id, day_of_week, slot_number, course_id, room_code, counts_hours, extra_minutes, created_at, updated_at)
		VALUES (:id, :week_id, :doctor_id, :day_of_week, :slot_number, :course_id, :room_code, :counts_hours, :extra_minutes, :created_at, :updated_at)
		ON CONFLICT (week_id, doctor_id, day_of_week, slot_number) DO UPDATE
		SET course_id = EXCLUDED.course_id,
		    room_code = EXCLUDED.room_code,
		    counts_hours = EXCLUDED.counts_hours,
		    extra_minutes = EXCLUDED.extra_minutes,
		    updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, slot); err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

// Get loads one cell for a specific doctor.
func (r *SlotRepository) Get(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) (*models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3 AND slot_number = $4", slotColumns)
	var s models.ScheduleSlot
	if err := r.db.GetContext(ctx, &s, query, weekID, doctorID, day, slot); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a doctor's cell. Returns the removed slot so the ledger can
// be invalidated for the freed course.
func (r *SlotRepository) Delete(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) (*models.ScheduleSlot, error) {
	existing, err := r.Get(ctx, weekID, doctorID, day, slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("load slot for delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM schedule_slots WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3 AND slot_number = $4`,
		weekID, doctorID, day, slot,
	); err != nil {
		return nil, fmt.Errorf("delete slot: %w", err)
	}
	return existing, nil
}

// ListByDoctorWeek returns a doctor's grid for one week ordered day/slot.
func (r *SlotRepository) ListByDoctorWeek(ctx context.Context, weekID, doctorID string) ([]models.ScheduleSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_slots WHERE week_id = $1 AND doctor_id = $2 ORDER BY day_of_week ASC, slot_number ASC", slotColumns)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, weekID, doctorID); err != nil {
		return nil, fmt.Errorf("list doctor week slots: %w", err)
	}
	return slots, nil
}

// doneHoursFilter excludes prep weeks and assignments masked by a day or
// slot cancellation from the ledger.
const doneHoursFilter = `
  AND s.counts_hours = TRUE
  AND EXISTS (SELECT 1 FROM weeks w WHERE w.id = s.week_id AND w.status <> 'PREP')
  AND NOT EXISTS (
    SELECT 1 FROM day_cancellations dc
    WHERE dc.week_id = s.week_id AND dc.doctor_id = s.doctor_id AND dc.day_of_week = s.day_of_week)
  AND NOT EXISTS (
    SELECT 1 FROM slot_cancellations sc
    WHERE sc.week_id = s.week_id AND sc.doctor_id = s.doctor_id
      AND sc.day_of_week = s.day_of_week AND sc.slot_number = s.slot_number)`

// SumCourseDoneHours computes a course's consumed hours across all weeks.
func (r *SlotRepository) SumCourseDoneHours(ctx context.Context, courseID string) (float64, error) {
	query := `SELECT COALESCE(SUM(1.5 + s.extra_minutes::float / 60.0), 0)
FROM schedule_slots s
WHERE s.course_id = $1` + doneHoursFilter
	var done float64
	if err := r.db.GetContext(ctx, &done, query, courseID); err != nil {
		return 0, fmt.Errorf("sum course done hours: %w", err)
	}
	return done, nil
}

// SumDoctorDoneHours computes the hours a doctor actually taught on a course.
func (r *SlotRepository) SumDoctorDoneHours(ctx context.Context, courseID, doctorID string) (float64, error) {
	query := `SELECT COALESCE(SUM(1.5 + s.extra_minutes::float / 60.0), 0)
FROM schedule_slots s
WHERE s.course_id = $1 AND s.doctor_id = $2` + doneHoursFilter
	var done float64
	if err := r.db.GetContext(ctx, &done, query, courseID, doctorID); err != nil {
		return 0, fmt.Errorf("sum doctor done hours: %w", err)
	}
	return done, nil
}
