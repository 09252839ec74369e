package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medfac-dev/timetable-api/internal/models"
)

// OverlayRepository persists cancellations, unavailability windows, and
// availability markers.
type OverlayRepository struct {
	db *sqlx.DB
}

// NewOverlayRepository constructs the repository.
func NewOverlayRepository(db *sqlx.DB) *OverlayRepository {
	return &OverlayRepository{db: db}
}

// UpsertDayCancellation records a whole-day block for a doctor/week.
func (r *OverlayRepository) UpsertDayCancellation(ctx context.Context, c *models.DayCancellation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO day_cancellations (id, week_id, doctor_id, day_of_week, reason, created_at)
		VALUES (:id, :week_id, :doctor_id, :day_of_week, :reason, :created_at)
		ON CONFLICT (week_id, doctor_id, day_of_week) DO UPDATE
		SET reason = EXCLUDED.reason`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("upsert day cancellation: %w", err)
	}
	return nil
}

// DeleteDayCancellation removes a whole-day block.
func (r *OverlayRepository) DeleteDayCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM day_cancellations WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3`,
		weekID, doctorID, day,
	); err != nil {
		return fmt.Errorf("delete day cancellation: %w", err)
	}
	return nil
}

// HasDayCancellation reports whether a doctor's day is blocked.
func (r *OverlayRepository) HasDayCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM day_cancellations WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3)`,
		weekID, doctorID, day,
	); err != nil {
		return false, fmt.Errorf("check day cancellation: %w", err)
	}
	return exists, nil
}

// ListDayCancellations returns a doctor's blocked days for a week.
func (r *OverlayRepository) ListDayCancellations(ctx context.Context, weekID, doctorID string) ([]models.DayCancellation, error) {
	const query = `SELECT id, week_id, doctor_id, day_of_week, reason, created_at FROM day_cancellations WHERE week_id = $1 AND doctor_id = $2 ORDER BY day_of_week ASC`
	var items []models.DayCancellation
	if err := r.db.SelectContext(ctx, &items, query, weekID, doctorID); err != nil {
		return nil, fmt.Errorf("list day cancellations: %w", err)
	}
	return items, nil
}

// UpsertSlotCancellation records a single-cell block.
func (r *OverlayRepository) UpsertSlotCancellation(ctx context.Context, c *models.SlotCancellation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO slot_cancellations (id, week_id, doctor_id, day_of_week, slot_number, reason, created_at)
		VALUES (:id, :week_id, :doctor_id, :day_of_week, :slot_number, :reason, :created_at)
		ON CONFLICT (week_id, doctor_id, day_of_week, slot_number) DO UPDATE
		SET reason = EXCLUDED.reason`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("upsert slot cancellation: %w", err)
	}
	return nil
}

// DeleteSlotCancellation removes a single-cell block.
func (r *OverlayRepository) DeleteSlotCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM slot_cancellations WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3 AND slot_number = $4`,
		weekID, doctorID, day, slot,
	); err != nil {
		return fmt.Errorf("delete slot cancellation: %w", err)
	}
	return nil
}

// HasSlotCancellation reports whether one cell is blocked.
func (r *OverlayRepository) HasSlotCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM slot_cancellations WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3 AND slot_number = $4)`,
		weekID, doctorID, day, slot,
	); err != nil {
		return false, fmt.Errorf("check slot cancellation: %w", err)
	}
	return exists, nil
}

// ListSlotCancellations returns a doctor's blocked cells for a week.
func (r *OverlayRepository) ListSlotCancellations(ctx context.Context, weekID, doctorID string) ([]models.SlotCancellation, error) {
	const query = `SELECT id, week_id, doctor_id, day_of_week, slot_number, reason, created_at FROM slot_cancellations WHERE week_id = $1 AND doctor_id = $2 ORDER BY day_of_week ASC, slot_number ASC`
	var items []models.SlotCancellation
	if err := r.db.SelectContext(ctx, &items, query, weekID, doctorID); err != nil {
		return nil, fmt.Errorf("list slot cancellations: %w", err)
	}
	return items, nil
}

// CreateUnavailability stores an absolute time-range block.
func (r *OverlayRepository) CreateUnavailability(ctx context.Context, w *models.UnavailabilityWindow) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO unavailability_windows (id, doctor_id, start_at, end_at, reason, created_at)
		VALUES (:id, :doctor_id, :start_at, :end_at, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		return fmt.Errorf("create unavailability: %w", err)
	}
	return nil
}

// FindUnavailability loads one window by id.
func (r *OverlayRepository) FindUnavailability(ctx context.Context, id string) (*models.UnavailabilityWindow, error) {
	const query = `SELECT id, doctor_id, start_at, end_at, reason, created_at FROM unavailability_windows WHERE id = $1`
	var w models.UnavailabilityWindow
	if err := r.db.GetContext(ctx, &w, query, id); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteUnavailability removes a window by id. Returns false when absent.
func (r *OverlayRepository) DeleteUnavailability(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM unavailability_windows WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete unavailability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return affected > 0, nil
}

// ListUnavailability returns a doctor's windows ordered by start.
func (r *OverlayRepository) ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error) {
	const query = `SELECT id, doctor_id, start_at, end_at, reason, created_at FROM unavailability_windows WHERE doctor_id = $1 ORDER BY start_at ASC`
	var items []models.UnavailabilityWindow
	if err := r.db.SelectContext(ctx, &items, query, doctorID); err != nil {
		return nil, fmt.Errorf("list unavailability: %w", err)
	}
	return items, nil
}

// ListOverlapping returns windows of a doctor intersecting [start, end).
func (r *OverlayRepository) ListOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]models.UnavailabilityWindow, error) {
	const query = `SELECT id, doctor_id, start_at, end_at, reason, created_at
FROM unavailability_windows
WHERE doctor_id = $1 AND start_at < $3 AND end_at > $2
ORDER BY start_at ASC`
	var items []models.UnavailabilityWindow
	if err := r.db.SelectContext(ctx, &items, query, doctorID, start, end); err != nil {
		return nil, fmt.Errorf("list overlapping unavailability: %w", err)
	}
	return items, nil
}

// AddAvailability records a willingness marker for one cell.
func (r *OverlayRepository) AddAvailability(ctx context.Context, m *models.AvailabilityMark) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO availability_marks (id, week_id, doctor_id, day_of_week, slot_number, created_at)
		VALUES (:id, :week_id, :doctor_id, :day_of_week, :slot_number, :created_at)
		ON CONFLICT (week_id, doctor_id, day_of_week, slot_number) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("add availability: %w", err)
	}
	return nil
}

// RemoveAvailability clears a willingness marker.
func (r *OverlayRepository) RemoveAvailability(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM availability_marks WHERE week_id = $1 AND doctor_id = $2 AND day_of_week = $3 AND slot_number = $4`,
		weekID, doctorID, day, slot,
	); err != nil {
		return fmt.Errorf("remove availability: %w", err)
	}
	return nil
}

// ListAvailability returns a doctor's markers for a week.
func (r *OverlayRepository) ListAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error) {
	const query = `SELECT id, week_id, doctor_id, day_of_week, slot_number, created_at FROM availability_marks WHERE week_id = $1 AND doctor_id = $2 ORDER BY day_of_week ASC, slot_number ASC`
	var items []models.AvailabilityMark
	if err := r.db.SelectContext(ctx, &items, query, weekID, doctorID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return items, nil
}
