package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medfac-dev/timetable-api/internal/models"
)

// WeekRepository handles persistence for scheduling weeks.
type WeekRepository struct {
	db *sqlx.DB
}

// NewWeekRepository instantiates a week repository.
func NewWeekRepository(db *sqlx.DB) *WeekRepository {
	return &WeekRepository{db: db}
}

const weekColumns = "id, term_id, label, start_date, status, is_prep, created_at, updated_at"

// ListByTerm returns a term's weeks ordered by start date.
func (r *WeekRepository) ListByTerm(ctx context.Context, termID string) ([]models.Week, error) {
	query := fmt.Sprintf("SELECT %s FROM weeks WHERE term_id = $1 ORDER BY start_date ASC", weekColumns)
	var weeks []models.Week
	if err := r.db.SelectContext(ctx, &weeks, query, termID); err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	return weeks, nil
}

// FindByID loads a week by identifier.
func (r *WeekRepository) FindByID(ctx context.Context, id string) (*models.Week, error) {
	query := fmt.Sprintf("SELECT %s FROM weeks WHERE id = $1", weekColumns)
	var week models.Week
	if err := r.db.GetContext(ctx, &week, query, id); err != nil {
		return nil, err
	}
	return &week, nil
}

// FindActiveByTerm returns the term's active week, if any.
func (r *WeekRepository) FindActiveByTerm(ctx context.Context, termID string) (*models.Week, error) {
	query := fmt.Sprintf("SELECT %s FROM weeks WHERE term_id = $1 AND status = $2 LIMIT 1", weekColumns)
	var week models.Week
	if err := r.db.GetContext(ctx, &week, query, termID, models.WeekStatusActive); err != nil {
		return nil, err
	}
	return &week, nil
}

// StartWeek atomically stops the current active week (when present), inserts
// the new week as active, and repoints the term's active week.
func (r *WeekRepository) StartWeek(ctx context.Context, week *models.Week) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin start week: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE weeks SET status = $1, updated_at = NOW() WHERE term_id = $2 AND status = $3`,
		models.WeekStatusStopped, week.TermID, models.WeekStatusActive,
	); err != nil {
		return fmt.Errorf("stop previous week: %w", err)
	}

	if week.ID == "" {
		week.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	week.CreatedAt = now
	week.UpdatedAt = now

	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO weeks (id, term_id, label, start_date, status, is_prep, created_at, updated_at)
		 VALUES (:id, :term_id, :label, :start_date, :status, :is_prep, :created_at, :updated_at)`,
		week,
	); err != nil {
		return fmt.Errorf("insert week: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE terms SET active_week_id = $1, updated_at = NOW() WHERE id = $2`,
		week.ID, week.TermID,
	); err != nil {
		return fmt.Errorf("repoint active week: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit start week: %w", err)
	}
	return nil
}

// UpdateStatus changes a week's status without touching its slots.
func (r *WeekRepository) UpdateStatus(ctx context.Context, id string, status models.WeekStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE weeks SET status = $1, is_prep = $2, updated_at = NOW() WHERE id = $3`,
		status, status == models.WeekStatusPrep, id,
	)
	if err != nil {
		return fmt.Errorf("update week status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("week %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// StopActive stops the term's active week and clears the term pointer.
func (r *WeekRepository) StopActive(ctx context.Context, termID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stop week: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE weeks SET status = $1, updated_at = NOW() WHERE term_id = $2 AND status = $3`,
		models.WeekStatusStopped, termID, models.WeekStatusActive,
	); err != nil {
		return fmt.Errorf("stop active week: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE terms SET active_week_id = NULL, updated_at = NOW() WHERE id = $1`,
		termID,
	); err != nil {
		return fmt.Errorf("clear active week pointer: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit stop week: %w", err)
	}
	return nil
}

// ResetTerm deletes all of a term's weeks (slots and week-scoped overlays
// cascade) and creates a fresh active week 1. Destructive; the caller owns
// the confirmation contract.
func (r *WeekRepository) ResetTerm(ctx context.Context, termID string, first *models.Week) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset term: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM weeks WHERE term_id = $1`, termID); err != nil {
		return fmt.Errorf("delete term weeks: %w", err)
	}

	if first.ID == "" {
		first.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	first.CreatedAt = now
	first.UpdatedAt = now

	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO weeks (id, term_id, label, start_date, status, is_prep, created_at, updated_at)
		 VALUES (:id, :term_id, :label, :start_date, :status, :is_prep, :created_at, :updated_at)`,
		first,
	); err != nil {
		return fmt.Errorf("insert first week: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE terms SET active_week_id = $1, updated_at = NOW() WHERE id = $2`,
		first.ID, termID,
	); err != nil {
		return fmt.Errorf("repoint active week: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reset term: %w", err)
	}
	return nil
}
