package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medfac-dev/timetable-api/internal/models"
)

// CourseRepository handles course, course-doctor link, and allocation
// persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository instantiates a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, name, program, year_level, semester, total_hours, coefficient, default_room, created_at, updated_at"

// FindByID loads a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListDoctorIDs returns the doctors currently linked to a course.
func (r *CourseRepository) ListDoctorIDs(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT doctor_id FROM course_doctors WHERE course_id = $1 ORDER BY doctor_id`, courseID,
	); err != nil {
		return nil, fmt.Errorf("list course doctors: %w", err)
	}
	return ids, nil
}

// ListCourseIDsByDoctor returns the courses a doctor is linked to.
func (r *CourseRepository) ListCourseIDsByDoctor(ctx context.Context, doctorID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT course_id FROM course_doctors WHERE doctor_id = $1 ORDER BY course_id`, doctorID,
	); err != nil {
		return nil, fmt.Errorf("list doctor courses: %w", err)
	}
	return ids, nil
}

// ReplaceDoctors swaps a course's doctor link set in one transaction.
// Allocations for doctors dropped from the set are removed with them.
func (r *CourseRepository) ReplaceDoctors(ctx context.Context, courseID string, doctorIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace doctors: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM course_doctors WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("clear course doctors: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM course_doctor_allocations WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("clear course allocations: %w", err)
	}

	now := time.Now().UTC()
	for _, doctorID := range doctorIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO course_doctors (course_id, doctor_id, created_at) VALUES ($1, $2, $3)`,
			courseID, doctorID, now,
		); err != nil {
			return fmt.Errorf("insert course doctor: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace doctors: %w", err)
	}
	return nil
}

// ListAllocations returns a course's planned hour split.
func (r *CourseRepository) ListAllocations(ctx context.Context, courseID string) ([]models.CourseDoctorAllocation, error) {
	const query = `SELECT id, course_id, doctor_id, allocated_hours, created_at, updated_at FROM course_doctor_allocations WHERE course_id = $1 ORDER BY doctor_id`
	var allocations []models.CourseDoctorAllocation
	if err := r.db.SelectContext(ctx, &allocations, query, courseID); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

// FindAllocation returns one doctor's allocation on a course, if any.
func (r *CourseRepository) FindAllocation(ctx context.Context, courseID, doctorID string) (*models.CourseDoctorAllocation, error) {
	const query = `SELECT id, course_id, doctor_id, allocated_hours, created_at, updated_at FROM course_doctor_allocations WHERE course_id = $1 AND doctor_id = $2`
	var allocation models.CourseDoctorAllocation
	if err := r.db.GetContext(ctx, &allocation, query, courseID, doctorID); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// ReplaceAllocations swaps the full allocation set atomically. Partial
// writes never survive: the service validates the sum before calling.
func (r *CourseRepository) ReplaceAllocations(ctx context.Context, courseID string, allocations []models.CourseDoctorAllocation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace allocations: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM course_doctor_allocations WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("clear allocations: %w", err)
	}

	now := time.Now().UTC()
	for i := range allocations {
		a := allocations[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.CourseID = courseID
		a.CreatedAt = now
		a.UpdatedAt = now
		if _, err = sqlx.NamedExecContext(ctx, tx,
			`INSERT INTO course_doctor_allocations (id, course_id, doctor_id, allocated_hours, created_at, updated_at)
			 VALUES (:id, :course_id, :doctor_id, :allocated_hours, :created_at, :updated_at)`,
			&a,
		); err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}
		allocations[i] = a
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace allocations: %w", err)
	}
	return nil
}
