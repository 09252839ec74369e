package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medfac-dev/timetable-api/internal/models"
)

// StudentRepository reads and updates student records for term advancement.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, full_name, program, year_level, active, graduated, created_at, updated_at"

// FindByID loads a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListActive pages through active, non-graduated students. The advancement
// sweep feeds on small batches so an interrupted run leaves inspectable
// partial state.
func (r *StudentRepository) ListActive(ctx context.Context, afterID string, limit int) ([]models.Student, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM students WHERE active = TRUE AND graduated = FALSE AND id > $1 ORDER BY id ASC LIMIT %d`, studentColumns, limit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, afterID); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// Update persists one student's advancement outcome. Each call commits on
// its own; the sweep never wraps students in a shared transaction.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET year_level = :year_level, active = :active, graduated = :graduated, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// ProgramMaxYear returns the final year of a program, beyond which auto
// advancement graduates the student.
func (r *StudentRepository) ProgramMaxYear(ctx context.Context, program string) (int, error) {
	var maxYear int
	if err := r.db.GetContext(ctx, &maxYear,
		`SELECT max_year FROM programs WHERE code = $1`, program,
	); err != nil {
		return 0, err
	}
	return maxYear, nil
}
