package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medfac-dev/timetable-api/internal/models"
)

// DoctorRepository reads the externally-maintained doctor roster.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs the repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const doctorColumns = "id, full_name, email, phone, color, active, created_at, updated_at"

// FindByID loads a doctor by identifier.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	query := fmt.Sprintf("SELECT %s FROM doctors WHERE id = $1", doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// List returns the active roster ordered by name.
func (r *DoctorRepository) List(ctx context.Context) ([]models.Doctor, error) {
	query := fmt.Sprintf("SELECT %s FROM doctors WHERE active = TRUE ORDER BY full_name ASC", doctorColumns)
	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}
