package models

import "time"

// Course is a teachable unit tied to a student cohort.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Program     string    `db:"program" json:"program"`
	YearLevel   int       `db:"year_level" json:"year_level"`
	Semester    int       `db:"semester" json:"semester"`
	TotalHours  float64   `db:"total_hours" json:"total_hours"`
	Coefficient float64   `db:"coefficient" json:"coefficient"`
	DefaultRoom string    `db:"default_room" json:"default_room"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Cohort identifies the student group that must not be double-booked.
type Cohort struct {
	Program   string `json:"program"`
	YearLevel int    `json:"year_level"`
	Semester  int    `json:"semester"`
}

// Cohort returns the course's cohort key.
func (c *Course) Cohort() Cohort {
	return Cohort{Program: c.Program, YearLevel: c.YearLevel, Semester: c.Semester}
}

// CourseDoctor links a doctor to a course they teach.
type CourseDoctor struct {
	CourseID  string    `db:"course_id" json:"course_id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CourseDoctorAllocation is a planned hour split for multi-doctor courses.
// Allocations are replaced atomically as a set and must sum to the course
// total.
type CourseDoctorAllocation struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	DoctorID       string    `db:"doctor_id" json:"doctor_id"`
	AllocatedHours float64   `db:"allocated_hours" json:"allocated_hours"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CourseHours is the derived ledger figure for one course. Remaining is
// reported unclamped so over-scheduling stays visible.
type CourseHours struct {
	CourseID  string  `json:"course_id"`
	Total     float64 `json:"total"`
	Done      float64 `json:"done"`
	Remaining float64 `json:"remaining"`
}

// DoctorCourseHours is the per-doctor ledger view for one course.
type DoctorCourseHours struct {
	CourseID  string  `json:"course_id"`
	DoctorID  string  `json:"doctor_id"`
	Allocated float64 `json:"allocated"`
	Done      float64 `json:"done"`
	Remaining float64 `json:"remaining"`
}

// DoctorTotals aggregates a doctor's ledger across courses.
type DoctorTotals struct {
	DoctorID  string              `json:"doctor_id"`
	Courses   []DoctorCourseHours `json:"courses"`
	Allocated float64             `json:"allocated"`
	Done      float64             `json:"done"`
	Remaining float64             `json:"remaining"`
}
