package models

import "time"

// Base teaching duration charged against a course per slot, in hours. Extra
// minutes extend it in 15-minute steps.
const SlotBaseHours = 1.5

// ScheduleSlot is one assignment in the weekly grid, unique per
// (week, doctor, day, slot).
type ScheduleSlot struct {
	ID           string    `db:"id" json:"id"`
	WeekID       string    `db:"week_id" json:"week_id"`
	DoctorID     string    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek    DayOfWeek `db:"day_of_week" json:"day_of_week"`
	SlotNumber   int       `db:"slot_number" json:"slot_number"`
	CourseID     string    `db:"course_id" json:"course_id"`
	RoomCode     string    `db:"room_code" json:"room_code"`
	CountsHours  bool      `db:"counts_hours" json:"counts_towards_hours"`
	ExtraMinutes int       `db:"extra_minutes" json:"extra_minutes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the slot's charged teaching hours.
func (s *ScheduleSlot) Duration() float64 {
	return SlotBaseHours + float64(s.ExtraMinutes)/60.0
}

// ValidExtraMinutes reports whether m is an allowed extension.
func ValidExtraMinutes(m int) bool {
	switch m {
	case 0, 15, 30, 45:
		return true
	}
	return false
}

// CellSlot is a grid cell joined with the course's cohort key, used by the
// conflict resolver to evaluate cohort and room rules across doctors.
type CellSlot struct {
	ScheduleSlot
	Program    string `db:"program" json:"program"`
	YearLevel  int    `db:"year_level" json:"year_level"`
	Semester   int    `db:"semester" json:"semester"`
	DoctorName string `db:"doctor_name" json:"doctor_name"`
}

// SlotConflict describes the existing assignment that caused a rejection.
type SlotConflict struct {
	SlotID     string    `json:"slot_id"`
	WeekID     string    `json:"week_id"`
	DoctorID   string    `json:"doctor_id"`
	DoctorName string    `json:"doctor_name,omitempty"`
	DayOfWeek  DayOfWeek `json:"day_of_week"`
	SlotNumber int       `json:"slot_number"`
	CourseID   string    `json:"course_id"`
	RoomCode   string    `json:"room_code"`
	Dimension  string    `json:"dimension"`
}

// SlotConflictError is returned when a candidate assignment collides with an
// existing one.
type SlotConflictError struct {
	Type     string       `json:"type"`
	Message  string       `json:"message"`
	Conflict SlotConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// ConflictCheck is the read-only pre-check result mirroring the resolver's
// rule chain.
type ConflictCheck struct {
	OK            bool          `json:"ok"`
	DayCancelled  bool          `json:"day_cancelled"`
	SlotCancelled bool          `json:"slot_cancelled"`
	Unavailable   bool          `json:"unavailable"`
	Cohort        bool          `json:"cohort_conflict"`
	Room          bool          `json:"room_conflict"`
	MissingRoom   bool          `json:"missing_room"`
	Details       *SlotConflict `json:"details,omitempty"`
}

// ScheduleView is the read model for rendering one doctor's week.
// CountsForHours mirrors the week status so the UI can flag grids whose
// assignments do not accrue toward course totals.
type ScheduleView struct {
	WeekID            string                 `json:"week_id"`
	DoctorID          string                 `json:"doctor_id"`
	CountsForHours    bool                   `json:"counts_for_hours"`
	Slots             []ScheduleSlot         `json:"slots"`
	DayCancellations  []DayCancellation      `json:"day_cancellations"`
	SlotCancellations []SlotCancellation     `json:"slot_cancellations"`
	Unavailability    []UnavailabilityWindow `json:"unavailability"`
	Availability      []AvailabilityMark     `json:"availability"`
}
