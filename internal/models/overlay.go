package models

import "time"

// DayCancellation blocks all five slots for a doctor's day in one week.
// Assignments underneath persist; the cancellation only masks them.
type DayCancellation struct {
	ID        string    `db:"id" json:"id"`
	WeekID    string    `db:"week_id" json:"week_id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SlotCancellation blocks a single cell, independent of day cancellation.
type SlotCancellation struct {
	ID         string    `db:"id" json:"id"`
	WeekID     string    `db:"week_id" json:"week_id"`
	DoctorID   string    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek  DayOfWeek `db:"day_of_week" json:"day_of_week"`
	SlotNumber int       `db:"slot_number" json:"slot_number"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UnavailabilityWindow is a week-independent absolute time-range block,
// resolved against each week's concrete slot windows.
type UnavailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	StartAt   time.Time `db:"start_at" json:"start_at"`
	EndAt     time.Time `db:"end_at" json:"end_at"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Overlaps reports whether the window intersects [start, end).
func (w *UnavailabilityWindow) Overlaps(start, end time.Time) bool {
	return w.StartAt.Before(end) && start.Before(w.EndAt)
}

// AvailabilityMark is an informational willingness marker. It never blocks
// an assignment.
type AvailabilityMark struct {
	ID         string    `db:"id" json:"id"`
	WeekID     string    `db:"week_id" json:"week_id"`
	DoctorID   string    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek  DayOfWeek `db:"day_of_week" json:"day_of_week"`
	SlotNumber int       `db:"slot_number" json:"slot_number"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
