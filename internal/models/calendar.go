package models

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek is a teaching day in a Sunday–Thursday week.
type DayOfWeek string

const (
	DaySunday    DayOfWeek = "SUN"
	DayMonday    DayOfWeek = "MON"
	DayTuesday   DayOfWeek = "TUE"
	DayWednesday DayOfWeek = "WED"
	DayThursday  DayOfWeek = "THU"
)

var dayOffsets = map[DayOfWeek]int{
	DaySunday:    0,
	DayMonday:    1,
	DayTuesday:   2,
	DayWednesday: 3,
	DayThursday:  4,
}

// ParseDayOfWeek validates a raw day string.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := dayOffsets[day]; !ok {
		return "", fmt.Errorf("unknown day of week %q", raw)
	}
	return day, nil
}

// Offset returns the day's distance from the week start (Sunday = 0).
func (d DayOfWeek) Offset() int {
	return dayOffsets[d]
}

// Valid reports whether the day is one of the five teaching days.
func (d DayOfWeek) Valid() bool {
	_, ok := dayOffsets[d]
	return ok
}

// TeachingDays lists the week's days in order.
func TeachingDays() []DayOfWeek {
	return []DayOfWeek{DaySunday, DayMonday, DayTuesday, DayWednesday, DayThursday}
}

// WeekStatus represents lifecycle phases of a scheduling week.
type WeekStatus string

const (
	WeekStatusPrep    WeekStatus = "PREP"
	WeekStatusActive  WeekStatus = "ACTIVE"
	WeekStatusRamadan WeekStatus = "RAMADAN"
	WeekStatusStopped WeekStatus = "STOPPED"
)

// ParseWeekStatus validates a raw week status string.
func ParseWeekStatus(raw string) (WeekStatus, error) {
	status := WeekStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case WeekStatusPrep, WeekStatusActive, WeekStatusRamadan, WeekStatusStopped:
		return status, nil
	}
	return "", fmt.Errorf("unknown week status %q", raw)
}

// CountsForHours reports whether slots in a week of this status feed the
// hour ledger read paths.
func (s WeekStatus) CountsForHours() bool {
	return s == WeekStatusActive || s == WeekStatusRamadan || s == WeekStatusStopped
}

// AcademicYear is the top-level calendar container.
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Term is a semester within an academic year. ActiveWeekID is the explicit
// "current week" pointer; callers always pass week context rather than
// relying on ambient state.
type Term struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Label          string    `db:"label" json:"label"`
	Semester       int       `db:"semester" json:"semester"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	ActiveWeekID   *string   `db:"active_week_id" json:"active_week_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Week is one Sunday–Thursday scheduling period.
type Week struct {
	ID        string     `db:"id" json:"id"`
	TermID    string     `db:"term_id" json:"term_id"`
	Label     string     `db:"label" json:"label"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	Status    WeekStatus `db:"status" json:"status"`
	IsPrep    bool       `db:"is_prep" json:"is_prep"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// SlotCount is the number of teaching periods per day.
const SlotCount = 5

type slotTime struct {
	startHour, startMin int
	endHour, endMin     int
}

// Published faculty timetable: five fixed periods, 80–90 minutes each.
var slotTimes = [SlotCount]slotTime{
	{8, 30, 10, 0},
	{10, 10, 11, 40},
	{11, 50, 13, 10},
	{13, 20, 14, 40},
	{14, 50, 16, 20},
}

// ValidSlot reports whether n is a usable slot number.
func ValidSlot(n int) bool {
	return n >= 1 && n <= SlotCount
}

// ResolveSlotWindow maps an abstract (week, day, slot) cell to its concrete
// datetime interval. Pure function of the week's start date.
func ResolveSlotWindow(week *Week, day DayOfWeek, slot int) (time.Time, time.Time, error) {
	if week == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("nil week")
	}
	if !day.Valid() {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown day of week %q", day)
	}
	if !ValidSlot(slot) {
		return time.Time{}, time.Time{}, fmt.Errorf("slot number %d out of range 1..%d", slot, SlotCount)
	}

	base := time.Date(
		week.StartDate.Year(), week.StartDate.Month(), week.StartDate.Day(),
		0, 0, 0, 0, week.StartDate.Location(),
	).AddDate(0, 0, day.Offset())

	st := slotTimes[slot-1]
	start := base.Add(time.Duration(st.startHour)*time.Hour + time.Duration(st.startMin)*time.Minute)
	end := base.Add(time.Duration(st.endHour)*time.Hour + time.Duration(st.endMin)*time.Minute)
	return start, end, nil
}
