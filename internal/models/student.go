package models

import (
	"fmt"
	"strings"
	"time"
)

// Student is a program enrolee tracked for term advancement.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Program   string    `db:"program" json:"program"`
	YearLevel int       `db:"year_level" json:"year_level"`
	Active    bool      `db:"active" json:"active"`
	Graduated bool      `db:"graduated" json:"graduated"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AdvanceMode selects how the end-of-term sweep decides per-student outcomes.
type AdvanceMode string

const (
	AdvanceModeAuto   AdvanceMode = "AUTO"
	AdvanceModeCustom AdvanceMode = "CUSTOM"
)

// ParseAdvanceMode normalizes a client-supplied mode string.
func ParseAdvanceMode(s string) (AdvanceMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(AdvanceModeAuto):
		return AdvanceModeAuto, nil
	case string(AdvanceModeCustom):
		return AdvanceModeCustom, nil
	}
	return "", fmt.Errorf("invalid advancement mode %q", s)
}

// StudentActionType is an explicit per-student decision in custom mode.
type StudentActionType string

const (
	ActionAdvance  StudentActionType = "ADVANCE"
	ActionRepeat   StudentActionType = "REPEAT"
	ActionGraduate StudentActionType = "GRADUATE"
)

// StudentAction is one entry of a custom advancement list.
type StudentAction struct {
	StudentID string            `json:"student_id"`
	Action    StudentActionType `json:"action"`
	ToYear    int               `json:"to_year,omitempty"`
}

// StudentActionResult reports the outcome for one student. The sweep is a
// bulk administrative operation: failures never roll back other students.
type StudentActionResult struct {
	StudentID string            `json:"student_id"`
	Action    StudentActionType `json:"action"`
	YearLevel int               `json:"year_level,omitempty"`
	OK        bool              `json:"ok"`
	Error     string            `json:"error,omitempty"`
}

// AdvancementSummary aggregates a sweep.
type AdvancementSummary struct {
	Mode      AdvanceMode           `json:"mode"`
	Processed int                   `json:"processed"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Results   []StudentActionResult `json:"results"`
}
