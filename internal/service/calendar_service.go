package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medfac-dev/timetable-api/internal/models"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
)

type weekRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.Week, error)
	FindByID(ctx context.Context, id string) (*models.Week, error)
	FindActiveByTerm(ctx context.Context, termID string) (*models.Week, error)
	StartWeek(ctx context.Context, week *models.Week) error
	UpdateStatus(ctx context.Context, id string, status models.WeekStatus) error
	StopActive(ctx context.Context, termID string) error
	ResetTerm(ctx context.Context, termID string, first *models.Week) error
}

type termRepository interface {
	List(ctx context.Context) ([]models.Term, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActive(ctx context.Context) (*models.Term, error)
	ListYears(ctx context.Context) ([]models.AcademicYear, error)
}

// StartWeekRequest describes payload for starting a new week.
type StartWeekRequest struct {
	TermID    string    `json:"term_id" validate:"required"`
	Label     string    `json:"label"`
	StartDate time.Time `json:"start_date" validate:"required"`
	Type      string    `json:"type"`
	Replace   bool      `json:"replace"`
}

// SetWeekTypeRequest updates a week's status.
type SetWeekTypeRequest struct {
	Type string `json:"type" validate:"required"`
}

// ResetTermWeeksRequest wipes a term's weeks and starts over. Confirm is the
// explicit contract guarding the destructive path.
type ResetTermWeeksRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	Confirm   bool      `json:"confirm"`
}

// CalendarService owns the academic year / term / week lifecycle.
type CalendarService struct {
	weeks     weekRepository
	terms     termRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService creates a calendar service instance.
func NewCalendarService(weeks weekRepository, terms termRepository, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{weeks: weeks, terms: terms, validator: validate, logger: logger}
}

// ListTerms returns all terms.
func (s *CalendarService) ListTerms(ctx context.Context) ([]models.Term, error) {
	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// GetActiveTerm returns the term that drives current scheduling.
func (s *CalendarService) GetActiveTerm(ctx context.Context) (*models.Term, error) {
	term, err := s.terms.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
	}
	return term, nil
}

// ListYears returns the academic year containers.
func (s *CalendarService) ListYears(ctx context.Context) ([]models.AcademicYear, error) {
	years, err := s.terms.ListYears(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// GetWeeks returns a term's weeks.
func (s *CalendarService) GetWeeks(ctx context.Context, termID string) ([]models.Week, error) {
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	weeks, err := s.weeks.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weeks")
	}
	return weeks, nil
}

// GetWeek loads one week.
func (s *CalendarService) GetWeek(ctx context.Context, id string) (*models.Week, error) {
	week, err := s.weeks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week")
	}
	return week, nil
}

// StartWeek creates a new week as the term's active one. The previous active
// week transitions to STOPPED inside the same transaction.
func (s *CalendarService) StartWeek(ctx context.Context, req StartWeekRequest) (*models.Week, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start week payload")
	}

	if req.StartDate.Weekday() != time.Sunday {
		return nil, appErrors.Clone(appErrors.ErrInvalidDate, "week start date must be a Sunday")
	}

	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	status := models.WeekStatusActive
	if req.Type != "" {
		parsed, err := models.ParseWeekStatus(req.Type)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		status = parsed
	}

	if !req.Replace {
		if active, err := s.weeks.FindActiveByTerm(ctx, req.TermID); err == nil && active != nil {
			return nil, appErrors.Clone(appErrors.ErrActiveWeekExists,
				fmt.Sprintf("week %q is still active; pass replace to stop it", active.Label))
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active week")
		}
	}

	week := &models.Week{
		TermID:    req.TermID,
		Label:     req.Label,
		StartDate: req.StartDate,
		Status:    status,
		IsPrep:    status == models.WeekStatusPrep,
	}
	if week.Label == "" {
		week.Label = "Week of " + req.StartDate.Format("2006-01-02")
	}

	if err := s.weeks.StartWeek(ctx, week); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start week")
	}
	s.logger.Info("week started",
		zap.String("week_id", week.ID),
		zap.String("term_id", week.TermID),
		zap.Time("start_date", week.StartDate),
	)
	return week, nil
}

// SetWeekType changes a week's status. Slots persist across type changes;
// the status only affects hour-aggregation read paths.
func (s *CalendarService) SetWeekType(ctx context.Context, weekID string, req SetWeekTypeRequest) (*models.Week, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week type payload")
	}
	status, err := models.ParseWeekStatus(req.Type)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	week, err := s.weeks.FindByID(ctx, weekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week")
	}

	if status == models.WeekStatusActive && week.Status != models.WeekStatusActive {
		if active, err := s.weeks.FindActiveByTerm(ctx, week.TermID); err == nil && active != nil && active.ID != weekID {
			return nil, appErrors.Clone(appErrors.ErrActiveWeekExists,
				fmt.Sprintf("week %q is already active for this term", active.Label))
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active week")
		}
	}

	if err := s.weeks.UpdateStatus(ctx, weekID, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update week status")
	}
	week.Status = status
	week.IsPrep = status == models.WeekStatusPrep
	return week, nil
}

// StopWeek stops the term's active week without starting a new one.
func (s *CalendarService) StopWeek(ctx context.Context, termID string) error {
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if err := s.weeks.StopActive(ctx, termID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stop active week")
	}
	return nil
}

// ResetTermWeeks wipes a term's weeks (slots and overlays cascade with them)
// and starts a fresh week 1. Destructive; requires explicit confirmation.
func (s *CalendarService) ResetTermWeeks(ctx context.Context, termID string, req ResetTermWeeksRequest) (*models.Week, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}
	if !req.Confirm {
		return nil, appErrors.Clone(appErrors.ErrConfirmationRequired, "resetting term weeks deletes all schedule data; set confirm to proceed")
	}
	if req.StartDate.Weekday() != time.Sunday {
		return nil, appErrors.Clone(appErrors.ErrInvalidDate, "week start date must be a Sunday")
	}
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	first := &models.Week{
		TermID:    termID,
		Label:     "Week 1",
		StartDate: req.StartDate,
		Status:    models.WeekStatusActive,
	}
	if err := s.weeks.ResetTerm(ctx, termID, first); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset term weeks")
	}
	s.logger.Warn("term weeks reset",
		zap.String("term_id", termID),
		zap.String("first_week_id", first.ID),
	)
	return first, nil
}
