package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medfac-dev/timetable-api/internal/models"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
)

type overlayRepository interface {
	UpsertDayCancellation(ctx context.Context, c *models.DayCancellation) error
	DeleteDayCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek) error
	ListDayCancellations(ctx context.Context, weekID, doctorID string) ([]models.DayCancellation, error)
	UpsertSlotCancellation(ctx context.Context, c *models.SlotCancellation) error
	DeleteSlotCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) error
	ListSlotCancellations(ctx context.Context, weekID, doctorID string) ([]models.SlotCancellation, error)
	CreateUnavailability(ctx context.Context, w *models.UnavailabilityWindow) error
	FindUnavailability(ctx context.Context, id string) (*models.UnavailabilityWindow, error)
	DeleteUnavailability(ctx context.Context, id string) (bool, error)
	ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error)
	AddAvailability(ctx context.Context, m *models.AvailabilityMark) error
	RemoveAvailability(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) error
	ListAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error)
}

type weekFinder interface {
	FindByID(ctx context.Context, id string) (*models.Week, error)
}

type doctorFinder interface {
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
}

// DayCancellationRequest targets a doctor's whole day in one week.
type DayCancellationRequest struct {
	WeekID   string `json:"week_id" validate:"required"`
	DoctorID string `json:"doctor_id" validate:"required"`
	Day      string `json:"day" validate:"required"`
	Reason   string `json:"reason"`
}

// SlotCancellationRequest targets a single cell.
type SlotCancellationRequest struct {
	WeekID   string `json:"week_id" validate:"required"`
	DoctorID string `json:"doctor_id" validate:"required"`
	Day      string `json:"day" validate:"required"`
	Slot     int    `json:"slot" validate:"required"`
	Reason   string `json:"reason"`
}

// UnavailabilityRequest records an absolute block window.
type UnavailabilityRequest struct {
	DoctorID string    `json:"doctor_id" validate:"required"`
	StartAt  time.Time `json:"start_at" validate:"required"`
	EndAt    time.Time `json:"end_at" validate:"required"`
	Reason   string    `json:"reason"`
}

// AvailabilityRequest toggles a willingness marker.
type AvailabilityRequest struct {
	WeekID   string `json:"week_id" validate:"required"`
	DoctorID string `json:"doctor_id" validate:"required"`
	Day      string `json:"day" validate:"required"`
	Slot     int    `json:"slot" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=add remove ADD REMOVE"`
}

// OverlayService maintains the blocking and informational overlays that sit
// on top of the scheduling grid.
type OverlayService struct {
	repo      overlayRepository
	weeks     weekFinder
	doctors   doctorFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverlayService creates an overlay service.
func NewOverlayService(repo overlayRepository, weeks weekFinder, doctors doctorFinder, validate *validator.Validate, logger *zap.Logger) *OverlayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverlayService{repo: repo, weeks: weeks, doctors: doctors, validator: validate, logger: logger}
}

func (s *OverlayService) checkWeek(ctx context.Context, weekID string) error {
	if _, err := s.weeks.FindByID(ctx, weekID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week")
	}
	return nil
}

func (s *OverlayService) checkDoctor(ctx context.Context, doctorID string) error {
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	return nil
}

// CancelDay blocks every slot of a doctor's day. Assignments underneath are
// kept so un-cancelling restores them without re-entry.
func (s *OverlayService) CancelDay(ctx context.Context, req DayCancellationRequest) (*models.DayCancellation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day cancellation payload")
	}
	day, err := models.ParseDayOfWeek(req.Day)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.checkWeek(ctx, req.WeekID); err != nil {
		return nil, err
	}
	if err := s.checkDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	c := &models.DayCancellation{
		WeekID:    req.WeekID,
		DoctorID:  req.DoctorID,
		DayOfWeek: day,
		Reason:    req.Reason,
	}
	if err := s.repo.UpsertDayCancellation(ctx, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel day")
	}
	return c, nil
}

// UncancelDay removes a whole-day block.
func (s *OverlayService) UncancelDay(ctx context.Context, weekID, doctorID, rawDay string) error {
	day, err := models.ParseDayOfWeek(rawDay)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.repo.DeleteDayCancellation(ctx, weekID, doctorID, day); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to uncancel day")
	}
	return nil
}

// CancelSlot blocks one cell, independent of any day-level cancellation.
func (s *OverlayService) CancelSlot(ctx context.Context, req SlotCancellationRequest) (*models.SlotCancellation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot cancellation payload")
	}
	day, err := models.ParseDayOfWeek(req.Day)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.ValidSlot(req.Slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot number out of range")
	}
	if err := s.checkWeek(ctx, req.WeekID); err != nil {
		return nil, err
	}
	if err := s.checkDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	c := &models.SlotCancellation{
		WeekID:     req.WeekID,
		DoctorID:   req.DoctorID,
		DayOfWeek:  day,
		SlotNumber: req.Slot,
		Reason:     req.Reason,
	}
	if err := s.repo.UpsertSlotCancellation(ctx, c); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel slot")
	}
	return c, nil
}

// UncancelSlot removes a single-cell block.
func (s *OverlayService) UncancelSlot(ctx context.Context, weekID, doctorID, rawDay string, slot int) error {
	day, err := models.ParseDayOfWeek(rawDay)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.ValidSlot(slot) {
		return appErrors.Clone(appErrors.ErrValidation, "slot number out of range")
	}
	if err := s.repo.DeleteSlotCancellation(ctx, weekID, doctorID, day, slot); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to uncancel slot")
	}
	return nil
}

// AddUnavailability records an absolute time-range block for a doctor.
func (s *OverlayService) AddUnavailability(ctx context.Context, req UnavailabilityRequest) (*models.UnavailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unavailability payload")
	}
	if !req.StartAt.Before(req.EndAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}
	if err := s.checkDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	w := &models.UnavailabilityWindow{
		DoctorID: req.DoctorID,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
		Reason:   req.Reason,
	}
	if err := s.repo.CreateUnavailability(ctx, w); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add unavailability")
	}
	return w, nil
}

// FindUnavailability loads a window by id, used by the transport layer to
// verify ownership before a delete.
func (s *OverlayService) FindUnavailability(ctx context.Context, id string) (*models.UnavailabilityWindow, error) {
	w, err := s.repo.FindUnavailability(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unavailability window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unavailability")
	}
	return w, nil
}

// RemoveUnavailability deletes a window by id.
func (s *OverlayService) RemoveUnavailability(ctx context.Context, id string) error {
	found, err := s.repo.DeleteUnavailability(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove unavailability")
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "unavailability window not found")
	}
	return nil
}

// ListUnavailability returns a doctor's windows.
func (s *OverlayService) ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error) {
	items, err := s.repo.ListUnavailability(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailability")
	}
	return items, nil
}

// SetAvailability toggles a non-blocking willingness marker. The conflict
// resolver never consults these; they are surfaced to the UI only.
func (s *OverlayService) SetAvailability(ctx context.Context, req AvailabilityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	day, err := models.ParseDayOfWeek(req.Day)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.ValidSlot(req.Slot) {
		return appErrors.Clone(appErrors.ErrValidation, "slot number out of range")
	}
	if err := s.checkWeek(ctx, req.WeekID); err != nil {
		return err
	}
	if err := s.checkDoctor(ctx, req.DoctorID); err != nil {
		return err
	}

	switch req.Action {
	case "add", "ADD":
		m := &models.AvailabilityMark{
			WeekID:     req.WeekID,
			DoctorID:   req.DoctorID,
			DayOfWeek:  day,
			SlotNumber: req.Slot,
		}
		if err := s.repo.AddAvailability(ctx, m); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add availability")
		}
	default:
		if err := s.repo.RemoveAvailability(ctx, req.WeekID, req.DoctorID, day, req.Slot); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove availability")
		}
	}
	return nil
}

// GetAvailability returns a doctor's markers for one week.
func (s *OverlayService) GetAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error) {
	items, err := s.repo.ListAvailability(ctx, weekID, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return items, nil
}
