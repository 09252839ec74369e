package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/medfac-dev/timetable-api/internal/models"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
)

type slotRepository interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	LockCell(ctx context.Context, tx *sqlx.Tx, weekID string, day models.DayOfWeek, slot int) ([]models.CellSlot, error)
	ListCell(ctx context.Context, weekID string, day models.DayOfWeek, slot int) ([]models.CellSlot, error)
	Upsert(ctx context.Context, tx *sqlx.Tx, slot *models.ScheduleSlot) error
	Delete(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) (*models.ScheduleSlot, error)
	ListByDoctorWeek(ctx context.Context, weekID, doctorID string) ([]models.ScheduleSlot, error)
}

type overlayChecker interface {
	HasDayCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek) (bool, error)
	HasSlotCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) (bool, error)
	ListOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]models.UnavailabilityWindow, error)
	ListDayCancellations(ctx context.Context, weekID, doctorID string) ([]models.DayCancellation, error)
	ListSlotCancellations(ctx context.Context, weekID, doctorID string) ([]models.SlotCancellation, error)
	ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error)
	ListAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type ledgerInvalidator interface {
	InvalidateCourse(ctx context.Context, courseID string)
}

type assignmentMetrics interface {
	IncAssignment(outcome string)
}

// AssignSlotRequest is the candidate assignment entering the resolver.
type AssignSlotRequest struct {
	WeekID       string `json:"week_id" validate:"required"`
	DoctorID     string `json:"doctor_id" validate:"required"`
	Day          string `json:"day" validate:"required"`
	Slot         int    `json:"slot" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	RoomCode     string `json:"room_code"`
	CountsHours  *bool  `json:"counts_towards_hours"`
	ExtraMinutes int    `json:"extra_minutes"`
}

// RemoveSlotRequest frees one cell.
type RemoveSlotRequest struct {
	WeekID   string `json:"week_id" validate:"required"`
	DoctorID string `json:"doctor_id" validate:"required"`
	Day      string `json:"day" validate:"required"`
	Slot     int    `json:"slot" validate:"required"`
}

// ResolverService is the single transactional gate for every grid mutation.
// The rule chain runs identically for the read-only pre-check and the
// mutating path so preview and commit can never drift apart.
type ResolverService struct {
	slots     slotRepository
	overlay   overlayChecker
	weeks     weekFinder
	doctors   doctorFinder
	courses   courseFinder
	ledger    ledgerInvalidator
	metrics   assignmentMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResolverService creates the conflict resolver. ledger and metrics may
// be nil.
func NewResolverService(slots slotRepository, overlay overlayChecker, weeks weekFinder, doctors doctorFinder, courses courseFinder, ledger ledgerInvalidator, validate *validator.Validate, logger *zap.Logger) *ResolverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolverService{
		slots:     slots,
		overlay:   overlay,
		weeks:     weeks,
		doctors:   doctors,
		courses:   courses,
		ledger:    ledger,
		validator: validate,
		logger:    logger,
	}
}

// SetMetrics attaches domain metrics.
func (s *ResolverService) SetMetrics(m assignmentMetrics) {
	s.metrics = m
}

type candidate struct {
	week   *models.Week
	day    models.DayOfWeek
	slot   int
	course *models.Course
	req    AssignSlotRequest
	start  time.Time
	end    time.Time
}

// resolveCandidate validates references and maps the cell to its concrete
// datetime window.
func (s *ResolverService) resolveCandidate(ctx context.Context, req AssignSlotRequest) (*candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	day, err := models.ParseDayOfWeek(req.Day)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.ValidSlot(req.Slot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot number out of range")
	}
	if !models.ValidExtraMinutes(req.ExtraMinutes) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "extra minutes must be 0, 15, 30, or 45")
	}

	week, err := s.weeks.FindByID(ctx, req.WeekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week")
	}
	if _, err := s.doctors.FindByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	start, end, err := models.ResolveSlotWindow(week, day, req.Slot)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	return &candidate{week: week, day: day, slot: req.Slot, course: course, req: req, start: start, end: end}, nil
}

// runChecks evaluates the full rule chain against the given cell contents.
// Both CheckConflict and AssignSlot feed it; only the source of cells (plain
// read vs. locked read) differs.
func (s *ResolverService) runChecks(ctx context.Context, cand *candidate, cells []models.CellSlot) (*models.ConflictCheck, error) {
	check := &models.ConflictCheck{}

	dayCancelled, err := s.overlay.HasDayCancellation(ctx, cand.req.WeekID, cand.req.DoctorID, cand.day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check day cancellation")
	}
	check.DayCancelled = dayCancelled

	slotCancelled, err := s.overlay.HasSlotCancellation(ctx, cand.req.WeekID, cand.req.DoctorID, cand.day, cand.slot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot cancellation")
	}
	check.SlotCancelled = slotCancelled

	windows, err := s.overlay.ListOverlapping(ctx, cand.req.DoctorID, cand.start, cand.end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unavailability")
	}
	check.Unavailable = len(windows) > 0

	// Cohort is evaluated across every cell before rooms are, so a cohort
	// collision is always the one reported even when a room collision sits
	// in an earlier cell. Re-assigning one's own cell is an update, not a
	// conflict, on both dimensions.
	cohort := cand.course.Cohort()
	for i := range cells {
		cell := &cells[i]
		if cell.DoctorID == cand.req.DoctorID {
			continue
		}
		if cell.Program == cohort.Program && cell.YearLevel == cohort.YearLevel && cell.Semester == cohort.Semester {
			check.Cohort = true
			check.Details = cellConflict(cell, "COHORT")
			break
		}
	}
	if !check.Cohort && cand.req.RoomCode != "" {
		for i := range cells {
			cell := &cells[i]
			if cell.DoctorID == cand.req.DoctorID {
				continue
			}
			if strings.EqualFold(cell.RoomCode, cand.req.RoomCode) {
				check.Room = true
				check.Details = cellConflict(cell, "ROOM")
				break
			}
		}
	}

	check.MissingRoom = strings.TrimSpace(cand.req.RoomCode) == ""
	check.OK = !check.DayCancelled && !check.SlotCancelled && !check.Unavailable &&
		!check.Cohort && !check.Room && !check.MissingRoom
	return check, nil
}

func cellConflict(cell *models.CellSlot, dimension string) *models.SlotConflict {
	return &models.SlotConflict{
		SlotID:     cell.ID,
		WeekID:     cell.WeekID,
		DoctorID:   cell.DoctorID,
		DoctorName: cell.DoctorName,
		DayOfWeek:  cell.DayOfWeek,
		SlotNumber: cell.SlotNumber,
		CourseID:   cell.CourseID,
		RoomCode:   cell.RoomCode,
		Dimension:  dimension,
	}
}

// checkError converts a failed check into its typed rejection, preserving
// the rule order of the mutation path.
func (s *ResolverService) checkError(check *models.ConflictCheck) error {
	switch {
	case check.DayCancelled:
		return appErrors.Clone(appErrors.ErrDayCancelled, "")
	case check.SlotCancelled:
		return appErrors.Clone(appErrors.ErrSlotCancelled, "")
	case check.Unavailable:
		return appErrors.Clone(appErrors.ErrUnavailable, "")
	case check.Cohort:
		return s.wrapConflict(appErrors.ErrCohortConflict, check.Details)
	case check.Room:
		return s.wrapConflict(appErrors.ErrRoomConflict, check.Details)
	case check.MissingRoom:
		return appErrors.Clone(appErrors.ErrMissingRoom, "")
	}
	return nil
}

func (s *ResolverService) wrapConflict(base *appErrors.Error, details *models.SlotConflict) error {
	msg := base.Message
	if details != nil {
		switch details.Dimension {
		case "ROOM":
			msg = fmt.Sprintf("room %s already used by %s in this slot", details.RoomCode, details.DoctorName)
		case "COHORT":
			msg = fmt.Sprintf("cohort already scheduled with %s in this slot", details.DoctorName)
		}
	}
	domainErr := &models.SlotConflictError{Type: details.Dimension, Message: msg, Conflict: *details}
	return appErrors.Wrap(domainErr, base.Code, base.Status, msg)
}

// CheckConflict is the read-only pre-check mirroring AssignSlot's rules.
func (s *ResolverService) CheckConflict(ctx context.Context, req AssignSlotRequest) (*models.ConflictCheck, error) {
	cand, err := s.resolveCandidate(ctx, req)
	if err != nil {
		return nil, err
	}
	cells, err := s.slots.ListCell(ctx, req.WeekID, cand.day, cand.slot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read cell")
	}
	return s.runChecks(ctx, cand, cells)
}

// AssignSlot validates and commits a candidate assignment. Rule evaluation
// and the upsert run inside one serializable transaction keyed on the cell
// so concurrent admins cannot both pass their checks. Transient store
// failures are retried once with the full rule chain re-run.
func (s *ResolverService) AssignSlot(ctx context.Context, req AssignSlotRequest) (*models.ScheduleSlot, error) {
	cand, err := s.resolveCandidate(ctx, req)
	if err != nil {
		return nil, err
	}

	slot, err := s.assignOnce(ctx, cand)
	if err != nil && isRetryable(err) {
		s.logger.Warn("transient failure during assignment, retrying",
			zap.String("week_id", req.WeekID),
			zap.String("doctor_id", req.DoctorID),
			zap.Error(err),
		)
		slot, err = s.assignOnce(ctx, cand)
	}

	if s.metrics != nil {
		outcome := "committed"
		if err != nil {
			outcome = appErrors.FromError(err).Code
		}
		s.metrics.IncAssignment(outcome)
	}
	if err != nil {
		return nil, err
	}

	if s.ledger != nil {
		s.ledger.InvalidateCourse(ctx, req.CourseID)
	}
	s.logger.Info("slot assigned",
		zap.String("week_id", slot.WeekID),
		zap.String("doctor_id", slot.DoctorID),
		zap.String("day", string(slot.DayOfWeek)),
		zap.Int("slot", slot.SlotNumber),
		zap.String("course_id", slot.CourseID),
	)
	return slot, nil
}

func (s *ResolverService) assignOnce(ctx context.Context, cand *candidate) (*models.ScheduleSlot, error) {
	tx, err := s.slots.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cells, err := s.slots.LockCell(ctx, tx, cand.req.WeekID, cand.day, cand.slot)
	if err != nil {
		return nil, err
	}
	check, err := s.runChecks(ctx, cand, cells)
	if err != nil {
		return nil, err
	}
	if ruleErr := s.checkError(check); ruleErr != nil {
		return nil, ruleErr
	}

	counts := true
	if cand.req.CountsHours != nil {
		counts = *cand.req.CountsHours
	}
	slot := &models.ScheduleSlot{
		WeekID:       cand.req.WeekID,
		DoctorID:     cand.req.DoctorID,
		DayOfWeek:    cand.day,
		SlotNumber:   cand.slot,
		CourseID:     cand.req.CourseID,
		RoomCode:     cand.req.RoomCode,
		CountsHours:  counts,
		ExtraMinutes: cand.req.ExtraMinutes,
	}

	// Replacing the doctor's own cell also frees the hours of the course
	// previously occupying it.
	var replacedCourse string
	for i := range cells {
		if cells[i].DoctorID == cand.req.DoctorID && cells[i].CourseID != cand.req.CourseID {
			replacedCourse = cells[i].CourseID
		}
	}

	if err := s.slots.Upsert(ctx, tx, slot); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}
	committed = true

	if replacedCourse != "" && s.ledger != nil {
		s.ledger.InvalidateCourse(ctx, replacedCourse)
	}
	return slot, nil
}

// RemoveSlot frees a cell. Removal needs no conflict checks; the course's
// ledger recomputes to reflect the returned hours.
func (s *ResolverService) RemoveSlot(ctx context.Context, req RemoveSlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}
	day, err := models.ParseDayOfWeek(req.Day)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !models.ValidSlot(req.Slot) {
		return appErrors.Clone(appErrors.ErrValidation, "slot number out of range")
	}

	removed, err := s.slots.Delete(ctx, req.WeekID, req.DoctorID, day, req.Slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove slot")
	}
	if s.ledger != nil {
		s.ledger.InvalidateCourse(ctx, removed.CourseID)
	}
	return nil
}

// GetSchedule assembles the read model for one doctor's week: the grid plus
// every overlay the UI renders against it.
func (s *ResolverService) GetSchedule(ctx context.Context, doctorID, weekID string) (*models.ScheduleView, error) {
	week, err := s.weeks.FindByID(ctx, weekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "week not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week")
	}
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}

	slots, err := s.slots.ListByDoctorWeek(ctx, weekID, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	dayCancellations, err := s.overlay.ListDayCancellations(ctx, weekID, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day cancellations")
	}
	slotCancellations, err := s.overlay.ListSlotCancellations(ctx, weekID, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slot cancellations")
	}
	unavailability, err := s.overlay.ListUnavailability(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailability")
	}
	availability, err := s.overlay.ListAvailability(ctx, weekID, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}

	return &models.ScheduleView{
		WeekID:            weekID,
		DoctorID:          doctorID,
		CountsForHours:    week.Status.CountsForHours(),
		Slots:             slots,
		DayCancellations:  dayCancellations,
		SlotCancellations: slotCancellations,
		Unavailability:    unavailability,
		Availability:      availability,
	}, nil
}

// isRetryable reports whether the store failure is a serialization or
// deadlock error worth one more attempt.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
