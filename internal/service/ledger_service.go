package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medfac-dev/timetable-api/internal/models"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
	"github.com/medfac-dev/timetable-api/pkg/jobs"
)

// AllocationSumTolerance absorbs floating rounding when validating that a
// course's allocation split matches its total hours.
const AllocationSumTolerance = 0.01

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListDoctorIDs(ctx context.Context, courseID string) ([]string, error)
	ListCourseIDsByDoctor(ctx context.Context, doctorID string) ([]string, error)
	ReplaceDoctors(ctx context.Context, courseID string, doctorIDs []string) error
	ListAllocations(ctx context.Context, courseID string) ([]models.CourseDoctorAllocation, error)
	ReplaceAllocations(ctx context.Context, courseID string, allocations []models.CourseDoctorAllocation) error
}

type slotHoursReader interface {
	SumCourseDoneHours(ctx context.Context, courseID string) (float64, error)
	SumDoctorDoneHours(ctx context.Context, courseID, doctorID string) (float64, error)
}

type ledgerCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

type ledgerMetrics interface {
	RecordCacheLookup(hit bool)
	ObserveLedgerRecompute(duration time.Duration)
}

// AllocationEntry is one element of a full allocation replacement.
type AllocationEntry struct {
	DoctorID string  `json:"doctor_id" validate:"required"`
	Hours    float64 `json:"hours" validate:"gte=0"`
}

// SetAllocationsRequest replaces a course's hour split atomically.
type SetAllocationsRequest struct {
	Allocations []AllocationEntry `json:"allocations" validate:"required,min=1,dive"`
}

// SetCourseDoctorsRequest replaces the course's doctor link set.
type SetCourseDoctorsRequest struct {
	DoctorIDs []string `json:"doctor_ids" validate:"required,min=1"`
}

// LedgerService derives done/remaining hour figures from the slot set.
// Figures are projections: the slot set is the single source of truth and
// the Redis cache is only an explicitly-invalidated copy.
type LedgerService struct {
	courses   courseRepository
	slots     slotHoursReader
	cache     ledgerCache
	warmQueue *jobs.Queue
	metrics   ledgerMetrics
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLedgerService creates a ledger service. cache and warmQueue may be nil.
func NewLedgerService(courses courseRepository, slots slotHoursReader, cache ledgerCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &LedgerService{
		courses:   courses,
		slots:     slots,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// SetWarmQueue attaches the background queue that recomputes projections
// after invalidation.
func (s *LedgerService) SetWarmQueue(q *jobs.Queue) {
	s.warmQueue = q
}

// SetMetrics attaches cache hit/miss and recompute observation.
func (s *LedgerService) SetMetrics(m ledgerMetrics) {
	s.metrics = m
}

func courseHoursKey(courseID string) string {
	return "ledger:course:" + courseID
}

// ComputeCourseHours returns {total, done, remaining} for a course.
// Remaining is reported unclamped so over-scheduling stays visible.
func (s *LedgerService) ComputeCourseHours(ctx context.Context, courseID string) (*models.CourseHours, error) {
	if s.cache != nil {
		var cached models.CourseHours
		if err := s.cache.Get(ctx, courseHoursKey(courseID), &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}

	started := time.Now()
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	done, err := s.slots.SumCourseDoneHours(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum course hours")
	}

	hours := &models.CourseHours{
		CourseID:  courseID,
		Total:     course.TotalHours,
		Done:      done,
		Remaining: course.TotalHours - done,
	}
	if s.metrics != nil {
		s.metrics.ObserveLedgerRecompute(time.Since(started))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, courseHoursKey(courseID), hours, s.cacheTTL); err != nil {
			s.logger.Warn("ledger cache set failed", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return hours, nil
}

// InvalidateCourse drops the cached projection for a course and schedules a
// background recompute. Called by the resolver on every grid mutation.
func (s *LedgerService) InvalidateCourse(ctx context.Context, courseID string) {
	if courseID == "" {
		return
	}
	if s.cache != nil {
		s.cache.Delete(ctx, courseHoursKey(courseID))
	}
	if s.warmQueue != nil {
		if err := s.warmQueue.Enqueue(jobs.Job{Key: courseID, Type: "ledger.warm", Payload: courseID}); err != nil {
			s.logger.Debug("ledger warm enqueue skipped", zap.String("course_id", courseID), zap.Error(err))
		}
	}
}

// WarmHandler returns the queue handler that recomputes course projections.
func (s *LedgerService) WarmHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		courseID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("ledger warm: unexpected payload %T", job.Payload)
		}
		_, err := s.ComputeCourseHours(ctx, courseID)
		return err
	}
}

// SetCourseDoctors replaces the set of doctors linked to a course. Existing
// allocations are dropped with the old set.
func (s *LedgerService) SetCourseDoctors(ctx context.Context, courseID string, req SetCourseDoctorsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course doctors payload")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	seen := make(map[string]struct{}, len(req.DoctorIDs))
	for _, id := range req.DoctorIDs {
		if _, dup := seen[id]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate doctor in list")
		}
		seen[id] = struct{}{}
	}
	if err := s.courses.ReplaceDoctors(ctx, courseID, req.DoctorIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set course doctors")
	}
	return nil
}

// SetAllocations replaces a course's planned hour split in one transaction.
// The split must cover the course total (within tolerance) and only name
// doctors already linked to the course.
func (s *LedgerService) SetAllocations(ctx context.Context, courseID string, req SetAllocationsRequest) ([]models.CourseDoctorAllocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocations payload")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	linked, err := s.courses.ListDoctorIDs(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course doctors")
	}
	linkedSet := make(map[string]struct{}, len(linked))
	for _, id := range linked {
		linkedSet[id] = struct{}{}
	}

	var sum float64
	seen := make(map[string]struct{}, len(req.Allocations))
	allocations := make([]models.CourseDoctorAllocation, 0, len(req.Allocations))
	for _, entry := range req.Allocations {
		if _, ok := linkedSet[entry.DoctorID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrUnassignedDoctor,
				fmt.Sprintf("doctor %s is not assigned to this course", entry.DoctorID))
		}
		if _, dup := seen[entry.DoctorID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate doctor in allocation list")
		}
		seen[entry.DoctorID] = struct{}{}
		sum += entry.Hours
		allocations = append(allocations, models.CourseDoctorAllocation{
			CourseID:       courseID,
			DoctorID:       entry.DoctorID,
			AllocatedHours: entry.Hours,
		})
	}

	if math.Abs(sum-course.TotalHours) > AllocationSumTolerance {
		return nil, appErrors.Clone(appErrors.ErrAllocationSum,
			fmt.Sprintf("allocated hours sum to %.2f, course total is %.2f", sum, course.TotalHours))
	}

	if err := s.courses.ReplaceAllocations(ctx, courseID, allocations); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace allocations")
	}
	return allocations, nil
}

// GetCourseDoctorHours returns each linked doctor's allocated/done/remaining
// figures for one course. Allocation is the planning split; done reflects
// slots actually assigned to the doctor, and the two may diverge.
func (s *LedgerService) GetCourseDoctorHours(ctx context.Context, courseID string) ([]models.DoctorCourseHours, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	linked, err := s.courses.ListDoctorIDs(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course doctors")
	}
	allocations, err := s.courses.ListAllocations(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}
	allocated := make(map[string]float64, len(allocations))
	for _, a := range allocations {
		allocated[a.DoctorID] = a.AllocatedHours
	}

	items := make([]models.DoctorCourseHours, 0, len(linked))
	for _, doctorID := range linked {
		done, err := s.slots.SumDoctorDoneHours(ctx, courseID, doctorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum doctor hours")
		}
		share, ok := allocated[doctorID]
		if !ok && len(linked) == 1 {
			// Sole doctor without an explicit split owns the whole course.
			share = course.TotalHours
		}
		items = append(items, models.DoctorCourseHours{
			CourseID:  courseID,
			DoctorID:  doctorID,
			Allocated: share,
			Done:      done,
			Remaining: share - done,
		})
	}
	return items, nil
}

// PerDoctorTotals aggregates a doctor's ledger across every linked course.
func (s *LedgerService) PerDoctorTotals(ctx context.Context, doctorID string) (*models.DoctorTotals, error) {
	courseIDs, err := s.courses.ListCourseIDsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor courses")
	}

	totals := &models.DoctorTotals{DoctorID: doctorID}
	for _, courseID := range courseIDs {
		perDoctor, err := s.GetCourseDoctorHours(ctx, courseID)
		if err != nil {
			return nil, err
		}
		for _, item := range perDoctor {
			if item.DoctorID != doctorID {
				continue
			}
			totals.Courses = append(totals.Courses, item)
			totals.Allocated += item.Allocated
			totals.Done += item.Done
			totals.Remaining += item.Remaining
		}
	}
	return totals, nil
}
