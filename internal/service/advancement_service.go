package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/medfac-dev/timetable-api/internal/models"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActive(ctx context.Context, afterID string, limit int) ([]models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	ProgramMaxYear(ctx context.Context, program string) (int, error)
}

// AdvanceStudentsRequest drives the end-of-term sweep. Auto mode walks every
// active student; custom mode applies an explicit action list.
type AdvanceStudentsRequest struct {
	Mode    string                 `json:"mode" validate:"required,oneof=AUTO CUSTOM auto custom"`
	Actions []models.StudentAction `json:"actions,omitempty" validate:"dive"`
}

// AdvancementService runs the term-end student sweep. Each student commits
// independently so one bad record never blocks the rest of the cohort.
type AdvancementService struct {
	students  studentRepository
	batchSize int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdvancementService constructs the sweep runner.
func NewAdvancementService(students studentRepository, batchSize int, validate *validator.Validate, logger *zap.Logger) *AdvancementService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvancementService{
		students:  students,
		batchSize: batchSize,
		validator: validate,
		logger:    logger,
	}
}

// AdvanceStudents executes the sweep and reports per-student outcomes.
func (s *AdvancementService) AdvanceStudents(ctx context.Context, req AdvanceStudentsRequest) (*models.AdvancementSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid advancement payload")
	}
	mode, err := models.ParseAdvanceMode(req.Mode)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	var summary *models.AdvancementSummary
	switch mode {
	case models.AdvanceModeAuto:
		summary, err = s.runAuto(ctx)
	case models.AdvanceModeCustom:
		if len(req.Actions) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "custom mode requires a non-empty action list")
		}
		summary, err = s.runCustom(ctx, req.Actions)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("student advancement finished",
		zap.String("mode", string(mode)),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// runAuto pages through active students in batches. Students below their
// program's final year move up one level; students at the final year
// graduate. Program ceilings are memoized across the sweep.
func (s *AdvancementService) runAuto(ctx context.Context) (*models.AdvancementSummary, error) {
	summary := &models.AdvancementSummary{Mode: models.AdvanceModeAuto}
	maxYears := make(map[string]int)

	afterID := ""
	for {
		batch, err := s.students.ListActive(ctx, afterID, s.batchSize)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			student := &batch[i]
			result := s.advanceOne(ctx, student, maxYears)
			summary.Results = append(summary.Results, result)
			summary.Processed++
			if result.OK {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
		}
		afterID = batch[len(batch)-1].ID
	}
	return summary, nil
}

func (s *AdvancementService) advanceOne(ctx context.Context, student *models.Student, maxYears map[string]int) models.StudentActionResult {
	maxYear, ok := maxYears[student.Program]
	if !ok {
		var err error
		maxYear, err = s.students.ProgramMaxYear(ctx, student.Program)
		if err != nil {
			s.logger.Warn("unknown program during advancement",
				zap.String("student_id", student.ID),
				zap.String("program", student.Program),
				zap.Error(err),
			)
			return models.StudentActionResult{
				StudentID: student.ID,
				OK:        false,
				Error:     fmt.Sprintf("unknown program %q", student.Program),
			}
		}
		maxYears[student.Program] = maxYear
	}

	action := models.ActionAdvance
	if student.YearLevel >= maxYear {
		action = models.ActionGraduate
		student.Graduated = true
		student.Active = false
	} else {
		student.YearLevel++
	}

	if err := s.students.Update(ctx, student); err != nil {
		return models.StudentActionResult{StudentID: student.ID, Action: action, OK: false, Error: err.Error()}
	}
	return models.StudentActionResult{
		StudentID: student.ID,
		Action:    action,
		YearLevel: student.YearLevel,
		OK:        true,
	}
}

// runCustom applies an explicit per-student action list.
func (s *AdvancementService) runCustom(ctx context.Context, actions []models.StudentAction) (*models.AdvancementSummary, error) {
	summary := &models.AdvancementSummary{Mode: models.AdvanceModeCustom}
	for _, action := range actions {
		result := s.applyAction(ctx, action)
		summary.Results = append(summary.Results, result)
		summary.Processed++
		if result.OK {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary, nil
}

func (s *AdvancementService) applyAction(ctx context.Context, action models.StudentAction) models.StudentActionResult {
	result := models.StudentActionResult{StudentID: action.StudentID, Action: action.Action}

	student, err := s.students.FindByID(ctx, action.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			result.Error = "student not found"
		} else {
			result.Error = err.Error()
		}
		return result
	}
	if student.Graduated {
		result.Error = "student already graduated"
		return result
	}

	switch action.Action {
	case models.ActionAdvance:
		if action.ToYear > 0 {
			student.YearLevel = action.ToYear
		} else {
			student.YearLevel++
		}
	case models.ActionRepeat:
		// Year level stays put; the result still records the sweep touched
		// this student.
	case models.ActionGraduate:
		student.Graduated = true
		student.Active = false
	default:
		result.Error = fmt.Sprintf("unknown action %q", action.Action)
		return result
	}

	if err := s.students.Update(ctx, student); err != nil {
		result.Error = err.Error()
		return result
	}
	result.YearLevel = student.YearLevel
	result.OK = true
	return result
}
