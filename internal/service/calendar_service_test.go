package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medfac-dev/timetable-api/internal/models"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
)

type mockWeekRepo struct {
	weeks   map[string]*models.Week
	active  map[string]*models.Week
	started *models.Week
	status  map[string]models.WeekStatus
	stopped []string
	reset   *models.Week
}

func newMockWeekRepo() *mockWeekRepo {
	return &mockWeekRepo{
		weeks:  make(map[string]*models.Week),
		active: make(map[string]*models.Week),
		status: make(map[string]models.WeekStatus),
	}
}

func (m *mockWeekRepo) ListByTerm(ctx context.Context, termID string) ([]models.Week, error) {
	var list []models.Week
	for _, w := range m.weeks {
		if w.TermID == termID {
			list = append(list, *w)
		}
	}
	return list, nil
}

func (m *mockWeekRepo) FindByID(ctx context.Context, id string) (*models.Week, error) {
	if w, ok := m.weeks[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWeekRepo) FindActiveByTerm(ctx context.Context, termID string) (*models.Week, error) {
	if w, ok := m.active[termID]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWeekRepo) StartWeek(ctx context.Context, week *models.Week) error {
	if week.ID == "" {
		week.ID = "new-week"
	}
	m.started = week
	m.weeks[week.ID] = week
	if week.Status == models.WeekStatusActive || week.Status == models.WeekStatusRamadan {
		m.active[week.TermID] = week
	}
	return nil
}

func (m *mockWeekRepo) UpdateStatus(ctx context.Context, id string, status models.WeekStatus) error {
	if _, ok := m.weeks[id]; !ok {
		return sql.ErrNoRows
	}
	m.status[id] = status
	m.weeks[id].Status = status
	return nil
}

func (m *mockWeekRepo) StopActive(ctx context.Context, termID string) error {
	m.stopped = append(m.stopped, termID)
	delete(m.active, termID)
	return nil
}

func (m *mockWeekRepo) ResetTerm(ctx context.Context, termID string, first *models.Week) error {
	if first.ID == "" {
		first.ID = "reset-week"
	}
	m.reset = first
	return nil
}

type mockTermRepo struct {
	terms map[string]*models.Term
}

func (m *mockTermRepo) List(ctx context.Context) ([]models.Term, error) {
	var list []models.Term
	for _, t := range m.terms {
		list = append(list, *t)
	}
	return list, nil
}

func (m *mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.terms[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) FindActive(ctx context.Context) (*models.Term, error) {
	for _, t := range m.terms {
		if t.IsActive {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) ListYears(ctx context.Context) ([]models.AcademicYear, error) {
	return nil, nil
}

func newCalendarFixture() (*CalendarService, *mockWeekRepo, *mockTermRepo) {
	weeks := newMockWeekRepo()
	terms := &mockTermRepo{terms: map[string]*models.Term{"t1": {ID: "t1", Label: "S1", Semester: 1, IsActive: true}}}
	return NewCalendarService(weeks, terms, validator.New(), zap.NewNop()), weeks, terms
}

// 2026-01-04 is a Sunday; 2026-01-05 is not.
var (
	sunday = time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
)

func TestStartWeekRequiresSunday(t *testing.T) {
	svc, _, _ := newCalendarFixture()

	_, err := svc.StartWeek(context.Background(), StartWeekRequest{TermID: "t1", StartDate: monday})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidDate))
}

func TestStartWeekDefaults(t *testing.T) {
	svc, weeks, _ := newCalendarFixture()

	week, err := svc.StartWeek(context.Background(), StartWeekRequest{TermID: "t1", StartDate: sunday})
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusActive, week.Status)
	assert.Equal(t, "Week of 2026-01-04", week.Label)
	assert.NotNil(t, weeks.started)
}

func TestStartWeekGuardsActiveWeek(t *testing.T) {
	svc, weeks, _ := newCalendarFixture()
	weeks.active["t1"] = &models.Week{ID: "w1", TermID: "t1", Label: "Week 1", Status: models.WeekStatusActive}

	_, err := svc.StartWeek(context.Background(), StartWeekRequest{TermID: "t1", StartDate: sunday})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrActiveWeekExists))

	week, err := svc.StartWeek(context.Background(), StartWeekRequest{TermID: "t1", StartDate: sunday, Replace: true})
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusActive, week.Status)
}

func TestStartWeekRamadanType(t *testing.T) {
	svc, _, _ := newCalendarFixture()

	week, err := svc.StartWeek(context.Background(), StartWeekRequest{TermID: "t1", StartDate: sunday, Type: "ramadan"})
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusRamadan, week.Status)
}

func TestStartWeekUnknownTerm(t *testing.T) {
	svc, _, _ := newCalendarFixture()

	_, err := svc.StartWeek(context.Background(), StartWeekRequest{TermID: "missing", StartDate: sunday})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSetWeekTypeGuardsSecondActive(t *testing.T) {
	svc, weeks, _ := newCalendarFixture()
	weeks.weeks["w1"] = &models.Week{ID: "w1", TermID: "t1", Status: models.WeekStatusActive}
	weeks.weeks["w2"] = &models.Week{ID: "w2", TermID: "t1", Status: models.WeekStatusPrep}
	weeks.active["t1"] = weeks.weeks["w1"]

	_, err := svc.SetWeekType(context.Background(), "w2", SetWeekTypeRequest{Type: "ACTIVE"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrActiveWeekExists))

	week, err := svc.SetWeekType(context.Background(), "w2", SetWeekTypeRequest{Type: "RAMADAN"})
	require.NoError(t, err)
	assert.Equal(t, models.WeekStatusRamadan, week.Status)
}

func TestSetWeekTypePrepFlag(t *testing.T) {
	svc, weeks, _ := newCalendarFixture()
	weeks.weeks["w1"] = &models.Week{ID: "w1", TermID: "t1", Status: models.WeekStatusActive}

	week, err := svc.SetWeekType(context.Background(), "w1", SetWeekTypeRequest{Type: "PREP"})
	require.NoError(t, err)
	assert.True(t, week.IsPrep)
	assert.Equal(t, models.WeekStatusPrep, weeks.status["w1"])
}

func TestStopWeek(t *testing.T) {
	svc, weeks, _ := newCalendarFixture()
	weeks.active["t1"] = &models.Week{ID: "w1", TermID: "t1", Status: models.WeekStatusActive}

	require.NoError(t, svc.StopWeek(context.Background(), "t1"))
	assert.Contains(t, weeks.stopped, "t1")
}

func TestResetTermWeeksRequiresConfirmation(t *testing.T) {
	svc, _, _ := newCalendarFixture()

	_, err := svc.ResetTermWeeks(context.Background(), "t1", ResetTermWeeksRequest{StartDate: sunday})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfirmationRequired))
}

func TestResetTermWeeks(t *testing.T) {
	svc, weeks, _ := newCalendarFixture()

	week, err := svc.ResetTermWeeks(context.Background(), "t1", ResetTermWeeksRequest{StartDate: sunday, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", week.Label)
	assert.Equal(t, models.WeekStatusActive, week.Status)
	assert.NotNil(t, weeks.reset)

	_, err = svc.ResetTermWeeks(context.Background(), "t1", ResetTermWeeksRequest{StartDate: monday, Confirm: true})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidDate))
}
