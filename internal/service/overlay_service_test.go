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

type mockOverlayRepo struct {
	dayCancellations  map[string]models.DayCancellation
	slotCancellations map[string]models.SlotCancellation
	windows           map[string]models.UnavailabilityWindow
	marks             map[string]models.AvailabilityMark
}

func newMockOverlayRepo() *mockOverlayRepo {
	return &mockOverlayRepo{
		dayCancellations:  make(map[string]models.DayCancellation),
		slotCancellations: make(map[string]models.SlotCancellation),
		windows:           make(map[string]models.UnavailabilityWindow),
		marks:             make(map[string]models.AvailabilityMark),
	}
}

func dayKey(weekID, doctorID string, day models.DayOfWeek) string {
	return weekID + ":" + doctorID + ":" + string(day)
}

func slotKey(weekID, doctorID string, day models.DayOfWeek, slot int) string {
	return dayKey(weekID, doctorID, day) + ":" + string(rune('0'+slot))
}

func (m *mockOverlayRepo) UpsertDayCancellation(ctx context.Context, c *models.DayCancellation) error {
	m.dayCancellations[dayKey(c.WeekID, c.DoctorID, c.DayOfWeek)] = *c
	return nil
}

func (m *mockOverlayRepo) DeleteDayCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek) error {
	delete(m.dayCancellations, dayKey(weekID, doctorID, day))
	return nil
}

func (m *mockOverlayRepo) ListDayCancellations(ctx context.Context, weekID, doctorID string) ([]models.DayCancellation, error) {
	var list []models.DayCancellation
	for _, c := range m.dayCancellations {
		if c.WeekID == weekID && c.DoctorID == doctorID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (m *mockOverlayRepo) UpsertSlotCancellation(ctx context.Context, c *models.SlotCancellation) error {
	m.slotCancellations[slotKey(c.WeekID, c.DoctorID, c.DayOfWeek, c.SlotNumber)] = *c
	return nil
}

func (m *mockOverlayRepo) DeleteSlotCancellation(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) error {
	delete(m.slotCancellations, slotKey(weekID, doctorID, day, slot))
	return nil
}

func (m *mockOverlayRepo) ListSlotCancellations(ctx context.Context, weekID, doctorID string) ([]models.SlotCancellation, error) {
	var list []models.SlotCancellation
	for _, c := range m.slotCancellations {
		if c.WeekID == weekID && c.DoctorID == doctorID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (m *mockOverlayRepo) CreateUnavailability(ctx context.Context, w *models.UnavailabilityWindow) error {
	if w.ID == "" {
		w.ID = "win-1"
	}
	m.windows[w.ID] = *w
	return nil
}

func (m *mockOverlayRepo) FindUnavailability(ctx context.Context, id string) (*models.UnavailabilityWindow, error) {
	w, ok := m.windows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &w, nil
}

func (m *mockOverlayRepo) DeleteUnavailability(ctx context.Context, id string) (bool, error) {
	if _, ok := m.windows[id]; !ok {
		return false, nil
	}
	delete(m.windows, id)
	return true, nil
}

func (m *mockOverlayRepo) ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error) {
	var list []models.UnavailabilityWindow
	for _, w := range m.windows {
		if w.DoctorID == doctorID {
			list = append(list, w)
		}
	}
	return list, nil
}

func (m *mockOverlayRepo) AddAvailability(ctx context.Context, mark *models.AvailabilityMark) error {
	m.marks[slotKey(mark.WeekID, mark.DoctorID, mark.DayOfWeek, mark.SlotNumber)] = *mark
	return nil
}

func (m *mockOverlayRepo) RemoveAvailability(ctx context.Context, weekID, doctorID string, day models.DayOfWeek, slot int) error {
	delete(m.marks, slotKey(weekID, doctorID, day, slot))
	return nil
}

func (m *mockOverlayRepo) ListAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error) {
	var list []models.AvailabilityMark
	for _, mark := range m.marks {
		if mark.WeekID == weekID && mark.DoctorID == doctorID {
			list = append(list, mark)
		}
	}
	return list, nil
}

func newOverlayFixture() (*OverlayService, *mockOverlayRepo) {
	repo := newMockOverlayRepo()
	weeks := &mockWeekFinder{weeks: map[string]*models.Week{"w1": sundayWeek()}}
	doctors := &mockDoctorFinder{doctors: map[string]*models.Doctor{
		"doc-1": {ID: "doc-1", FullName: "Dr. Mansour"},
	}}
	return NewOverlayService(repo, weeks, doctors, validator.New(), zap.NewNop()), repo
}

func TestCancelDayAndUncancel(t *testing.T) {
	svc, repo := newOverlayFixture()
	ctx := context.Background()

	c, err := svc.CancelDay(ctx, DayCancellationRequest{WeekID: "w1", DoctorID: "doc-1", Day: "tue", Reason: "conference"})
	require.NoError(t, err)
	assert.Equal(t, models.DayTuesday, c.DayOfWeek)
	assert.Len(t, repo.dayCancellations, 1)

	// Cancelling twice is an upsert, not an error.
	_, err = svc.CancelDay(ctx, DayCancellationRequest{WeekID: "w1", DoctorID: "doc-1", Day: "TUE"})
	require.NoError(t, err)
	assert.Len(t, repo.dayCancellations, 1)

	require.NoError(t, svc.UncancelDay(ctx, "w1", "doc-1", "TUE"))
	assert.Empty(t, repo.dayCancellations)
}

func TestCancelSlotRoundTrip(t *testing.T) {
	svc, repo := newOverlayFixture()
	ctx := context.Background()

	c, err := svc.CancelSlot(ctx, SlotCancellationRequest{WeekID: "w1", DoctorID: "doc-1", Day: "MON", Slot: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, c.SlotNumber)
	assert.Len(t, repo.slotCancellations, 1)

	require.NoError(t, svc.UncancelSlot(ctx, "w1", "doc-1", "MON", 3))
	assert.Empty(t, repo.slotCancellations)
}

func TestCancelSlotRejectsBadCell(t *testing.T) {
	svc, _ := newOverlayFixture()
	ctx := context.Background()

	_, err := svc.CancelSlot(ctx, SlotCancellationRequest{WeekID: "w1", DoctorID: "doc-1", Day: "FRI", Slot: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.CancelSlot(ctx, SlotCancellationRequest{WeekID: "w1", DoctorID: "doc-1", Day: "MON", Slot: 6})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCancelDayUnknownWeek(t *testing.T) {
	svc, _ := newOverlayFixture()

	_, err := svc.CancelDay(context.Background(), DayCancellationRequest{WeekID: "missing", DoctorID: "doc-1", Day: "MON"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCancelDayUnknownDoctor(t *testing.T) {
	svc, repo := newOverlayFixture()

	_, err := svc.CancelDay(context.Background(), DayCancellationRequest{WeekID: "w1", DoctorID: "doc-ghost", Day: "MON"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, repo.dayCancellations)
}

func TestAddUnavailabilityUnknownDoctor(t *testing.T) {
	svc, repo := newOverlayFixture()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	_, err := svc.AddUnavailability(context.Background(), UnavailabilityRequest{DoctorID: "doc-ghost", StartAt: start, EndAt: start.Add(time.Hour)})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, repo.windows)
}

func TestAddUnavailabilityValidatesWindow(t *testing.T) {
	svc, repo := newOverlayFixture()
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	_, err := svc.AddUnavailability(ctx, UnavailabilityRequest{DoctorID: "doc-1", StartAt: start, EndAt: start})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	w, err := svc.AddUnavailability(ctx, UnavailabilityRequest{DoctorID: "doc-1", StartAt: start, EndAt: start.Add(3 * time.Hour), Reason: "clinic"})
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.Len(t, repo.windows, 1)
}

func TestFindUnavailability(t *testing.T) {
	svc, repo := newOverlayFixture()
	ctx := context.Background()
	repo.windows["win-1"] = models.UnavailabilityWindow{ID: "win-1", DoctorID: "doc-1"}

	w, err := svc.FindUnavailability(ctx, "win-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", w.DoctorID)

	_, err = svc.FindUnavailability(ctx, "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRemoveUnavailabilityNotFound(t *testing.T) {
	svc, _ := newOverlayFixture()

	err := svc.RemoveUnavailability(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSetAvailabilityToggle(t *testing.T) {
	svc, repo := newOverlayFixture()
	ctx := context.Background()

	err := svc.SetAvailability(ctx, AvailabilityRequest{WeekID: "w1", DoctorID: "doc-1", Day: "WED", Slot: 2, Action: "add"})
	require.NoError(t, err)
	assert.Len(t, repo.marks, 1)

	err = svc.SetAvailability(ctx, AvailabilityRequest{WeekID: "w1", DoctorID: "doc-1", Day: "WED", Slot: 2, Action: "remove"})
	require.NoError(t, err)
	assert.Empty(t, repo.marks)
}

func TestSetAvailabilityRejectsUnknownAction(t *testing.T) {
	svc, _ := newOverlayFixture()

	err := svc.SetAvailability(context.Background(), AvailabilityRequest{WeekID: "w1", DoctorID: "doc-1", Day: "WED", Slot: 2, Action: "toggle"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
