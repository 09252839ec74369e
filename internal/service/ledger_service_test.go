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

type mockCourseRepo struct {
	courses     map[string]*models.Course
	doctorIDs   map[string][]string
	courseIDs   map[string][]string
	allocations map[string][]models.CourseDoctorAllocation
	replaced    []models.CourseDoctorAllocation
	setDoctors  []string
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ListDoctorIDs(ctx context.Context, courseID string) ([]string, error) {
	return m.doctorIDs[courseID], nil
}

func (m *mockCourseRepo) ListCourseIDsByDoctor(ctx context.Context, doctorID string) ([]string, error) {
	return m.courseIDs[doctorID], nil
}

func (m *mockCourseRepo) ReplaceDoctors(ctx context.Context, courseID string, doctorIDs []string) error {
	m.setDoctors = doctorIDs
	if m.doctorIDs == nil {
		m.doctorIDs = make(map[string][]string)
	}
	m.doctorIDs[courseID] = doctorIDs
	return nil
}

func (m *mockCourseRepo) ListAllocations(ctx context.Context, courseID string) ([]models.CourseDoctorAllocation, error) {
	return m.allocations[courseID], nil
}

func (m *mockCourseRepo) ReplaceAllocations(ctx context.Context, courseID string, allocations []models.CourseDoctorAllocation) error {
	m.replaced = allocations
	if m.allocations == nil {
		m.allocations = make(map[string][]models.CourseDoctorAllocation)
	}
	m.allocations[courseID] = allocations
	return nil
}

type mockHoursReader struct {
	courseDone map[string]float64
	doctorDone map[string]float64
}

func (m *mockHoursReader) SumCourseDoneHours(ctx context.Context, courseID string) (float64, error) {
	return m.courseDone[courseID], nil
}

func (m *mockHoursReader) SumDoctorDoneHours(ctx context.Context, courseID, doctorID string) (float64, error) {
	return m.doctorDone[courseID+":"+doctorID], nil
}

type mockLedgerCache struct {
	gets    int
	sets    int
	deletes []string
	stored  *models.CourseHours
}

func (m *mockLedgerCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	if m.stored == nil {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.CourseHours) = *m.stored
	return nil
}

func (m *mockLedgerCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	return nil
}

func (m *mockLedgerCache) Delete(ctx context.Context, keys ...string) {
	m.deletes = append(m.deletes, keys...)
}

func newLedgerFixture() (*LedgerService, *mockCourseRepo, *mockHoursReader, *mockLedgerCache) {
	courses := &mockCourseRepo{
		courses: map[string]*models.Course{
			"crs-anat": {ID: "crs-anat", Name: "Anatomy", TotalHours: 10},
			"crs-path": {ID: "crs-path", Name: "Pathology", TotalHours: 12},
		},
		doctorIDs: map[string][]string{
			"crs-anat": {"doc-1"},
			"crs-path": {"doc-1", "doc-2"},
		},
	}
	hours := &mockHoursReader{courseDone: map[string]float64{}, doctorDone: map[string]float64{}}
	cache := &mockLedgerCache{}
	svc := NewLedgerService(courses, hours, cache, time.Minute, validator.New(), zap.NewNop())
	return svc, courses, hours, cache
}

// One plain slot charges 1.5h; a second slot with 30 extra minutes charges
// another 2.0h.
func TestComputeCourseHoursProgression(t *testing.T) {
	svc, _, hours, _ := newLedgerFixture()
	ctx := context.Background()

	got, err := svc.ComputeCourseHours(ctx, "crs-anat")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Total)
	assert.Equal(t, 0.0, got.Done)
	assert.Equal(t, 10.0, got.Remaining)

	hours.courseDone["crs-anat"] = 1.5
	got, err = svc.ComputeCourseHours(ctx, "crs-anat")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got.Done, 1e-9)
	assert.InDelta(t, 8.5, got.Remaining, 1e-9)

	hours.courseDone["crs-anat"] = 3.5
	got, err = svc.ComputeCourseHours(ctx, "crs-anat")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.Done, 1e-9)
	assert.InDelta(t, 6.5, got.Remaining, 1e-9)
}

// Over-scheduling is reported as negative remaining, never clamped.
func TestComputeCourseHoursUnclamped(t *testing.T) {
	svc, _, hours, _ := newLedgerFixture()
	hours.courseDone["crs-anat"] = 11.5

	got, err := svc.ComputeCourseHours(context.Background(), "crs-anat")
	require.NoError(t, err)
	assert.InDelta(t, -1.5, got.Remaining, 1e-9)
}

func TestComputeCourseHoursUnknownCourse(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()

	_, err := svc.ComputeCourseHours(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestInvalidateCourseDropsCacheKey(t *testing.T) {
	svc, _, _, cache := newLedgerFixture()

	svc.InvalidateCourse(context.Background(), "crs-anat")
	assert.Contains(t, cache.deletes, "ledger:course:crs-anat")
}

type mockLedgerMetrics struct {
	hits       int
	misses     int
	recomputes int
}

func (m *mockLedgerMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *mockLedgerMetrics) ObserveLedgerRecompute(duration time.Duration) {
	m.recomputes++
}

func TestComputeCourseHoursRecordsCacheMetrics(t *testing.T) {
	svc, _, _, cache := newLedgerFixture()
	metrics := &mockLedgerMetrics{}
	svc.SetMetrics(metrics)
	ctx := context.Background()

	got, err := svc.ComputeCourseHours(ctx, "crs-anat")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, 1, metrics.recomputes)

	cache.stored = got
	_, err = svc.ComputeCourseHours(ctx, "crs-anat")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.recomputes)
}

func TestSetAllocationsSumMismatch(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()
	req := SetAllocationsRequest{Allocations: []AllocationEntry{
		{DoctorID: "doc-1", Hours: 7},
		{DoctorID: "doc-2", Hours: 4},
	}}

	_, err := svc.SetAllocations(context.Background(), "crs-path", req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAllocationSum))
}

func TestSetAllocationsExactSum(t *testing.T) {
	svc, courses, _, _ := newLedgerFixture()
	req := SetAllocationsRequest{Allocations: []AllocationEntry{
		{DoctorID: "doc-1", Hours: 7},
		{DoctorID: "doc-2", Hours: 5},
	}}

	allocations, err := svc.SetAllocations(context.Background(), "crs-path", req)
	require.NoError(t, err)
	assert.Len(t, allocations, 2)
	assert.Len(t, courses.replaced, 2)
}

func TestSetAllocationsUnassignedDoctor(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()
	req := SetAllocationsRequest{Allocations: []AllocationEntry{
		{DoctorID: "doc-1", Hours: 7},
		{DoctorID: "doc-9", Hours: 5},
	}}

	_, err := svc.SetAllocations(context.Background(), "crs-path", req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnassignedDoctor))
}

func TestSetAllocationsDuplicateDoctor(t *testing.T) {
	svc, _, _, _ := newLedgerFixture()
	req := SetAllocationsRequest{Allocations: []AllocationEntry{
		{DoctorID: "doc-1", Hours: 6},
		{DoctorID: "doc-1", Hours: 6},
	}}

	_, err := svc.SetAllocations(context.Background(), "crs-path", req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSetCourseDoctors(t *testing.T) {
	svc, courses, _, _ := newLedgerFixture()

	err := svc.SetCourseDoctors(context.Background(), "crs-anat", SetCourseDoctorsRequest{DoctorIDs: []string{"doc-1", "doc-2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1", "doc-2"}, courses.setDoctors)

	err = svc.SetCourseDoctors(context.Background(), "crs-anat", SetCourseDoctorsRequest{DoctorIDs: []string{"doc-1", "doc-1"}})
	require.Error(t, err)
}

// A sole linked doctor without an explicit split owns the full course total.
func TestGetCourseDoctorHoursSoleDoctor(t *testing.T) {
	svc, _, hours, _ := newLedgerFixture()
	hours.doctorDone["crs-anat:doc-1"] = 3.0

	items, err := svc.GetCourseDoctorHours(context.Background(), "crs-anat")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10.0, items[0].Allocated)
	assert.InDelta(t, 3.0, items[0].Done, 1e-9)
	assert.InDelta(t, 7.0, items[0].Remaining, 1e-9)
}

func TestGetCourseDoctorHoursWithSplit(t *testing.T) {
	svc, courses, hours, _ := newLedgerFixture()
	courses.allocations = map[string][]models.CourseDoctorAllocation{
		"crs-path": {
			{CourseID: "crs-path", DoctorID: "doc-1", AllocatedHours: 7},
			{CourseID: "crs-path", DoctorID: "doc-2", AllocatedHours: 5},
		},
	}
	hours.doctorDone["crs-path:doc-1"] = 1.5

	items, err := svc.GetCourseDoctorHours(context.Background(), "crs-path")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 7.0, items[0].Allocated)
	assert.InDelta(t, 5.5, items[0].Remaining, 1e-9)
	assert.Equal(t, 5.0, items[1].Allocated)
}

func TestPerDoctorTotals(t *testing.T) {
	svc, courses, hours, _ := newLedgerFixture()
	courses.courseIDs = map[string][]string{"doc-1": {"crs-anat", "crs-path"}}
	courses.allocations = map[string][]models.CourseDoctorAllocation{
		"crs-path": {{CourseID: "crs-path", DoctorID: "doc-1", AllocatedHours: 7}},
	}
	hours.doctorDone["crs-anat:doc-1"] = 3.0
	hours.doctorDone["crs-path:doc-1"] = 1.5

	totals, err := svc.PerDoctorTotals(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, totals.Courses, 2)
	assert.InDelta(t, 17.0, totals.Allocated, 1e-9)
	assert.InDelta(t, 4.5, totals.Done, 1e-9)
	assert.InDelta(t, 12.5, totals.Remaining, 1e-9)
}
