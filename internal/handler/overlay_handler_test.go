package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medfac-dev/timetable-api/internal/middleware"
	"github.com/medfac-dev/timetable-api/internal/models"
	"github.com/medfac-dev/timetable-api/internal/service"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
)

type overlayServiceMock struct {
	window     *models.UnavailabilityWindow
	removedIDs []string
	addedReqs  []service.UnavailabilityRequest
	markReqs   []service.AvailabilityRequest
}

func (m *overlayServiceMock) CancelDay(ctx context.Context, req service.DayCancellationRequest) (*models.DayCancellation, error) {
	return &models.DayCancellation{WeekID: req.WeekID, DoctorID: req.DoctorID}, nil
}

func (m *overlayServiceMock) UncancelDay(ctx context.Context, weekID, doctorID, rawDay string) error {
	return nil
}

func (m *overlayServiceMock) CancelSlot(ctx context.Context, req service.SlotCancellationRequest) (*models.SlotCancellation, error) {
	return &models.SlotCancellation{WeekID: req.WeekID, DoctorID: req.DoctorID}, nil
}

func (m *overlayServiceMock) UncancelSlot(ctx context.Context, weekID, doctorID, rawDay string, slot int) error {
	return nil
}

func (m *overlayServiceMock) AddUnavailability(ctx context.Context, req service.UnavailabilityRequest) (*models.UnavailabilityWindow, error) {
	m.addedReqs = append(m.addedReqs, req)
	return &models.UnavailabilityWindow{ID: "win-1", DoctorID: req.DoctorID}, nil
}

func (m *overlayServiceMock) FindUnavailability(ctx context.Context, id string) (*models.UnavailabilityWindow, error) {
	if m.window == nil || m.window.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unavailability window not found")
	}
	return m.window, nil
}

func (m *overlayServiceMock) RemoveUnavailability(ctx context.Context, id string) error {
	m.removedIDs = append(m.removedIDs, id)
	return nil
}

func (m *overlayServiceMock) ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error) {
	return nil, nil
}

func (m *overlayServiceMock) SetAvailability(ctx context.Context, req service.AvailabilityRequest) error {
	m.markReqs = append(m.markReqs, req)
	return nil
}

func (m *overlayServiceMock) GetAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error) {
	return nil, nil
}

func deleteWindowContext(t *testing.T, claims *models.JWTClaims, windowID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodDelete, "/unavailability/"+windowID, nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: windowID}}
	c.Set(middleware.ContextUserKey, claims)
	return c, w
}

func TestRemoveUnavailabilityOwner(t *testing.T) {
	mock := &overlayServiceMock{window: &models.UnavailabilityWindow{ID: "win-1", DoctorID: "doc-1"}}
	handler := NewOverlayHandler(mock)
	c, w := deleteWindowContext(t, &models.JWTClaims{UserID: "u-1", DoctorID: "doc-1", Role: models.RoleDoctor}, "win-1")

	handler.RemoveUnavailability(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"win-1"}, mock.removedIDs)
}

func TestRemoveUnavailabilityForeignDoctor(t *testing.T) {
	mock := &overlayServiceMock{window: &models.UnavailabilityWindow{ID: "win-1", DoctorID: "doc-1"}}
	handler := NewOverlayHandler(mock)
	c, w := deleteWindowContext(t, &models.JWTClaims{UserID: "u-2", DoctorID: "doc-2", Role: models.RoleDoctor}, "win-1")

	handler.RemoveUnavailability(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, mock.removedIDs)
}

func TestRemoveUnavailabilityAdmin(t *testing.T) {
	mock := &overlayServiceMock{window: &models.UnavailabilityWindow{ID: "win-1", DoctorID: "doc-1"}}
	handler := NewOverlayHandler(mock)
	c, w := deleteWindowContext(t, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "win-1")

	handler.RemoveUnavailability(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"win-1"}, mock.removedIDs)
}

func TestRemoveUnavailabilityMissingWindow(t *testing.T) {
	mock := &overlayServiceMock{}
	handler := NewOverlayHandler(mock)
	c, w := deleteWindowContext(t, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, "win-404")

	handler.RemoveUnavailability(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, mock.removedIDs)
}

func TestAddUnavailabilityForeignDoctor(t *testing.T) {
	mock := &overlayServiceMock{}
	handler := NewOverlayHandler(mock)
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(service.UnavailabilityRequest{DoctorID: "doc-1", StartAt: start, EndAt: start.Add(time.Hour)})
	req, _ := http.NewRequest(http.MethodPost, "/unavailability", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-2", DoctorID: "doc-2", Role: models.RoleDoctor})

	handler.AddUnavailability(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, mock.addedReqs)
}
