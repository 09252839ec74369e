package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/models"
	"github.com/medfac-dev/timetable-api/internal/service"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
	"github.com/medfac-dev/timetable-api/pkg/response"
)

type overlayService interface {
	CancelDay(ctx context.Context, req service.DayCancellationRequest) (*models.DayCancellation, error)
	UncancelDay(ctx context.Context, weekID, doctorID, rawDay string) error
	CancelSlot(ctx context.Context, req service.SlotCancellationRequest) (*models.SlotCancellation, error)
	UncancelSlot(ctx context.Context, weekID, doctorID, rawDay string, slot int) error
	AddUnavailability(ctx context.Context, req service.UnavailabilityRequest) (*models.UnavailabilityWindow, error)
	FindUnavailability(ctx context.Context, id string) (*models.UnavailabilityWindow, error)
	RemoveUnavailability(ctx context.Context, id string) error
	ListUnavailability(ctx context.Context, doctorID string) ([]models.UnavailabilityWindow, error)
	SetAvailability(ctx context.Context, req service.AvailabilityRequest) error
	GetAvailability(ctx context.Context, weekID, doctorID string) ([]models.AvailabilityMark, error)
}

// OverlayHandler manages cancellations, unavailability windows, and
// availability marks.
type OverlayHandler struct {
	service overlayService
}

// NewOverlayHandler constructs handler.
func NewOverlayHandler(svc overlayService) *OverlayHandler {
	return &OverlayHandler{service: svc}
}

// CancelDay godoc
// @Summary Cancel a doctor's day for one week
// @Tags Overlays
// @Accept json
// @Produce json
// @Param payload body service.DayCancellationRequest true "Day cancellation"
// @Success 201 {object} response.Envelope
// @Router /cancellations/days [post]
func (h *OverlayHandler) CancelDay(c *gin.Context) {
	var req service.DayCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	cancellation, err := h.service.CancelDay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cancellation)
}

// UncancelDay godoc
// @Summary Remove a day cancellation
// @Tags Overlays
// @Param weekId query string true "Week ID"
// @Param doctorId query string true "Doctor ID"
// @Param day query string true "Day of week"
// @Success 204
// @Router /cancellations/days [delete]
func (h *OverlayHandler) UncancelDay(c *gin.Context) {
	if err := h.service.UncancelDay(c.Request.Context(), c.Query("weekId"), c.Query("doctorId"), c.Query("day")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CancelSlot godoc
// @Summary Cancel one slot for a doctor
// @Tags Overlays
// @Accept json
// @Produce json
// @Param payload body service.SlotCancellationRequest true "Slot cancellation"
// @Success 201 {object} response.Envelope
// @Router /cancellations/slots [post]
func (h *OverlayHandler) CancelSlot(c *gin.Context) {
	var req service.SlotCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	cancellation, err := h.service.CancelSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cancellation)
}

// UncancelSlot godoc
// @Summary Remove a slot cancellation
// @Tags Overlays
// @Param weekId query string true "Week ID"
// @Param doctorId query string true "Doctor ID"
// @Param day query string true "Day of week"
// @Param slot query int true "Slot number"
// @Success 204
// @Router /cancellations/slots [delete]
func (h *OverlayHandler) UncancelSlot(c *gin.Context) {
	slot, err := strconv.Atoi(c.Query("slot"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "slot must be a number"))
		return
	}
	if err := h.service.UncancelSlot(c.Request.Context(), c.Query("weekId"), c.Query("doctorId"), c.Query("day"), slot); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddUnavailability godoc
// @Summary Record an unavailability window
// @Tags Overlays
// @Accept json
// @Produce json
// @Param payload body service.UnavailabilityRequest true "Window"
// @Success 201 {object} response.Envelope
// @Router /unavailability [post]
func (h *OverlayHandler) AddUnavailability(c *gin.Context) {
	var req service.UnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if !canActFor(c, req.DoctorID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	window, err := h.service.AddUnavailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// RemoveUnavailability godoc
// @Summary Delete an unavailability window
// @Tags Overlays
// @Param id path string true "Window ID"
// @Success 204
// @Router /unavailability/{id} [delete]
func (h *OverlayHandler) RemoveUnavailability(c *gin.Context) {
	window, err := h.service.FindUnavailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canActFor(c, window.DoctorID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	if err := h.service.RemoveUnavailability(c.Request.Context(), window.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListUnavailability godoc
// @Summary List a doctor's unavailability windows
// @Tags Overlays
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/unavailability [get]
func (h *OverlayHandler) ListUnavailability(c *gin.Context) {
	windows, err := h.service.ListUnavailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// SetAvailability godoc
// @Summary Add or remove an availability mark
// @Tags Overlays
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityRequest true "Mark and action"
// @Success 204
// @Router /availability [post]
func (h *OverlayHandler) SetAvailability(c *gin.Context) {
	var req service.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if !canActFor(c, req.DoctorID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	if err := h.service.SetAvailability(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetAvailability godoc
// @Summary List a doctor's availability marks for a week
// @Tags Overlays
// @Produce json
// @Param id path string true "Doctor ID"
// @Param weekId query string true "Week ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/availability [get]
func (h *OverlayHandler) GetAvailability(c *gin.Context) {
	weekID := c.Query("weekId")
	if weekID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekId query parameter is required"))
		return
	}
	marks, err := h.service.GetAvailability(c.Request.Context(), weekID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
