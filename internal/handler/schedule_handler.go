package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/models"
	"github.com/medfac-dev/timetable-api/internal/service"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
	"github.com/medfac-dev/timetable-api/pkg/response"
)

// ScheduleHandler manages the weekly grid endpoints.
type ScheduleHandler struct {
	service *service.ResolverService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ResolverService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// manageRequest is the combined assign/remove payload. Action selects the
// branch so the UI drives the whole grid through one endpoint.
type manageRequest struct {
	Action string `json:"action" binding:"required"`
	service.AssignSlotRequest
}

// GetSchedule godoc
// @Summary Get a doctor's weekly schedule with overlays
// @Tags Schedule
// @Produce json
// @Param id path string true "Doctor ID"
// @Param weekId query string true "Week ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/schedule [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	weekID := c.Query("weekId")
	if weekID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekId query parameter is required"))
		return
	}
	view, err := h.service.GetSchedule(c.Request.Context(), c.Param("id"), weekID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ManageSchedule godoc
// @Summary Assign or remove a slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body handler.manageRequest true "Action and slot payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/slots [post]
func (h *ScheduleHandler) ManageSchedule(c *gin.Context) {
	var req manageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	switch strings.ToLower(req.Action) {
	case "assign":
		slot, err := h.service.AssignSlot(c.Request.Context(), req.AssignSlotRequest)
		if err != nil {
			respondConflict(c, err)
			return
		}
		response.JSON(c, http.StatusOK, slot, nil)
	case "remove":
		removeReq := service.RemoveSlotRequest{
			WeekID:   req.WeekID,
			DoctorID: req.DoctorID,
			Day:      req.Day,
			Slot:     req.Slot,
		}
		if err := h.service.RemoveSlot(c.Request.Context(), removeReq); err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "action must be assign or remove"))
	}
}

// CheckConflict godoc
// @Summary Pre-check a candidate assignment without committing
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.AssignSlotRequest true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Router /schedule/check [post]
func (h *ScheduleHandler) CheckConflict(c *gin.Context) {
	var req service.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	check, err := h.service.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// respondConflict surfaces the colliding slot alongside the error envelope
// so clients can render what is blocking the cell.
func respondConflict(c *gin.Context, err error) {
	var conflictErr *models.SlotConflictError
	appErr := appErrors.FromError(err)
	if appErr.Err != nil && errors.As(appErr.Err, &conflictErr) {
		response.ErrorWithMeta(c, appErr, map[string]interface{}{"conflict": conflictErr.Conflict})
		return
	}
	response.Error(c, err)
}
