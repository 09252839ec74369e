package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/service"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
	"github.com/medfac-dev/timetable-api/pkg/response"
)

// LedgerHandler exposes the teaching hour ledger.
type LedgerHandler struct {
	service *service.LedgerService
}

// NewLedgerHandler constructs handler.
func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: svc}
}

// GetCourseHours godoc
// @Summary Get done and remaining hours for a course
// @Tags Ledger
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/hours [get]
func (h *LedgerHandler) GetCourseHours(c *gin.Context) {
	hours, err := h.service.ComputeCourseHours(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hours, nil)
}

// SetCourseDoctors godoc
// @Summary Replace the set of doctors teaching a course
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.SetCourseDoctorsRequest true "Doctor IDs"
// @Success 204
// @Router /courses/{id}/doctors [put]
func (h *LedgerHandler) SetCourseDoctors(c *gin.Context) {
	var req service.SetCourseDoctorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.service.SetCourseDoctors(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetAllocations godoc
// @Summary Replace a course's per-doctor hour split
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.SetAllocationsRequest true "Allocations"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/{id}/allocations [put]
func (h *LedgerHandler) SetAllocations(c *gin.Context) {
	var req service.SetAllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	allocations, err := h.service.SetAllocations(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allocations, nil)
}

// GetCourseDoctorHours godoc
// @Summary Per-doctor hour breakdown for a course
// @Tags Ledger
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/doctor-hours [get]
func (h *LedgerHandler) GetCourseDoctorHours(c *gin.Context) {
	hours, err := h.service.GetCourseDoctorHours(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hours, nil)
}

// GetDoctorTotals godoc
// @Summary A doctor's hour totals across courses
// @Tags Ledger
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/hours [get]
func (h *LedgerHandler) GetDoctorTotals(c *gin.Context) {
	totals, err := h.service.PerDoctorTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}
