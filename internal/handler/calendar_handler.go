package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/service"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
	"github.com/medfac-dev/timetable-api/pkg/response"
)

// CalendarHandler manages academic year, term, and week endpoints.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// ListYears godoc
// @Summary List academic years
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /years [get]
func (h *CalendarHandler) ListYears(c *gin.Context) {
	years, err := h.service.ListYears(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// ListTerms godoc
// @Summary List terms
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms [get]
func (h *CalendarHandler) ListTerms(c *gin.Context) {
	terms, err := h.service.ListTerms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// GetActiveTerm godoc
// @Summary Get the active term
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /terms/active [get]
func (h *CalendarHandler) GetActiveTerm(c *gin.Context) {
	term, err := h.service.GetActiveTerm(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// ListWeeks godoc
// @Summary List weeks of a term
// @Tags Calendar
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{id}/weeks [get]
func (h *CalendarHandler) ListWeeks(c *gin.Context) {
	weeks, err := h.service.GetWeeks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks, nil)
}

// GetWeek godoc
// @Summary Get one week
// @Tags Calendar
// @Produce json
// @Param id path string true "Week ID"
// @Success 200 {object} response.Envelope
// @Router /weeks/{id} [get]
func (h *CalendarHandler) GetWeek(c *gin.Context) {
	week, err := h.service.GetWeek(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// StartWeek godoc
// @Summary Start a new scheduling week
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body service.StartWeekRequest true "Week parameters"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /weeks [post]
func (h *CalendarHandler) StartWeek(c *gin.Context) {
	var req service.StartWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	week, err := h.service.StartWeek(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, week)
}

// SetWeekType godoc
// @Summary Change a week's type
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path string true "Week ID"
// @Param payload body service.SetWeekTypeRequest true "New type"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /weeks/{id}/type [put]
func (h *CalendarHandler) SetWeekType(c *gin.Context) {
	var req service.SetWeekTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	week, err := h.service.SetWeekType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// StopWeek godoc
// @Summary Stop the active week of a term
// @Tags Calendar
// @Produce json
// @Param id path string true "Term ID"
// @Success 204
// @Router /terms/{id}/weeks/active [delete]
func (h *CalendarHandler) StopWeek(c *gin.Context) {
	if err := h.service.StopWeek(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ResetTermWeeks godoc
// @Summary Reset a term's weeks
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body service.ResetTermWeeksRequest true "Reset parameters"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /terms/{id}/reset-weeks [post]
func (h *CalendarHandler) ResetTermWeeks(c *gin.Context) {
	var req service.ResetTermWeeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	week, err := h.service.ResetTermWeeks(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, week)
}
