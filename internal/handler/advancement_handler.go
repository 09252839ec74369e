package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/service"
	appErrors "github.com/medfac-dev/timetable-api/pkg/errors"
	"github.com/medfac-dev/timetable-api/pkg/response"
)

// AdvancementHandler runs the end-of-term student sweep.
type AdvancementHandler struct {
	service *service.AdvancementService
}

// NewAdvancementHandler constructs handler.
func NewAdvancementHandler(svc *service.AdvancementService) *AdvancementHandler {
	return &AdvancementHandler{service: svc}
}

// AdvanceStudents godoc
// @Summary Advance students at end of term
// @Tags Advancement
// @Accept json
// @Produce json
// @Param payload body service.AdvanceStudentsRequest true "Mode and optional action list"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/advance [post]
func (h *AdvancementHandler) AdvanceStudents(c *gin.Context) {
	var req service.AdvanceStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	summary, err := h.service.AdvanceStudents(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
