package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripweave/internal/services"
	"tripweave/pkg/utils"
)

type ScheduleController struct {
	optimizer services.OptimizerService
	exporter  services.ExportService
}

func NewScheduleController(optimizer services.OptimizerService, exporter services.ExportService) *ScheduleController {
	return &ScheduleController{optimizer: optimizer, exporter: exporter}
}

// GetActiveSchedule godoc
// @Summary Get the active schedule for a trip
// @Tags Schedule
// @Produce json
// @Param tripId path string true "Trip ID"
// @Success 200 {object} plan_models.TripSchedule
// @Failure 404 {object} utils.APIResponse
// @Router /trips/{tripId}/schedule [get]
func (s *ScheduleController) GetActiveSchedule(c *gin.Context) {
	tripID := c.Param("tripId")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Trip ID is required")
		return
	}

	schedule, err := s.optimizer.GetActiveSchedule(c.Request.Context(), tripID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, schedule, "Schedule fetched successfully")
}

// ExportSchedule godoc
// @Summary Export the active schedule as a document or calendar
// @Tags Schedule
// @Produce json
// @Param tripId path string true "Trip ID"
// @Param format query string false "Export format" Enums(document, calendar) default(document)
// @Success 200
// @Failure 404 {object} utils.APIResponse
// @Router /trips/{tripId}/schedule/export [get]
func (s *ScheduleController) ExportSchedule(c *gin.Context) {
	tripID := c.Param("tripId")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Trip ID is required")
		return
	}

	schedule, err := s.optimizer.GetActiveSchedule(c.Request.Context(), tripID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	switch c.DefaultQuery("format", "document") {
	case "calendar":
		ical, err := s.exporter.ExportCalendar(schedule)
		if err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="itinerary.ics"`)
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ical))
	case "document":
		doc, err := s.exporter.ExportDocument(schedule)
		if err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
	default:
		utils.RespondError(c, http.StatusBadRequest, "Unknown export format (use document or calendar)")
	}
}

// GetCandidatePlaces godoc
// @Summary List the candidate places submitted for a trip
// @Tags Schedule
// @Produce json
// @Param tripId path string true "Trip ID"
// @Success 200 {array} plan_models.CandidatePlace
// @Router /trips/{tripId}/places [get]
func (s *ScheduleController) GetCandidatePlaces(c *gin.Context) {
	tripID := c.Param("tripId")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Trip ID is required")
		return
	}

	places, err := s.optimizer.GetCandidatePlaces(c.Request.Context(), tripID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, places, "Places fetched successfully")
}
