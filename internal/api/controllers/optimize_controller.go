package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pm "tripweave/internal/models/plan_models"
	"tripweave/internal/models/request_models"
	"tripweave/internal/models/response_models"
	"tripweave/internal/services"
	"tripweave/pkg/utils"
)

type OptimizeController struct {
	optimizer services.OptimizerService
	defaults  pm.OptimizerSettings
}

func NewOptimizeController(optimizer services.OptimizerService, defaults pm.OptimizerSettings) *OptimizeController {
	return &OptimizeController{optimizer: optimizer, defaults: defaults}
}

// Optimize godoc
// @Summary Run the itinerary optimization pipeline for a trip
// @Description Normalizes preferences, selects places fairly, constructs routes, assembles the schedule, and reports conflicts
// @Tags Optimize
// @Accept json
// @Produce json
// @Param tripId path string true "Trip ID"
// @Param request body request_models.OptimizeRequest false "Per-run setting overrides"
// @Success 200 {object} response_models.StageResponse
// @Failure 400 {object} response_models.StageResponse
// @Security BearerAuth
// @Router /trips/{tripId}/optimize [post]
func (o *OptimizeController) Optimize(c *gin.Context) {
	tripID := c.Param("tripId")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Trip ID is required")
		return
	}

	var req request_models.OptimizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
	}
	settings := mergeSettings(o.defaults, req)

	started := time.Now()
	schedule, cached, err := o.optimizer.Optimize(c.Request.Context(), tripID, settings)
	if err != nil {
		status := statusForOptimizeError(err)
		c.JSON(status, response_models.StageResponse{
			Success:         false,
			ExecutionTimeMs: time.Since(started).Milliseconds(),
			Error:           err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response_models.StageResponse{
		Success:         true,
		Result:          schedule,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		Cached:          cached,
		Message:         "itinerary generated",
	})
}

func mergeSettings(base pm.OptimizerSettings, req request_models.OptimizeRequest) pm.OptimizerSettings {
	if req.FairnessWeight != nil {
		base.FairnessWeight = *req.FairnessWeight
	}
	if req.EfficiencyWeight != nil {
		base.EfficiencyWeight = *req.EfficiencyWeight
	}
	if req.MaxPlaces != nil {
		base.MaxPlaces = *req.MaxPlaces
	}
	if req.DailyHours != nil {
		base.DailyHours = *req.DailyHours
	}
	if req.DayStartHour != nil {
		base.DayStartHour = *req.DayStartHour
	}
	if req.MinBufferMinutes != nil {
		base.MinBufferMinutes = *req.MinBufferMinutes
	}
	if req.MaxBufferMinutes != nil {
		base.MaxBufferMinutes = *req.MaxBufferMinutes
	}
	return base
}

func statusForOptimizeError(err error) int {
	switch {
	case errors.Is(err, utils.ErrTripNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrInvalidInput),
		errors.Is(err, utils.ErrNoMembers),
		errors.Is(err, utils.ErrNoPlaces):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrStageTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, utils.ErrNoAnchor):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
