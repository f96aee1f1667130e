package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripweave/internal/services"
	"tripweave/pkg/utils"
)

type ProgressController struct {
	hub services.ProgressHub
}

func NewProgressController(hub services.ProgressHub) *ProgressController {
	return &ProgressController{hub: hub}
}

// GetProgress godoc
// @Summary Get the latest optimization progress event for a trip
// @Tags Progress
// @Produce json
// @Param tripId path string true "Trip ID"
// @Success 200 {object} plan_models.ProgressEvent
// @Failure 404 {object} utils.APIResponse
// @Router /trips/{tripId}/progress [get]
func (p *ProgressController) GetProgress(c *gin.Context) {
	tripID := c.Param("tripId")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Trip ID is required")
		return
	}

	ev, ok := p.hub.Latest(tripID)
	if !ok {
		utils.RespondError(c, http.StatusNotFound, "No optimization run for this trip")
		return
	}
	utils.RespondSuccess(c, ev, "Progress fetched successfully")
}

// StreamProgress godoc
// @Summary Stream optimization progress events for a trip as server-sent events
// @Description Subscribers joining mid-run receive the latest event first, then all subsequent ones
// @Tags Progress
// @Produce text/event-stream
// @Param tripId path string true "Trip ID"
// @Success 200
// @Router /trips/{tripId}/progress/stream [get]
func (p *ProgressController) StreamProgress(c *gin.Context) {
	tripID := c.Param("tripId")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Trip ID is required")
		return
	}

	events, unsubscribe := p.hub.Subscribe(tripID)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("progress", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
