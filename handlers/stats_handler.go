package handlers

import (
	"net/http"

	"quizmaster/services"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

func (h *StatsHandler) GetSubjectStats(c *gin.Context) {
	report, err := h.statsService.SubjectStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *StatsHandler) GetGlobalStats(c *gin.Context) {
	report, err := h.statsService.GlobalStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *StatsHandler) GetUserStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	targetUserID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.statsService.UserStats(actor, targetUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
