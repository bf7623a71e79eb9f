package handlers

import (
	"net/http"

	"quizmaster/jobs"
	"quizmaster/services"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	attemptService *services.AttemptService
	queue          jobs.Queue
}

func NewAttemptHandler(attemptService *services.AttemptService, queue jobs.Queue) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		queue:          queue,
	}
}

func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing quiz_id or answers in request"})
		return
	}

	attempt, err := h.attemptService.SubmitAttempt(actor.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Re-read through GetAttempt so the response carries the same resolved
	// view clients get from the read endpoints.
	view, err := h.attemptService.GetAttempt(actor, attempt.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Quiz attempt created successfully",
		"attempt": view,
	})
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(actor, attemptID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filter := services.ListAttemptsFilter{
		UserID:  uint(parseQueryInt(c, "user_id", 0)),
		QuizID:  uint(parseQueryInt(c, "quiz_id", 0)),
		Page:    parseQueryInt(c, "page", 1),
		PerPage: parseQueryInt(c, "per_page", services.DefaultPerPage),
	}

	list, err := h.attemptService.ListAttempts(actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *AttemptHandler) ListUserAttempts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	targetUserID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	filter := services.ListAttemptsFilter{
		QuizID:  uint(parseQueryInt(c, "quiz_id", 0)),
		Page:    parseQueryInt(c, "page", 1),
		PerPage: parseQueryInt(c, "per_page", services.DefaultPerPage),
	}

	list, err := h.attemptService.ListUserAttempts(actor, targetUserID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *AttemptHandler) DeleteAttempt(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.attemptService.DeleteAttempt(attemptID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz attempt deleted successfully"})
}

// ExportAttempts queues a CSV export of the caller's attempt history. The
// file is generated and emailed out-of-band.
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	payload := jobs.ExportAttemptsPayload{UserID: actor.ID}
	jobID, err := h.queue.Enqueue(c.Request.Context(), jobs.TypeExportAttemptsCSV, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Your quiz history is being exported. You will receive an email with the CSV file shortly.",
		"job_id":  jobID,
	})
}
