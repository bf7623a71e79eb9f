package handlers

import (
	"net/http"

	"quizmaster/services"

	"github.com/gin-gonic/gin"
)

type SubjectHandler struct {
	subjectService *services.SubjectService
}

func NewSubjectHandler(subjectService *services.SubjectService) *SubjectHandler {
	return &SubjectHandler{
		subjectService: subjectService,
	}
}

func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req services.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := h.subjectService.CreateSubject(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subject)
}

func (h *SubjectHandler) GetSubjects(c *gin.Context) {
	subjects, err := h.subjectService.GetSubjects()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, subjects)
}

func (h *SubjectHandler) GetSubjectByID(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	subject, err := h.subjectService.GetSubjectByID(subjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, subject)
}

func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject, err := h.subjectService.UpdateSubject(subjectID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, subject)
}

func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.subjectService.DeleteSubject(subjectID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted successfully"})
}

func (h *SubjectHandler) CreateChapter(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chapter, err := h.subjectService.CreateChapter(subjectID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chapter)
}

func (h *SubjectHandler) GetChapters(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	chapters, err := h.subjectService.GetChapters(subjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapters)
}

func (h *SubjectHandler) GetChapterByID(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(c, "chapterId")
	if !ok {
		return
	}

	chapter, err := h.subjectService.GetChapterByID(subjectID, chapterID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

func (h *SubjectHandler) UpdateChapter(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(c, "chapterId")
	if !ok {
		return
	}

	var req services.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chapter, err := h.subjectService.UpdateChapter(subjectID, chapterID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chapter)
}

func (h *SubjectHandler) DeleteChapter(c *gin.Context) {
	subjectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(c, "chapterId")
	if !ok {
		return
	}

	if err := h.subjectService.DeleteChapter(subjectID, chapterID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chapter deleted successfully"})
}
