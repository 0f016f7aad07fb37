package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow-backend/internal/http/response"
	"github.com/linguaflow/linguaflow-backend/internal/services"
)

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (ph *ProgressHandler) Record(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		LessonID  uuid.UUID `json:"lessonId" binding:"required"`
		Completed bool      `json:"completed"`
		Score     *float64  `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	progress, err := ph.progressService.Record(c.Request.Context(), userID, req.LessonID, req.Completed, req.Score)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}

func (ph *ProgressHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	rows, err := ph.progressService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}
