package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow-backend/internal/http/response"
	"github.com/linguaflow/linguaflow-backend/internal/platform/ctxutil"
	"github.com/linguaflow/linguaflow-backend/internal/services"
)

type GenerationHandler struct {
	generationService services.GenerationService
}

func NewGenerationHandler(generationService services.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondErrorStatus(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no authenticated user"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func (gh *GenerationHandler) GenerateLesson(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		LanguageID uuid.UUID `json:"languageId" binding:"required"`
		Level      string    `json:"level" binding:"required"`
		Topic      string    `json:"topic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lesson, err := gh.generationService.GenerateLesson(c.Request.Context(), userID, req.LanguageID, req.Level, req.Topic)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

func (gh *GenerationHandler) GenerateQuiz(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		LessonID          uuid.UUID `json:"lessonId" binding:"required"`
		NumberOfQuestions int       `json:"numberOfQuestions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	quiz, err := gh.generationService.GenerateQuiz(c.Request.Context(), userID, req.LessonID, req.NumberOfQuestions)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quiz": quiz})
}

func (gh *GenerationHandler) ConversationPrompt(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		LanguageID uuid.UUID `json:"languageId" binding:"required"`
		Level      string    `json:"level" binding:"required"`
		Scenario   string    `json:"scenario"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	content, fallbackUsed, err := gh.generationService.ConversationPrompt(c.Request.Context(), userID, req.LanguageID, req.Level, req.Scenario)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": content, "fallbackUsed": fallbackUsed})
}

func (gh *GenerationHandler) ConversationResponse(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		LanguageID uuid.UUID `json:"languageId" binding:"required"`
		Message    string    `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	content, fallbackUsed, err := gh.generationService.ConversationReply(c.Request.Context(), userID, req.LanguageID, req.Message)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": content, "fallbackUsed": fallbackUsed})
}

func (gh *GenerationHandler) PronunciationFeedback(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		LanguageID uuid.UUID `json:"languageId" binding:"required"`
		AudioData  string    `json:"audioData" binding:"required"`
		TargetText string    `json:"targetText" binding:"required"`
		Level      string    `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("audioData is not valid base64: %w", err))
		return
	}
	feedback, fallbackUsed, err := gh.generationService.PronunciationFeedback(c.Request.Context(), userID, req.LanguageID, req.Level, req.TargetText, audio)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"feedback": feedback, "fallbackUsed": fallbackUsed})
}
