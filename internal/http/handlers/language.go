package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linguaflow/linguaflow-backend/internal/http/response"
	"github.com/linguaflow/linguaflow-backend/internal/services"
)

type LanguageHandler struct {
	languageService services.LanguageService
}

func NewLanguageHandler(languageService services.LanguageService) *LanguageHandler {
	return &LanguageHandler{languageService: languageService}
}

func (lh *LanguageHandler) List(c *gin.Context) {
	languages, err := lh.languageService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"languages": languages})
}

func (lh *LanguageHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondErrorStatus(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid language id"))
		return
	}
	language, err := lh.languageService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"language": language})
}
