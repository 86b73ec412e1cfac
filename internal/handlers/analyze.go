package handlers

import (
	"errors"
	"net/http"

	"github.com/haflows/tasknotify/internal/ai"
	"github.com/haflows/tasknotify/internal/dto"

	"github.com/gin-gonic/gin"
)

// AnalyzeHandler exposes AI task analysis for the task form.
type AnalyzeHandler struct {
	summarizer *ai.Summarizer
}

func NewAnalyzeHandler(summarizer *ai.Summarizer) *AnalyzeHandler {
	return &AnalyzeHandler{summarizer: summarizer}
}

// Analyze godoc
// @Summary      Suggest priority, detail and due date for a draft task
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.AnalyzeTaskRequest  true  "Draft task"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /analyze-task [post]
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := h.summarizer.AnalyzeTask(c.Request.Context(), req.Title, req.Detail)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gemini API Key is not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
