package handler

import (
	"net/http"

	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/service"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ModeHandler struct {
	svc *service.AssistantService
}

func NewModeHandler(svc *service.AssistantService) *ModeHandler {
	return &ModeHandler{svc: svc}
}

func (h *ModeHandler) GetMode(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ModeInfo())
}

// SetMode 切换只影响之后开始的请求
func (h *ModeHandler) SetMode(c *gin.Context) {
	var req model.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.svc.Mode().Set(*req.DemoMode)
	logger.Infof("Demo mode set to %v", *req.DemoMode)

	c.JSON(http.StatusOK, h.svc.ModeInfo())
}

func (h *ModeHandler) GetSuggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": service.Suggestions})
}
