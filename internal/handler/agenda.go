package handler

import (
	"net/http"
	"strconv"

	"github.com/tahsinmert/AgendaGenius/internal/export"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/service"

	"github.com/gin-gonic/gin"
)

type AgendaHandler struct {
	svc *service.AssistantService
}

func NewAgendaHandler(svc *service.AssistantService) *AgendaHandler {
	return &AgendaHandler{svc: svc}
}

// Generate 同步等待生成结束，失败时工作区保持原状
func (h *AgendaHandler) Generate(c *gin.Context) {
	snap, err := h.svc.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *AgendaHandler) ClearAgenda(c *gin.Context) {
	snap, err := h.svc.ClearAgenda(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *AgendaHandler) ImportMarkdown(c *gin.Context) {
	var req model.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.svc.ImportMarkdown(c.Param("id"), req.Markdown)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *AgendaHandler) UpdateAgendaItem(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	var req model.AgendaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.svc.UpdateAgendaItem(c.Param("id"), index, req.ToItem())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *AgendaHandler) AddStakeholder(c *gin.Context) {
	var req model.StakeholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.svc.AddStakeholder(c.Param("id"), model.Stakeholder{Name: req.Name, Role: req.Role})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *AgendaHandler) RemoveStakeholder(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	snap, err := h.svc.RemoveStakeholder(c.Param("id"), index)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

// ExportMarkdown 以附件形式下载
func (h *AgendaHandler) ExportMarkdown(c *gin.Context) {
	text, err := h.svc.ExportMarkdown(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.MarkdownFilename+`"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(text))
}

func (h *AgendaHandler) ExportText(c *gin.Context) {
	text, err := h.svc.ExportText(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index: " + c.Param("index")})
		return 0, false
	}
	return index, true
}
