package handler

import (
	"net/http"

	"github.com/tahsinmert/AgendaGenius/internal/encoder"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/service"

	"github.com/gin-gonic/gin"
)

type WorkspaceHandler struct {
	svc *service.AssistantService
}

func NewWorkspaceHandler(svc *service.AssistantService) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc}
}

func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	snap, err := h.svc.CreateWorkspace()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	snaps, err := h.svc.ListWorkspaces()
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]model.WorkspaceResponse, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, h.svc.View(snap))
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": views})
}

func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	snap, err := h.svc.GetWorkspace(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	if err := h.svc.DeleteWorkspace(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Workspace deleted successfully"})
}

// UploadFiles 表单字段 files，可多选
func (h *WorkspaceHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	sources := make([]encoder.Source, 0, len(headers))
	for _, fh := range headers {
		sources = append(sources, encoder.FromFileHeader(fh))
	}

	snap, err := h.svc.AddFiles(c.Request.Context(), c.Param("id"), sources)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *WorkspaceHandler) RemoveFile(c *gin.Context) {
	snap, err := h.svc.RemoveFile(c.Param("id"), c.Param("file_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.View(snap))
}

func (h *WorkspaceHandler) GetMessages(c *gin.Context) {
	workspaceID := c.Param("id")

	messages, err := h.svc.Messages(workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace_id": workspaceID,
		"messages":     messages,
	})
}

func (h *WorkspaceHandler) GetNotices(c *gin.Context) {
	notices, err := h.svc.Notices(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

func (h *WorkspaceHandler) DismissNotice(c *gin.Context) {
	if !h.svc.DismissNotice(c.Param("id"), c.Param("notice_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notice not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notice dismissed"})
}
