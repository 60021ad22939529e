package handler

import (
	"github.com/tahsinmert/AgendaGenius/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 挂载 /api 下的全部路由
func RegisterRoutes(api *gin.RouterGroup, svc *service.AssistantService) {
	modeHandler := NewModeHandler(svc)
	workspaceHandler := NewWorkspaceHandler(svc)
	agendaHandler := NewAgendaHandler(svc)
	chatHandler := NewChatHandler(svc)

	api.GET("/mode", modeHandler.GetMode)
	api.PUT("/mode", modeHandler.SetMode)
	api.GET("/suggestions", modeHandler.GetSuggestions)

	workspaces := api.Group("/workspaces")
	{
		workspaces.POST("", workspaceHandler.CreateWorkspace)
		workspaces.GET("", workspaceHandler.ListWorkspaces)
		workspaces.GET("/:id", workspaceHandler.GetWorkspace)
		workspaces.DELETE("/:id", workspaceHandler.DeleteWorkspace)

		workspaces.POST("/:id/files", workspaceHandler.UploadFiles)
		workspaces.DELETE("/:id/files/:file_id", workspaceHandler.RemoveFile)

		workspaces.POST("/:id/generate", agendaHandler.Generate)
		workspaces.DELETE("/:id/agenda", agendaHandler.ClearAgenda)
		workspaces.POST("/:id/agenda/import", agendaHandler.ImportMarkdown)
		workspaces.PUT("/:id/agenda/items/:index", agendaHandler.UpdateAgendaItem)
		workspaces.POST("/:id/agenda/stakeholders", agendaHandler.AddStakeholder)
		workspaces.DELETE("/:id/agenda/stakeholders/:index", agendaHandler.RemoveStakeholder)
		workspaces.GET("/:id/export/markdown", agendaHandler.ExportMarkdown)
		workspaces.GET("/:id/export/text", agendaHandler.ExportText)

		workspaces.POST("/:id/chat/stream", chatHandler.StreamChat)
		workspaces.POST("/:id/chat/cancel", chatHandler.CancelChat)
		workspaces.GET("/:id/messages", workspaceHandler.GetMessages)

		workspaces.GET("/:id/notices", workspaceHandler.GetNotices)
		workspaces.DELETE("/:id/notices/:notice_id", workspaceHandler.DismissNotice)
	}
}
