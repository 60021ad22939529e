package handler

import (
	"net/http"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/internal/service"
	"github.com/tahsinmert/AgendaGenius/internal/utils"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 30 * time.Second

type ChatHandler struct {
	svc *service.AssistantService
}

func NewChatHandler(svc *service.AssistantService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// StreamChat 以 SSE 推送回复增量。流打开前的错误以普通 JSON 返回
func (h *ChatHandler) StreamChat(c *gin.Context) {
	workspaceID := c.Param("id")

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 客户端断开时请求 context 取消，回复保留已收到的部分
	ctx := c.Request.Context()
	respChan, errChan, err := h.svc.StreamChat(ctx, workspaceID, req.Message)
	if err != nil {
		logger.Warnf("Chat in workspace %s rejected: %v", workspaceID, err)
		respondError(c, err)
		return
	}

	sseWriter := utils.NewSSEWriter(c.Writer)

	// 心跳防止空闲连接被代理断开
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	sseWriter.WriteJSON("status", gin.H{
		"type":      "processing_start",
		"timestamp": time.Now().Unix(),
	})

	for {
		select {
		case resp, ok := <-respChan:
			if !ok {
				// respChan 关闭时 errChan 已关闭，缓冲中的错误仍可读出
				if err := <-errChan; err != nil {
					sseWriter.WriteJSON("error", gin.H{
						"error":     err.Error(),
						"message":   service.ChatErrorText,
						"type":      "service_error",
						"timestamp": time.Now().Unix(),
					})
				}
				sseWriter.Close()
				return
			}

			if err := sseWriter.WriteJSON("message", resp); err != nil {
				logger.Errorf("Failed to write SSE: %v", err)
				return
			}

		case <-heartbeat.C:
			if err := sseWriter.WriteJSON("heartbeat", gin.H{
				"type":      "heartbeat",
				"timestamp": time.Now().Unix(),
			}); err != nil {
				logger.Warnf("Heartbeat failed: %v", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// CancelChat 中止进行中的回复
func (h *ChatHandler) CancelChat(c *gin.Context) {
	cancelled, err := h.svc.CancelChat(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}
