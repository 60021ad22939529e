package handler

import (
	"errors"
	"net/http"

	"github.com/tahsinmert/AgendaGenius/internal/encoder"
	"github.com/tahsinmert/AgendaGenius/internal/export"
	"github.com/tahsinmert/AgendaGenius/internal/service"

	"github.com/gin-gonic/gin"
)

// statusFor 将服务层错误映射为 HTTP 状态码
func statusFor(err error) int {
	var (
		indexErr  *service.IndexError
		configErr *service.ConfigurationError
		genErr    *service.GenerationError
	)

	switch {
	case errors.Is(err, service.ErrWorkspaceNotFound),
		errors.Is(err, service.ErrFileNotFound),
		errors.Is(err, service.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.As(err, &indexErr),
		errors.Is(err, service.ErrNoFiles),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, encoder.ErrEmptyName),
		errors.Is(err, export.ErrInvalidMarkdown):
		return http.StatusBadRequest
	case errors.Is(err, encoder.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNoAgenda),
		errors.Is(err, service.ErrBusy),
		errors.Is(err, service.ErrStaleGeneration):
		return http.StatusConflict
	case errors.As(err, &configErr):
		return http.StatusPreconditionFailed
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
