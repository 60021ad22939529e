package model

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/utils"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderDoubao = "doubao"
	ProviderQwen   = "qwen"
)

// NewChatModel 根据配置创建真实模式使用的模型
func NewChatModel(ctx context.Context, cfg *config.Config) (einoModel.ChatModel, error) {
	switch cfg.Model.Provider {
	case ProviderGemini, "":
		return createGeminiModel(ctx, cfg.Gemini)
	case ProviderOpenAI:
		return createOpenAIModel(ctx, cfg.OpenAI)
	case ProviderDoubao:
		return createDoubaoModel(ctx, cfg.Doubao)
	case ProviderQwen:
		return createQwenModel(ctx, cfg.Qwen)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

// NativeStructuredOutput 服务商是否支持按 schema 约束输出
func NativeStructuredOutput(provider string) bool {
	switch provider {
	case ProviderGemini, ProviderOpenAI, "":
		return true
	default:
		return false
	}
}

// NativeFileParts 服务商是否能直接接收二进制文档
func NativeFileParts(provider string) bool {
	return provider == ProviderGemini || provider == ""
}

func maskKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	return "***"
}

func debugClient(provider string, timeout time.Duration, debug bool) *http.Client {
	client := utils.NewHTTPClient(timeout)
	client.Transport = NewDebugTransport(provider, client.Transport, debug)
	return client
}

func createGeminiModel(ctx context.Context, cfg config.GeminiConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Gemini API Key: %s, Model: %s", maskKey(cfg.APIKey), cfg.Model)

	chatModel, err := newGeminiChatModel(ctx, cfg, debugClient("Gemini", cfg.Timeout, cfg.DebugRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini model: %w", err)
	}
	return chatModel, nil
}

func createOpenAIModel(ctx context.Context, cfg config.OpenAIConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using OpenAI Model: %s", cfg.Model)

	chatModel, err := newOpenAIChatModel(ctx, cfg, debugClient("OpenAI", cfg.Timeout, cfg.DebugRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
	}
	return chatModel, nil
}

func createDoubaoModel(ctx context.Context, cfg config.DoubaoConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Doubao API Key: %s, Model: %s", maskKey(cfg.APIKey), cfg.Model)

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Doubao model: %w", err)
	}

	// 方舟不接受文档附件，先展开为文本
	return NewTextOnlyModel(chatModel), nil
}

func createQwenModel(ctx context.Context, cfg config.QwenConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Qwen Model: %s, BaseURL: %s", cfg.Model, cfg.BaseURL)

	// 创建带调试功能的HTTPClient（基于配置）
	httpClient := debugClient("Qwen", cfg.Timeout, cfg.DebugRequest)

	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qwen model: %w", err)
	}

	return NewTextOnlyModel(chatModel), nil
}
