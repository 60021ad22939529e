package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

type openaiChatModel struct {
	client *openai.Client
	model  string
}

func newOpenAIChatModel(ctx context.Context, cfg config.OpenAIConfig, httpClient *http.Client) (*openaiChatModel, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &openaiChatModel{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

// 实现eino.ChatModel接口
func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	req, err := m.buildRequest(messages, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	logger.Debugf("OpenAI completion finished, content length: %d", len(resp.Choices[0].Message.Content))

	return &schema.Message{
		Role:    schema.Assistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	req, err := m.buildRequest(messages, opts...)
	if err != nil {
		return nil, err
	}
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](100)

	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// 错误交给读端，由调用方决定如何收尾
				writer.Send(nil, err)
				return
			}

			if len(response.Choices) == 0 || response.Choices[0].Delta.Content == "" {
				continue
			}
			msg := &schema.Message{
				Role:    schema.Assistant,
				Content: response.Choices[0].Delta.Content,
			}
			if closed := writer.Send(msg, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

func (m *openaiChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

func (m *openaiChatModel) buildRequest(messages []*schema.Message, opts ...einoModel.Option) (openai.ChatCompletionRequest, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: m.convertMessages(messages),
	}

	structured := getStructuredOptions(opts...)
	if structured.Schema != nil {
		raw, err := json.Marshal(structured.Schema)
		if err != nil {
			return req, fmt.Errorf("marshal response schema: %w", err)
		}
		name := structured.SchemaName
		if name == "" {
			name = "response"
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: json.RawMessage(raw),
				Strict: false,
			},
		}
	}

	return req, nil
}

// 消息格式转换
func (m *openaiChatModel) convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		case schema.System:
			role = openai.ChatMessageRoleSystem
		}

		// 空的assistant消息会导致API报错
		if role == openai.ChatMessageRoleAssistant && msg.Content == "" {
			continue
		}

		if len(msg.MultiContent) == 0 {
			result = append(result, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
			continue
		}

		// Content 与 MultiContent 不能同时设置
		parts := make([]openai.ChatMessagePart, 0, len(msg.MultiContent)+1)
		if msg.Content != "" {
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: msg.Content})
		}
		for _, part := range msg.MultiContent {
			parts = append(parts, openaiPart(part))
		}
		result = append(result, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return result
}

// 图片按 data URI 原样发送，其他文档展开为文本
func openaiPart(part schema.ChatMessagePart) openai.ChatMessagePart {
	if part.Type == schema.ChatMessagePartTypeText {
		return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: part.Text}
	}

	url, declared := partURL(part)
	if strings.HasPrefix(declared, "image/") || strings.HasPrefix(url, "data:image/") {
		return openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
		}
	}
	return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: flattenFile(url, declared)}
}
