package model

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tahsinmert/AgendaGenius/internal/config"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

type geminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
}

func newGeminiChatModel(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client) (*geminiChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}

	return &geminiChatModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// 实现eino.ChatModel接口
func (m *geminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	contents, genCfg, err := m.buildRequest(messages, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, genCfg)
	if err != nil {
		return nil, err
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: resp.Text(),
	}, nil
}

func (m *geminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	contents, genCfg, err := m.buildRequest(messages, opts...)
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](16)

	go func() {
		defer writer.Close()

		for resp, err := range m.client.Models.GenerateContentStream(ctx, m.model, contents, genCfg) {
			if err != nil {
				writer.Send(nil, err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			// 读端已关闭，停止迭代会同时终止底层请求
			if closed := writer.Send(&schema.Message{Role: schema.Assistant, Content: text}, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

func (m *geminiChatModel) BindTools(tools []*schema.ToolInfo) error {
	// 议程助手不需要工具调用
	return nil
}

func (m *geminiChatModel) buildRequest(messages []*schema.Message, opts ...einoModel.Option) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	genCfg := &genai.GenerateContentConfig{}
	if m.temperature > 0 {
		temperature := m.temperature
		genCfg.Temperature = &temperature
	}

	structured := getStructuredOptions(opts...)
	if structured.Schema != nil {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.ResponseSchema = toGeminiSchema(structured.Schema)
	}

	var systemParts []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for i, msg := range messages {
		parts, err := geminiParts(msg)
		if err != nil {
			return nil, nil, fmt.Errorf("message %d: %w", i, err)
		}
		switch msg.Role {
		case schema.System:
			systemParts = append(systemParts, parts...)
		case schema.Assistant:
			contents = append(contents, &genai.Content{Role: RoleModel, Parts: parts})
		default:
			contents = append(contents, &genai.Content{Role: RoleUser, Parts: parts})
		}
	}
	if len(systemParts) > 0 {
		genCfg.SystemInstruction = &genai.Content{Parts: systemParts}
	}

	return contents, genCfg, nil
}

// geminiParts 文本直接发送，文档以内联二进制发送
func geminiParts(msg *schema.Message) ([]*genai.Part, error) {
	var parts []*genai.Part
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		parts = append(parts, &genai.Part{Text: msg.Content})
	}

	for _, part := range msg.MultiContent {
		switch part.Type {
		case schema.ChatMessagePartTypeText:
			parts = append(parts, &genai.Part{Text: part.Text})
		case schema.ChatMessagePartTypeFileURL, schema.ChatMessagePartTypeImageURL:
			url, declared := partURL(part)
			data, mimeType, err := DecodeDataURI(url)
			if err != nil {
				return nil, err
			}
			if declared != "" {
				mimeType = declared
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
		}
	}
	return parts, nil
}

func partURL(part schema.ChatMessagePart) (string, string) {
	switch {
	case part.FileURL != nil:
		return part.FileURL.URL, part.FileURL.MIMEType
	case part.ImageURL != nil:
		return part.ImageURL.URL, ""
	}
	return "", ""
}

func toGeminiSchema(s *JSONSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Items:       toGeminiSchema(s.Items),
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}
