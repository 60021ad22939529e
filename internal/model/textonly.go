package model

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// textOnlyModel 包装只接受纯文本的服务商，将多模态消息合并为单段文本
type textOnlyModel struct {
	inner einoModel.ChatModel
}

func NewTextOnlyModel(inner einoModel.ChatModel) einoModel.ChatModel {
	return &textOnlyModel{inner: inner}
}

func (m *textOnlyModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	return m.inner.Generate(ctx, flattenMessages(messages), opts...)
}

func (m *textOnlyModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(ctx, flattenMessages(messages), opts...)
}

func (m *textOnlyModel) BindTools(tools []*schema.ToolInfo) error {
	return m.inner.BindTools(tools)
}

func flattenMessages(messages []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		if len(msg.MultiContent) == 0 {
			out = append(out, msg)
			continue
		}

		var texts []string
		if msg.Content != "" {
			texts = append(texts, msg.Content)
		}
		for _, part := range msg.MultiContent {
			if part.Type == schema.ChatMessagePartTypeText {
				texts = append(texts, part.Text)
				continue
			}
			url, declared := partURL(part)
			texts = append(texts, flattenFile(url, declared))
		}

		out = append(out, &schema.Message{
			Role:    msg.Role,
			Content: strings.Join(texts, "\n\n"),
		})
	}
	return out
}

// flattenFile 文本类文档直接内联，二进制文档只保留说明
func flattenFile(url, declared string) string {
	data, mimeType, err := DecodeDataURI(url)
	if err != nil {
		return "[Attached document could not be decoded]"
	}
	if declared != "" {
		mimeType = declared
	}

	if isTextMime(mimeType) && utf8.Valid(data) {
		return fmt.Sprintf("[Document: %s]\n%s", mimeType, string(data))
	}
	return fmt.Sprintf("[Attached document of type %s (%d bytes) is not readable as text]", mimeType, len(data))
}

func isTextMime(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml", "application/yaml":
		return true
	}
	return false
}
