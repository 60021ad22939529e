package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// ChatInput 一次对话请求。History 不包含正在生成的回复
type ChatInput struct {
	History []model.Turn
	Message string
	Files   []model.FileRecord
	Agenda  *model.MeetingData
}

// ChatStreamer 返回有限的增量文本流，读到 io.EOF 结束，不可重放
type ChatStreamer interface {
	Stream(ctx context.Context, in ChatInput) (*schema.StreamReader[string], error)
}

type LiveChatStreamer struct {
	cm         einoModel.ChatModel
	template   prompt.ChatTemplate
	prompts    prompts
	maxHistory int
}

func NewLiveChatStreamer(cm einoModel.ChatModel, cfg *config.Config) *LiveChatStreamer {
	return &LiveChatStreamer{
		cm:         cm,
		template:   newChatPrompt(),
		prompts:    loadPrompts(cfg.Agent),
		maxHistory: cfg.Agent.MaxHistoryMessages,
	}
}

func newChatPrompt() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage("{system_prompt}"),
		schema.MessagesPlaceholder("message_histories", true),
	)
}

func (s *LiveChatStreamer) Stream(ctx context.Context, in ChatInput) (*schema.StreamReader[string], error) {
	if s.cm == nil {
		return nil, &ConfigurationError{Reason: "no API key configured for live mode"}
	}

	messages, err := s.buildMessages(ctx, in)
	if err != nil {
		return nil, &GenerationError{Op: "build chat request", Err: err}
	}

	sr, err := s.cm.Stream(ctx, messages)
	if err != nil {
		return nil, &GenerationError{Op: "chat", Err: err}
	}

	reader, writer := schema.Pipe[string](16)
	go func() {
		defer writer.Close()
		defer sr.Close()

		for {
			chunk, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				logger.Warnf("Chat stream interrupted: %v", err)
				writer.Send("", &GenerationError{Op: "chat", Err: err})
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}
			if closed := writer.Send(chunk.Content, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// buildMessages 历史轮次之后是当前轮次：议程上下文、首轮的文档、用户问题
func (s *LiveChatStreamer) buildMessages(ctx context.Context, in ChatInput) ([]*schema.Message, error) {
	history := in.History
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	histories := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == model.RoleModel {
			histories = append(histories, schema.AssistantMessage(turn.Text, nil))
		} else {
			histories = append(histories, schema.UserMessage(turn.Text))
		}
	}

	messages, err := s.template.Format(ctx, map[string]any{
		"system_prompt":     s.prompts.chatSystemPrompt(in.Agenda != nil),
		"message_histories": histories,
	})
	if err != nil {
		return nil, err
	}

	var parts []schema.ChatMessagePart
	if in.Agenda != nil {
		raw, err := json.Marshal(in.Agenda)
		if err != nil {
			return nil, fmt.Errorf("marshal agenda context: %w", err)
		}
		parts = append(parts, textPart(agendaContextPrefix+string(raw)))
	}
	if len(in.History) == 0 && len(in.Files) > 0 {
		parts = append(parts, textPart(sourceDocumentsLabel))
		for _, f := range in.Files {
			parts = append(parts, filePart(f))
		}
	}
	parts = append(parts, textPart(in.Message))

	return append(messages, &schema.Message{Role: schema.User, MultiContent: parts}), nil
}

func textPart(text string) schema.ChatMessagePart {
	return schema.ChatMessagePart{Type: schema.ChatMessagePartTypeText, Text: text}
}
