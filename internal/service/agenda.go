package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/model"
	"github.com/tahsinmert/AgendaGenius/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// AgendaGenerator 从文档生成议程，文件集合非空由调用方保证
type AgendaGenerator interface {
	Generate(ctx context.Context, files []model.FileRecord) (*model.MeetingData, error)
}

// LiveAgendaGenerator 通过模型生成议程：构造请求 -> 模型 -> 解析
type LiveAgendaGenerator struct {
	runnable     compose.Runnable[[]model.FileRecord, *model.MeetingData]
	prompts      prompts
	nativeSchema bool
	timeout      time.Duration
}

// NewLiveAgendaGenerator cm 为 nil 时（没有凭证）生成会返回 ConfigurationError
func NewLiveAgendaGenerator(ctx context.Context, cm einoModel.ChatModel, cfg *config.Config) (*LiveAgendaGenerator, error) {
	g := &LiveAgendaGenerator{
		prompts:      loadPrompts(cfg.Agent),
		nativeSchema: model.NativeStructuredOutput(cfg.Model.Provider),
		timeout:      cfg.Agent.GenerationTimeout,
	}
	if cm == nil {
		return g, nil
	}

	runnable, err := g.composeGraph(ctx, cm)
	if err != nil {
		return nil, fmt.Errorf("failed to compose agenda graph: %w", err)
	}
	g.runnable = runnable
	return g, nil
}

func (g *LiveAgendaGenerator) composeGraph(ctx context.Context, cm einoModel.ChatModel) (compose.Runnable[[]model.FileRecord, *model.MeetingData], error) {
	graph := compose.NewGraph[[]model.FileRecord, *model.MeetingData]()

	err := graph.AddLambdaNode("BuildAgendaRequest", compose.InvokableLambda(func(ctx context.Context, files []model.FileRecord) ([]*schema.Message, error) {
		return g.buildMessages(files)
	}))
	if err != nil {
		return nil, err
	}
	if err = graph.AddChatModelNode("AgendaModel", cm); err != nil {
		return nil, err
	}
	err = graph.AddLambdaNode("ParseAgenda", compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*model.MeetingData, error) {
		return parseAgenda(msg.Content)
	}))
	if err != nil {
		return nil, err
	}

	if err = graph.AddEdge(compose.START, "BuildAgendaRequest"); err != nil {
		return nil, err
	}
	if err = graph.AddEdge("BuildAgendaRequest", "AgendaModel"); err != nil {
		return nil, err
	}
	if err = graph.AddEdge("AgendaModel", "ParseAgenda"); err != nil {
		return nil, err
	}
	if err = graph.AddEdge("ParseAgenda", compose.END); err != nil {
		return nil, err
	}

	return graph.Compile(ctx)
}

func (g *LiveAgendaGenerator) Generate(ctx context.Context, files []model.FileRecord) (*model.MeetingData, error) {
	if g.runnable == nil {
		return nil, &ConfigurationError{Reason: "no API key configured for live mode"}
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	logger.Infof("Generating agenda from %d files", len(files))
	data, err := g.runnable.Invoke(ctx, files,
		compose.WithChatModelOption(model.WithResponseSchema("meeting_agenda", model.AgendaSchema())))
	if err != nil {
		return nil, &GenerationError{Op: "generate agenda", Err: err}
	}
	return data, nil
}

// buildMessages 每个文件一个部分，最后是固定指令
func (g *LiveAgendaGenerator) buildMessages(files []model.FileRecord) ([]*schema.Message, error) {
	parts := make([]schema.ChatMessagePart, 0, len(files)+1)
	for _, f := range files {
		parts = append(parts, filePart(f))
	}

	instruction := g.prompts.agendaInstruction
	if !g.nativeSchema {
		raw, err := json.Marshal(model.AgendaSchema())
		if err != nil {
			return nil, err
		}
		instruction += "\n\n" + schemaInstruction + string(raw)
	}
	parts = append(parts, schema.ChatMessagePart{Type: schema.ChatMessagePartTypeText, Text: instruction})

	return []*schema.Message{
		schema.SystemMessage(g.prompts.agendaSystem),
		{Role: schema.User, MultiContent: parts},
	}, nil
}

func filePart(f model.FileRecord) schema.ChatMessagePart {
	return schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeFileURL,
		FileURL: &schema.ChatMessageFileURL{
			URL:      f.Content,
			MIMEType: f.MimeType,
		},
	}
}

// parseAgenda 兼容服务商在 JSON 外包裹 markdown 代码块
func parseAgenda(text string) (*model.MeetingData, error) {
	raw := bytes.TrimSpace([]byte(text))
	raw = bytes.TrimPrefix(raw, []byte("```json"))
	raw = bytes.TrimPrefix(raw, []byte("```"))
	raw = bytes.TrimSuffix(raw, []byte("```"))
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmptyResponse
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse agenda: %w", err)
	}
	for _, key := range model.AgendaSchema().Required {
		if v, ok := fields[key]; !ok || string(bytes.TrimSpace(v)) == "null" {
			return nil, fmt.Errorf("parse agenda: missing %s", key)
		}
	}

	var data model.MeetingData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse agenda: %w", err)
	}
	if data.MeetingTitle == "" {
		return nil, fmt.Errorf("parse agenda: missing meetingTitle")
	}
	for i, item := range data.AgendaItems {
		if item.DurationMinutes < 0 {
			return nil, fmt.Errorf("parse agenda: item %d has negative duration", i)
		}
	}

	return data.Clone(), nil
}
