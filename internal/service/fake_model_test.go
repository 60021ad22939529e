package service

import (
	"context"
	"errors"
	"sync"

	"github.com/tahsinmert/AgendaGenius/internal/model"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel 记录收到的消息，按预设返回结果
type fakeChatModel struct {
	mu       sync.Mutex
	content  string
	chunks   []string
	err      error
	streamAt int // 输出 streamAt 个块后返回 err
	received [][]*schema.Message
	options  []*model.StructuredOptions
}

func (f *fakeChatModel) record(input []*schema.Message, opts []einoModel.Option) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, input)
	f.options = append(f.options, einoModel.GetImplSpecificOptions(&model.StructuredOptions{}, opts...))
}

func (f *fakeChatModel) lastInput() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.received) == 0 {
		return nil
	}
	return f.received[len(f.received)-1]
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	f.record(input, opts)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	f.record(input, opts)
	if f.err != nil && f.streamAt == 0 {
		return nil, f.err
	}

	reader, writer := schema.Pipe[*schema.Message](len(f.chunks) + 1)
	go func() {
		defer writer.Close()
		for i, chunk := range f.chunks {
			if f.err != nil && i == f.streamAt {
				writer.Send(nil, f.err)
				return
			}
			writer.Send(schema.AssistantMessage(chunk, nil), nil)
		}
		if f.err != nil {
			writer.Send(nil, f.err)
		}
	}()
	return reader, nil
}

func (f *fakeChatModel) BindTools(tools []*schema.ToolInfo) error { return nil }

var errUpstream = errors.New("upstream unavailable")

// blockingGenerator 等待 release 后返回结果
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	data    *model.MeetingData
}

func newBlockingGenerator(data *model.MeetingData) *blockingGenerator {
	return &blockingGenerator{
		started: make(chan struct{}),
		release: make(chan struct{}),
		data:    data,
	}
}

func (g *blockingGenerator) Generate(ctx context.Context, files []model.FileRecord) (*model.MeetingData, error) {
	close(g.started)
	select {
	case <-g.release:
		return g.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
