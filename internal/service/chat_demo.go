package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

const (
	demoTimeResponse    = "In demo mode, I can confirm the timeline looks tight but achievable."
	demoWhoResponse     = "Based on the mock agenda, Emily is presenting the marketing campaign for 30 minutes."
	demoRiskResponse    = "The main risk identified in this demo scenario is the budget allocation for QA."
	demoDefaultResponse = "I am running in Demo Mode (No API Key). I cannot read your actual file content, but I'm simulating a conversation based on the generated example agenda."
)

// DemoChatStreamer 按关键词选择固定回复，分块模拟流式输出
type DemoChatStreamer struct {
	delay     time.Duration
	interval  time.Duration
	chunkSize int
}

func NewDemoChatStreamer(delay, interval time.Duration, chunkSize int) *DemoChatStreamer {
	if chunkSize <= 0 {
		chunkSize = 5
	}
	return &DemoChatStreamer{
		delay:     delay,
		interval:  interval,
		chunkSize: chunkSize,
	}
}

// demoResponse 关键词优先级：who > risk > time
func demoResponse(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "who"):
		return demoWhoResponse
	case strings.Contains(lower, "risk"):
		return demoRiskResponse
	case strings.Contains(lower, "time"):
		return demoTimeResponse
	default:
		return demoDefaultResponse
	}
}

func splitChunks(text string, size int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func (s *DemoChatStreamer) Stream(ctx context.Context, in ChatInput) (*schema.StreamReader[string], error) {
	chunks := splitChunks(demoResponse(in.Message), s.chunkSize)
	reader, writer := schema.Pipe[string](len(chunks))

	go func() {
		defer writer.Close()

		if err := sleepCtx(ctx, s.delay); err != nil {
			writer.Send("", err)
			return
		}

		for i, chunk := range chunks {
			if i > 0 {
				if err := sleepCtx(ctx, s.interval); err != nil {
					writer.Send("", err)
					return
				}
			}
			if closed := writer.Send(chunk, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}
