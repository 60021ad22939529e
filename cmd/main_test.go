package main

import (
	"context"
	"testing"

	"github.com/tahsinmert/AgendaGenius/internal/config"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

type stubChatModel struct{}

func (stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	return schema.AssistantMessage("", nil), nil
}

func (stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{}), nil
}

func (stubChatModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func TestInitialMode(t *testing.T) {
	withKey := config.Default()
	withKey.Gemini.APIKey = "test-key"

	// 有凭证但模型创建失败
	assert.True(t, initialMode(withKey, nil).IsDemo())
	assert.False(t, initialMode(withKey, stubChatModel{}).IsDemo())

	assert.True(t, initialMode(config.Default(), nil).IsDemo())

	forcedOff := config.Default()
	forcedOff.Demo.Force = "off"
	assert.True(t, initialMode(forcedOff, nil).IsDemo())
	assert.False(t, initialMode(forcedOff, stubChatModel{}).IsDemo())
}
