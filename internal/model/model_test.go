package model

import (
	"context"
	"testing"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type recordingModel struct {
	got []*schema.Message
}

func (m *recordingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	m.got = input
	return schema.AssistantMessage("ok", nil), nil
}

func (m *recordingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	m.got = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("ok", nil)}), nil
}

func (m *recordingModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func fileMessage(mimeType string, data []byte) *schema.Message {
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: "Here are the source documents:"},
			{Type: schema.ChatMessagePartTypeFileURL, FileURL: &schema.ChatMessageFileURL{
				URL:      EncodeDataURI(mimeType, data),
				MIMEType: mimeType,
			}},
			{Type: schema.ChatMessagePartTypeText, Text: "What is this about?"},
		},
	}
}

func TestTextOnlyModelFlattensFiles(t *testing.T) {
	inner := &recordingModel{}
	m := NewTextOnlyModel(inner)

	_, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("be brief"),
		fileMessage("text/plain", []byte("Launch plan for Q3")),
	})
	require.NoError(t, err)

	require.Len(t, inner.got, 2)
	assert.Equal(t, "be brief", inner.got[0].Content)
	assert.Empty(t, inner.got[1].MultiContent)
	assert.Equal(t,
		"Here are the source documents:\n\n[Document: text/plain]\nLaunch plan for Q3\n\nWhat is this about?",
		inner.got[1].Content)
}

func TestFlattenFileBinary(t *testing.T) {
	text := flattenFile(EncodeDataURI("application/pdf", []byte("%PDF-1.4")), "")
	assert.Equal(t, "[Attached document of type application/pdf (8 bytes) is not readable as text]", text)

	assert.Equal(t, "[Attached document could not be decoded]", flattenFile("not-a-uri", ""))
}

func TestStructuredOptions(t *testing.T) {
	opts := getStructuredOptions()
	assert.Nil(t, opts.Schema)

	opts = getStructuredOptions(WithResponseSchema("meeting_agenda", AgendaSchema()))
	require.NotNil(t, opts.Schema)
	assert.Equal(t, "meeting_agenda", opts.SchemaName)
	assert.ElementsMatch(t, []string{"meetingTitle", "summary", "stakeholders", "agendaItems"}, opts.Schema.Required)
}

func TestToGeminiSchema(t *testing.T) {
	s := toGeminiSchema(AgendaSchema())

	assert.Equal(t, genai.TypeObject, s.Type)
	items := s.Properties["agendaItems"]
	require.NotNil(t, items)
	assert.Equal(t, genai.TypeArray, items.Type)
	assert.Equal(t, genai.TypeInteger, items.Items.Properties["durationMinutes"].Type)
	assert.Equal(t, []string{"title", "description", "durationMinutes"}, items.Items.Required)
}

func TestGeminiParts(t *testing.T) {
	parts, err := geminiParts(fileMessage("application/pdf", []byte("%PDF")))
	require.NoError(t, err)
	require.Len(t, parts, 3)

	assert.Equal(t, "Here are the source documents:", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "application/pdf", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("%PDF"), parts[1].InlineData.Data)
	assert.Equal(t, "What is this about?", parts[2].Text)

	_, err = geminiParts(&schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeFileURL, FileURL: &schema.ChatMessageFileURL{URL: "https://example.com/a.pdf"}},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidDataURI)
}

func TestGeminiBuildRequest(t *testing.T) {
	m := &geminiChatModel{model: "gemini-3-pro-preview", temperature: 0.2}

	contents, cfg, err := m.buildRequest([]*schema.Message{
		schema.SystemMessage("system directive"),
		schema.UserMessage("hi"),
		schema.AssistantMessage("hello", nil),
		schema.UserMessage("agenda?"),
	}, WithResponseSchema("agenda", AgendaSchema()))
	require.NoError(t, err)

	require.Len(t, contents, 3)
	assert.Equal(t, RoleUser, contents[0].Role)
	assert.Equal(t, RoleModel, contents[1].Role)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "system directive", cfg.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
}

func TestOpenAIConvertMessages(t *testing.T) {
	m := &openaiChatModel{model: "gpt-4o-mini"}

	msgs := m.convertMessages([]*schema.Message{
		schema.SystemMessage("sys"),
		schema.AssistantMessage("", nil),
		fileMessage("image/png", []byte{0x89, 'P', 'N', 'G'}),
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "sys", msgs[0].Content)

	assert.Empty(t, msgs[1].Content)
	require.Len(t, msgs[1].MultiContent, 3)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, msgs[1].MultiContent[1].Type)
	assert.Contains(t, msgs[1].MultiContent[1].ImageURL.URL, "data:image/png;base64,")
}

func TestOpenAIBuildRequestSchema(t *testing.T) {
	m := &openaiChatModel{model: "gpt-4o-mini"}

	req, err := m.buildRequest([]*schema.Message{schema.UserMessage("go")}, WithResponseSchema("", AgendaSchema()))
	require.NoError(t, err)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONSchema, req.ResponseFormat.Type)
	assert.Equal(t, "response", req.ResponseFormat.JSONSchema.Name)

	req, err = m.buildRequest([]*schema.Message{schema.UserMessage("go")})
	require.NoError(t, err)
	assert.Nil(t, req.ResponseFormat)
}

func TestProviderCapabilities(t *testing.T) {
	assert.True(t, NativeStructuredOutput(ProviderGemini))
	assert.True(t, NativeStructuredOutput(ProviderOpenAI))
	assert.False(t, NativeStructuredOutput(ProviderQwen))
	assert.True(t, NativeFileParts(""))
	assert.False(t, NativeFileParts(ProviderOpenAI))
}

func TestMeetingDataClone(t *testing.T) {
	m := &MeetingData{
		MeetingTitle: "Sync",
		AgendaItems:  []AgendaItem{{Title: "A", DurationMinutes: 10}, {Title: "B", DurationMinutes: 5}},
	}
	c := m.Clone()
	c.AgendaItems[0].Title = "changed"

	assert.Equal(t, "A", m.AgendaItems[0].Title)
	assert.Equal(t, 15, c.TotalDuration())
	assert.NotNil(t, c.Stakeholders)
	assert.Nil(t, (*MeetingData)(nil).Clone())
}

func TestStakeholderInitials(t *testing.T) {
	assert.Equal(t, "SC", Stakeholder{Name: "Sarah Connor"}.Initials())
	assert.Equal(t, "JR", Stakeholder{Name: "john ronald tolkien"}.Initials())
	assert.Equal(t, "", Stakeholder{Name: "  "}.Initials())
}
