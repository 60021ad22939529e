package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/tahsinmert/AgendaGenius/internal/config"
	"github.com/tahsinmert/AgendaGenius/internal/model"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agendaJSON = `{
  "meetingTitle": "Platform Migration Kickoff",
  "summary": "Align on the migration plan.",
  "stakeholders": [{"name": "Ada Lovelace", "role": "Tech Lead"}],
  "agendaItems": [
    {"title": "Scope", "description": "What moves first.", "durationMinutes": 20, "presenter": "Ada Lovelace"},
    {"title": "Risks", "description": "Known blockers.", "durationMinutes": 10}
  ]
}`

func testFiles() []model.FileRecord {
	return []model.FileRecord{{
		ID:        "f1",
		Name:      "brief.txt",
		MimeType:  "text/plain",
		Content:   model.EncodeDataURI("text/plain", []byte("Launch brief")),
		SizeBytes: 12,
	}}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Demo.AgendaDelay = 0
	cfg.Demo.ChatDelay = 0
	cfg.Demo.ChunkInterval = 0
	return cfg
}

func TestMockAgenda(t *testing.T) {
	data := MockAgenda()

	assert.Equal(t, "Q3 Product Launch Strategy", data.MeetingTitle)
	assert.Len(t, data.Stakeholders, 4)
	require.Len(t, data.AgendaItems, 4)
	assert.Equal(t, 75, data.TotalDuration())
	assert.Equal(t, "All", data.AgendaItems[3].Presenter)
	for i, item := range data.AgendaItems {
		assert.Equal(t, strconv.Itoa(i+1), item.ID)
	}

	// 每次都是新的副本
	data.AgendaItems[0].Title = "changed"
	assert.Equal(t, "Review Q2 Development Milestones", MockAgenda().AgendaItems[0].Title)
}

func TestDemoAgendaGenerator(t *testing.T) {
	g := NewDemoAgendaGenerator(0)

	data, err := g.Generate(context.Background(), testFiles())
	require.NoError(t, err)
	assert.Equal(t, "Q3 Product Launch Strategy", data.MeetingTitle)

	_, err = g.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDemoAgendaGenerator(time.Hour).Generate(ctx, testFiles())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLiveAgendaGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("parses structured response", func(t *testing.T) {
		cm := &fakeChatModel{content: agendaJSON}
		g, err := NewLiveAgendaGenerator(ctx, cm, testConfig())
		require.NoError(t, err)

		data, err := g.Generate(ctx, testFiles())
		require.NoError(t, err)
		assert.Equal(t, "Platform Migration Kickoff", data.MeetingTitle)
		assert.Equal(t, 30, data.TotalDuration())
		assert.Empty(t, data.AgendaItems[1].Presenter)

		input := cm.lastInput()
		require.Len(t, input, 2)
		assert.Equal(t, schema.System, input[0].Role)
		assert.Equal(t, defaultAgendaSystemPrompt, input[0].Content)

		parts := input[1].MultiContent
		require.Len(t, parts, 2)
		assert.Equal(t, schema.ChatMessagePartTypeFileURL, parts[0].Type)
		assert.Equal(t, "text/plain", parts[0].FileURL.MIMEType)
		assert.Equal(t, defaultAgendaInstruction, parts[1].Text)

		require.NotEmpty(t, cm.options)
		require.NotNil(t, cm.options[0].Schema)
		assert.Equal(t, "meeting_agenda", cm.options[0].SchemaName)
	})

	t.Run("strips markdown fences", func(t *testing.T) {
		g, err := NewLiveAgendaGenerator(ctx, &fakeChatModel{content: "```json\n" + agendaJSON + "\n```"}, testConfig())
		require.NoError(t, err)

		data, err := g.Generate(ctx, testFiles())
		require.NoError(t, err)
		assert.Equal(t, "Platform Migration Kickoff", data.MeetingTitle)
	})

	t.Run("embeds schema for text-only providers", func(t *testing.T) {
		cfg := testConfig()
		cfg.Model.Provider = model.ProviderQwen
		cm := &fakeChatModel{content: agendaJSON}
		g, err := NewLiveAgendaGenerator(ctx, cm, cfg)
		require.NoError(t, err)

		_, err = g.Generate(ctx, testFiles())
		require.NoError(t, err)
		instruction := cm.lastInput()[1].MultiContent[1].Text
		assert.Contains(t, instruction, schemaInstruction)
		assert.Contains(t, instruction, `"meetingTitle"`)
	})

	failures := map[string]*fakeChatModel{
		"empty body":     {content: "  "},
		"invalid json":   {content: "not json"},
		"missing title":  {content: `{"summary": "x", "stakeholders": [], "agendaItems": []}`},
		"missing items":  {content: `{"meetingTitle": "x", "summary": "y", "stakeholders": []}`},
		"transport fail": {err: errUpstream},
	}
	for name, cm := range failures {
		t.Run(name, func(t *testing.T) {
			g, err := NewLiveAgendaGenerator(ctx, cm, testConfig())
			require.NoError(t, err)

			data, err := g.Generate(ctx, testFiles())
			assert.Nil(t, data)
			var genErr *GenerationError
			assert.ErrorAs(t, err, &genErr)
		})
	}

	t.Run("no credential", func(t *testing.T) {
		g, err := NewLiveAgendaGenerator(ctx, nil, testConfig())
		require.NoError(t, err)

		_, err = g.Generate(ctx, testFiles())
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestParseAgenda(t *testing.T) {
	_, err := parseAgenda("")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = parseAgenda(`{"meetingTitle": "x", "summary": "y", "stakeholders": [], "agendaItems": [{"title": "a", "durationMinutes": -5}]}`)
	assert.Error(t, err)

	for _, partial := range []string{
		`{"meetingTitle": "x", "stakeholders": [], "agendaItems": []}`,
		`{"meetingTitle": "x", "summary": "y", "agendaItems": []}`,
		`{"meetingTitle": "x", "summary": "y", "stakeholders": []}`,
		`{"meetingTitle": "x", "summary": "y", "stakeholders": [], "agendaItems": null}`,
	} {
		_, err = parseAgenda(partial)
		assert.ErrorContains(t, err, "missing", partial)
	}

	data, err := parseAgenda(`{"meetingTitle": "x", "summary": "y", "stakeholders": [], "agendaItems": []}`)
	require.NoError(t, err)
	assert.NotNil(t, data.Stakeholders)
	assert.NotNil(t, data.AgendaItems)
}
