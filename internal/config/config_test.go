package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	c := Default()

	assert.Equal(t, "gemini", c.Model.Provider)
	assert.Equal(t, 2*time.Second, c.Demo.AgendaDelay)
	assert.Equal(t, 600*time.Millisecond, c.Demo.ChatDelay)
	assert.Equal(t, 5, c.Demo.ChunkSize)
	assert.Equal(t, 4*time.Second, c.Notice.TTL)
	assert.Equal(t, "09:00", c.Session.DayStart)
}

func TestDemoModeDefault(t *testing.T) {
	c := Default()
	c.Gemini.APIKey = ""
	assert.True(t, c.DemoModeDefault())

	c.Gemini.APIKey = "key"
	assert.False(t, c.DemoModeDefault())

	c.Demo.Force = "on"
	assert.True(t, c.DemoModeDefault())

	c.Gemini.APIKey = ""
	c.Demo.Force = "off"
	assert.False(t, c.DemoModeDefault())
}

func TestAPIKeyFollowsProvider(t *testing.T) {
	c := Default()
	c.Gemini.APIKey = "g"
	c.OpenAI.APIKey = "o"

	assert.Equal(t, "g", c.APIKey())
	c.Model.Provider = "openai"
	assert.Equal(t, "o", c.APIKey())
	c.Model.Provider = "qwen"
	assert.False(t, c.HasCredential())
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
demo:
  chunk_size: 8
storage:
  type: disk
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 8, c.Demo.ChunkSize)
	assert.Equal(t, "disk", c.Storage.Type)
	assert.Equal(t, "from-env", c.Gemini.APIKey)
	assert.Same(t, c, Get())
}
