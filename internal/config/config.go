package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Doubao  DoubaoConfig  `mapstructure:"doubao"`
	Qwen    QwenConfig    `mapstructure:"qwen"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Demo    DemoConfig    `mapstructure:"demo"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
	Notice  NoticeConfig  `mapstructure:"notice"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// ModelConfig 选择真实模式下使用的模型服务商
type ModelConfig struct {
	Provider string `mapstructure:"provider"` // gemini | openai | doubao | qwen
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Temperature  float32       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type OpenAIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type DoubaoConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type QwenConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

// AgentConfig 提示词为空时使用 service 包内置的默认值
type AgentConfig struct {
	AgendaSystemPrompt string        `mapstructure:"agenda_system_prompt"`
	AgendaInstruction  string        `mapstructure:"agenda_instruction"`
	ChatSystemPrompt   string        `mapstructure:"chat_system_prompt"`
	MaxHistoryMessages int           `mapstructure:"max_history_messages"`
	GenerationTimeout  time.Duration `mapstructure:"generation_timeout"`
	ChatTimeout        time.Duration `mapstructure:"chat_timeout"`
}

// DemoConfig 控制演示模式（无 API Key）的行为
type DemoConfig struct {
	// Force 非空时覆盖基于凭证的默认值："on" / "off"
	Force         string        `mapstructure:"force"`
	AgendaDelay   time.Duration `mapstructure:"agenda_delay"`
	ChatDelay     time.Duration `mapstructure:"chat_delay"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	ChunkInterval time.Duration `mapstructure:"chunk_interval"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	DayStart        string        `mapstructure:"day_start"` // 议程开始时间，HH:MM
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	DataDir   string `mapstructure:"data_dir"`
	CacheSize int    `mapstructure:"cache_size"`
}

type NoticeConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("AGENDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时只使用默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, err
	}

	applyEnvKeys(loaded)

	cfg = loaded
	return cfg, nil
}

func Get() *Config {
	return cfg
}

// Default 返回只包含默认值的配置，主要用于测试
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	c := &Config{}
	_ = v.Unmarshal(c)
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_upload_bytes", 32<<20)

	v.SetDefault("model.provider", "gemini")
	v.SetDefault("gemini.model", "gemini-3-pro-preview")
	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 2*time.Minute)
	v.SetDefault("doubao.timeout", 2*time.Minute)
	v.SetDefault("qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("qwen.model", "qwen-plus")
	v.SetDefault("qwen.max_tokens", 4096)
	v.SetDefault("qwen.temperature", 0.7)
	v.SetDefault("qwen.top_p", 0.9)
	v.SetDefault("qwen.timeout", 2*time.Minute)

	v.SetDefault("agent.max_history_messages", 50)
	v.SetDefault("agent.generation_timeout", 3*time.Minute)
	v.SetDefault("agent.chat_timeout", 5*time.Minute)

	v.SetDefault("demo.agenda_delay", 2*time.Second)
	v.SetDefault("demo.chat_delay", 600*time.Millisecond)
	v.SetDefault("demo.chunk_size", 5)
	v.SetDefault("demo.chunk_interval", 30*time.Millisecond)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 43200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)
	v.SetDefault("session.day_start", "09:00")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.cache_size", 100)

	v.SetDefault("notice.ttl", 4*time.Second)
}

// 配置文件优先，如果配置文件中没有设置，则使用环境变量
func applyEnvKeys(c *Config) {
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = firstEnv("GEMINI_API_KEY", "API_KEY")
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = firstEnv("OPENAI_API_KEY")
	}
	if c.Doubao.APIKey == "" {
		c.Doubao.APIKey = firstEnv("DOUBAO_API_KEY", "ARK_API_KEY")
	}
	if c.Qwen.APIKey == "" {
		c.Qwen.APIKey = firstEnv("DASHSCOPE_API_KEY", "QWEN_API_KEY")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// APIKey 返回当前模型服务商的凭证
func (c *Config) APIKey() string {
	switch c.Model.Provider {
	case "openai":
		return c.OpenAI.APIKey
	case "doubao":
		return c.Doubao.APIKey
	case "qwen":
		return c.Qwen.APIKey
	default:
		return c.Gemini.APIKey
	}
}

// HasCredential 启动时检查一次，决定默认是否进入演示模式
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey()) != ""
}

// DemoModeDefault 计算演示模式的初始值
func (c *Config) DemoModeDefault() bool {
	switch strings.ToLower(c.Demo.Force) {
	case "on", "true":
		return true
	case "off", "false":
		return false
	}
	return !c.HasCredential()
}
