package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Session  SessionConfig
	Chat     ChatConfig
	Contact  ContactConfig
	Redis    RedisConfig
	Database DatabaseConfig
	AI       AIConfig
	Metrics  MetricsConfig
	Admin    AdminConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// SessionConfig 会话 Cookie 配置
type SessionConfig struct {
	CookieName string
	Secret     string
	TokenTTL   time.Duration
	Secure     bool
}

// ChatConfig 对话配置
type ChatConfig struct {
	IdleTimeout    time.Duration // 表单状态空闲超时
	HistoryLimit   int           // 提示词中携带的历史轮数
	StateBackend   string        // memory | redis
	SweepInterval  time.Duration
	TriggerPhrases []string // 触发人工联系流程的短语
	FAQPath        string   // 可选的 FAQ YAML 文件
}

// ContactConfig 联系人记录配置
type ContactConfig struct {
	Backend  string // file | postgres
	FilePath string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// AIConfig AI配置
type AIConfig struct {
	Provider     string
	Gemini       GeminiConfig
	OpenAI       OpenAIConfig
	Timeout      time.Duration
	RetryBackoff time.Duration
	MaxAttempts  int
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// AdminConfig 管理接口配置
// Token 为空时不注册联系人查询接口
type AdminConfig struct {
	Token string
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool
}

var (
	stateBackends   = map[string]bool{"memory": true, "redis": true}
	contactBackends = map[string]bool{"file": true, "postgres": true}
	providers       = map[string]bool{"gemini": true, "openai": true}
)

// Load 加载配置
// 配置文件不存在时使用默认值，环境变量优先级最高
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("ASSESSLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("ai.gemini.apiKey", "ASSESSLY_AI_GEMINI_APIKEY", "GEMINI_API_KEY")
	_ = v.BindEnv("ai.openai.apiKey", "ASSESSLY_AI_OPENAI_APIKEY", "OPENAI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if !providers[c.AI.Provider] {
		return fmt.Errorf("unsupported ai provider: %q", c.AI.Provider)
	}
	if !stateBackends[c.Chat.StateBackend] {
		return fmt.Errorf("unsupported state backend: %q", c.Chat.StateBackend)
	}
	if !contactBackends[c.Contact.Backend] {
		return fmt.Errorf("unsupported contact backend: %q", c.Contact.Backend)
	}
	if c.Chat.IdleTimeout <= 0 {
		return errors.New("chat.idleTimeout must be positive")
	}
	if c.Chat.HistoryLimit <= 0 {
		return errors.New("chat.historyLimit must be positive")
	}
	if c.AI.MaxAttempts <= 0 {
		return errors.New("ai.maxAttempts must be positive")
	}
	// 写超时必须覆盖 LLM 全部重试，否则回退文案来不及写出
	if budget := c.AI.Budget(); c.Server.WriteTimeout > 0 && time.Duration(c.Server.WriteTimeout)*time.Second <= budget {
		return fmt.Errorf("server.writeTimeout (%ds) must exceed the ai retry budget (%s)", c.Server.WriteTimeout, budget)
	}
	if c.Session.Secret == "" && !c.App.Debug {
		return errors.New("session.secret is required outside debug mode")
	}
	return nil
}

// Budget 一次回复中 LLM 调用的最长耗时：每次尝试的超时加上重试间隔
func (c *AIConfig) Budget() time.Duration {
	if c.MaxAttempts <= 0 {
		return 0
	}
	return time.Duration(c.MaxAttempts)*c.Timeout + time.Duration(c.MaxAttempts-1)*c.RetryBackoff
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "assessly")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 45)

	// Session
	v.SetDefault("session.cookieName", "assessly_session")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.tokenTTL", 24*time.Hour)
	v.SetDefault("session.secure", false)

	// Chat
	v.SetDefault("chat.idleTimeout", 600*time.Second)
	v.SetDefault("chat.historyLimit", 5)
	v.SetDefault("chat.stateBackend", "memory")
	v.SetDefault("chat.sweepInterval", time.Minute)
	v.SetDefault("chat.triggerPhrases", []string{
		"talk to someone",
		"talk to a human",
		"speak to someone",
		"speak with someone",
		"contact a human",
		"human agent",
	})
	v.SetDefault("chat.faqPath", "")

	// Contact
	v.SetDefault("contact.backend", "file")
	v.SetDefault("contact.filePath", "contacts.csv")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "assessly")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "assessly")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.maxLifetime", 300)

	// AI
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.apiKey", "")
	v.SetDefault("ai.gemini.baseUrl", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	v.SetDefault("ai.gemini.maxTokens", 150)
	v.SetDefault("ai.gemini.temperature", 0.7)
	v.SetDefault("ai.openai.apiKey", "")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.maxTokens", 150)
	v.SetDefault("ai.openai.temperature", 0.7)
	v.SetDefault("ai.timeout", 15*time.Second)
	v.SetDefault("ai.retryBackoff", time.Second)
	v.SetDefault("ai.maxAttempts", 2)

	// Metrics
	v.SetDefault("metrics.enabled", true)

	// Admin
	v.SetDefault("admin.token", "")
}
