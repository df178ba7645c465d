package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "spendlens"
	DefaultPGSSLMode    = "disable"
	DefaultChatModel    = "gpt-4o-mini"
	DefaultVisionModel  = "gpt-4o-mini"
	DefaultImageModel   = "dall-e-3"
	DefaultSpeechModel  = "whisper-1"
	DefaultLocale       = "en"
	DefaultJWTExpiresIn = "1h"
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Providers ProvidersConfig `toml:"providers"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Quota     QuotaConfig     `toml:"quota"`
	Chat      ChatConfig      `toml:"chat"`
	Receipt   ReceiptConfig   `toml:"receipt"`
	Auth      AuthConfig      `toml:"auth"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
	// FormBaseURL is the externally reachable base URL used when minting
	// manual-entry form links.
	FormBaseURL string `toml:"form_base_url"`
}

type TelegramConfig struct {
	BotToken    string `toml:"bot_token"`
	BotUsername string `toml:"bot_username"`
	PollTimeout int    `toml:"poll_timeout"`
}

type ProvidersConfig struct {
	OpenAI   ProviderConfig `toml:"openai"`
	DeepSeek ProviderConfig `toml:"deepseek"`
}

type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// QuotaConfig holds the tier table: tier name -> [max requests, max tokens] per day.
type QuotaConfig struct {
	Tiers     map[string][2]int64 `toml:"tiers"`
	Whitelist []int64             `toml:"whitelist"`
}

type ChatConfig struct {
	DefaultModel  string `toml:"default_model"`
	DefaultLocale string `toml:"default_locale"`
	MaxTokens     int    `toml:"max_tokens"`
}

type ReceiptConfig struct {
	VisionModel     string `toml:"vision_model"`
	CategorizeModel string `toml:"categorize_model"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// ExpiresIn parses the configured token lifetime, falling back to the
// default on bad input.
func (a AuthConfig) ExpiresIn() time.Duration {
	d, err := time.ParseDuration(a.JWTExpiresIn)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultJWTExpiresIn)
	}
	return d
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Quota: QuotaConfig{
			Tiers: map[string][2]int64{
				"default_list": {10, 1000},
				"x5":           {50, 5000},
				"x10":          {100, 10000},
				"x100":         {1000, 100000},
				"white_list":   {9999, 999999},
			},
		},
		Chat: ChatConfig{
			DefaultModel:  DefaultChatModel,
			DefaultLocale: DefaultLocale,
			MaxTokens:     1000,
		},
		Receipt: ReceiptConfig{
			VisionModel:     DefaultVisionModel,
			CategorizeModel: "deepseek-chat",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
