package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chat service
type Config struct {
	General       GeneralConfig       `mapstructure:"general"`
	Server        ServerConfig        `mapstructure:"server"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Search        SearchConfig        `mapstructure:"search"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Storage       StorageConfig       `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LLMConfig contains the chat-completions endpoint configuration
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// SearchConfig contains the content-search service configuration
type SearchConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (s SearchConfig) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if s.MaxResults < 0 {
		return fmt.Errorf("search.max_results cannot be negative")
	}
	return nil
}

// OrchestrationConfig contains knobs for the per-turn orchestration run.
// max_retries of 0 disables re-prompting on malformed search actions.
type OrchestrationConfig struct {
	MaxRetries             int           `mapstructure:"max_retries"`
	UseSearchPrompt        bool          `mapstructure:"use_search_prompt"`
	SkipClarification      bool          `mapstructure:"skip_clarification"`
	ClarificationThreshold float64       `mapstructure:"clarification_threshold"`
	RunTimeout             time.Duration `mapstructure:"run_timeout"`
}

func (o OrchestrationConfig) Validate() error {
	if o.MaxRetries < 0 {
		return fmt.Errorf("orchestration.max_retries cannot be negative")
	}
	if o.ClarificationThreshold <= 0 || o.ClarificationThreshold > 1 {
		return fmt.Errorf("orchestration.clarification_threshold must be within (0,1]")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// StorageConfig contains conversation persistence settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.default_timeout", 60*time.Second)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("server.allow_origins", []string{"*"})
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.4)
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.timeout", 15*time.Second)
	viper.SetDefault("orchestration.max_retries", 2)
	viper.SetDefault("orchestration.use_search_prompt", true)
	viper.SetDefault("orchestration.skip_clarification", false)
	viper.SetDefault("orchestration.clarification_threshold", 0.5)
	viper.SetDefault("orchestration.run_timeout", 2*time.Minute)
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.timeout", 5*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LEGICHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// config file is optional when every required key arrives via env
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := config.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := config.Search.Validate(); err != nil {
		return nil, err
	}
	if err := config.Orchestration.Validate(); err != nil {
		return nil, err
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
