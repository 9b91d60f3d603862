package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultUserAgent is sent on every page fetch and probe. Some sites reject
// requests without a browser-like agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/110.0.0.0 Safari/537.36"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxSizeMB int           `mapstructure:"max_size_mb"`
	Extractor string        `mapstructure:"extractor"`
}

type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type LLMConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Probe  ProbeConfig  `mapstructure:"probe"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Ollama OllamaConfig `mapstructure:"ollama"`
	LLM    LLMConfig    `mapstructure:"llm"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads .env and the optional JSON config file (singleton).
// Environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		// .env is optional, same as an absent config file
		_ = godotenv.Load()

		v := newViper()
		if path != "" {
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				v.SetConfigType("json")
				if err := v.ReadInConfig(); err != nil {
					cfgErr = fmt.Errorf("invalid config format: %w", err)
					return
				}
			} else if !errors.Is(err, fs.ErrNotExist) {
				cfgErr = fmt.Errorf("failed to read config file: %w", err)
				return
			}
		}

		var c Config
		if err := v.Unmarshal(&c); err != nil {
			cfgErr = fmt.Errorf("failed to decode config: %w", err)
			return
		}
		if err := validate(&c); err != nil {
			cfgErr = err
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.timeout", time.Duration(0))
	v.SetDefault("fetch.max_size_mb", 5)
	v.SetDefault("fetch.extractor", "full")
	v.SetDefault("probe.timeout", 5*time.Second)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2")
	v.SetDefault("llm.timeout", time.Duration(0))

	v.SetEnvPrefix("SITEBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional names used by the backends' own tooling.
	_ = v.BindEnv("openai.api_key", "SITEBRIEF_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ollama.url", "SITEBRIEF_OLLAMA_URL", "OLLAMA_HOST")

	return v
}

func validate(c *Config) error {
	switch c.Fetch.Extractor {
	case "full", "readability":
	default:
		return fmt.Errorf("fetch.extractor must be \"full\" or \"readability\", got %q", c.Fetch.Extractor)
	}
	if c.Fetch.MaxSizeMB <= 0 {
		return errors.New("fetch.max_size_mb must be positive")
	}
	if c.Probe.Timeout <= 0 {
		return errors.New("probe.timeout must be positive")
	}
	if !strings.HasPrefix(c.Ollama.URL, "http://") && !strings.HasPrefix(c.Ollama.URL, "https://") {
		c.Ollama.URL = "http://" + c.Ollama.URL
	}
	return nil
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
