package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Policy names accepted by responder.analysis_policy
const (
	PolicyKeyword            = "keyword"
	PolicyKeywordAndQuestion = "keyword_and_question"
)

type ModelSettings struct {
	Provider        string  `yaml:"provider"`
	ID              string  `yaml:"id"`
	Capability      string  `yaml:"capability"`
	Temperature     float64 `yaml:"temperature"`
	ReasoningEffort string  `yaml:"reasoning_effort"`
	BaseURL         string  `yaml:"base_url"`
	TimeoutSeconds  float64 `yaml:"timeout_seconds"`

	// Provider-wide request rate; zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type ResponderSettings struct {
	DailyLimit         int      `yaml:"daily_limit"`
	Timezone           string   `yaml:"timezone"`
	CasualMaxTokens    int      `yaml:"casual_max_tokens"`
	AnalysisMaxTokens  int      `yaml:"analysis_max_tokens"`
	TranslateMaxTokens int      `yaml:"translate_max_tokens"`
	MessageLimit       int      `yaml:"message_limit"`
	EmbedLimit         int      `yaml:"embed_limit"`
	AnalysisPolicy     string   `yaml:"analysis_policy"`
	RegulationKeywords []string `yaml:"regulation_keywords"`
	QuestionMarkers    []string `yaml:"question_markers"`
	TargetPlaceholder  string   `yaml:"target_placeholder"`
}

type RetrySettings struct {
	MaxAttempts         int     `yaml:"max_attempts"`
	InitialDelaySeconds float64 `yaml:"initial_delay_seconds"`
	MaxDelaySeconds     float64 `yaml:"max_delay_seconds"`
	Multiplier          float64 `yaml:"multiplier"`
}

type Config struct {
	Model     ModelSettings     `yaml:"model"`
	Responder ResponderSettings `yaml:"responder"`
	Retry     RetrySettings     `yaml:"retry"`
	Leveling  struct {
		XPPerMessage int `yaml:"xp_per_message"`
	} `yaml:"leveling"`
	Maintenance struct {
		IntervalHours             float64 `yaml:"interval_hours"`
		ConversationRetentionDays int     `yaml:"conversation_retention_days"`
		UsageRetentionDays        int     `yaml:"usage_retention_days"`
	} `yaml:"maintenance"`
	Translation struct {
		Flags map[string]string `yaml:"flags"`
	} `yaml:"translation"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Cache struct {
		SettingsSize int    `yaml:"settings_size"`
		RedisPrefix  string `yaml:"redis_prefix"`
	} `yaml:"cache"`
}

// Default returns the configuration used when no config.yml is present.
func Default() *Config {
	c := &Config{}

	c.Model.Provider = "openai"
	c.Model.ID = "gpt-5.1"
	c.Model.Capability = "reasoning"
	c.Model.Temperature = 0.8
	c.Model.ReasoningEffort = "medium"
	c.Model.TimeoutSeconds = 60
	c.Model.RequestsPerSecond = 2
	c.Model.Burst = 5

	c.Responder.DailyLimit = 100
	c.Responder.Timezone = "Asia/Tokyo"
	c.Responder.CasualMaxTokens = 800
	c.Responder.AnalysisMaxTokens = 2000
	c.Responder.TranslateMaxTokens = 800
	c.Responder.MessageLimit = 2000
	c.Responder.EmbedLimit = 4000
	c.Responder.AnalysisPolicy = PolicyKeywordAndQuestion
	c.Responder.RegulationKeywords = []string{"表現規制", "規制", "検閲", "制限", "禁止", "表現の自由", "言論統制", "弾圧"}
	c.Responder.QuestionMarkers = []string{"？", "?", "ですか", "でしょうか", "どう", "なぜ", "なんで", "妥当", "是非", "思う", "教えて"}
	c.Responder.TargetPlaceholder = "この件"

	c.Retry.MaxAttempts = 3
	c.Retry.InitialDelaySeconds = 1
	c.Retry.MaxDelaySeconds = 10
	c.Retry.Multiplier = 2

	c.Leveling.XPPerMessage = 10

	c.Maintenance.IntervalHours = 1
	c.Maintenance.ConversationRetentionDays = 30
	c.Maintenance.UsageRetentionDays = 7

	c.Translation.Flags = map[string]string{
		"🇺🇸": "English", "🇬🇧": "English", "🇨🇦": "English", "🇯🇵": "Japanese",
		"🇨🇳": "Chinese", "🇰🇷": "Korean", "🇫🇷": "French", "🇩🇪": "German",
		"🇮🇹": "Italian", "🇪🇸": "Spanish", "🇷🇺": "Russian", "🇻🇳": "Vietnamese",
	}

	c.Cache.SettingsSize = 1000
	c.Cache.RedisPrefix = "akane"

	return c
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("model.provider must be openai or gemini, got %q", c.Model.Provider)
	}
	switch c.Model.Capability {
	case "sampling", "reasoning":
	default:
		return fmt.Errorf("model.capability must be sampling or reasoning, got %q", c.Model.Capability)
	}
	if c.Model.ID == "" {
		return fmt.Errorf("model.id is required")
	}
	switch c.Responder.AnalysisPolicy {
	case PolicyKeyword, PolicyKeywordAndQuestion:
	default:
		return fmt.Errorf("responder.analysis_policy must be %s or %s, got %q",
			PolicyKeyword, PolicyKeywordAndQuestion, c.Responder.AnalysisPolicy)
	}
	if c.Responder.DailyLimit < 1 {
		return fmt.Errorf("responder.daily_limit must be positive")
	}
	if c.Responder.MessageLimit < 1 || c.Responder.MessageLimit > 2000 {
		return fmt.Errorf("responder.message_limit must be between 1 and 2000")
	}
	// Discord caps embed descriptions at 4096
	if c.Responder.EmbedLimit < 1 || c.Responder.EmbedLimit > 4096 {
		return fmt.Errorf("responder.embed_limit must be between 1 and 4096")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}

// Location resolves the responder time zone. Falls back to a fixed UTC+9 zone
// when tzdata is unavailable in the container.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Responder.Timezone)
	if err != nil {
		log.Warnf("Unknown timezone %q, using fixed UTC+9: %v", c.Responder.Timezone, err)
		return time.FixedZone("Asia/Tokyo", 9*60*60)
	}
	return loc
}

func (c *Config) RetryDelay() time.Duration {
	return seconds(c.Retry.InitialDelaySeconds)
}

func (c *Config) RetryMaxDelay() time.Duration {
	return seconds(c.Retry.MaxDelaySeconds)
}

func (c *Config) ModelTimeout() time.Duration {
	return seconds(c.Model.TimeoutSeconds)
}

func (c *Config) MaintenanceInterval() time.Duration {
	return time.Duration(c.Maintenance.IntervalHours * float64(time.Hour))
}

// ResolveDBPath picks the sqlite file: DB_PATH, then storage.path, then the
// /data volume when mounted, then the working directory.
func (c *Config) ResolveDBPath() string {
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if info, err := os.Stat("/data"); err == nil && info.IsDir() {
		return "/data/akane.db"
	}
	return "akane.db"
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
