package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "KITCHEN_"
	configFileEnv = "KITCHEN_CONFIG_FILE"

	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"

	// SlotTableSize is the number of named meal slots (Breakfast, Lunch, Dinner, Snack).
	SlotTableSize = 4
)

// Config holds the configuration for the application.
type Config struct {
	LLM      LLMConfig      `koanf:"llm"`
	Planner  PlannerConfig  `koanf:"planner"`
	Database DatabaseConfig `koanf:"database"`
	Storage  StorageConfig  `koanf:"storage"`
	Session  SessionConfig  `koanf:"session"`
	Telegram TelegramConfig `koanf:"telegram"`
	Log      LogConfig      `koanf:"log"`
	HTTP     HTTPConfig     `koanf:"http"`
}

// LLMConfig selects and tunes the text-completion backend.
type LLMConfig struct {
	Provider          string        `koanf:"provider"`
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	BaseURL           string        `koanf:"base_url"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	Timeout           time.Duration `koanf:"timeout"`
}

// PlannerConfig constrains the planning wizard.
type PlannerConfig struct {
	MaxMealsPerDay int `koanf:"max_meals_per_day"`
	// NumberedSlots allows MaxMealsPerDay above the named slot table.
	NumberedSlots   bool   `koanf:"numbered_slots"`
	TitleDateLayout string `koanf:"title_date_layout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// TelegramConfig is optional for the CLI and required for the bot.
type TelegramConfig struct {
	BotToken       string `koanf:"bot_token"`
	WebhookURL     string `koanf:"webhook_url"`
	AllowedUserIDs string `koanf:"allowed_user_ids"`
	AdminID        int64  `koanf:"admin_id"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type HTTPConfig struct {
	Port string `koanf:"port"`
}

// NewFromEnv creates a new Config object from environment variables,
// layered over the YAML file named by KITCHEN_CONFIG_FILE when it is set.
func NewFromEnv() (*Config, error) {
	return Load(os.Getenv(configFileEnv))
}

// Load reads the optional YAML file at path, overrides it with KITCHEN_*
// environment variables and fills in defaults.
//
//	KITCHEN_LLM_API_KEY              -> llm.api_key
//	KITCHEN_PLANNER_MAX_MEALS_PER_DAY -> planner.max_meals_per_day
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps KITCHEN_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenRouter
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = 15
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.Planner.MaxMealsPerDay == 0 {
		cfg.Planner.MaxMealsPerDay = SlotTableSize
	}
	if cfg.Planner.TitleDateLayout == "" {
		cfg.Planner.TitleDateLayout = "1/2/2006"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/kitchen-ai.db"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/sessions"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 30 * 24 * time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
}

// Validate checks the settings every command needs. Credentials are
// checked by RequireLLM and RequireTelegram.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenRouter, ProviderGroq:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative")
	}
	if c.Planner.MaxMealsPerDay < 1 {
		return fmt.Errorf("planner.max_meals_per_day must be at least 1")
	}
	if c.Planner.MaxMealsPerDay > SlotTableSize && !c.Planner.NumberedSlots {
		return fmt.Errorf("planner.max_meals_per_day above %d requires planner.numbered_slots", SlotTableSize)
	}
	return nil
}

// RequireLLM reports the settings missing for commands that call the model.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("KITCHEN_LLM_API_KEY environment variable not set")
	}
	return nil
}

// RequireTelegram reports the settings missing for the bot binary.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("KITCHEN_TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.Telegram.WebhookURL == "" {
		return fmt.Errorf("KITCHEN_TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// AllowedIDs parses the comma separated Telegram user allow-list.
func (t TelegramConfig) AllowedIDs() ([]int64, error) {
	var ids []int64
	for _, raw := range strings.Split(t.AllowedUserIDs, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram user id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
