package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("KITCHEN_LLM_API_KEY", "llm_key")
		t.Setenv("KITCHEN_LLM_PROVIDER", "groq")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "llm_key", cfg.LLM.APIKey)
		assert.Equal(t, ProviderGroq, cfg.LLM.Provider)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("KITCHEN_LLM_API_KEY", "llm_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
		assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
		assert.Equal(t, 15, cfg.LLM.RequestsPerMinute)
		assert.Equal(t, 4, cfg.Planner.MaxMealsPerDay)
		assert.Equal(t, "1/2/2006", cfg.Planner.TitleDateLayout)
		assert.Equal(t, "data/kitchen-ai.db", cfg.Database.Path)
		assert.Equal(t, "8080", cfg.HTTP.Port)
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		t.Setenv("KITCHEN_LLM_API_KEY", "")
		os.Unsetenv("KITCHEN_LLM_API_KEY")

		cfg, err := NewFromEnv()
		require.NoError(t, err, "commands without the model still load")

		err = cfg.RequireLLM()
		require.Error(t, err)
		assert.Equal(t, "KITCHEN_LLM_API_KEY environment variable not set", err.Error())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		t.Setenv("KITCHEN_LLM_API_KEY", "llm_key")
		t.Setenv("KITCHEN_LLM_PROVIDER", "mystery")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("MealsPerDayAboveSlotTable", func(t *testing.T) {
		t.Setenv("KITCHEN_LLM_API_KEY", "llm_key")
		t.Setenv("KITCHEN_PLANNER_MAX_MEALS_PER_DAY", "6")

		_, err := NewFromEnv()
		require.Error(t, err)

		t.Setenv("KITCHEN_PLANNER_NUMBERED_SLOTS", "true")
		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Planner.MaxMealsPerDay)
	})
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
llm:
  provider: gemini
  api_key: from_file
  timeout: 10s
planner:
  title_date_layout: "2006-01-02"
telegram:
  allowed_user_ids: "1, 2"
`)
	require.NoError(t, os.WriteFile(path, content, 0600))
	t.Setenv("KITCHEN_LLM_API_KEY", "from_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "from_env", cfg.LLM.APIKey)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "2006-01-02", cfg.Planner.TitleDateLayout)

	ids, err := cfg.Telegram.AllowedIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestRequireLLM(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireLLM())

	cfg.LLM.APIKey = "key"
	assert.NoError(t, cfg.RequireLLM())
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireTelegram()
	require.Error(t, err)
	assert.Equal(t, "KITCHEN_TELEGRAM_BOT_TOKEN environment variable not set", err.Error())

	cfg.Telegram.BotToken = "token"
	cfg.Telegram.WebhookURL = "https://example.test/webhook"
	assert.NoError(t, cfg.RequireTelegram())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "llm.api_key", envKey("KITCHEN_LLM_API_KEY"))
	assert.Equal(t, "planner.max_meals_per_day", envKey("KITCHEN_PLANNER_MAX_MEALS_PER_DAY"))
	assert.Equal(t, "debug", envKey("KITCHEN_DEBUG"))
}
