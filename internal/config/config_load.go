package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults + env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("BLIMSEY_MODEL", &c.Model.Name)
	envStr("BLIMSEY_OLLAMA_URL", &c.Model.OllamaURL)
	envStr("BLIMSEY_TELEGRAM_TOKEN", &c.Channels.Telegram.Token)
	envStr("BLIMSEY_DISCORD_TOKEN", &c.Channels.Discord.Token)
	envStr("BLIMSEY_DATA_DIR", &c.DataDir)

	if v := os.Getenv("BLIMSEY_DEBOUNCE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Turns.DebounceSeconds = n
		}
	}

	// Auto-enable channels when credentials arrive via env
	if c.Channels.Telegram.Token != "" {
		c.Channels.Telegram.Enabled = true
	}
	if c.Channels.Discord.Token != "" {
		c.Channels.Discord.Enabled = true
	}
}
