// Package config loads the bot configuration: a JSON5 config file overlaid with
// environment variables, plus the auxiliary read-only text inputs (prompt
// template, trigger-keyword list) the turn pipeline consumes.
package config

// Config is the root configuration.
type Config struct {
	Model    ModelConfig    `json:"model"`
	Channels ChannelsConfig `json:"channels"`
	Turns    TurnsConfig    `json:"turns"`
	Profile  ProfileConfig  `json:"profile"`
	Memory   MemoryConfig   `json:"memory"`
	Store    StoreConfig    `json:"store"`
	DataDir  string         `json:"data_dir,omitempty"`
}

// ModelConfig configures the generation backend.
type ModelConfig struct {
	Name      string `json:"name,omitempty"`       // e.g. "llama3.2:3b"
	OllamaURL string `json:"ollama_url,omitempty"` // base URL of the Ollama server
	PromptFile string `json:"prompt_file,omitempty"` // persona template; embedded default when absent
}

// ChannelsConfig holds per-channel settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram,omitempty"`
	Discord  DiscordConfig  `json:"discord,omitempty"`
}

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled,omitempty"`
	Token     string   `json:"token,omitempty"`
	AllowFrom []string `json:"allow_from,omitempty"` // empty = open
}

// DiscordConfig configures the Discord channel.
type DiscordConfig struct {
	Enabled   bool     `json:"enabled,omitempty"`
	Token     string   `json:"token,omitempty"`
	AllowFrom []string `json:"allow_from,omitempty"`
}

// TurnsConfig tunes the per-user turn scheduler.
type TurnsConfig struct {
	DebounceSeconds    int `json:"debounce_seconds,omitempty"`     // quiet period before a turn fires
	LockTimeoutSeconds int `json:"lock_timeout_seconds,omitempty"` // watchdog for stuck generations
	MaxResponseChars   int `json:"max_response_chars,omitempty"`   // generation output cap
	RecentInteractions int `json:"recent_interactions,omitempty"`  // turns of history injected into the prompt
	RateLimitPerMinute int `json:"rate_limit_per_minute,omitempty"` // per-sender inbound cap (0 = off)
}

// ProfileConfig tunes the profile merge engine.
type ProfileConfig struct {
	KeywordsFile string   `json:"keywords_file,omitempty"` // trigger phrases, one per line, # comments
	Sentinels    []string `json:"sentinels,omitempty"`     // "not provided" values dropped during merge
}

// MemoryConfig configures the semantic memory store.
type MemoryConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	Path       string `json:"path,omitempty"`        // chromem persistence dir; empty = in-memory
	EmbedModel string `json:"embed_model,omitempty"` // Ollama embedding model
}

// StoreConfig selects the persistence backend for profiles and interaction logs.
type StoreConfig struct {
	Backend string `json:"backend,omitempty"` // "file" (default) or "sqlite"
	Path    string `json:"path,omitempty"`    // sqlite database path
}

// Default returns a Config with the original bot's defaults.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:       "llama3.2:3b",
			OllamaURL:  "http://localhost:11434",
			PromptFile: "prompt.txt",
		},
		Turns: TurnsConfig{
			DebounceSeconds:    5,
			LockTimeoutSeconds: 1000,
			MaxResponseChars:   4000,
			RecentInteractions: 5,
			RateLimitPerMinute: 30,
		},
		Profile: ProfileConfig{
			KeywordsFile: "keywords.txt",
			Sentinels:    []string{"no se proporcionó", "not provided"},
		},
		Memory: MemoryConfig{
			Enabled:    true,
			EmbedModel: "nomic-embed-text",
		},
		Store: StoreConfig{
			Backend: "file",
		},
		DataDir: "./data",
	}
}
