// Package config manages the global (~/.config/studybuddy/config.toml)
// configuration and data paths for studybuddy.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// GlobalConfig holds user-wide settings.
type GlobalConfig struct {
	DefaultModel string           `toml:"default_model"`
	SessionKey   string           `toml:"session_key"`
	Keys         KeysConfig       `toml:"keys"`
	Ollama       OllamaConfig     `toml:"ollama"`
	Quiz         QuizConfig       `toml:"quiz"`
	Compaction   CompactionConfig `toml:"compaction"`
	Context      ContextConfig    `toml:"context"`
	Output       OutputConfig     `toml:"output"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic"`
	OpenAI    string `toml:"openai"`
	Gemini    string `toml:"gemini"`
}

type OllamaConfig struct {
	Host            string `toml:"host"`
	CompletionModel string `toml:"completion_model"`
}

// QuizConfig controls question generation defaults.
type QuizConfig struct {
	Difficulty     string  `toml:"difficulty"`      // easy, medium, hard
	Format         string  `toml:"format"`          // free-text, multiple-choice
	MatchThreshold float64 `toml:"match_threshold"` // minimum similarity for answer-key repair
}

// CompactionConfig controls chat-history summarization.
type CompactionConfig struct {
	Threshold  int `toml:"threshold"`   // compact only above this many messages
	KeepRecent int `toml:"keep_recent"` // raw messages kept after the summary
}

// ContextConfig holds the per-caller token budgets applied when a
// generation call embeds the assembled study context in its prompt.
type ContextConfig struct {
	ChatTokenBudget  int `toml:"chat_token_budget"`
	QuizTokenBudget  int `toml:"quiz_token_budget"`
	GradeTokenBudget int `toml:"grade_token_budget"`
}

type OutputConfig struct {
	Verbose bool `toml:"verbose"`
}

// DefaultGlobal returns sensible defaults.
func DefaultGlobal() GlobalConfig {
	return GlobalConfig{
		DefaultModel: "gemini",
		SessionKey:   "default",
		Ollama: OllamaConfig{
			Host:            "http://localhost:11434",
			CompletionModel: "llama3.2",
		},
		Quiz: QuizConfig{
			Difficulty:     "medium",
			Format:         "multiple-choice",
			MatchThreshold: 0.8,
		},
		Compaction: CompactionConfig{
			Threshold:  5,
			KeepRecent: 3,
		},
		Context: ContextConfig{
			ChatTokenBudget:  24000,
			QuizTokenBudget:  12000,
			GradeTokenBudget: 5000,
		},
	}
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "studybuddy", "config.toml"), nil
}

// DataDir returns the directory holding the session database.
// STUDYBUDDY_HOME overrides the default ~/.local/share/studybuddy.
func DataDir() (string, error) {
	if dir := os.Getenv("STUDYBUDDY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "studybuddy"), nil
}

// DBPath returns the path to the session SQLite database.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studybuddy.db"), nil
}

// LoadGlobal loads the global config, applying defaults for any missing values.
func LoadGlobal() (GlobalConfig, error) {
	cfg := DefaultGlobal()

	path, err := GlobalConfigPath()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine home dir.
	}

	return loadFrom(path, cfg)
}

// loadFrom decodes the config at path over cfg and applies env overrides.
func loadFrom(path string, cfg GlobalConfig) (GlobalConfig, error) {
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load global: %w", err)
		}
	}

	// Let env vars override config file API keys.
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Keys.Anthropic = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Keys.OpenAI = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Keys.Gemini = v
	}

	return cfg, nil
}

// SaveGlobal writes the global config to disk.
func SaveGlobal(cfg GlobalConfig) error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create global config: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// APIKey returns the configured API key for the given provider.
func (c GlobalConfig) APIKey(provider string) string {
	switch provider {
	case "claude":
		return c.Keys.Anthropic
	case "openai":
		return c.Keys.OpenAI
	case "gemini":
		return c.Keys.Gemini
	default:
		return ""
	}
}
