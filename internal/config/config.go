// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/quill/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// Config represents the complete quill configuration.
type Config struct {
	// Provider selects the streaming backend: ollama, openai or echo
	Provider string `toml:"provider" json:"provider"`

	Ollama     OllamaConfig     `toml:"ollama" json:"ollama"`
	OpenAI     OpenAIConfig     `toml:"openai" json:"openai"`
	Typewriter TypewriterConfig `toml:"typewriter" json:"typewriter"`
	Chat       ChatConfig       `toml:"chat" json:"chat"`
	UI         UIConfig         `toml:"ui" json:"ui"`
	Log        LogConfig        `toml:"log" json:"log"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
}

// OllamaConfig holds settings for the local Ollama server.
type OllamaConfig struct {
	URL   string `toml:"url" json:"url"`
	Model string `toml:"model" json:"model"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL string `toml:"base_url" json:"base_url"`
	APIKey  string `toml:"api_key" json:"api_key"`
	Model   string `toml:"model" json:"model"`
}

// TypewriterConfig tunes the reveal animation.
type TypewriterConfig struct {
	MinStep   int `toml:"min_step" json:"min_step"`
	MaxStep   int `toml:"max_step" json:"max_step"`
	FrameRate int `toml:"frame_rate" json:"frame_rate"`
	GraceMs   int `toml:"grace_ms" json:"grace_ms"`
}

// GracePeriod returns the grace delay as a duration.
func (t TypewriterConfig) GracePeriod() time.Duration {
	return time.Duration(t.GraceMs) * time.Millisecond
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant replies with glamour
	Markdown bool `toml:"markdown" json:"markdown"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

// StorageConfig holds transcript storage settings.
type StorageConfig struct {
	Dir string `toml:"dir" json:"dir"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderOllama,
		Ollama: OllamaConfig{
			URL:   "http://127.0.0.1:11434",
			Model: "llama3.2",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Typewriter: TypewriterConfig{
			MinStep:   1,
			MaxStep:   3,
			FrameRate: 60,
			GraceMs:   500,
		},
		UI: UIConfig{
			Theme:    "auto",
			Markdown: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the quill configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("QUILL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".quill"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Path returns the config file that Load would read, or the TOML path when
// neither exists.
func Path() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		// Return defaults with the load error for informational purposes
		fallback, ferr := finish(Default())
		if ferr != nil {
			return nil, ferr
		}
		return fallback, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// finish applies env overrides, defaults and validation in that order.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Config files may hold an API key so they are written 0600.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# quill configuration file\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderEcho:
	default:
		errs = append(errs, ValidationError{
			Field:   "provider",
			Message: fmt.Sprintf("must be one of ollama, openai, echo (got %q)", c.Provider),
		})
	}

	if err := validateURL(c.Ollama.URL); err != nil {
		errs = append(errs, ValidationError{Field: "ollama.url", Message: err.Error()})
	}
	if c.Provider == ProviderOpenAI {
		if err := validateURL(c.OpenAI.BaseURL); err != nil {
			errs = append(errs, ValidationError{Field: "openai.base_url", Message: err.Error()})
		}
	}

	tw := c.Typewriter
	if tw.MinStep < 1 {
		errs = append(errs, ValidationError{Field: "typewriter.min_step", Message: "must be at least 1"})
	}
	if tw.MaxStep < tw.MinStep {
		errs = append(errs, ValidationError{Field: "typewriter.max_step", Message: "must be >= min_step"})
	}
	if tw.FrameRate < 1 || tw.FrameRate > 240 {
		errs = append(errs, ValidationError{Field: "typewriter.frame_rate", Message: "must be between 1 and 240"})
	}
	if tw.GraceMs < 0 || tw.GraceMs > 10000 {
		errs = append(errs, ValidationError{Field: "typewriter.grace_ms", Message: "must be between 0 and 10000"})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{Field: "ui.theme", Message: "must be auto, dark or light"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	c.Provider = strings.ToLower(c.Provider)

	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = defaults.Ollama.Model
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaults.OpenAI.BaseURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaults.OpenAI.Model
	}

	if c.Typewriter.MinStep == 0 {
		c.Typewriter.MinStep = defaults.Typewriter.MinStep
	}
	if c.Typewriter.MaxStep == 0 {
		c.Typewriter.MaxStep = defaults.Typewriter.MaxStep
	}
	if c.Typewriter.FrameRate == 0 {
		c.Typewriter.FrameRate = defaults.Typewriter.FrameRate
	}
	if c.Typewriter.GraceMs == 0 {
		c.Typewriter.GraceMs = defaults.Typewriter.GraceMs
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}

	if dir, err := ConfigDir(); err == nil {
		if c.Log.File == "" {
			c.Log.File = filepath.Join(dir, "quill.log")
		}
		if c.Storage.Dir == "" {
			c.Storage.Dir = filepath.Join(dir, "transcripts")
		}
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies QUILL_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	// QUILL_PROVIDER
	if provider := os.Getenv("QUILL_PROVIDER"); provider != "" {
		c.Provider = provider
	}

	// QUILL_MODEL applies to whichever provider is active
	if model := os.Getenv("QUILL_MODEL"); model != "" {
		c.Ollama.Model = model
		c.OpenAI.Model = model
	}

	// QUILL_OLLAMA_URL
	if u := os.Getenv("QUILL_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}

	// QUILL_OPENAI_KEY, falling back to the conventional OPENAI_API_KEY
	if key := os.Getenv("QUILL_OPENAI_KEY"); key != "" {
		c.OpenAI.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = key
	}

	// QUILL_LOG_LEVEL
	if level := os.Getenv("QUILL_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a JSON representation with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.OpenAI.APIKey != "" {
		safe.OpenAI.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
