package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notetidy/internal/summary"
	"github.com/starford/notetidy/internal/tidy"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	Settings SettingsConfig    `yaml:"settings"`
	Summary  SummaryConfig     `yaml:"summary"`
	Strip    StripConfig       `yaml:"strip"`
	Section  SectionConfig     `yaml:"section"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Summary.Validate(); err != nil {
		return err
	}
	if err := c.Strip.Validate(); err != nil {
		return err
	}
	if err := c.Section.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory and the watcher settings.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
	// SelfWriteQuiet is how long a note written by notetidy is not treated as new.
	SelfWriteQuiet time.Duration `yaml:"self_write_quiet"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.SelfWriteQuiet, validation.Min(time.Duration(0))),
	)
}

// SettingsConfig points at the user-editable settings file and seeds it.
// TargetFolder and APIKey are only used while the file does not exist yet.
type SettingsConfig struct {
	File         string `yaml:"file"`
	TargetFolder string `yaml:"target_folder"`
	APIKey       string `yaml:"api_key"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.File, validation.Required),
	)
}

// SummaryConfig configures the chat-completion endpoint.
type SummaryConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	SystemPrompt      string        `yaml:"system_prompt"`
	PromptTemplate    string        `yaml:"prompt_template"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown"`
}

// Validate validates the summary configuration.
func (c *SummaryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RequestsPerMinute, validation.Min(0)),
		validation.Field(&c.BreakerCooldown, validation.Min(time.Duration(0))),
	)
}

// Client returns the summary client configuration.
func (c *SummaryConfig) Client(apiKey string) summary.Config {
	return summary.Config{
		APIKey:            apiKey,
		BaseURL:           c.BaseURL,
		Model:             c.Model,
		SystemPrompt:      c.SystemPrompt,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.RequestsPerMinute,
		BreakerFailures:   c.BreakerFailures,
		BreakerCooldown:   c.BreakerCooldown,
	}
}

// StripConfig configures the strip pass that follows note creation.
type StripConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// Validate validates the strip configuration.
func (c *StripConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Delay, validation.Required, validation.Min(time.Millisecond)),
	)
}

// SectionConfig configures the summary section.
type SectionConfig struct {
	Title       string `yaml:"title"`
	Placeholder string `yaml:"placeholder"`
}

// Validate validates the section configuration.
func (c *SectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Placeholder, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TidyConfig returns the tidy service configuration.
func (c *Config) TidyConfig() tidy.Config {
	return tidy.Config{
		StripDelay:     c.Strip.Delay,
		SectionTitle:   c.Section.Title,
		Placeholder:    c.Section.Placeholder,
		PromptTemplate: c.Summary.PromptTemplate,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:           "./vault",
			Watch:          true,
			SelfWriteQuiet: 2 * time.Second,
		},
		Settings: SettingsConfig{
			File: "./notetidy.settings.yaml",
		},
		Summary: SummaryConfig{
			BaseURL:         "https://api.deepseek.com/v1",
			Model:           "deepseek-chat",
			SystemPrompt:    "You are a helpful assistant.",
			PromptTemplate:  summary.DefaultPromptTemplate,
			Timeout:         60 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: time.Minute,
		},
		Strip: StripConfig{
			Delay: tidy.DefaultStripDelay,
		},
		Section: SectionConfig{
			Title:       tidy.DefaultSectionTitle,
			Placeholder: tidy.DefaultPlaceholder,
		},
		SQLite: SQLiteConfig{
			Path: "./notetidy.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
