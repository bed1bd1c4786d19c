package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "taskdispatch"
	configFile = "config.yaml"
	envFile    = ".env"

	ModeRules = "rules"
	ModeModel = "model"
)

// Config is the application configuration. Secrets are never written to the
// file; they come from the environment.
type Config struct {
	// Mode selects the analyzer: "rules" or "model".
	Mode string `yaml:"mode"`
	// ReferenceDate pins "today" as YYYY-MM-DD; empty means the current date.
	ReferenceDate string `yaml:"reference_date,omitempty"`
	Timezone      string `yaml:"timezone"`
	Language      string `yaml:"language"`

	Gemini GeminiConfig `yaml:"gemini"`
	Store  StoreConfig  `yaml:"store"`
	Sheets SheetsConfig `yaml:"sheets"`
	Docs   DocsConfig   `yaml:"docs"`
	Mail   MailConfig   `yaml:"mail"`
	Line   LineConfig   `yaml:"line"`
	Ingest IngestConfig `yaml:"ingest"`
	Google GoogleConfig `yaml:"google"`
}

type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"-"`
}

type StoreConfig struct {
	// Path defaults to tasks.db in the application directory.
	Path string `yaml:"path,omitempty"`
}

type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id,omitempty"`
	Range         string `yaml:"range"`
}

type DocsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MailConfig struct {
	From string `yaml:"from,omitempty"`
}

type LineConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type IngestConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	Workers      int   `yaml:"workers"`
}

type GoogleConfig struct {
	// ADC uses application default credentials instead of the OAuth flow.
	ADC bool `yaml:"adc"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Mode:     ModeRules,
		Timezone: "Asia/Taipei",
		Language: "zh-TW",
		Gemini:   GeminiConfig{Model: "gemini-2.5-flash"},
		Sheets:   SheetsConfig{Range: "A1"},
		Docs:     DocsConfig{Enabled: true},
		Line:     LineConfig{Endpoint: "https://notify-api.line.me/api/notify"},
		Ingest:   IngestConfig{MaxFileBytes: 20 << 20, Workers: 4},
	}
}

// AppDir is the directory holding the configuration, credentials, roster,
// session and database.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration file, falling back to Default when it does
// not exist, then applies .env files and environment overrides.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	// .env in the working directory, then in the app directory. Existing
	// environment variables win.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), envFile))
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GOOGLE_SHEET_ID"); v != "" {
		c.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GMAIL_USER"); v != "" {
		c.Mail.From = v
	}
	if v := os.Getenv("TASKDISPATCH_MODE"); v != "" {
		c.Mode = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate checks the fields that have a fixed set of values.
func (c *Config) Validate() error {
	if c.Mode != ModeRules && c.Mode != ModeModel {
		return fmt.Errorf("invalid mode %q: want %q or %q", c.Mode, ModeRules, ModeModel)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ReferenceDate != "" {
		if _, err := time.Parse(time.DateOnly, c.ReferenceDate); err != nil {
			return fmt.Errorf("invalid reference_date %q: %w", c.ReferenceDate, err)
		}
	}
	return nil
}

// Location resolves Timezone; empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Reference returns the reference date at midnight in the configured zone.
// Without a pinned ReferenceDate it is the date of now.
func (c *Config) Reference(now time.Time) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	if c.ReferenceDate != "" {
		return time.ParseInLocation(time.DateOnly, c.ReferenceDate, loc)
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
}

// StorePath returns the database path, defaulting into AppDir.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tasks.db"), nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
