package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models dispatch.yml.
type Config struct {
	Schedule ScheduleConfig  `yaml:"schedule" json:"schedule"`
	Server   ServerConfig    `yaml:"server" json:"server"`
	Webhooks []WebhookConfig `yaml:"webhooks" json:"webhooks,omitempty"`
}

type ScheduleConfig struct {
	WeekStart        string `yaml:"week_start" json:"week_start"`
	DayStartHour     int    `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour       int    `yaml:"day_end_hour" json:"day_end_hour"`
	SlotMinutes      int    `yaml:"slot_minutes" json:"slot_minutes"`
	MonthCellLimit   int    `yaml:"month_cell_limit" json:"month_cell_limit"`
	MobileBreakpoint int    `yaml:"mobile_breakpoint" json:"mobile_breakpoint"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	BasePath string `yaml:"base_path" json:"base_path"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Events         []string `yaml:"events" json:"events,omitempty"`
	Secret         string   `yaml:"secret" json:"secret,omitempty"`
	Enabled        *bool    `yaml:"enabled" json:"enabled,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds,omitempty"`
}

// WeekStartDay returns the configured first day of the week.
func (s ScheduleConfig) WeekStartDay() time.Weekday {
	if strings.EqualFold(s.WeekStart, "monday") {
		return time.Monday
	}
	return time.Sunday
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with dispatch init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	s := c.Schedule
	switch strings.ToLower(s.WeekStart) {
	case "sunday", "monday":
	default:
		return fmt.Errorf("config.schedule.week_start must be sunday or monday")
	}
	if s.DayStartHour < 0 || s.DayStartHour > 23 {
		return fmt.Errorf("config.schedule.day_start_hour must be within 0..23")
	}
	if s.DayEndHour <= s.DayStartHour || s.DayEndHour > 24 {
		return fmt.Errorf("config.schedule.day_end_hour must be after day_start_hour and at most 24")
	}
	if s.SlotMinutes <= 0 || 60%s.SlotMinutes != 0 {
		return fmt.Errorf("config.schedule.slot_minutes must divide an hour")
	}
	if s.MonthCellLimit <= 0 {
		return fmt.Errorf("config.schedule.month_cell_limit must be positive")
	}
	if s.MobileBreakpoint <= 0 {
		return fmt.Errorf("config.schedule.mobile_breakpoint must be positive")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %d has negative timeout_seconds", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dispatch.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Missing keys keep
// their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `schedule:
  # first column of the week grid
  week_start: sunday
  # day view slot grid
  day_start_hour: 8
  day_end_hour: 20
  slot_minutes: 15
  # jobs listed per month cell before "+N more"
  month_cell_limit: 2
  # viewport width (px) below which technician rows become collapsible
  mobile_breakpoint: 768

server:
  addr: 127.0.0.1:8080
  base_path: /v0

webhooks: []
`
