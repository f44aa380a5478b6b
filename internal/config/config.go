package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models agenda.yml.
type Config struct {
	Office struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"office"`
	Deadlines struct {
		EnrollmentLeadDays int `yaml:"enrollment_lead_days"`
		AppealWindowDays   int `yaml:"appeal_window_days"`
	} `yaml:"deadlines"`
	Sweep struct {
		Hour        int  `yaml:"hour"`
		HealthCheck bool `yaml:"health_check"`
	} `yaml:"sweep"`
	Notifications struct {
		Recipients []string      `yaml:"recipients"`
		Mode       string        `yaml:"mode"`
		SMTP       SMTPConfig    `yaml:"smtp"`
		Webhook    WebhookConfig `yaml:"webhook"`
	} `yaml:"notifications"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type WebhookConfig struct {
	URL            string `yaml:"url"`
	Secret         string `yaml:"secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run agenda config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace, officeID string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(officeID), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Office.ID == "" {
		return fmt.Errorf("config.office.id is required")
	}
	if c.Deadlines.EnrollmentLeadDays <= 0 {
		return fmt.Errorf("config.deadlines.enrollment_lead_days must be positive")
	}
	if c.Deadlines.AppealWindowDays <= 0 {
		return fmt.Errorf("config.deadlines.appeal_window_days must be positive")
	}
	if c.Sweep.Hour < 0 || c.Sweep.Hour > 23 {
		return fmt.Errorf("config.sweep.hour must be in 0..23")
	}
	switch c.Notifications.Mode {
	case "", "log", "smtp", "webhook":
	default:
		return fmt.Errorf("config.notifications.mode must be log, smtp or webhook")
	}
	if c.Notifications.Mode == "smtp" {
		if c.Notifications.SMTP.Host == "" || c.Notifications.SMTP.From == "" {
			return fmt.Errorf("config.notifications.smtp.host and from are required for smtp mode")
		}
	}
	if c.Notifications.Mode == "webhook" && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("config.notifications.webhook.url is required for webhook mode")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "agenda.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(officeID string) string {
	return fmt.Sprintf(defaultTemplate, officeID)
}

// Default returns the default Config struct for an office.
func Default(officeID string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, officeID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const defaultTemplate = `office:
  id: %s
  name: Law Office

deadlines:
  # Enrollment reminders fire this many business days before the hearing.
  enrollment_lead_days: 4
  # Appeal deadlines default to this many calendar days after deliberation.
  appeal_window_days: 10

sweep:
  # Hour of day (local) for the daily unreported-hearing sweep.
  hour: 6
  # Hourly read-only count of lapsed hearings, logged for observability.
  health_check: true

notifications:
  mode: log
  recipients: []
  smtp:
    host: ""
    port: 587
    from: ""
    username: ""
    password: ""
  webhook:
    url: ""
    secret: ""
    timeout_seconds: 5
`
