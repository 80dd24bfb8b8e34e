// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from
// switchboard.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dolt    DoltConfig    `yaml:"dolt"`
	LiveKit LiveKitConfig `yaml:"livekit"`
	Auth    AuthConfig    `yaml:"auth"`
	Notify  NotifyConfig  `yaml:"notify"`
	Orgs    []OrgConfig   `yaml:"orgs"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DoltConfig holds connection settings for the Dolt SQL server.
type DoltConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// LiveKitConfig holds the credential pair used to verify inbound webhooks.
// Values left empty in the file are read from LIVEKIT_API_KEY and
// LIVEKIT_API_SECRET so secrets can stay out of the config file.
type LiveKitConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// AuthConfig holds settings for magic-link sign-in issuance.
type AuthConfig struct {
	ProviderURL string `yaml:"provider_url"`
	AnonKey     string `yaml:"anon_key"`
	SiteURL     string `yaml:"site_url"`
}

// NotifyConfig holds chat notification settings. Platform may be "slack",
// "discord", or empty to disable notifications.
type NotifyConfig struct {
	Platform   string        `yaml:"platform"`
	Channel    string        `yaml:"channel"`
	DigestCron string        `yaml:"digest_cron"`
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds Discord credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// OrgConfig declares an organization and its webhook projects, seeded into
// the database by `swb db init`.
type OrgConfig struct {
	Slug     string          `yaml:"slug"`
	Name     string          `yaml:"name"`
	Projects []ProjectConfig `yaml:"projects"`
}

// ProjectConfig declares one webhook project slug within an organization.
type ProjectConfig struct {
	Slug   string `yaml:"slug"`
	Active *bool  `yaml:"active"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Dolt.Host == "" {
		c.Dolt.Host = "127.0.0.1"
	}
	if c.Dolt.Port == 0 {
		c.Dolt.Port = 3306
	}
	if c.Dolt.Database == "" {
		c.Dolt.Database = "switchboard"
	}
	if c.LiveKit.APIKey == "" {
		c.LiveKit.APIKey = os.Getenv("LIVEKIT_API_KEY")
	}
	if c.LiveKit.APISecret == "" {
		c.LiveKit.APISecret = os.Getenv("LIVEKIT_API_SECRET")
	}
	if c.Notify.DigestCron == "" {
		c.Notify.DigestCron = "0 8 * * *"
	}
}

// validate checks that all present fields are consistent. LiveKit credentials
// are deliberately not required here: commands that never verify webhooks
// (db init, export) run without them, and serve checks at startup.
func (c *Config) validate() error {
	var errs []string

	switch c.Notify.Platform {
	case "", "slack", "discord":
	default:
		errs = append(errs, fmt.Sprintf("notify.platform %q is not supported (use slack or discord)", c.Notify.Platform))
	}
	if c.Notify.Platform != "" && c.Notify.Channel == "" {
		errs = append(errs, "notify.channel is required when notify.platform is set")
	}

	orgSlugs := make(map[string]bool)
	projSlugs := make(map[string]bool)
	for i, org := range c.Orgs {
		if org.Slug == "" {
			errs = append(errs, fmt.Sprintf("orgs[%d].slug is required", i))
			continue
		}
		if orgSlugs[org.Slug] {
			errs = append(errs, fmt.Sprintf("duplicate org slug %q", org.Slug))
		}
		orgSlugs[org.Slug] = true
		for j, p := range org.Projects {
			if p.Slug == "" {
				errs = append(errs, fmt.Sprintf("orgs[%d].projects[%d].slug is required", i, j))
				continue
			}
			if projSlugs[p.Slug] {
				errs = append(errs, fmt.Sprintf("duplicate project slug %q", p.Slug))
			}
			projSlugs[p.Slug] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ProjectActive reports the effective active flag for a project entry
// (active defaults to true when omitted).
func (p ProjectConfig) ProjectActive() bool {
	return p.Active == nil || *p.Active
}
