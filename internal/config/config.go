package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when PROJECTDESK_CONFIG is not set.
const DefaultPath = "config/config.yaml"

type FilesConfig struct {
	RootDir  string `yaml:"root_dir"`
	FontPath string `yaml:"font_path"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Migrate         bool          `yaml:"migrate"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	AccessTTL time.Duration `yaml:"access_ttl"`
}

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// DigestConfig controls the overdue assignment digest worker.
type DigestConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	MaxItems int           `yaml:"max_items"`
}

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Auth     AuthConfig     `yaml:"auth"`
	Telegram TelegramConfig `yaml:"telegram"`
	Files    FilesConfig    `yaml:"files"`
	Digest   DigestConfig   `yaml:"digest"`
}

// LoadConfig reads the file named by PROJECTDESK_CONFIG, or DefaultPath.
func LoadConfig() (*Config, error) {
	path := os.Getenv("PROJECTDESK_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("%s: auth.jwt_secret is required", path)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = 15 * time.Minute
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Digest.Interval == 0 {
		c.Digest.Interval = 24 * time.Hour
	}
	if c.Digest.MaxItems == 0 {
		c.Digest.MaxItems = 50
	}
}
