package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hometasks/internal/gateway"
)

// DefaultPath is read when no config file is given. It may be absent.
const DefaultPath = "hometasks.yml"

// EnvPrefix prefixes every environment override, e.g. HOMETASKS_AUTH_PASSWORD.
const EnvPrefix = "HOMETASKS"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
	Auth   AuthConfig   `mapstructure:"auth" yaml:"auth" json:"auth"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store" json:"store"`
	Log    LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
	Tasks  TasksConfig  `mapstructure:"tasks" yaml:"tasks" json:"tasks"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
	// DevStatic serves ./static from disk instead of the embedded copy.
	DevStatic bool `mapstructure:"dev_static" yaml:"dev_static" json:"dev_static"`
}

type AuthConfig struct {
	// Password gates the whole app. Empty disables the gate.
	Password     string        `mapstructure:"password" yaml:"password" json:"-"`
	CookieName   string        `mapstructure:"cookie_name" yaml:"cookie_name" json:"cookie_name"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" yaml:"session_ttl" json:"session_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure" yaml:"cookie_secure" json:"cookie_secure"`
}

type StoreConfig struct {
	Backend string       `mapstructure:"backend" yaml:"backend" json:"backend"`
	Path    string       `mapstructure:"path" yaml:"path" json:"path"`
	Driver  string       `mapstructure:"driver" yaml:"driver" json:"driver"`
	DSN     string       `mapstructure:"dsn" yaml:"dsn" json:"-"`
	Table   string       `mapstructure:"table" yaml:"table" json:"table"`
	Sheets  SheetsConfig `mapstructure:"sheets" yaml:"sheets" json:"sheets"`
}

type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id" json:"spreadsheet_id"`
	Range           string `mapstructure:"range" yaml:"range" json:"range"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file" json:"credentials_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

type TasksConfig struct {
	// Timezone is an IANA name; "today" is read in it. Empty means local time.
	Timezone              string `mapstructure:"timezone" yaml:"timezone" json:"timezone"`
	DefaultRecurrenceDays int    `mapstructure:"default_recurrence_days" yaml:"default_recurrence_days" json:"default_recurrence_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.dev_static", false)
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.cookie_name", "hometasks_session")
	v.SetDefault("auth.session_ttl", "720h")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "data/tasks.csv")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "tasks")
	v.SetDefault("store.sheets.spreadsheet_id", "")
	v.SetDefault("store.sheets.range", "Sheet1")
	v.SetDefault("store.sheets.credentials_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tasks.timezone", "")
	v.SetDefault("tasks.default_recurrence_days", 30)
}

// ApplyDefaults fills zero values left by a partially populated Config.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "hometasks_session"
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 30 * 24 * time.Hour
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Backend == "file" && c.Store.Path == "" {
		c.Store.Path = "data/tasks.csv"
	}
	if c.Store.Table == "" {
		c.Store.Table = "tasks"
	}
	if c.Store.Sheets.Range == "" {
		c.Store.Sheets.Range = "Sheet1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Tasks.DefaultRecurrenceDays == 0 {
		c.Tasks.DefaultRecurrenceDays = 30
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for postgres", ErrInvalid)
		}
	case "sheets":
		if c.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("%w: store.sheets.spreadsheet_id is required for sheets", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalid, c.Store.Backend)
	}
	if c.Tasks.DefaultRecurrenceDays < 1 {
		return fmt.Errorf("%w: tasks.default_recurrence_days must be at least 1", ErrInvalid)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: tasks.timezone: %w", ErrInvalid, err)
	}
	return nil
}

// Location resolves tasks.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Tasks.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Tasks.Timezone)
}

// GatewayOptions maps the store section onto gateway.Open.
func (c *Config) GatewayOptions() gateway.Options {
	return gateway.Options{
		Backend:         c.Store.Backend,
		Path:            c.Store.Path,
		DSN:             c.Store.DSN,
		Table:           c.Store.Table,
		SpreadsheetID:   c.Store.Sheets.SpreadsheetID,
		Range:           c.Store.Sheets.Range,
		CredentialsFile: c.Store.Sheets.CredentialsFile,
	}
}

// Load reads path (or DefaultPath when empty) and applies HOMETASKS_*
// environment overrides. A missing default file is not an error; a missing
// explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
