package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the optional per-workspace config file.
const FileName = "lune.yml"

// Config models lune.yml.
type Config struct {
	Store struct {
		Backend   string `yaml:"backend"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		Namespace string `yaml:"namespace"`
		File      string `yaml:"file"`
	} `yaml:"store"`
	Ledger struct {
		VerifyDelay time.Duration `yaml:"verify_delay"`
	} `yaml:"ledger"`
	Mood struct {
		Names map[int]string `yaml:"names"`
	} `yaml:"mood"`
	Reflection struct {
		URL     string        `yaml:"url"`
		AnonKey string        `yaml:"anon_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"reflection"`
	Entitlement struct {
		BaseURL   string   `yaml:"base_url"`
		APIKey    string   `yaml:"api_key"`
		AppUserID string   `yaml:"app_user_id"`
		IDs       []string `yaml:"ids"`
	} `yaml:"entitlement"`
	Reminder struct {
		Timezone string `yaml:"timezone"`
		Hour     int    `yaml:"hour"`
	} `yaml:"reminder"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

var backends = map[string]bool{"sqlite": true, "redis": true, "file": true, "memory": true}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if !backends[c.Store.Backend] {
		return fmt.Errorf("config.store.backend must be one of sqlite, redis, file, memory (got %q)", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		return fmt.Errorf("config.store.redis_addr is required for the redis backend")
	}
	if c.Ledger.VerifyDelay < 0 {
		return fmt.Errorf("config.ledger.verify_delay must not be negative")
	}
	for code, name := range c.Mood.Names {
		if code < 1 {
			return fmt.Errorf("config.mood.names has invalid mood code %d", code)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config.mood.names has empty name for mood %d", code)
		}
	}
	if c.Reflection.URL != "" || c.Reflection.AnonKey != "" {
		if err := validateReflection(c.Reflection.URL, c.Reflection.AnonKey); err != nil {
			return err
		}
	}
	if c.Reflection.Timeout <= 0 {
		return fmt.Errorf("config.reflection.timeout must be positive")
	}
	for _, id := range c.Entitlement.IDs {
		if id == "" {
			return fmt.Errorf("config.entitlement.ids contains an empty id")
		}
	}
	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		return fmt.Errorf("config.reminder.hour must be between 0 and 23")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config.reminder.timezone: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config.log.level: %w", err)
	}
	return nil
}

// validateReflection mirrors the checks the reflection endpoint needs: an
// https URL and a plausible anon key.
func validateReflection(raw, key string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("config.reflection.url %q is not a valid URL", raw)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("config.reflection.url must use https")
	}
	if len(key) < 10 {
		return fmt.Errorf("config.reflection.anon_key is missing or too short")
	}
	return nil
}

// ReflectionConfigured reports whether the reflection service can be called.
func (c *Config) ReflectionConfigured() bool {
	return c.Reflection.URL != "" && c.Reflection.AnonKey != ""
}

// Location resolves the reminder timezone; empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Reminder.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Reminder.Timezone)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses config from raw YAML bytes over the defaults and validates it.
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

// LoadOptional returns the defaults if the workspace has no config file.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Load reads the workspace config, then applies any keys set in v (flags,
// LUNE_* environment variables and their aliases) and validates the result.
func Load(workspace string, v *viper.Viper) (*Config, error) {
	cfg, err := LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if v != nil {
		cfg.applyOverrides(v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyOverrides(v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	str("store.backend", &c.Store.Backend)
	str("store.redis_addr", &c.Store.RedisAddr)
	str("store.namespace", &c.Store.Namespace)
	str("store.file", &c.Store.File)
	if v.IsSet("store.redis_db") {
		c.Store.RedisDB = v.GetInt("store.redis_db")
	}
	dur("ledger.verify_delay", &c.Ledger.VerifyDelay)
	str("reflection.url", &c.Reflection.URL)
	str("reflection.anon_key", &c.Reflection.AnonKey)
	dur("reflection.timeout", &c.Reflection.Timeout)
	str("entitlement.base_url", &c.Entitlement.BaseURL)
	str("entitlement.api_key", &c.Entitlement.APIKey)
	str("entitlement.app_user_id", &c.Entitlement.AppUserID)
	if v.IsSet("entitlement.ids") {
		c.Entitlement.IDs = v.GetStringSlice("entitlement.ids")
	}
	str("reminder.timezone", &c.Reminder.Timezone)
	if v.IsSet("reminder.hour") {
		c.Reminder.Hour = v.GetInt("reminder.hour")
	}
	if v.IsSet("mood.names") {
		c.Mood.Names = mergeMoodNames(c.Mood.Names, v.GetStringMapString("mood.names"))
	}
	str("log.level", &c.Log.Level)
}

// mergeMoodNames overlays names keyed by mood code onto base. A key that is
// not a number maps to code 0 so Validate reports it.
func mergeMoodNames(base map[int]string, overrides map[string]string) map[int]string {
	merged := make(map[int]string, len(base)+len(overrides))
	for code, name := range base {
		merged[code] = name
	}
	for key, name := range overrides {
		code, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			code = 0
		}
		merged[code] = name
	}
	return merged
}

// BindEnv registers the environment aliases understood besides the LUNE_
// prefixed names.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv("reflection.url", "LUNE_REFLECTION_URL", "SUPABASE_URL", "EXPO_PUBLIC_SUPABASE_URL")
	_ = v.BindEnv("reflection.anon_key", "LUNE_REFLECTION_ANON_KEY", "SUPABASE_ANON_KEY", "EXPO_PUBLIC_SUPABASE_ANON_KEY")
	_ = v.BindEnv("entitlement.api_key", "LUNE_ENTITLEMENT_API_KEY", "REVENUECAT_API_KEY")
}

const defaultTemplate = `store:
  backend: sqlite
  namespace: "lune:"

ledger:
  verify_delay: 100ms

mood:
  names:
    1: Red
    2: Purple
    3: Blue
    4: Green
    5: Yellow

reflection:
  timeout: 30s

entitlement:
  base_url: https://api.revenuecat.com
  app_user_id: local-user
  ids: [premium, pro, Premium, premium_access]

reminder:
  hour: 9

log:
  level: info
`
