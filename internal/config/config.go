// Package config loads application settings from defaults, an optional
// config file, a .env file and COURSEPATH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/coursepath/internal/llm"
	"github.com/abhisek/coursepath/internal/logging"
	"github.com/abhisek/coursepath/internal/store"
	"github.com/abhisek/coursepath/internal/syncer"
)

// EnvPrefix prefixes every environment override, e.g. COURSEPATH_SERVER_ADDR.
const EnvPrefix = "COURSEPATH"

const (
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

// Config is the full application configuration.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr" validate:"required"`
	} `mapstructure:"server"`

	Database struct {
		Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
		// DSN is a file path for sqlite; empty uses the default data dir.
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	ProgressBackend string `mapstructure:"progress_backend" validate:"oneof=sql redis"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db" validate:"min=0"`
	} `mapstructure:"redis"`

	Sync struct {
		Debounce    time.Duration `mapstructure:"debounce" validate:"min=0"`
		PushTimeout time.Duration `mapstructure:"push_timeout" validate:"min=0"`
	} `mapstructure:"sync"`

	Logging logging.Config `mapstructure:"logging"`

	Remote struct {
		BaseURL string        `mapstructure:"base_url" validate:"required,url"`
		Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
	} `mapstructure:"remote"`

	Cache struct {
		// Dir is empty for the XDG default.
		Dir string `mapstructure:"dir"`
	} `mapstructure:"cache"`

	Learner struct {
		ID string `mapstructure:"id"`
	} `mapstructure:"learner"`

	Retention struct {
		// LLMEvents is how long LLM request events are kept; 0 keeps them.
		LLMEvents time.Duration `mapstructure:"llm_events" validate:"min=0"`
		Interval  time.Duration `mapstructure:"interval" validate:"min=0"`
	} `mapstructure:"retention"`

	LLM llm.Config `mapstructure:"llm"`
}

// RedisConfig returns the redis section in store form.
func (c *Config) RedisConfig() store.RedisConfig {
	return store.RedisConfig{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("database.driver", store.DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("progress_backend", BackendSQL)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("sync.debounce", syncer.DefaultDelay)
	v.SetDefault("sync.push_timeout", syncer.DefaultPushTimeout)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.env", "development")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("remote.base_url", "http://127.0.0.1:8787")
	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("cache.dir", "")
	v.SetDefault("learner.id", "")
	v.SetDefault("retention.llm_events", 30*24*time.Hour)
	v.SetDefault("retention.interval", time.Hour)

	// llm.* keys need defaults so AutomaticEnv can override them on Unmarshal.
	d := llm.DefaultConfig()
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", d.OpenRouter.BaseURL)
	v.SetDefault("llm.openrouter.site_url", "")
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.Retry.Multiplier)
}

// Load reads the configuration. path may be empty, in which case
// coursepath.yaml is looked up in the working directory and the user config
// dir; a missing file is not an error. A .env file in the working directory
// is loaded first without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("coursepath")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "coursepath"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports every violation by its
// config key.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.Struct(c)
	if err == nil {
		return c.validateBackend()
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	var msg []string
	for _, fe := range verrs {
		ns := fe.Namespace()
		key := ns[strings.IndexByte(ns, '.')+1:]
		switch fe.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", key))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", key, fe.Param()))
		case "url":
			msg = append(msg, fmt.Sprintf("%s must be a URL", key))
		default:
			msg = append(msg, fmt.Sprintf("%s failed %q check", key, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config:\n  %s", strings.Join(msg, "\n  "))
}

func (c *Config) validateBackend() error {
	if c.ProgressBackend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config:\n  redis.addr is required when progress_backend is redis")
	}
	return nil
}
