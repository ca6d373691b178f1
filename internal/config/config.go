// Package config loads service configuration from an optional YAML file and
// RECYCLEBIN_* environment variables.
//
// Precedence (highest to lowest): environment, config file, defaults.
// Example: RECYCLEBIN_STORAGE_DRIVER=badger, RECYCLEBIN_TRASH_ENTITIES=products,users
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "RECYCLEBIN"

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

// Config is the root configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Trash    TrashConfig    `mapstructure:"trash"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Env             string        `mapstructure:"env" validate:"oneof=development production test"`
	HTTPAddr        string        `mapstructure:"http_addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"omitempty,oneof=json console"`
}

type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	MaxConns         int32         `mapstructure:"max_conns" validate:"gte=1"`
	MinConns         int32         `mapstructure:"min_conns" validate:"gte=0"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout" validate:"gte=0"`
	AuditEnabled     bool          `mapstructure:"audit_enabled"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=postgres badger memory"`
	BadgerPath string `mapstructure:"badger_path"`
	InMemory   bool   `mapstructure:"in_memory"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret" validate:"omitempty,min=16"`
	Issuer       string `mapstructure:"issuer"`
	RequiredRole string `mapstructure:"required_role" validate:"required"`
}

type TrashConfig struct {
	Entities        []string      `mapstructure:"entities" validate:"min=1,dive,required"`
	DefaultPageSize int           `mapstructure:"default_page_size" validate:"gte=1"`
	MaxPageSize     int           `mapstructure:"max_page_size" validate:"gte=1,gtefield=DefaultPageSize"`
	ItemTimeout     time.Duration `mapstructure:"item_timeout" validate:"gte=0"`
	MaxBulkIDs      int           `mapstructure:"max_bulk_ids" validate:"gte=1"`
	RestorePolicy   string        `mapstructure:"restore_policy"`
}

// Load reads configuration. An empty path loads ./config.yaml when present;
// a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct tags and cross-section rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	case DriverBadger:
		if cfg.Storage.BadgerPath == "" && !cfg.Storage.InMemory {
			return errors.New("storage.badger_path is required unless storage.in_memory is set")
		}
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// setDefaults registers every key so AutomaticEnv can override keys that the
// config file does not mention.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "recyclebin")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_addr", ":8080")
	v.SetDefault("app.read_timeout", "15s")
	v.SetDefault("app.write_timeout", "60s")
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.statement_timeout", "30s")
	v.SetDefault("database.audit_enabled", true)

	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.badger_path", "")
	v.SetDefault("storage.in_memory", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "recyclebin")
	v.SetDefault("jwt.required_role", "admin")

	v.SetDefault("trash.entities", []string{"products", "users", "categories", "brands"})
	v.SetDefault("trash.default_page_size", 10)
	v.SetDefault("trash.max_page_size", 100)
	v.SetDefault("trash.item_timeout", "5s")
	v.SetDefault("trash.max_bulk_ids", 1000)
	v.SetDefault("trash.restore_policy", "")
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
		trimSliceHook(),
	)
}

// durationDecodeHook accepts "30s"-style strings and raw nanosecond numbers.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// trimSliceHook strips blanks around comma-separated list items.
func trimSliceHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		items, ok := data.([]string)
		if !ok || to.Kind() != reflect.Slice {
			return data, nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	}
}
