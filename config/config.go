package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ykulikov/filedepot/database"
	depothttp "github.com/ykulikov/filedepot/http"
	"github.com/ykulikov/filedepot/s3"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for filedepot.
type Config struct {
	Server   ServerConfig         `mapstructure:"server"`
	Service  ServiceConfig        `mapstructure:"service"`
	Database database.Config      `mapstructure:"database"`
	Storage  StorageConfig        `mapstructure:"storage"`
	Auth     AuthConfig           `mapstructure:"auth"`
	CORS     depothttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// ServiceConfig holds engine-level configuration.
type ServiceConfig struct {
	DefaultSearchLimit int `mapstructure:"default_search_limit" validate:"min=1"`
	MaxSearchLimit     int `mapstructure:"max_search_limit" validate:"min=1"`
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Type string    `mapstructure:"type" validate:"required,oneof=filesystem s3"`
	Path string    `mapstructure:"path"`
	S3   s3.Config `mapstructure:"s3"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	Secret        string        `mapstructure:"secret" validate:"required"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"port":         "server.port",
	"auth-secret":  "auth.secret",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5708)
	v.SetDefault("server.max_upload_size", 0) // 0 means the parser default

	v.SetDefault("service.default_search_limit", 100)
	v.SetDefault("service.max_search_limit", 1000)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "filedepot.db")
	v.SetDefault("database.tables.files", "filedepot_files")

	v.SetDefault("storage.type", "filesystem")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("auth.token_lifetime", time.Hour)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("FILEDEPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := validateStorage(cfg.Storage); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateStorage enforces the backend-specific required fields the struct
// tags cannot express.
func validateStorage(cfg StorageConfig) error {
	switch cfg.Type {
	case "filesystem":
		if cfg.Path == "" {
			return errors.New("validate config: storage.path is required for the filesystem backend")
		}
	case "s3":
		if cfg.S3.Bucket == "" {
			return errors.New("validate config: storage.s3.bucket is required for the s3 backend")
		}
		if cfg.S3.Region == "" {
			return errors.New("validate config: storage.s3.region is required for the s3 backend")
		}
	}
	return nil
}
