// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configDir         = pflag.String("config", ".", "Directory that contains config.toml")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "r2", "local"}
	validDBDrivers    = []string{"sqlite", "postgres"}
	validCacheTypes   = []string{"memory", "redis"}
)

// ErrNoJWTSecret is returned when no signing secret was configured
var ErrNoJWTSecret = errors.New("jwt.secret is not set")

type Config struct {
	App        App        `mapstructure:"app"`
	Host       Host       `mapstructure:"host"`
	JWT        JWT        `mapstructure:"jwt"`
	Database   Database   `mapstructure:"database"`
	Storage    Storage    `mapstructure:"storage"`
	AWS        AWS        `mapstructure:"aws"`
	Cloudflare Cloudflare `mapstructure:"cloudflare"`
	Upload     Upload     `mapstructure:"upload"`
	Mail       Mail       `mapstructure:"mail"`
	Security   Security   `mapstructure:"security"`
	Cache      Cache      `mapstructure:"cache"`
	Redis      Redis      `mapstructure:"redis"`
}

type App struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type Host struct {
	Port        int      `mapstructure:"port"`
	Domain      string   `mapstructure:"domain"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	SSL         SSL      `mapstructure:"ssl"`
}

type SSL struct {
	Enabled            bool   `mapstructure:"enabled"`
	CertificatePath    string `mapstructure:"certificate_path"`
	CertificateKeyPath string `mapstructure:"certificate_key_path"`
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Storage struct {
	Type    string        `mapstructure:"type"`
	Timeout time.Duration `mapstructure:"timeout"`
	Local   LocalStorage  `mapstructure:"local"`
}

type LocalStorage struct {
	Root      string `mapstructure:"root"`
	PublicURL string `mapstructure:"public_url"`
}

type AWS struct {
	Region          string `mapstructure:"region"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PublicURL       string `mapstructure:"public_url"`
}

type Cloudflare struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PublicURL       string `mapstructure:"public_url"`
}

type Upload struct {
	// In MiB, MaxBytes is derived from it
	MaxSize  int64 `mapstructure:"max_size"`
	MaxBytes int64 `mapstructure:"-"`
}

type Mail struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Sender     string        `mapstructure:"sender"`
	SenderName string        `mapstructure:"sender_name"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether enough is configured to actually send mail
func (m Mail) Enabled() bool {
	return m.Host != "" && m.Username != "" && m.Password != ""
}

type Security struct {
	RateLimit int       `mapstructure:"rate_limit"`
	Turnstile Turnstile `mapstructure:"turnstile"`
}

// Turnstile is the optional Cloudflare bot check on registration
type Turnstile struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

type Cache struct {
	Type string `mapstructure:"type"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// keys lists everything that may be overridden by the environment.
// APP_LOG_LEVEL maps to app.log_level and so on.
var keys = []string{
	"app.name", "app.log_level",
	"host.port", "host.domain", "host.cors_origins",
	"host.ssl.enabled", "host.ssl.certificate_path", "host.ssl.certificate_key_path",
	"jwt.secret", "jwt.expiry",
	"database.driver", "database.dsn",
	"storage.type", "storage.timeout", "storage.local.root", "storage.local.public_url",
	"aws.region", "aws.access_key", "aws.secret_access_key", "aws.bucket", "aws.public_url",
	"cloudflare.account_id", "cloudflare.access_key_id", "cloudflare.secret_access_key",
	"cloudflare.bucket", "cloudflare.public_url",
	"upload.max_size",
	"mail.host", "mail.port", "mail.username", "mail.password", "mail.sender",
	"mail.sender_name", "mail.timeout",
	"security.rate_limit", "security.turnstile.enabled", "security.turnstile.secret",
	"cache.type",
	"redis.addr", "redis.password", "redis.db",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup parses the command line flags, loads an optional .env file and
// reads the configuration. It returns an error if something is critically
// wrong and the application can't run because of that.
func Setup() (*Config, error) {
	pflag.Parse()

	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file loaded", zap.Error(err))
	}

	return Load(*configDir)
}

// Load reads config.toml from dir (if present), applies environment
// overrides and defaults and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range keys {
		v.BindEnv(k)
	}

	//
	// Defaults
	//
	v.SetDefault("app.name", "Storagify")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 4000)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("jwt.expiry", 24*time.Hour)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.timeout", 2*time.Minute)
	v.SetDefault("storage.local.root", "media")
	v.SetDefault("storage.local.public_url", "http://localhost:4000/media")

	v.SetDefault("upload.max_size", 50)

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", 30*time.Second)

	v.SetDefault("security.rate_limit", 20)
	v.SetDefault("security.turnstile.enabled", false)

	v.SetDefault("cache.type", "memory")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Debug("No config.toml found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Upload.MaxBytes = cfg.Upload.MaxSize << 20
	return &cfg, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if c.Host.SSL.Enabled {
		if c.Host.SSL.CertificatePath == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.Host.SSL.CertificateKeyPath == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("%w. Set JWT_SECRET or jwt.secret in config.toml, for example:\n\n%s", ErrNoJWTSecret, genSecret())
	}

	if c.JWT.Expiry <= 0 {
		return errors.New("jwt.expiry must be bigger than 0")
	}

	if !slices.Contains(validDBDrivers, c.Database.Driver) {
		return errors.New("invalid database driver provided")
	}

	if c.Database.DSN == "" {
		return errors.New("database.dsn can't be empty")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if c.Storage.Timeout <= 0 {
		return errors.New("storage.timeout must be bigger than 0")
	}

	if !slices.Contains(validStorageTypes, c.Storage.Type) {
		return errors.New("invalid storage type provided")
	}

	switch c.Storage.Type {
	case "s3":
		if c.AWS.Region == "" {
			return errors.New("aws region can't be empty")
		}
		if c.AWS.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
	case "r2":
		if c.Cloudflare.AccountID == "" {
			return errors.New("account id can't be empty")
		}
		if c.Cloudflare.AccessKeyID == "" {
			return errors.New("account access id can't be empty")
		}
		if c.Cloudflare.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
		if c.Cloudflare.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
		// R2 buckets have no default public hostname
		if c.Cloudflare.PublicURL == "" {
			return errors.New("cloudflare.public_url can't be empty")
		}
	case "local":
		if c.Storage.Local.Root == "" {
			return errors.New("storage.local.root can't be empty")
		}
	}

	if c.Security.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.Security.Turnstile.Enabled && c.Security.Turnstile.Secret == "" {
		return errors.New("security.turnstile.secret can't be empty when turnstile is enabled")
	}

	if !slices.Contains(validCacheTypes, c.Cache.Type) {
		return errors.New("invalid cache type provided")
	}

	if c.Cache.Type == "redis" && c.Redis.Addr == "" {
		return errors.New("redis.addr can't be empty when cache.type is redis")
	}

	if !c.Mail.Enabled() {
		zap.L().Warn("Mail configuration missing, notification emails will be skipped")
	} else if c.Mail.Sender == "" {
		c.Mail.Sender = c.Mail.Username
	}

	return nil
}
