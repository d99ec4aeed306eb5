package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds all configuration for the site server.
type AppConfig struct {
	System   SystemConfig   `mapstructure:"system"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Local    LocalConfig    `mapstructure:"local"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type SystemConfig struct {
	Location string `mapstructure:"location"`
	Workdir  string `mapstructure:"workdir"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig describes the hosted relational backend. When the
// connection values are absent the server runs local-only.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres | sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Debug    bool   `mapstructure:"debug"`
}

// Configured reports whether enough connection values are present to
// even attempt a database connection. No network I/O happens here.
func (c DatabaseConfig) Configured() bool {
	switch c.Type {
	case "sqlite":
		return c.Name != ""
	default:
		return c.Host != "" && c.Name != "" && c.User != ""
	}
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, port, c.User, c.Password, c.Name)
}

// LocalConfig describes the embedded local backend.
type LocalConfig struct {
	Path         string `mapstructure:"path"`      // bbolt file
	MediaDir     string `mapstructure:"media_dir"` // uploaded files in local mode
	WriteDelayMS int    `mapstructure:"write_delay_ms"`
}

// WriteDelay is the artificial latency applied to local writes so
// calling code cannot come to depend on synchronous completion.
func (c LocalConfig) WriteDelay() time.Duration {
	return time.Duration(c.WriteDelayMS) * time.Millisecond
}

// StorageConfig describes the S3-compatible object storage bucket.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"` // optional override for derived URLs
	UseSSL    bool   `mapstructure:"use_ssl"`
}

func (c StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

type LoggerConfig struct {
	Mode       string `mapstructure:"mode"` // development | production
	FileEnable bool   `mapstructure:"file_enable"`
	Filename   string `mapstructure:"filename"`
}

// AdminConfig gates the admin surface with a single shared password.
type AdminConfig struct {
	Password      string `mapstructure:"password"`
	SessionSecret string `mapstructure:"session_secret"`
}

// Load reads configuration from siteserver.yaml with environment
// variable overrides (SYSTEM_WORKDIR, DATABASE_HOST, STORAGE_ENDPOINT,
// ...). A missing config file is not an error: the server degrades to
// defaults plus environment, which is how local-only deployments run.
func Load() (*AppConfig, error) {
	viper.SetConfigName("siteserver")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/siteserver")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("system.location", "Asia/Kolkata")
	viper.SetDefault("system.workdir", "/var/siteserver")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)

	viper.SetDefault("database.type", "postgres")
	viper.SetDefault("database.port", 5432)

	viper.SetDefault("local.path", "website.db")
	viper.SetDefault("local.media_dir", "media")
	viper.SetDefault("local.write_delay_ms", 500)

	viper.SetDefault("storage.use_ssl", true)

	viper.SetDefault("logger.mode", "development")
	viper.SetDefault("logger.file_enable", false)
	viper.SetDefault("logger.filename", "siteserver.log")

	viper.SetDefault("admin.password", "")
	viper.SetDefault("admin.session_secret", "siteserver-session")
}
