package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// API settings
	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`

	// Store settings
	DBDriver string `mapstructure:"db_driver"` // "sqlite" or "pgx"
	DBDSN    string `mapstructure:"db_dsn"`

	// Password storage: "bcrypt" or "plain"
	PasswordEncoder string `mapstructure:"password_encoder"`

	// Optional SSL settings
	SSLCert string `mapstructure:"ssl_cert"`
	SSLKey  string `mapstructure:"ssl_key"`

	// Optional CORS settings
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Logging
	LogFile   string `mapstructure:"log_file"`
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	ConfigPath string `mapstructure:"-"`
}

const (
	EnvPrefix = "PARKAPI"

	DefaultConfigPath      = "/etc/parkapi/config.yml"
	DefaultAPIHost         = "0.0.0.0"
	DefaultAPIPort         = 8080
	DefaultDBDriver        = "sqlite"
	DefaultDBDSN           = "/var/lib/parkapi/parkapi.sqlite3"
	DefaultPasswordEncoder = "bcrypt"
	DefaultLogLevel        = "info"
)

var (
	validDrivers  = []string{"sqlite", "pgx"}
	validEncoders = []string{"bcrypt", "plain"}
)

// Load reads configuration from, in increasing priority: defaults, the YAML
// file at configPath, a .env file in the working directory and PARKAPI_*
// environment variables. A missing file is an error only when configPath was
// given explicitly.
func Load(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("api_port", DefaultAPIPort)
	v.SetDefault("db_driver", DefaultDBDriver)
	v.SetDefault("db_dsn", DefaultDBDSN)
	v.SetDefault("password_encoder", DefaultPasswordEncoder)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("log_pretty", false)
	v.SetDefault("ssl_cert", "")
	v.SetDefault("ssl_key", "")
	v.SetDefault("cors_origins", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		configPath = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	c.DBDriver = strings.ToLower(c.DBDriver)
	if !slices.Contains(validDrivers, c.DBDriver) {
		return fmt.Errorf("db_driver must be one of %v, got %q", validDrivers, c.DBDriver)
	}

	if c.DBDSN == "" {
		return fmt.Errorf("db_dsn is required")
	}

	if !slices.Contains(validEncoders, c.PasswordEncoder) {
		return fmt.Errorf("password_encoder must be one of %v, got %q", validEncoders, c.PasswordEncoder)
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("api_port out of range: %d", c.APIPort)
	}

	// Validate SSL config if provided
	if c.SSLCert != "" || c.SSLKey != "" {
		if c.SSLCert == "" || c.SSLKey == "" {
			return fmt.Errorf("both ssl_cert and ssl_key must be provided")
		}
		if _, err := os.Stat(c.SSLCert); os.IsNotExist(err) {
			return fmt.Errorf("ssl_cert file does not exist: %s", c.SSLCert)
		}
		if _, err := os.Stat(c.SSLKey); os.IsNotExist(err) {
			return fmt.Errorf("ssl_key file does not exist: %s", c.SSLKey)
		}
	}

	return nil
}

func (c *Config) TLSEnabled() bool {
	return c.SSLCert != "" && c.SSLKey != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func (c *Config) IsDevMode() bool {
	return os.Getenv(EnvPrefix+"_DEV_MODE") == "1"
}
