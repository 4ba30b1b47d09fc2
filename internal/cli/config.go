package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	APIURL  string `mapstructure:"api_url"`
	EdgeURL string `mapstructure:"edge_url"` // origin the access_token cookie is mirrored for

	Store StoreConfig `mapstructure:"store"`
	Seal  SealConfig  `mapstructure:"seal"`
	Log   LogConfig   `mapstructure:"log"`

	TOTPSecret string `mapstructure:"totp_secret"`
}

type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	RedisURL  string `mapstructure:"redis_url"`
	Namespace string `mapstructure:"namespace"`
}

type SealConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	KeyFile string `mapstructure:"key_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads otsem.yaml (from path when given, otherwise the working
// directory or the user config dir) and OTSEM_* environment variables.
// Environment wins over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults. Every key needs one for AutomaticEnv to see it.
	v.SetDefault("api_url", "http://localhost:3000/api")
	v.SetDefault("edge_url", "")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "file:"+defaultSessionFile())
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.namespace", "default")
	v.SetDefault("seal.enabled", false)
	v.SetDefault("seal.key_file", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("totp_secret", "")

	// Environment variable settings
	v.SetEnvPrefix("OTSEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file settings (optional)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("otsem")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "otsem"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		// No config file is fine, env vars and defaults cover everything
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "otsem-session.db"
	}
	return filepath.Join(dir, "otsem", "session.db")
}
