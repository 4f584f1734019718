package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level cropflow configuration.
type Config struct {
	Database Database `mapstructure:"database"`
	Distance Distance `mapstructure:"distance"`
	Advisory Advisory `mapstructure:"advisory"`
	Matching Matching `mapstructure:"matching"`
	Server   Server   `mapstructure:"server"`
	Output   Output   `mapstructure:"output"`
}

// Database locates the SQLite file.
type Database struct {
	Path string `mapstructure:"path"`
}

// Distance configures the maps-backed distance provider.
type Distance struct {
	MapsAPIKey  string        `mapstructure:"maps_api_key"`
	MapsURL     string        `mapstructure:"maps_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// Advisory configures the optional advisory service.
type Advisory struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	URL     string        `mapstructure:"url"`
	TopN    int           `mapstructure:"top_n"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Matching holds the recommendation policy knobs.
type Matching struct {
	ConserveBalances bool `mapstructure:"conserve_balances"`
	TransactionLimit int  `mapstructure:"transaction_limit"`
	StrategyLimit    int  `mapstructure:"strategy_limit"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// LoadEnvFiles loads KEY=value files into the process environment. Missing
// files are skipped and existing variables win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		p = expandPath(p)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// Load reads configuration from the given path (or the default location),
// applies CROPFLOW_* environment overrides and returns a Config with all
// defaults applied.
func Load(cfgFile string) (*Config, error) {
	if err := LoadEnvFiles(DefaultEnvFile, filepath.Join(DefaultConfigDir, DefaultEnvFile)); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetDefault("database.path", DBPath())
	v.SetDefault("distance.maps_api_key", "")
	v.SetDefault("distance.maps_url", DefaultDistance.MapsURL)
	v.SetDefault("distance.timeout", DefaultDistance.Timeout)
	v.SetDefault("distance.concurrency", DefaultDistance.Concurrency)
	v.SetDefault("advisory.enabled", DefaultAdvisory.Enabled)
	v.SetDefault("advisory.api_key", "")
	v.SetDefault("advisory.model", DefaultAdvisory.Model)
	v.SetDefault("advisory.url", DefaultAdvisory.URL)
	v.SetDefault("advisory.top_n", DefaultAdvisory.TopN)
	v.SetDefault("advisory.timeout", DefaultAdvisory.Timeout)
	v.SetDefault("matching.conserve_balances", DefaultMatching.ConserveBalances)
	v.SetDefault("matching.transaction_limit", DefaultMatching.TransactionLimit)
	v.SetDefault("matching.strategy_limit", DefaultMatching.StrategyLimit)
	v.SetDefault("server.addr", DefaultServer.Addr)
	v.SetDefault("server.allowed_origins", DefaultServer.AllowedOrigins)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional provider variables are honored as fallbacks.
	_ = v.BindEnv("distance.maps_api_key", EnvPrefix+"_DISTANCE_MAPS_API_KEY", "GOOGLE_MAPS_API_KEY")
	_ = v.BindEnv("advisory.api_key", EnvPrefix+"_ADVISORY_API_KEY", "ANTHROPIC_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	if len(cfg.Server.AllowedOrigins) == 1 && strings.Contains(cfg.Server.AllowedOrigins[0], ",") {
		cfg.Server.AllowedOrigins = strings.Split(cfg.Server.AllowedOrigins[0], ",")
	}

	return &cfg, nil
}

// DBPath returns the default full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
