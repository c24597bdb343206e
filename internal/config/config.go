package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/LFroesch/ferry/internal/logger"
)

// Config holds all ferry configuration
type Config struct {
	ShowHidden     bool          `mapstructure:"show_hidden"`
	PeerAddress    string        `mapstructure:"peer_address"`   // host:port of the remote peer, empty = no remote panel
	ListenAddress  string        `mapstructure:"listen_address"` // address used by --serve
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	Debug          bool          `mapstructure:"debug"`
}

const (
	defaultRequestTimeout = 30 * time.Second
	defaultDialTimeout    = 5 * time.Second
	defaultListenAddress  = ":7001"

	minRequestTimeout = time.Second
	maxRequestTimeout = 5 * time.Minute
)

func defaults() *Config {
	return &Config{
		ShowHidden:     false,
		PeerAddress:    "",
		ListenAddress:  defaultListenAddress,
		RequestTimeout: defaultRequestTimeout,
		DialTimeout:    defaultDialTimeout,
		Debug:          false,
	}
}

// Load reads config from ~/.config/ferry/ferry-config.json with FERRY_* env overrides.
// It never fails: problems are logged and defaults are used instead.
func Load() *Config {
	configPath, err := GetConfigPath()
	if err != nil {
		logger.Error("Failed to get home directory: %v", err)
		configPath = filepath.Join(".", "ferry-config.json")
	}

	defaultConfig := defaults()

	v := viper.New()
	setDefaults(v, defaultConfig)
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("FERRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) || errors.As(err, new(viper.ConfigFileNotFoundError)) {
			// First run: write the defaults so users can see and edit them
			if err := Save(defaultConfig); err != nil {
				logger.Warn("Failed to save default config: %v", err)
			}
		} else {
			logger.Warn("Failed to parse config file %s: %v, using defaults", configPath, err)
			return defaultConfig
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		logger.Warn("Failed to decode config %s: %v, using defaults", configPath, err)
		return defaultConfig
	}

	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultConfig.RequestTimeout
	} else if config.RequestTimeout < minRequestTimeout {
		logger.Warn("RequestTimeout too low (%v), using minimum of %v", config.RequestTimeout, minRequestTimeout)
		config.RequestTimeout = minRequestTimeout
	} else if config.RequestTimeout > maxRequestTimeout {
		logger.Warn("RequestTimeout too high (%v), using maximum of %v", config.RequestTimeout, maxRequestTimeout)
		config.RequestTimeout = maxRequestTimeout
	}

	if config.DialTimeout <= 0 {
		config.DialTimeout = defaultConfig.DialTimeout
	}

	if config.ListenAddress == "" {
		config.ListenAddress = defaultConfig.ListenAddress
	}

	return config
}

// Save writes config to ~/.config/ferry/ferry-config.json
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		logger.Error("Failed to get home directory: %v", err)
		return fmt.Errorf("cannot get home directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		logger.Error("Failed to create config directory %s: %v", filepath.Dir(configPath), err)
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("show_hidden", config.ShowHidden)
	v.Set("peer_address", config.PeerAddress)
	v.Set("listen_address", config.ListenAddress)
	v.Set("request_timeout", config.RequestTimeout.String())
	v.Set("dial_timeout", config.DialTimeout.String())
	v.Set("debug", config.Debug)

	if err := v.WriteConfigAs(configPath); err != nil {
		logger.Error("Failed to write config file %s: %v", configPath, err)
		return fmt.Errorf("cannot write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "ferry", "ferry-config.json"), nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("show_hidden", c.ShowHidden)
	v.SetDefault("peer_address", c.PeerAddress)
	v.SetDefault("listen_address", c.ListenAddress)
	v.SetDefault("request_timeout", c.RequestTimeout)
	v.SetDefault("dial_timeout", c.DialTimeout)
	v.SetDefault("debug", c.Debug)
}
