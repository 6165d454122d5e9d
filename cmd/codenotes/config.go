package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyAPIURL  = "api_url"
	cfgKeyDataDir = "data_dir"
	cfgKeyLogMode = "log_mode"
	cfgKeyTimeout = "request_timeout"

	defaultAPIURL  = "http://localhost:8080"
	defaultLogMode = "nop"
	defaultTimeout = "15s"

	envConfigDir = "CODENOTES_CONFIG_DIR"
)

// resolveConfigDir picks the config directory: --config-dir, then
// CODENOTES_CONFIG_DIR, then ~/.codenotes.
func resolveConfigDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".codenotes"), nil
}

// loadConfig reads config.yaml from configDir. A missing file means
// defaults. CODENOTES_API_URL and friends override the file.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyAPIURL, defaultAPIURL)
	v.SetDefault(cfgKeyDataDir, filepath.Join(configDir, "state"))
	v.SetDefault(cfgKeyLogMode, defaultLogMode)
	v.SetDefault(cfgKeyTimeout, defaultTimeout)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("CODENOTES")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
