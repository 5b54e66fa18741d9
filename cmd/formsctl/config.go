package main

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"properforms/internal/config"
)

const (
	configFileName = "formsctl"
	configFileType = "yaml"

	cfgKeyDatabaseURL    = "database_url"
	cfgKeyPublicBaseURL  = "public_base_url"
	cfgKeyFileSecret     = "file_encryption_secret"
	cfgKeyExportPageSize = "export_page_size"
	cfgKeyDraftMaxAge    = "draft_max_age"
)

// loadConfig reads the service configuration from the environment and lays
// an optional formsctl.yaml over it. An explicit path must exist; the default
// lookup in the working directory may find nothing.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType(configFileType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if v.IsSet(cfgKeyDatabaseURL) {
		cfg.DatabaseURL = v.GetString(cfgKeyDatabaseURL)
	}
	if v.IsSet(cfgKeyPublicBaseURL) {
		cfg.PublicBaseURL = v.GetString(cfgKeyPublicBaseURL)
	}
	if v.IsSet(cfgKeyFileSecret) {
		cfg.FileSecret = v.GetString(cfgKeyFileSecret)
	}
	if v.IsSet(cfgKeyExportPageSize) {
		if n := v.GetInt(cfgKeyExportPageSize); n > 0 {
			cfg.ExportPageSize = n
		}
	}
	if v.IsSet(cfgKeyDraftMaxAge) {
		if d := v.GetDuration(cfgKeyDraftMaxAge); d > 0 {
			cfg.DraftMaxAge = d
		}
	}
	return cfg, nil
}
