package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Student  StudentConfig  `mapstructure:"student"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	Key     string `mapstructure:"key"`
}

type StudentConfig struct {
	ID string `mapstructure:"id" validate:"required"`
}

type StorageConfig struct {
	// QuotaBytes overrides the default 50 MiB quota when > 0.
	QuotaBytes int64 `mapstructure:"quota_bytes" validate:"gte=0"`
}

type SyncConfig struct {
	// IntervalSeconds is the periodic drain interval used by watch mode.
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"gte=1"`
	// PollSeconds is the connectivity probe interval.
	PollSeconds int `mapstructure:"poll_seconds" validate:"gte=1"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/studyowl")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("database.path", filepath.Join("studyowl", "offline.db"))
	v.SetDefault("api.base_url", "https://api.studyowl.app/v1")
	v.SetDefault("storage.quota_bytes", 0)
	v.SetDefault("sync.interval_seconds", 30)
	v.SetDefault("sync.poll_seconds", 10)

	// Bind credentials and identity to environment variables only (not from config file)
	if err := v.BindEnv("api.key", "STUDYOWL_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind STUDYOWL_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("api.base_url", "STUDYOWL_API_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind STUDYOWL_API_BASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("student.id", "STUDYOWL_STUDENT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind STUDYOWL_STUDENT_ID environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
