package main

import (
	"fmt"
	"strings"
	"time"

	"photolab_miniapp/internal/cache"
	"photolab_miniapp/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`
	Redis    cache.Config      `yaml:"redis"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`
	TBank        TBankConfig        `yaml:"tbank"`
	TON          TONConfig          `yaml:"ton"`
	Generation   GenerationConfig   `yaml:"generation"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	Debug            bool   `yaml:"debug"`
}

type TBankConfig struct {
	TerminalKey string `yaml:"terminalKey"`
	Password    string `yaml:"password"`
	TestMode    bool   `yaml:"testMode"`
}

type TONConfig struct {
	APIURL       string        `yaml:"apiUrl"`
	APIKey       string        `yaml:"apiKey"`
	Wallet       string        `yaml:"wallet"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

type GenerationConfig struct {
	APIURL       string        `yaml:"apiUrl"`
	APIKey       string        `yaml:"apiKey"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
