// Package config содержит логику чтения конфигурации клиента транскрипции.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры запуска клиента.
type Config struct {
	Environment     string `env:"REV_ENVIRONMENT"`
	ClientKey       string `env:"REV_CLIENT_KEY"`
	UserKey         string `env:"REV_USER_KEY"`
	CredentialsFile string `env:"REV_CREDENTIALS_FILE"`
	APIURL          string `env:"REV_API_URL"`
	Verbose         bool   `env:"REV_VERBOSE"`

	// Args содержит команду и её аргументы.
	Args []string
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envEnvironment := cfg.Environment
	envClientKey := cfg.ClientKey
	envUserKey := cfg.UserKey
	envCredentialsFile := cfg.CredentialsFile
	envAPIURL := cfg.APIURL
	envVerbose := cfg.Verbose

	flag.StringVar(&cfg.Environment, "e", "", "environment: sandbox or production (defaults to the saved one)")
	flag.StringVar(&cfg.ClientKey, "c", "", "API client key")
	flag.StringVar(&cfg.UserKey, "u", "", "API user key")
	flag.StringVar(&cfg.CredentialsFile, "f", "", "credentials file")
	flag.StringVar(&cfg.APIURL, "api", "", "override API base URL")
	flag.BoolVar(&cfg.Verbose, "v", false, "verbose logging")

	flag.Parse()

	if envEnvironment != "" {
		cfg.Environment = envEnvironment
	}
	if envClientKey != "" {
		cfg.ClientKey = envClientKey
	}
	if envUserKey != "" {
		cfg.UserKey = envUserKey
	}
	if envCredentialsFile != "" {
		cfg.CredentialsFile = envCredentialsFile
	}
	if envAPIURL != "" {
		cfg.APIURL = envAPIURL
	}
	if envVerbose {
		cfg.Verbose = true
	}

	cfg.Args = flag.Args()

	return cfg, nil
}
