package config

import (
	"fmt"
	"strings"
)

type Config interface {
	EnvConfig
	TelegramConfig
	CoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type TelegramConfig interface {
	GetAPIID() int
	GetAPIHash() string
}

type CoreConfig interface {
	GetWebhookURL() string
	GetStorePath() string
}

type mainConfig struct {
	EnvVars
	Telegram
	Core
}

func New() Config {
	return mainConfig{}
}

// Validate reports every missing required option in one error. Configuration
// failure is the only condition that is fatal to the process.
func Validate(c Config) error {
	var missing []string
	if c.GetAPIID() == 0 {
		missing = append(missing, apiIDVar)
	}
	if c.GetAPIHash() == "" {
		missing = append(missing, apiHashVar)
	}
	if c.GetWebhookURL() == "" {
		missing = append(missing, webhookURLVar)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
