package config

import (
	"os"
	"strconv"
)

const (
	apiIDVar   = "TG_API_ID"
	apiHashVar = "TG_API_HASH"
)

type Telegram struct{}

var _ TelegramConfig = Telegram{}

// GetAPIID returns the Telegram application identifier. Zero means unset or
// unparseable; Validate treats both as a missing required option.
func (Telegram) GetAPIID() int {
	id, err := strconv.Atoi(os.Getenv(apiIDVar))
	if err != nil {
		return 0
	}
	return id
}

func (Telegram) GetAPIHash() string {
	return GetEnv(apiHashVar, "")
}
