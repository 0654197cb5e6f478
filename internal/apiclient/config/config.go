package config

import "time"

type Config struct {
	BaseURL        string        `envconfig:"API_URL" default:"https://develooper.ru/api"`
	Timeout        time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
	InitDataHeader string        `envconfig:"INIT_DATA_HEADER" default:"X-Telegram-Init-Data"`
}
