package config

type Config struct {
	// InitData передается хостом при запуске; пусто - запуск вне Telegram
	InitData    string `envconfig:"TELEGRAM_INIT_DATA"`
	ColorScheme string `envconfig:"TELEGRAM_COLOR_SCHEME" default:"light"`
	// ThemePinned фиксирует тему: light, dark или пусто (следовать хосту)
	ThemePinned string `envconfig:"THEME_PINNED" default:"light"`
}
