package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	apiConfig "github.com/iurnickita/goodsreserv/internal/apiclient/config"
	authConfig "github.com/iurnickita/goodsreserv/internal/auth/config"
	handlerConfig "github.com/iurnickita/goodsreserv/internal/handler/config"
	loggerConfig "github.com/iurnickita/goodsreserv/internal/logger/config"
	mediaConfig "github.com/iurnickita/goodsreserv/internal/media/config"
	storeConfig "github.com/iurnickita/goodsreserv/internal/store/config"
	telegramConfig "github.com/iurnickita/goodsreserv/internal/telegram/config"
)

const envPrefix = "GOODSRESERV"

type Config struct {
	API      apiConfig.Config
	Auth     authConfig.Config
	Handler  handlerConfig.Config
	Logger   loggerConfig.Config
	Media    mediaConfig.Config
	Store    storeConfig.Config
	Telegram telegramConfig.Config
}

// GetConfig читает .env (если есть) и переменные окружения.
// Переменная ищется сначала с префиксом GOODSRESERV_, затем без него.
func GetConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// уже заданные переменные окружения не перезаписываются
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrapf(err, "load %s", f)
		}
	}

	var cfg Config
	parts := []any{&cfg.API, &cfg.Auth, &cfg.Handler, &cfg.Logger, &cfg.Media, &cfg.Store, &cfg.Telegram}
	for _, part := range parts {
		if err := envconfig.Process(envPrefix, part); err != nil {
			return Config{}, errors.Wrap(err, "process env")
		}
	}
	return cfg, nil
}
