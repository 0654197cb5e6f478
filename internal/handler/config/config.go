package config

type Config struct {
	// ServerAddr адрес диагностического сервера; пусто - не запускать
	ServerAddr string `envconfig:"METRICS_ADDR"`
}
