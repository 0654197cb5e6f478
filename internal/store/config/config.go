package config

// Driver: sqlite (локальный файл) или pgx (общая база)
type Config struct {
	Driver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STORE_DSN" default:"file:goodsreserv.db"`
}
