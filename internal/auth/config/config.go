package config

import "time"

type Config struct {
	Login string `envconfig:"ADMIN_LOGIN"`
	// Password открытым текстом или bcrypt-хэш ($2a$...)
	Password      string        `envconfig:"ADMIN_PASSWORD"`
	SessionSecret string        `envconfig:"SESSION_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}
