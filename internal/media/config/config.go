package config

type Config struct {
	Origin      string `envconfig:"MEDIA_ORIGIN" default:"https://develooper.ru"`
	StripPrefix string `envconfig:"MEDIA_STRIP_PREFIX" default:"/app"`
}
