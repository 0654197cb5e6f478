// Package media приводит пути загруженных фото и видео к ссылкам для показа.
package media

import (
	"strings"

	"github.com/iurnickita/goodsreserv/internal/media/config"
)

type Resolver interface {
	URL(path string) string
}

type resolver struct {
	origin string
	prefix string
}

func NewResolver(cfg config.Config) Resolver {
	return &resolver{
		origin: strings.TrimRight(cfg.Origin, "/"),
		prefix: strings.Trim(cfg.StripPrefix, "/"),
	}
}

// URL бэкенд возвращает путь внутри контейнера (/app/uploads/...);
// префикс отрезается, остаток склеивается с адресом сайта.
func (r *resolver) URL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	p := strings.TrimLeft(path, "/")
	if r.prefix != "" {
		if p == r.prefix {
			p = ""
		} else {
			p = strings.TrimPrefix(p, r.prefix+"/")
		}
	}
	return r.origin + "/" + p
}
