package media

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iurnickita/goodsreserv/internal/media/config"
)

func TestResolverURL(t *testing.T) {
	r := NewResolver(config.Config{Origin: "https://develooper.ru/", StripPrefix: "/app"})

	tests := []struct {
		path string
		want string
	}{
		{path: "/app/uploads/1/photo.jpg", want: "https://develooper.ru/uploads/1/photo.jpg"},
		{path: "app/uploads/video.mp4", want: "https://develooper.ru/uploads/video.mp4"},
		{path: "/uploads/photo.jpg", want: "https://develooper.ru/uploads/photo.jpg"},
		// префикс только целым сегментом
		{path: "/application/x.png", want: "https://develooper.ru/application/x.png"},
		{path: "https://cdn.example.com/a.jpg", want: "https://cdn.example.com/a.jpg"},
		{path: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, r.URL(tt.path))
		})
	}
}
