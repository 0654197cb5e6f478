// Package telegram мост к среде Telegram WebApp: пользователь, init-data, тема и нативные кнопки.
// Представления работают только с интерфейсом Host и не знают, запущены ли они внутри Telegram.
package telegram

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/telegram/config"
)

var ErrNoUser = errors.New("init data has no user")

// User пользователь Telegram из init-data
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// DisplayName имя для приветствия
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		return "@" + u.Username
	}
	return name
}

type Host interface {
	// User пользователь хоста; false вне Telegram
	User() (User, bool)
	// InitData токен авторизации для API, может быть пустым
	InitData() string
	IsDarkMode() bool
	ToggleTheme()
	// Hosted запущено внутри Telegram
	Hosted() bool
	// Buttons главная кнопка и кнопка "Назад"
	Buttons() *Buttons
}

// ParseUser достает пользователя из строки init-data (query-строка с полем user в JSON)
func ParseUser(initData string) (User, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return User{}, errors.Wrap(err, "parse init data")
	}
	raw := values.Get("user")
	if raw == "" {
		return User{}, ErrNoUser
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return User{}, errors.Wrap(err, "parse init data user")
	}
	if user.ID == 0 {
		return User{}, ErrNoUser
	}
	return user, nil
}

// pinnedTheme true/false для light/dark, nil - следовать хосту
func pinnedTheme(pinned string) *bool {
	var dark bool
	switch strings.ToLower(pinned) {
	case "light":
		dark = false
	case "dark":
		dark = true
	default:
		return nil
	}
	return &dark
}

// theme текущая тема, общая для обоих адаптеров
type theme struct {
	mu     sync.RWMutex
	dark   bool
	pinned bool
}

func newTheme(initialDark bool, pinned string) *theme {
	if p := pinnedTheme(pinned); p != nil {
		return &theme{dark: *p, pinned: true}
	}
	return &theme{dark: initialDark}
}

func (t *theme) isDark() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dark
}

// follow изменение темы хостом; закрепленная тема не меняется
func (t *theme) follow(dark bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pinned {
		t.dark = dark
	}
}

// toggle ручное переключение пользователем
func (t *theme) toggle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dark = !t.dark
}

// Detect выбирает адаптер по наличию init-data: внутри Telegram или автономный запуск.
// Вызывается один раз при старте приложения.
func Detect(cfg config.Config, zaplog *zap.Logger) Host {
	if cfg.InitData != "" {
		zaplog.Info("telegram webapp detected")
		return NewHosted(NewEnvRuntime(cfg, zaplog), cfg.ThemePinned, zaplog)
	}
	zaplog.Info("telegram webapp not detected, standalone mode")
	return NewStandalone(PrefersDarkFromEnv, cfg.ThemePinned, zaplog)
}
