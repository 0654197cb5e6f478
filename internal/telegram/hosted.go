package telegram

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/telegram/config"
)

// Runtime среда Telegram WebApp
type Runtime interface {
	InitData() string
	ColorScheme() string
	Expand()
	Ready()
	OnThemeChanged(func(colorScheme string))
	ShowMainButton(params *ButtonParams)
	ShowBackButton(visible bool)
}

type hosted struct {
	rt      Runtime
	zaplog  *zap.Logger
	theme   *theme
	buttons *Buttons

	initData string
	user     User
	hasUser  bool
}

// NewHosted адаптер поверх среды Telegram
func NewHosted(rt Runtime, themePinned string, zaplog *zap.Logger) Host {
	h := &hosted{
		rt:       rt,
		zaplog:   zaplog,
		theme:    newTheme(rt.ColorScheme() == "dark", themePinned),
		initData: rt.InitData(),
	}
	h.buttons = newButtons(func(main *ButtonParams, back bool) {
		rt.ShowMainButton(main)
		rt.ShowBackButton(back)
	})

	user, err := ParseUser(h.initData)
	if err != nil {
		zaplog.Warn("telegram user unavailable", zap.Error(err))
	} else {
		h.user, h.hasUser = user, true
	}

	rt.Expand()
	rt.Ready()
	rt.OnThemeChanged(func(colorScheme string) {
		h.theme.follow(colorScheme == "dark")
	})
	return h
}

func (h *hosted) User() (User, bool) { return h.user, h.hasUser }
func (h *hosted) InitData() string   { return h.initData }
func (h *hosted) IsDarkMode() bool   { return h.theme.isDark() }
func (h *hosted) ToggleTheme()       { h.theme.toggle() }
func (h *hosted) Hosted() bool       { return true }
func (h *hosted) Buttons() *Buttons  { return h.buttons }

// Автономный запуск

type standalone struct {
	theme   *theme
	buttons *Buttons
}

// NewStandalone адаптер вне Telegram: тема по системной настройке, один раз при старте
func NewStandalone(prefersDark func() bool, themePinned string, zaplog *zap.Logger) Host {
	dark := false
	if prefersDark != nil {
		dark = prefersDark()
	}
	zaplog.Debug("standalone theme", zap.Bool("dark", dark))
	return &standalone{
		theme:   newTheme(dark, themePinned),
		buttons: newButtons(nil),
	}
}

func (s *standalone) User() (User, bool) { return User{}, false }
func (s *standalone) InitData() string   { return "" }
func (s *standalone) IsDarkMode() bool   { return s.theme.isDark() }
func (s *standalone) ToggleTheme()       { s.theme.toggle() }
func (s *standalone) Hosted() bool       { return false }
func (s *standalone) Buttons() *Buttons  { return s.buttons }

// PrefersDarkFromEnv темный фон терминала по COLORFGBG ("15;0": цвет фона последний)
func PrefersDarkFromEnv() bool {
	v := os.Getenv("COLORFGBG")
	if v == "" {
		return false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	return bg < 7 || bg == 8
}

// Среда из переменных окружения

// EnvRuntime среда, запустившая CLI с init-data в окружении.
// Кнопки отражаются в журнал, интерфейс их рисует сам.
type EnvRuntime struct {
	cfg    config.Config
	zaplog *zap.Logger
}

func NewEnvRuntime(cfg config.Config, zaplog *zap.Logger) *EnvRuntime {
	return &EnvRuntime{cfg: cfg, zaplog: zaplog}
}

func (r *EnvRuntime) InitData() string    { return r.cfg.InitData }
func (r *EnvRuntime) ColorScheme() string { return r.cfg.ColorScheme }
func (r *EnvRuntime) Expand()             {}
func (r *EnvRuntime) Ready()              { r.zaplog.Debug("webapp ready") }

// OnThemeChanged окружение процесса не меняется
func (r *EnvRuntime) OnThemeChanged(func(colorScheme string)) {}

func (r *EnvRuntime) ShowMainButton(params *ButtonParams) {
	if params == nil {
		r.zaplog.Debug("main button hidden")
		return
	}
	r.zaplog.Debug("main button shown", zap.String("text", params.Text))
}

func (r *EnvRuntime) ShowBackButton(visible bool) {
	r.zaplog.Debug("back button", zap.Bool("visible", visible))
}
