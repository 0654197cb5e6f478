package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/auth"
	"github.com/iurnickita/goodsreserv/internal/config"
	"github.com/iurnickita/goodsreserv/internal/handler"
	"github.com/iurnickita/goodsreserv/internal/logger"
	"github.com/iurnickita/goodsreserv/internal/media"
	"github.com/iurnickita/goodsreserv/internal/metrics"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/store"
	"github.com/iurnickita/goodsreserv/internal/telegram"
	"github.com/iurnickita/goodsreserv/internal/token"
)

var errLoginRequired = errors.New("требуется вход администратора: goodsreserv admin login")

// app зависимости команд, собираются в Before
type app struct {
	out io.Writer

	cfg      config.Config
	zaplog   *zap.Logger
	registry *prometheus.Registry
	notifier notify.Notifier
	client   *apiclient.Client
	host     telegram.Host
	store    store.Store
	auth     auth.Auth
	media    media.Resolver

	stopServer context.CancelFunc
}

func (a *app) init(c *cli.Context) error {
	cfg, err := config.GetConfig(c.StringSlice("env-file")...)
	if err != nil {
		return err
	}
	if c.IsSet("api-url") {
		cfg.API.BaseURL = c.String("api-url")
	}
	if c.IsSet("log-level") {
		cfg.Logger.LogLevel = c.String("log-level")
	}
	a.cfg = cfg

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	a.zaplog = zaplog

	a.registry = prometheus.NewRegistry()
	a.notifier = notify.Multi(notify.NewConsole(os.Stderr), notify.NewZap(zaplog))

	a.host = telegram.Detect(cfg.Telegram, zaplog)
	a.client = apiclient.NewClient(cfg.API, nil, a.notifier, zaplog,
		apiclient.WithMetrics(metrics.NewClientMetrics(a.registry)))
	a.client.SetInitData(a.host.InitData())
	a.media = media.NewResolver(cfg.Media)

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	a.store = st

	issuer, err := token.NewIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, time.Now)
	if err != nil {
		// без секрета вход администратора недоступен, остальное работает
		zaplog.Warn("admin sessions disabled", zap.Error(err))
	} else {
		a.auth = auth.NewAuth(cfg.Auth, st, issuer, zaplog)
	}

	ctx, cancel := context.WithCancel(c.Context)
	a.stopServer = cancel
	go func() {
		if err := handler.Serve(ctx, cfg.Handler, a.registry, a.client.Cache(), zaplog); err != nil {
			zaplog.Error("diagnostics server", zap.Error(err))
		}
	}()
	return nil
}

func (a *app) close(c *cli.Context) error {
	if a.stopServer != nil {
		a.stopServer()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.zaplog != nil {
		a.zaplog.Sync()
	}
	return nil
}

// requireAdmin проверка сессии перед командами администратора
func (a *app) requireAdmin(c *cli.Context) error {
	if a.auth == nil {
		return auth.ErrNotConfigured
	}
	if !a.auth.IsAuthenticated(c.Context) {
		return errLoginRequired
	}
	return nil
}
