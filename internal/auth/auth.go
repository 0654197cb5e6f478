// Package auth вход в панель администратора.
// Логин и пароль сверяются с настройками, сессия хранится в store подписанным токеном.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iurnickita/goodsreserv/internal/auth/config"
	"github.com/iurnickita/goodsreserv/internal/store"
	"github.com/iurnickita/goodsreserv/internal/token"
)

type Auth interface {
	Login(ctx context.Context, login string, password string) error
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

var (
	ErrWrongCredentials = errors.New("wrong login or password")
	ErrNotConfigured    = errors.New("admin credentials are not configured")
)

type auth struct {
	cfg    config.Config
	store  store.Store
	issuer *token.Issuer
	zaplog *zap.Logger
}

func NewAuth(cfg config.Config, store store.Store, issuer *token.Issuer, zaplog *zap.Logger) Auth {
	return &auth{cfg: cfg, store: store, issuer: issuer, zaplog: zaplog}
}

func (a *auth) Login(ctx context.Context, login string, password string) error {
	if a.cfg.Login == "" || a.cfg.Password == "" {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(login), []byte(a.cfg.Login)) != 1 || !a.checkPassword(password) {
		a.zaplog.Info("admin login rejected", zap.String("login", login))
		return ErrWrongCredentials
	}

	tokenString, err := a.issuer.BuildJWTString(login)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, store.KeyAdminSession, tokenString); err != nil {
		return err
	}
	a.zaplog.Info("admin logged in", zap.String("login", login))
	return nil
}

func (a *auth) Logout(ctx context.Context) error {
	return a.store.Delete(ctx, store.KeyAdminSession)
}

func (a *auth) IsAuthenticated(ctx context.Context) bool {
	tokenString, err := a.store.Get(ctx, store.KeyAdminSession)
	if err != nil {
		if !errors.Is(err, store.ErrNoRows) {
			a.zaplog.Warn("read admin session", zap.Error(err))
		}
		return false
	}
	login, err := a.issuer.GetLogin(tokenString)
	if err != nil {
		return false
	}
	// сменили логин в настройках - старая сессия недействительна
	return login == a.cfg.Login
}

// checkPassword пароль в настройках открытым текстом или bcrypt-хэшем
func (a *auth) checkPassword(password string) bool {
	if strings.HasPrefix(a.cfg.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(a.cfg.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.cfg.Password)) == 1
}
