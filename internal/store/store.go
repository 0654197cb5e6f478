// Package store хранилище состояния интерфейса: сессия администратора,
// id товара для подсветки при переходе между экранами.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/iurnickita/goodsreserv/internal/store/config"
)

// Ключи состояния
const (
	KeyHighlightedGoods = "highlightedGoodsId"
	KeyAdminSession     = "adminSession"
)

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	// Take читает значение и сразу удаляет его
	Take(ctx context.Context, key string) (string, error)
	Close() error
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrUnknownDriver = errors.New("unknown store driver")
)

func init() {
	// modernc регистрирует драйвер как "sqlite", sqlx знает только "sqlite3"
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type store struct {
	database *sqlx.DB
}

func NewStore(cfg config.Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "pgx":
	default:
		return nil, ErrUnknownDriver
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// :memory: живет в рамках одного соединения
		db.SetMaxOpenConns(1)
	}

	// Таблица состояния: одна строка на ключ
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS ui_state (" +
			" name VARCHAR (100) PRIMARY KEY," +
			" value TEXT NOT NULL," +
			" updated_at TIMESTAMP NOT NULL" +
			" );")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &store{
		database: db,
	}, nil
}

func (store *store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := store.database.GetContext(ctx, &value,
		store.database.Rebind("SELECT value FROM ui_state WHERE name = ?"),
		key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNoRows
		}
		return "", err
	}
	return value, nil
}

func (store *store) Set(ctx context.Context, key string, value string) error {
	_, err := store.database.ExecContext(ctx,
		store.database.Rebind("INSERT INTO ui_state (name, value, updated_at)"+
			" VALUES (?, ?, ?)"+
			" ON CONFLICT (name) DO UPDATE"+
			" SET value = excluded.value, updated_at = excluded.updated_at"),
		key,
		value,
		time.Now().UTC())
	return err
}

func (store *store) Delete(ctx context.Context, key string) error {
	_, err := store.database.ExecContext(ctx,
		store.database.Rebind("DELETE FROM ui_state WHERE name = ?"),
		key)
	return err
}

func (store *store) Take(ctx context.Context, key string) (string, error) {
	var value string
	err := store.database.GetContext(ctx, &value,
		store.database.Rebind("DELETE FROM ui_state WHERE name = ? RETURNING value"),
		key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNoRows
		}
		return "", err
	}
	return value, nil
}

func (store *store) Close() error {
	return store.database.Close()
}
