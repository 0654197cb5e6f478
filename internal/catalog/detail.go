package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/telegram"
)

var (
	ErrNoHostUser     = errors.New("reservation requires telegram user")
	ErrBadQuantity    = errors.New("quantity out of range")
	ErrGoodsNotLoaded = errors.New("goods not loaded")
)

// DetailView карточка товара и бронирование
type DetailView struct {
	api      API
	host     telegram.Host
	notifier notify.Notifier
	zaplog   *zap.Logger

	mu      sync.Mutex
	goods   *model.Goods
	daily   int
	release func()
}

func NewDetailView(api API, host telegram.Host, notifier notify.Notifier, zaplog *zap.Logger) *DetailView {
	return &DetailView{api: api, host: host, notifier: notifier, zaplog: zaplog}
}

// Load загружает товар и, если известен пользователь, число его бронирований за сегодня
func (v *DetailView) Load(ctx context.Context, id int64) (model.Goods, error) {
	g, err := v.api.GetGoods(ctx, id, apiclient.Quiet())
	if err != nil {
		v.zaplog.Warn("load goods", zap.Int64("id", id), zap.Error(err))
		v.notifier.Error("Не удалось загрузить информацию о товаре")
		return model.Goods{}, err
	}
	daily := 0
	if user, ok := v.host.User(); ok {
		daily = v.api.DailyReservationsCount(ctx, user.ID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.goods = &g
	v.daily = daily
	return g, nil
}

// Mount показывает кнопку "Назад"; повторный вызов снимает прежнюю регистрацию
func (v *DetailView) Mount(onBack func()) {
	v.Unmount()
	release := v.host.Buttons().SetBack(onBack)
	v.mu.Lock()
	v.release = release
	v.mu.Unlock()
}

func (v *DetailView) Unmount() {
	v.mu.Lock()
	release := v.release
	v.release = nil
	v.mu.Unlock()
	if release != nil {
		release()
	}
}

func (v *DetailView) Goods() (model.Goods, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.goods == nil {
		return model.Goods{}, false
	}
	return *v.goods, true
}

// DailyCount бронирований пользователя за сегодня
func (v *DetailView) DailyCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.daily
}

// Reserve бронирует quantity единиц: от 1 до max_daily товара.
// Без пользователя Telegram бронирование невозможно.
func (v *DetailView) Reserve(ctx context.Context, quantity int) (model.Reservation, error) {
	g, ok := v.Goods()
	if !ok {
		return model.Reservation{}, ErrGoodsNotLoaded
	}
	if _, ok := v.host.User(); !ok {
		v.notifier.Error("Для бронирования товара необходимо открыть приложение через Telegram")
		return model.Reservation{}, ErrNoHostUser
	}
	if quantity < 1 || quantity > g.MaxDaily {
		v.notifier.Error(fmt.Sprintf("Количество должно быть от 1 до %d", g.MaxDaily))
		return model.Reservation{}, ErrBadQuantity
	}

	r, err := v.api.Reserve(ctx, g.ID, quantity)
	if err != nil {
		v.zaplog.Warn("reserve goods", zap.Int64("goods", g.ID), zap.Int("quantity", quantity), zap.Error(err))
		return model.Reservation{}, err
	}

	v.mu.Lock()
	v.daily++
	v.mu.Unlock()
	return r, nil
}
