package admin

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/store"
	"github.com/iurnickita/goodsreserv/internal/telegram"
)

// GoodsListView список товаров администратора, включая скрытые
type GoodsListView struct {
	api      API
	store    store.Store
	buttons  *telegram.Buttons
	notifier notify.Notifier
	zaplog   *zap.Logger

	engine *goodslist.Engine

	mu          sync.Mutex
	highlighted int64
	release     []func()
}

func NewGoodsListView(api API, st store.Store, buttons *telegram.Buttons, notifier notify.Notifier, zaplog *zap.Logger) *GoodsListView {
	return &GoodsListView{
		api:      api,
		store:    st,
		buttons:  buttons,
		notifier: notifier,
		zaplog:   zaplog,
		engine:   goodslist.New(api, goodslist.Options{IncludeHidden: true}, zaplog),
	}
}

func (v *GoodsListView) Engine() *goodslist.Engine {
	return v.engine
}

// Highlighted id товара, переданного другим экраном; 0 если нет
func (v *GoodsListView) Highlighted() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.highlighted
}

// Mount забирает id подсветки, показывает кнопку "Добавить товар",
// включает догрузку при прокрутке и загружает первую страницу
func (v *GoodsListView) Mount(ctx context.Context, obs goodslist.Observer, onAdd func()) error {
	v.takeHighlight(ctx)

	// повторный Mount заменяет прежнюю кнопку
	v.releaseButtons()
	release := v.buttons.SetMain(telegram.ButtonParams{Text: "Добавить товар"}, onAdd)
	v.mu.Lock()
	v.release = append(v.release, release)
	v.mu.Unlock()

	v.engine.Open()
	if obs != nil {
		v.engine.Attach(ctx, obs)
	}
	if err := v.engine.Load(ctx, true); err != nil && !errors.Is(err, goodslist.ErrLoadInFlight) {
		v.notifier.Error("Ошибка при загрузке товаров: " + err.Error())
		return err
	}
	return nil
}

func (v *GoodsListView) takeHighlight(ctx context.Context) {
	value, err := v.store.Take(ctx, store.KeyHighlightedGoods)
	if err != nil {
		if !errors.Is(err, store.ErrNoRows) {
			v.zaplog.Warn("take highlighted goods", zap.Error(err))
		}
		return
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		v.zaplog.Warn("bad highlighted goods id", zap.String("value", value))
		return
	}
	v.mu.Lock()
	v.highlighted = id
	v.mu.Unlock()
}

// Unmount останавливает загрузки и снимает кнопки
func (v *GoodsListView) Unmount() {
	v.engine.Close()
	v.releaseButtons()
}

func (v *GoodsListView) releaseButtons() {
	v.mu.Lock()
	release := v.release
	v.release = nil
	v.mu.Unlock()
	for _, r := range release {
		r()
	}
}

// Delete удаляет товар и убирает его из загруженного списка
func (v *GoodsListView) Delete(ctx context.Context, id int64) error {
	if err := v.api.DeleteGoods(ctx, id); err != nil {
		return err
	}
	v.engine.Remove(id)
	return nil
}

// Items текущие строки
func (v *GoodsListView) Items() []model.Goods {
	return v.engine.Items()
}
