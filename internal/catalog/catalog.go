// Package catalog экраны покупателя: каталог, карточка товара с бронированием
// и собственные бронирования с подтверждением этапов.
package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
)

// API методы клиента, нужные экранам; *apiclient.Client
type API interface {
	goodslist.Source

	GetGoods(ctx context.Context, id int64, opts ...apiclient.RequestOption) (model.Goods, error)
	Reserve(ctx context.Context, goodsID int64, quantity int, opts ...apiclient.RequestOption) (model.Reservation, error)
	DailyReservationsCount(ctx context.Context, userID int64) int
	ListUserReservations(ctx context.Context, statuses []model.ReservationStatus, opts ...apiclient.RequestOption) ([]model.Reservation, error)
	CancelReservation(ctx context.Context, id int64, opts ...apiclient.RequestOption) error
	SubmitConfirmation(ctx context.Context, reservationID int64, sub apiclient.ConfirmationSubmission, opts ...apiclient.RequestOption) (model.Reservation, error)
}

// CatalogView каталог активных товаров с поиском.
// Корневой экран: кнопка "Назад" не регистрируется.
type CatalogView struct {
	notifier notify.Notifier
	zaplog   *zap.Logger
	engine   *goodslist.Engine
}

func NewCatalogView(api API, notifier notify.Notifier, zaplog *zap.Logger) *CatalogView {
	return &CatalogView{
		notifier: notifier,
		zaplog:   zaplog,
		engine:   goodslist.New(api, goodslist.Options{ActiveOnly: true}, zaplog),
	}
}

func (v *CatalogView) Engine() *goodslist.Engine {
	return v.engine
}

// Mount включает догрузку при прокрутке и загружает первую страницу.
// После Unmount экран можно смонтировать снова.
func (v *CatalogView) Mount(ctx context.Context, obs goodslist.Observer) error {
	v.engine.Open()
	if obs != nil {
		v.engine.Attach(ctx, obs)
	}
	return v.load(v.engine.Load(ctx, true))
}

func (v *CatalogView) Unmount() {
	v.engine.Close()
}

func (v *CatalogView) Search(ctx context.Context, query string) error {
	return v.load(v.engine.Search(ctx, query))
}

func (v *CatalogView) ClearSearch(ctx context.Context) error {
	return v.load(v.engine.ClearSearch(ctx))
}

// More следующая страница
func (v *CatalogView) More(ctx context.Context) error {
	return v.load(v.engine.Load(ctx, false))
}

func (v *CatalogView) Items() []model.Goods {
	return v.engine.Items()
}

func (v *CatalogView) load(err error) error {
	if err == nil || errors.Is(err, goodslist.ErrLoadInFlight) {
		return nil
	}
	v.zaplog.Warn("load catalog", zap.Error(err))
	return err
}
