package catalog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/confirmation"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
)

var (
	ErrReservationUnknown = errors.New("reservation not loaded")
	ErrNotCancelable      = errors.New("reservation cannot be canceled")
)

// статусы, которые видит покупатель
var openStatuses = []model.ReservationStatus{model.ReservationPending, model.ReservationActive}

// MyReservationsView бронирования пользователя, ожидающие выкупа или доставки
type MyReservationsView struct {
	api      API
	notifier notify.Notifier
	zaplog   *zap.Logger
	workflow *confirmation.Workflow

	mu           sync.Mutex
	reservations []model.Reservation
}

func NewMyReservationsView(api API, notifier notify.Notifier, zaplog *zap.Logger) *MyReservationsView {
	return &MyReservationsView{
		api:      api,
		notifier: notifier,
		zaplog:   zaplog,
		workflow: confirmation.New(api, notifier, zaplog),
	}
}

func (v *MyReservationsView) Workflow() *confirmation.Workflow {
	return v.workflow
}

// Load всегда из сети: статусы меняются на бэкенде
func (v *MyReservationsView) Load(ctx context.Context) ([]model.Reservation, error) {
	list, err := v.api.ListUserReservations(ctx, openStatuses, apiclient.SkipCache(), apiclient.Quiet())
	if err != nil {
		v.zaplog.Warn("load user reservations", zap.Error(err))
		v.notifier.Error("Не удалось загрузить ваши бронирования")
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reservations = list
	return list, nil
}

func (v *MyReservationsView) Reservations() []model.Reservation {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reservations
}

func (v *MyReservationsView) find(id int64) (model.Reservation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.reservations {
		if r.ID == id {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// Open показывает бронирование с данными товара
func (v *MyReservationsView) Open(ctx context.Context, id int64) (model.Reservation, error) {
	r, ok := v.find(id)
	if !ok {
		return model.Reservation{}, ErrReservationUnknown
	}
	if err := v.workflow.ShowDetails(ctx, r); err != nil {
		return model.Reservation{}, err
	}
	return v.workflow.Reservation(), nil
}

// Confirm открывает форму этапа; nil без ошибки - требований нет
func (v *MyReservationsView) Confirm() (*confirmation.Form, error) {
	return v.workflow.OpenForm()
}

// Submit отправляет форму и применяет итог к списку
func (v *MyReservationsView) Submit(ctx context.Context) (confirmation.Result, error) {
	result, err := v.workflow.Submit(ctx)
	if err != nil {
		return confirmation.Result{}, err
	}
	v.mu.Lock()
	v.reservations = result.Apply(v.reservations)
	v.mu.Unlock()
	return result, nil
}

func (v *MyReservationsView) Close() {
	v.workflow.Close()
}

// Cancel отменяет бронирование и убирает его из списка
func (v *MyReservationsView) Cancel(ctx context.Context, id int64) error {
	r, ok := v.find(id)
	if !ok {
		return ErrReservationUnknown
	}
	if !r.Status.Cancelable() {
		return ErrNotCancelable
	}
	if err := v.api.CancelReservation(ctx, id); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.Reservation, 0, len(v.reservations))
	for _, res := range v.reservations {
		if res.ID != id {
			out = append(out, res)
		}
	}
	v.reservations = out
	return nil
}
