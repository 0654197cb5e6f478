package admin

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
)

var (
	ErrNotCancelable      = errors.New("reservation cannot be canceled")
	ErrReservationUnknown = errors.New("reservation not loaded")
)

// ReservationsView все бронирования
type ReservationsView struct {
	api      API
	notifier notify.Notifier
	zaplog   *zap.Logger

	mu           sync.Mutex
	reservations []model.Reservation
}

func NewReservationsView(api API, notifier notify.Notifier, zaplog *zap.Logger) *ReservationsView {
	return &ReservationsView{api: api, notifier: notifier, zaplog: zaplog}
}

func (v *ReservationsView) Load(ctx context.Context) ([]model.Reservation, error) {
	list, err := v.api.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reservations = list
	return list, nil
}

// Filter бронирования с одним из статусов; без статусов все
func (v *ReservationsView) Filter(statuses ...model.ReservationStatus) []model.Reservation {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(statuses) == 0 {
		return v.reservations
	}
	var out []model.Reservation
	for _, r := range v.reservations {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Cancel отменяет бронирование в статусе pending или active
func (v *ReservationsView) Cancel(ctx context.Context, id int64) error {
	v.mu.Lock()
	i := v.indexLocked(id)
	if i < 0 {
		v.mu.Unlock()
		return ErrReservationUnknown
	}
	status := v.reservations[i].Status
	v.mu.Unlock()
	if !status.Cancelable() {
		v.notifier.Error("Бронирование нельзя отменить")
		return ErrNotCancelable
	}

	if err := v.api.CancelReservation(ctx, id); err != nil {
		v.zaplog.Warn("cancel reservation", zap.Int64("id", id), zap.Error(err))
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(id); i >= 0 {
		v.reservations[i].Status = model.ReservationCanceled
	}
	return nil
}

func (v *ReservationsView) indexLocked(id int64) int {
	for i, r := range v.reservations {
		if r.ID == id {
			return i
		}
	}
	return -1
}
