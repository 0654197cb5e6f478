package confirmation

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
)

type State int

const (
	StateIdle State = iota
	StateDetailsShown
	StateFormShown
	StateSubmitting
	StateClosedSuccess
	StateClosedError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetailsShown:
		return "details"
	case StateFormShown:
		return "form"
	case StateSubmitting:
		return "submitting"
	case StateClosedSuccess:
		return "closed-success"
	case StateClosedError:
		return "closed-error"
	default:
		return "unknown"
	}
}

var (
	ErrWrongState       = errors.New("confirmation workflow is in wrong state")
	ErrSubmitInProgress = errors.New("confirmation submit in progress")
)

// API нужные методы клиента
type API interface {
	GetGoods(ctx context.Context, id int64, opts ...apiclient.RequestOption) (model.Goods, error)
	SubmitConfirmation(ctx context.Context, reservationID int64, sub apiclient.ConfirmationSubmission, opts ...apiclient.RequestOption) (model.Reservation, error)
}

// Result итог отправки для списка бронирований
type Result struct {
	ReservationID int64
	Phase         model.Phase
	// Remove бронирование уходит из списка (получение подтверждено)
	Remove bool
	// Status новый статус, если бронирование остается
	Status model.ReservationStatus
}

// Apply применяет итог к списку бронирований пользователя
func (r Result) Apply(list []model.Reservation) []model.Reservation {
	out := make([]model.Reservation, 0, len(list))
	for _, res := range list {
		if res.ID == r.ReservationID {
			if r.Remove {
				continue
			}
			res.Status = r.Status
		}
		out = append(out, res)
	}
	return out
}

// Workflow подтверждение одного бронирования:
// idle -> details -> form -> submitting -> closed-success | closed-error.
// Ошибка отправки возвращает форму с введенными данными.
type Workflow struct {
	api      API
	notifier notify.Notifier
	zaplog   *zap.Logger

	mu          sync.Mutex
	state       State
	reservation model.Reservation
	phase       model.Phase
	form        *Form
	noReqs      bool
}

func New(api API, notifier notify.Notifier, zaplog *zap.Logger) *Workflow {
	return &Workflow{api: api, notifier: notifier, zaplog: zaplog}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Reservation бронирование с подгруженным товаром
func (w *Workflow) Reservation() model.Reservation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reservation
}

func (w *Workflow) Form() *Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// NoRequirements этап завершен без формы: требований нет
func (w *Workflow) NoRequirements() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.noReqs
}

// ShowDetails открывает бронирование; товар загружается, если не приложен
func (w *Workflow) ShowDetails(ctx context.Context, reservation model.Reservation) error {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return ErrSubmitInProgress
	}
	w.reset()
	w.mu.Unlock()

	if reservation.Goods == nil {
		goods, err := w.api.GetGoods(ctx, reservation.GoodsID, apiclient.Quiet())
		if err != nil {
			w.zaplog.Warn("load reservation goods", zap.Int64("reservation", reservation.ID), zap.Error(err))
			w.notifier.Error("Не удалось загрузить данные о товаре")
			w.mu.Lock()
			w.state = StateClosedError
			w.mu.Unlock()
			return err
		}
		reservation.Goods = &goods
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.reservation = reservation
	w.phase = model.PhaseFor(reservation.Status)
	w.state = StateDetailsShown
	return nil
}

// OpenForm строит форму этапа. Без требований форма не нужна:
// пользователь получает подсказку, процесс закрывается без обращения к сети, возвращается nil.
func (w *Workflow) OpenForm() (*Form, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateDetailsShown {
		return nil, ErrWrongState
	}

	reqs := w.reservation.Goods.Requirements(w.phase)
	if len(reqs) == 0 {
		if w.phase == model.PhaseOrder {
			w.notifier.Info("Для этого товара не требуется подтверждение выкупа. Пожалуйста, следуйте инструкциям по покупке.")
		} else {
			w.notifier.Info("Для этого товара не требуется подтверждение доставки. Пожалуйста, следуйте инструкциям.")
		}
		w.noReqs = true
		w.state = StateClosedSuccess
		return nil, nil
	}

	w.form = NewForm(w.phase, reqs)
	w.state = StateFormShown
	return w.form, nil
}

// Submit проверяет форму и отправляет её. Повторный вызов во время отправки отклоняется.
func (w *Workflow) Submit(ctx context.Context) (Result, error) {
	w.mu.Lock()
	switch w.state {
	case StateSubmitting:
		w.mu.Unlock()
		return Result{}, ErrSubmitInProgress
	case StateFormShown:
	default:
		w.mu.Unlock()
		return Result{}, ErrWrongState
	}
	if err := w.form.Validate(); err != nil {
		w.mu.Unlock()
		w.notifier.Error(err.Error())
		return Result{}, err
	}
	w.state = StateSubmitting
	reservationID := w.reservation.ID
	phase := w.phase
	sub := w.form.Submission()
	w.mu.Unlock()

	_, err := w.api.SubmitConfirmation(ctx, reservationID, sub, apiclient.Quiet())

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		// форма остается с данными для повтора
		w.state = StateFormShown
		w.zaplog.Warn("submit confirmation", zap.Int64("reservation", reservationID), zap.Error(err))
		w.notifier.Error("Ошибка при отправке данных: " + err.Error())
		return Result{}, err
	}

	w.state = StateClosedSuccess
	result := Result{ReservationID: reservationID, Phase: phase}
	if phase == model.PhaseDelivery {
		result.Remove = true
		w.notifier.Success("Информация о доставке успешно отправлена")
	} else {
		result.Status = model.ReservationActive
		w.reservation.Status = model.ReservationActive
		w.notifier.Success("Информация для подтверждения выкупа успешно отправлена")
	}
	return result, nil
}

// Close закрывает окно подтверждения
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return
	}
	w.reset()
}

func (w *Workflow) reset() {
	w.state = StateIdle
	w.reservation = model.Reservation{}
	w.form = nil
	w.noReqs = false
}
