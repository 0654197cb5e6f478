package goodslist

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Observer следит за видимостью элемента в конце списка.
// onVisible вызывается, когда элемент стал виден; disconnect прекращает наблюдение.
type Observer interface {
	Observe(onVisible func()) (disconnect func())
}

type trigger struct {
	mu         sync.Mutex
	ctx        context.Context
	observer   Observer
	disconnect func()
}

// Attach включает догрузку при прокрутке и открывает закрытый список.
// Наблюдение перезапускается после каждой загрузки.
func (e *Engine) Attach(ctx context.Context, obs Observer) {
	e.Open()
	e.trigger.mu.Lock()
	e.trigger.ctx = ctx
	e.trigger.observer = obs
	e.trigger.mu.Unlock()
	e.rearm()
}

// Detach снимает наблюдение
func (e *Engine) Detach() {
	e.trigger.detach()
}

func (e *Engine) rearm() {
	e.trigger.mu.Lock()
	defer e.trigger.mu.Unlock()
	if e.trigger.disconnect != nil {
		e.trigger.disconnect()
		e.trigger.disconnect = nil
	}
	if e.trigger.observer == nil {
		return
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.trigger.disconnect = e.trigger.observer.Observe(e.onVisible)
}

func (e *Engine) onVisible() {
	e.mu.Lock()
	ready := !e.loading && e.hasMore && !e.closed
	e.mu.Unlock()
	if !ready {
		return
	}

	e.trigger.mu.Lock()
	ctx := e.trigger.ctx
	e.trigger.mu.Unlock()

	if err := e.Load(ctx, false); err != nil && !errors.Is(err, ErrLoadInFlight) && !errors.Is(err, ErrClosed) {
		e.zaplog.Debug("scroll load failed", zap.Error(err))
	}
}

func (t *trigger) detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disconnect != nil {
		t.disconnect()
		t.disconnect = nil
	}
	t.observer = nil
}

// ManualObserver наблюдатель, видимость которого сообщает вызывающий (команда "еще" в CLI, тесты)
type ManualObserver struct {
	mu        sync.Mutex
	onVisible func()
	current   uint64
	observing int
}

func (o *ManualObserver) Observe(onVisible func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onVisible = onVisible
	o.current++
	o.observing++
	id := o.current

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if o.current == id {
				o.onVisible = nil
			}
			o.observing--
		})
	}
}

// Visible сообщает, что элемент стал виден; false если никто не наблюдает
func (o *ManualObserver) Visible() bool {
	o.mu.Lock()
	cb := o.onVisible
	o.mu.Unlock()
	if cb == nil {
		return false
	}
	cb()
	return true
}

// Observing число активных наблюдений
func (o *ManualObserver) Observing() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.observing
}
