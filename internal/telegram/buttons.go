package telegram

import "sync"

// ButtonParams параметры главной кнопки
type ButtonParams struct {
	Text      string
	Color     string
	TextColor string
}

type mainEntry struct {
	id      uint64
	params  ButtonParams
	onClick func()
}

type backEntry struct {
	id      uint64
	onClick func()
}

// Buttons реестр обработчиков кнопок. Активен последний зарегистрированный;
// после его снятия снова активен предыдущий (вложенные экраны).
type Buttons struct {
	mu     sync.Mutex
	nextID uint64
	main   []mainEntry
	back   []backEntry

	// onChange сообщает среде, что показать
	onChange func(main *ButtonParams, back bool)
}

func newButtons(onChange func(main *ButtonParams, back bool)) *Buttons {
	return &Buttons{onChange: onChange}
}

// SetMain показывает главную кнопку. Возвращаемая функция снимает
// именно эту регистрацию; повторный вызов ничего не делает.
func (b *Buttons) SetMain(params ButtonParams, onClick func()) (release func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.main = append(b.main, mainEntry{id: id, params: params, onClick: onClick})
	b.mu.Unlock()
	b.changed()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			for i, e := range b.main {
				if e.id == id {
					b.main = append(b.main[:i], b.main[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			b.changed()
		})
	}
}

// SetBack показывает кнопку "Назад"
func (b *Buttons) SetBack(onClick func()) (release func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.back = append(b.back, backEntry{id: id, onClick: onClick})
	b.mu.Unlock()
	b.changed()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			for i, e := range b.back {
				if e.id == id {
					b.back = append(b.back[:i], b.back[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			b.changed()
		})
	}
}

// Main текущая главная кнопка; false - скрыта
func (b *Buttons) Main() (ButtonParams, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.main) == 0 {
		return ButtonParams{}, false
	}
	return b.main[len(b.main)-1].params, true
}

func (b *Buttons) BackVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back) > 0
}

// PressMain нажатие главной кнопки; false если она скрыта
func (b *Buttons) PressMain() bool {
	b.mu.Lock()
	if len(b.main) == 0 {
		b.mu.Unlock()
		return false
	}
	onClick := b.main[len(b.main)-1].onClick
	b.mu.Unlock()
	// обработчик может сам снять кнопку
	if onClick != nil {
		onClick()
	}
	return true
}

func (b *Buttons) PressBack() bool {
	b.mu.Lock()
	if len(b.back) == 0 {
		b.mu.Unlock()
		return false
	}
	onClick := b.back[len(b.back)-1].onClick
	b.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return true
}

// Handlers число зарегистрированных обработчиков обеих кнопок
func (b *Buttons) Handlers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.main) + len(b.back)
}

func (b *Buttons) changed() {
	if b.onChange == nil {
		return
	}
	params, visible := b.Main()
	var main *ButtonParams
	if visible {
		main = &params
	}
	b.onChange(main, b.BackVisible())
}
