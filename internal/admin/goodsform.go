package admin

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/telegram"
)

var ErrSaveInProgress = errors.New("goods save in progress")

// GoodsFormView создание и редактирование товара
type GoodsFormView struct {
	api      API
	buttons  *telegram.Buttons
	notifier notify.Notifier
	zaplog   *zap.Logger

	mu      sync.Mutex
	id      int64
	form    GoodsForm
	saving  bool
	release []func()
}

func NewGoodsFormView(api API, buttons *telegram.Buttons, notifier notify.Notifier, zaplog *zap.Logger) *GoodsFormView {
	return &GoodsFormView{
		api:      api,
		buttons:  buttons,
		notifier: notifier,
		zaplog:   zaplog,
		form:     NewGoodsForm(),
	}
}

// Load заполняет форму существующим товаром
func (v *GoodsFormView) Load(ctx context.Context, id int64) error {
	g, err := v.api.GetGoods(ctx, id, apiclient.SkipCache())
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.id = g.ID
	v.form = GoodsFormFrom(g)
	return nil
}

// Prefill черновик из разбора ссылки
func (v *GoodsFormView) Prefill(f GoodsForm) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form = f
}

func (v *GoodsFormView) Form() GoodsForm {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// Edit меняет поля формы
func (v *GoodsFormView) Edit(fn func(f *GoodsForm)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.form)
}

func (v *GoodsFormView) Editing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id != 0
}

// Mount показывает главную кнопку сохранения и кнопку назад
func (v *GoodsFormView) Mount(ctx context.Context, onSaved func(model.Goods), onBack func()) {
	text := "Создать товар"
	if v.Editing() {
		text = "Сохранить товар"
	}
	releaseMain := v.buttons.SetMain(telegram.ButtonParams{Text: text}, func() {
		g, err := v.Save(ctx)
		if err == nil && onSaved != nil {
			onSaved(g)
		}
	})
	releaseBack := v.buttons.SetBack(onBack)

	v.mu.Lock()
	v.release = append(v.release, releaseMain, releaseBack)
	v.mu.Unlock()
}

func (v *GoodsFormView) Unmount() {
	v.mu.Lock()
	release := v.release
	v.release = nil
	v.mu.Unlock()
	for _, r := range release {
		r()
	}
}

// Save проверяет форму и создает или обновляет товар
func (v *GoodsFormView) Save(ctx context.Context) (model.Goods, error) {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return model.Goods{}, ErrSaveInProgress
	}
	form := v.form
	id := v.id
	if err := form.Validate(); err != nil {
		v.mu.Unlock()
		v.notifier.Error(err.Error())
		return model.Goods{}, err
	}
	in, err := form.Input()
	if err != nil {
		v.mu.Unlock()
		return model.Goods{}, err
	}
	v.saving = true
	v.mu.Unlock()

	var g model.Goods
	if id == 0 {
		g, err = v.api.CreateGoods(ctx, in)
	} else {
		g, err = v.api.UpdateGoods(ctx, id, in)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.saving = false
	if err != nil {
		v.zaplog.Warn("save goods", zap.Int64("id", id), zap.Error(err))
		return model.Goods{}, err
	}
	v.id = g.ID
	v.form = GoodsFormFrom(g)
	return g, nil
}

// Разбор ссылки

// ParseView первый шаг создания товара: ссылка на карточку Wildberries
type ParseView struct {
	api      API
	notifier notify.Notifier
	zaplog   *zap.Logger
}

func NewParseView(api API, notifier notify.Notifier, zaplog *zap.Logger) *ParseView {
	return &ParseView{api: api, notifier: notifier, zaplog: zaplog}
}

// Parse черновик формы по ссылке. Ошибка разбора не мешает созданию:
// возвращается пустая форма для ручного ввода и manual=true.
func (v *ParseView) Parse(ctx context.Context, productURL string) (form GoodsForm, manual bool, err error) {
	productURL = strings.TrimSpace(productURL)
	if productURL == "" {
		err = &FormError{Field: "URL", Message: "Пожалуйста, введите URL товара"}
		v.notifier.Error(err.Error())
		return GoodsForm{}, false, err
	}
	if !strings.Contains(productURL, "wildberries.ru") {
		err = &FormError{Field: "URL", Message: "Пожалуйста, введите корректную ссылку на товар Wildberries"}
		v.notifier.Error(err.Error())
		return GoodsForm{}, false, err
	}

	draft, perr := v.api.ParseWildberries(ctx, productURL, apiclient.Quiet())
	if perr != nil {
		v.zaplog.Info("parse wildberries failed, manual entry", zap.String("url", productURL), zap.Error(perr))
		form = NewGoodsForm()
		form.URL = productURL
		return form, true, nil
	}
	form = GoodsFormFromDraft(draft)
	if form.URL == "" {
		form.URL = productURL
	}
	return form, false, nil
}

// Manual пустая форма без разбора
func (v *ParseView) Manual() GoodsForm {
	return NewGoodsForm()
}
