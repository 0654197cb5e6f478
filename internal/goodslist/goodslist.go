// Package goodslist постраничная загрузка списка товаров с бесконечной прокруткой,
// поиском, сортировкой и выбором строк.
//
// Поле total в ответе бэкенда ненадежно (бывает равно размеру страницы),
// поэтому признак "есть еще" выводится из двух сигналов: скорректированного
// total и полной страницы.
package goodslist

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
)

const DefaultPageSize = 100

var (
	ErrLoadInFlight    = errors.New("load already in flight")
	ErrClosed          = errors.New("list is closed")
	ErrNothingSelected = errors.New("nothing selected")
)

// Source источник страниц; *apiclient.Client
type Source interface {
	ListGoods(ctx context.Context, p apiclient.ListParams, opts ...apiclient.RequestOption) (model.Page[model.Goods], error)
	SearchGoods(ctx context.Context, query string, skip int, limit int, opts ...apiclient.RequestOption) (model.Page[model.Goods], error)
	BulkHideGoods(ctx context.Context, ids []int64, opts ...apiclient.RequestOption) error
	BulkShowGoods(ctx context.Context, ids []int64, opts ...apiclient.RequestOption) error
}

type Options struct {
	PageSize      int
	IncludeHidden bool
	// ActiveOnly в список попадают только активные товары (каталог)
	ActiveOnly bool
}

type Engine struct {
	src    Source
	zaplog *zap.Logger
	opts   Options

	mu       sync.Mutex
	items    []model.Goods
	ids      map[int64]struct{}
	offset   int
	total    int
	hasMore  bool
	loading  bool
	closed   bool
	gen      uint64
	query    string
	sort     Sort
	selected map[int64]struct{}
	err      error

	trigger trigger
}

func New(src Source, opts Options, zaplog *zap.Logger) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Engine{
		src:      src,
		zaplog:   zaplog,
		opts:     opts,
		ids:      make(map[int64]struct{}),
		hasMore:  true,
		selected: make(map[int64]struct{}),
	}
}

// State снимок состояния для отрисовки
type State struct {
	Items    []model.Goods
	Total    int
	Offset   int
	HasMore  bool
	Loading  bool
	Query    string
	Sort     Sort
	Selected []int64
	Err      error
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Items:    e.sortedLocked(),
		Total:    e.total,
		Offset:   e.offset,
		HasMore:  e.hasMore,
		Loading:  e.loading,
		Query:    e.query,
		Sort:     e.sort,
		Selected: e.selectedLocked(),
		Err:      e.err,
	}
}

// Items загруженные товары в текущем порядке сортировки
func (e *Engine) Items() []model.Goods {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedLocked()
}

func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// Searching активен режим поиска
func (e *Engine) Searching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query != ""
}

// Загрузка

type ticket struct {
	gen    uint64
	offset int
	query  string
	reset  bool
}

// Load загружает страницу: с нуля при reset, иначе следующую.
// Повторный вызов во время загрузки возвращает ErrLoadInFlight и ничего не меняет.
// Следующая страница после конца списка не запрашивается.
func (e *Engine) Load(ctx context.Context, reset bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.loading {
		e.mu.Unlock()
		return ErrLoadInFlight
	}
	if !reset && !e.hasMore {
		e.mu.Unlock()
		return nil
	}
	t := e.beginLocked(reset)
	e.mu.Unlock()

	return e.fetch(ctx, t)
}

// Search переключает список на результаты поиска.
// Пустой запрос (или из пробелов) возвращает обычный список с начала.
// Смена режима перехватывает текущую загрузку: её результат будет отброшен.
func (e *Engine) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.query = query
	t := e.restartLocked()
	e.mu.Unlock()

	return e.fetch(ctx, t)
}

// Reload загрузка с начала в текущем режиме; загрузка в полете отбрасывается
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	t := e.restartLocked()
	e.mu.Unlock()

	return e.fetch(ctx, t)
}

func (e *Engine) restartLocked() ticket {
	e.gen++
	return e.beginLocked(true)
}

// ClearSearch выход из поиска
func (e *Engine) ClearSearch(ctx context.Context) error {
	return e.Search(ctx, "")
}

func (e *Engine) beginLocked(reset bool) ticket {
	e.loading = true
	t := ticket{gen: e.gen, offset: e.offset, query: e.query, reset: reset}
	if reset {
		t.offset = 0
	}
	return t
}

func (e *Engine) fetch(ctx context.Context, t ticket) error {
	var opts []apiclient.RequestOption
	if t.reset {
		opts = append(opts, apiclient.SkipCache())
	}

	var (
		page model.Page[model.Goods]
		err  error
	)
	if t.query != "" {
		page, err = e.src.SearchGoods(ctx, t.query, t.offset, e.opts.PageSize, opts...)
	} else {
		page, err = e.src.ListGoods(ctx, apiclient.ListParams{
			Skip:          t.offset,
			Limit:         e.opts.PageSize,
			IncludeHidden: e.opts.IncludeHidden,
		}, opts...)
	}

	e.mu.Lock()
	if t.gen != e.gen {
		// режим сменился или список закрыт, текущая загрузка принадлежит другому вызову
		closed := e.closed
		e.mu.Unlock()
		if closed {
			return ErrClosed
		}
		return nil
	}
	e.loading = false
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		e.err = err
		e.mu.Unlock()
		e.zaplog.Warn("goods page load failed", zap.Int("offset", t.offset), zap.Error(err))
		e.rearm()
		return err
	}
	e.err = nil
	e.applyLocked(t, page)
	e.mu.Unlock()

	e.rearm()
	return nil
}

// applyLocked сливает страницу в список и пересчитывает курсор и признак продолжения
func (e *Engine) applyLocked(t ticket, page model.Page[model.Goods]) {
	if t.reset {
		e.items = nil
		e.ids = make(map[int64]struct{})
		e.selected = make(map[int64]struct{})
	}
	for _, g := range page.Items {
		if e.opts.ActiveOnly && !g.IsActive {
			continue
		}
		if _, ok := e.ids[g.ID]; ok {
			continue
		}
		e.ids[g.ID] = struct{}{}
		e.items = append(e.items, g)
	}

	received := len(page.Items)
	e.offset = t.offset + received
	e.total, e.hasMore = Correct(page.Total, t.offset, received, e.opts.PageSize)

	e.zaplog.Debug("goods page loaded",
		zap.Int("offset", t.offset),
		zap.Int("received", received),
		zap.Int("reported_total", page.Total),
		zap.Int("total", e.total),
		zap.Bool("has_more", e.hasMore),
	)
}

// Correct поправка total и признак "есть еще" по полученной странице.
// Если total меньше уже загруженного, он занижен: берется загруженное,
// плюс еще страница, если текущая полная. Полная страница сама по себе
// означает, что данные могут быть. Пустая страница всегда конец.
func Correct(reportedTotal int, offset int, received int, pageSize int) (total int, hasMore bool) {
	loaded := offset + received
	total = reportedTotal
	if total < loaded {
		total = loaded
		if received == pageSize {
			total += pageSize
		}
	}
	if received == 0 {
		return total, false
	}
	return total, received == pageSize || loaded < total
}

// Локальные изменения

// Remove убирает товар из списка после удаления; курсор не сдвигается
func (e *Engine) Remove(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.ids[id]; !ok {
		return
	}
	delete(e.ids, id)
	delete(e.selected, id)
	e.items = slices.DeleteFunc(e.items, func(g model.Goods) bool { return g.ID == id })
}

// Выбор строк

func (e *Engine) ToggleSelected(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.ids[id]; !ok {
		return
	}
	if _, ok := e.selected[id]; ok {
		delete(e.selected, id)
		return
	}
	e.selected[id] = struct{}{}
}

// SelectAll выбирает все загруженные товары
func (e *Engine) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.ids {
		e.selected[id] = struct{}{}
	}
}

func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[int64]struct{})
}

// Selected выбранные id по возрастанию
func (e *Engine) Selected() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedLocked()
}

func (e *Engine) selectedLocked() []int64 {
	ids := make([]int64, 0, len(e.selected))
	for id := range e.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Групповые операции

// BulkHide скрывает выбранные и перезагружает список с начала
func (e *Engine) BulkHide(ctx context.Context) error {
	return e.bulk(ctx, e.src.BulkHideGoods)
}

// BulkShow показывает выбранные и перезагружает список с начала
func (e *Engine) BulkShow(ctx context.Context) error {
	return e.bulk(ctx, e.src.BulkShowGoods)
}

func (e *Engine) bulk(ctx context.Context, op func(context.Context, []int64, ...apiclient.RequestOption) error) error {
	ids := e.Selected()
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if err := op(ctx, ids); err != nil {
		return err
	}
	// выбор сбрасывается перезагрузкой
	return e.Reload(ctx)
}

// Close отключает список: загрузки в полете не применяются, триггер снимается.
// Open или Attach включают список снова.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.gen++
	e.loading = false
	e.mu.Unlock()
	e.trigger.detach()
}

// Open снова включает закрытый список; загруженные строки сохраняются
func (e *Engine) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = false
}
