package admin

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/store"
)

// сколько товаров подтягивается для подписей строк
const availabilityGoodsLimit = 1000

// AvailabilityGroup доступность одного товара по датам
type AvailabilityGroup struct {
	GoodsID      int64
	GoodsName    string
	GoodsArticle string
	GoodsImage   string
	GoodsPrice   int
	Days         []model.DailyAvailability
}

// AvailabilityView сводка доступности всех товаров
type AvailabilityView struct {
	api      API
	store    store.Store
	notifier notify.Notifier
	zaplog   *zap.Logger

	mu     sync.Mutex
	groups []AvailabilityGroup
}

func NewAvailabilityView(api API, st store.Store, notifier notify.Notifier, zaplog *zap.Logger) *AvailabilityView {
	return &AvailabilityView{api: api, store: st, notifier: notifier, zaplog: zaplog}
}

// Load параллельно загружает доступность и товары, группирует строки по товару
func (v *AvailabilityView) Load(ctx context.Context) ([]AvailabilityGroup, error) {
	var (
		rows  []model.DailyAvailability
		goods model.Page[model.Goods]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = v.api.ListAvailability(gctx, apiclient.Quiet())
		return err
	})
	g.Go(func() error {
		var err error
		goods, err = v.api.ListGoods(gctx, apiclient.ListParams{Limit: availabilityGoodsLimit, IncludeHidden: true}, apiclient.Quiet())
		return err
	})
	if err := g.Wait(); err != nil {
		v.zaplog.Warn("load availability", zap.Error(err))
		v.notifier.Error("Ошибка при загрузке данных: " + err.Error())
		return nil, err
	}

	groups := GroupAvailability(Enrich(rows, goods.Items))
	v.mu.Lock()
	v.groups = groups
	v.mu.Unlock()
	return groups, nil
}

func (v *AvailabilityView) Groups() []AvailabilityGroup {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.groups
}

// Filter группы с датами, содержащими подстроку; даты сверяются в виде ДД.ММ.ГГГГ
func (v *AvailabilityView) Filter(date string) []AvailabilityGroup {
	return FilterByDate(v.Groups(), date)
}

// Highlight передает id товара списку товаров перед переходом к нему
func (v *AvailabilityView) Highlight(ctx context.Context, goodsID int64) error {
	return v.store.Set(ctx, store.KeyHighlightedGoods, strconv.FormatInt(goodsID, 10))
}

// Regenerate пересоздает доступность товара и перезагружает сводку
func (v *AvailabilityView) Regenerate(ctx context.Context, goodsID int64) (int, error) {
	n, err := v.api.RegenerateAvailability(ctx, goodsID)
	if err != nil {
		return 0, err
	}
	if _, err := v.Load(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Enrich дополняет строки данными товара там, где бэкенд их не прислал
func Enrich(rows []model.DailyAvailability, goods []model.Goods) []model.DailyAvailability {
	byID := make(map[int64]model.Goods, len(goods))
	for _, g := range goods {
		byID[g.ID] = g
	}
	out := make([]model.DailyAvailability, 0, len(rows))
	for _, r := range rows {
		if g, ok := byID[r.GoodsID]; ok {
			if r.GoodsName == "" {
				r.GoodsName = g.Name
			}
			if r.GoodsArticle == "" {
				r.GoodsArticle = g.Article
			}
			if r.GoodsImage == "" {
				r.GoodsImage = g.Image
			}
			if r.GoodsPrice == 0 {
				r.GoodsPrice = g.Price
			}
		}
		if r.GoodsName == "" {
			r.GoodsName = fmt.Sprintf("Товар #%d", r.GoodsID)
		}
		if r.GoodsArticle == "" {
			r.GoodsArticle = "Н/Д"
		}
		out = append(out, r)
	}
	return out
}

// GroupAvailability группы в порядке первого появления товара, даты по возрастанию
func GroupAvailability(rows []model.DailyAvailability) []AvailabilityGroup {
	index := make(map[int64]int)
	var groups []AvailabilityGroup
	for _, r := range rows {
		i, ok := index[r.GoodsID]
		if !ok {
			i = len(groups)
			index[r.GoodsID] = i
			groups = append(groups, AvailabilityGroup{
				GoodsID:      r.GoodsID,
				GoodsName:    r.GoodsName,
				GoodsArticle: r.GoodsArticle,
				GoodsImage:   r.GoodsImage,
				GoodsPrice:   r.GoodsPrice,
			})
		}
		groups[i].Days = append(groups[i].Days, r)
	}
	for i := range groups {
		slices.SortStableFunc(groups[i].Days, func(a, b model.DailyAvailability) int {
			return a.Date.Compare(b.Date.Time)
		})
	}
	return groups
}

func FilterByDate(groups []AvailabilityGroup, date string) []AvailabilityGroup {
	date = strings.TrimSpace(date)
	if date == "" {
		return groups
	}
	var out []AvailabilityGroup
	for _, g := range groups {
		var days []model.DailyAvailability
		for _, d := range g.Days {
			if strings.Contains(FormatDate(d.Date), date) {
				days = append(days, d)
			}
		}
		if len(days) > 0 {
			g.Days = days
			out = append(out, g)
		}
	}
	return out
}

// FormatDate дата в виде ДД.ММ.ГГГГ
func FormatDate(d model.Date) string {
	return d.Format("02.01.2006")
}
