package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	apiconfig "github.com/iurnickita/goodsreserv/internal/apiclient/config"
	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/store"
	storeconfig "github.com/iurnickita/goodsreserv/internal/store/config"
	"github.com/iurnickita/goodsreserv/internal/telegram"
)

func newTestAPI(t *testing.T, h http.Handler) (*apiclient.Client, *notify.Recorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := apiconfig.Config{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		InitDataHeader: "X-Telegram-Init-Data",
	}
	rec := &notify.Recorder{}
	return apiclient.NewClient(cfg, nil, rec, zap.NewNop()), rec
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewStore(storeconfig.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newButtons() *telegram.Buttons {
	return telegram.NewStandalone(func() bool { return false }, "light", zap.NewNop()).Buttons()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func validForm() GoodsForm {
	f := NewGoodsForm()
	f.Name = "Чайник"
	f.Article = "123456789"
	f.Image = "/app/media/kettle.jpg"
	f.Price = 1500
	f.CashbackPercent = 20
	f.MinDaily = 1
	f.MaxDaily = 3
	return f
}

func TestGoodsFormValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *GoodsForm)
		field  string
	}{
		{name: "ok", modify: func(f *GoodsForm) {}},
		{name: "no name", modify: func(f *GoodsForm) { f.Name = "  " }, field: "GoodsForm.Name"},
		{name: "no article", modify: func(f *GoodsForm) { f.Article = "" }, field: "GoodsForm.Article"},
		{name: "no image", modify: func(f *GoodsForm) { f.Image = "" }, field: "GoodsForm.Image"},
		{name: "negative price", modify: func(f *GoodsForm) { f.Price = -1 }, field: "GoodsForm.Price"},
		{name: "cashback over 100", modify: func(f *GoodsForm) { f.CashbackPercent = 101 }, field: "GoodsForm.CashbackPercent"},
		{name: "min over max", modify: func(f *GoodsForm) { f.MinDaily = 5 }, field: "GoodsForm.MinDaily"},
		{name: "bad url", modify: func(f *GoodsForm) { f.URL = "wildberries" }, field: "GoodsForm.URL"},
		{name: "requirement without title", modify: func(f *GoodsForm) {
			f.ConfirmationRequirements = []RequirementForm{{Type: "text"}}
		}, field: "GoodsForm.ConfirmationRequirements[0].Title"},
		{name: "requirement bad type", modify: func(f *GoodsForm) {
			f.DeliveryConfirmationRequirements = []RequirementForm{{Title: "Фото", Type: "audio"}}
		}, field: "GoodsForm.DeliveryConfirmationRequirements[0].Type"},
		{name: "bad date", modify: func(f *GoodsForm) { f.StartDate = "01.02.2025" }, field: "StartDate"},
		{name: "end before start", modify: func(f *GoodsForm) {
			f.StartDate = "2025-02-10"
			f.EndDate = "2025-02-01"
		}, field: "EndDate"},
		{name: "same day", modify: func(f *GoodsForm) {
			f.StartDate = "2025-02-10"
			f.EndDate = "2025-02-10"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.modify(&f)
			err := f.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var ferr *FormError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.field, ferr.Field)
			assert.NotEmpty(t, ferr.Message)
		})
	}
}

func TestGoodsFormMessages(t *testing.T) {
	f := validForm()
	f.Name = ""
	require.EqualError(t, f.Validate(), "Поле «Название» обязательно")

	f = validForm()
	f.CashbackPercent = 150
	require.EqualError(t, f.Validate(), "«Кэшбэк, %» не может быть больше 100")
}

func TestGoodsFormInput(t *testing.T) {
	f := validForm()
	f.StartDate = "2025-03-01"
	f.ConfirmationRequirements = []RequirementForm{{Title: " Номер заказа ", Type: "text"}}

	in, err := f.Input()
	require.NoError(t, err)
	require.Nil(t, in.CategoryID)
	require.NotNil(t, in.StartDate)
	require.Nil(t, in.EndDate)
	require.Len(t, in.ConfirmationRequirements, 1)
	// новому требованию выдается id
	assert.NotEmpty(t, in.ConfirmationRequirements[0].ID)
	assert.Equal(t, "Номер заказа", in.ConfirmationRequirements[0].Title)

	body, err := json.Marshal(in)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	// пустая категория уходит как null
	v, ok := raw["category_id"]
	require.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "2025-03-01", raw["start_date"])

	f.CategoryID = 4
	in, err = f.Input()
	require.NoError(t, err)
	require.NotNil(t, in.CategoryID)
	assert.Equal(t, int64(4), *in.CategoryID)
}

func TestGoodsFormViewCreate(t *testing.T) {
	var got apiclient.GoodsInput
	mux := http.NewServeMux()
	mux.HandleFunc("POST /goods/", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, model.Goods{ID: 11, Name: got.Name, Article: got.Article, Image: got.Image, MinDaily: 1, MaxDaily: 3})
	})
	api, rec := newTestAPI(t, mux)
	buttons := newButtons()
	view := NewGoodsFormView(api, buttons, rec, zap.NewNop())
	view.Prefill(validForm())

	var saved model.Goods
	view.Mount(context.Background(), func(g model.Goods) { saved = g }, func() {})
	params, visible := buttons.Main()
	require.True(t, visible)
	require.Equal(t, "Создать товар", params.Text)
	require.True(t, buttons.BackVisible())

	require.True(t, buttons.PressMain())
	require.Equal(t, int64(11), saved.ID)
	require.Equal(t, "Чайник", got.Name)
	require.Equal(t, "Товар успешно создан", rec.Last().Text)
	require.True(t, view.Editing())

	view.Unmount()
	require.Equal(t, 0, buttons.Handlers())
}

func TestGoodsFormViewEdit(t *testing.T) {
	catID := int64(2)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /goods/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Goods{
			ID: 5, Name: "Лампа", Article: "A-1", Image: "img.jpg", Price: 300,
			MinDaily: 1, MaxDaily: 2, CategoryID: &catID, IsActive: true,
		})
	})
	var method string
	mux.HandleFunc("PUT /goods/{id}", func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		var in apiclient.GoodsInput
		json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, model.Goods{ID: 5, Name: in.Name, Article: in.Article, Image: in.Image, Price: in.Price, MinDaily: 1, MaxDaily: 2})
	})
	api, rec := newTestAPI(t, mux)
	buttons := newButtons()
	view := NewGoodsFormView(api, buttons, rec, zap.NewNop())

	require.NoError(t, view.Load(context.Background(), 5))
	require.Equal(t, int64(2), view.Form().CategoryID)

	view.Mount(context.Background(), nil, nil)
	params, _ := buttons.Main()
	require.Equal(t, "Сохранить товар", params.Text)

	view.Edit(func(f *GoodsForm) { f.Price = 350 })
	g, err := view.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, 350, g.Price)
	require.Equal(t, "Товар успешно обновлен", rec.Last().Text)
	view.Unmount()
}

func TestGoodsFormViewValidationBlocksRequest(t *testing.T) {
	var hits atomic.Int32
	api, rec := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, model.Goods{})
	}))
	view := NewGoodsFormView(api, newButtons(), rec, zap.NewNop())

	_, err := view.Save(context.Background())
	var ferr *FormError
	require.ErrorAs(t, err, &ferr)
	// запроса не было
	require.Equal(t, int32(0), hits.Load())
	require.Equal(t, notify.LevelError, rec.Last().Level)
}

func TestParseView(t *testing.T) {
	var fail atomic.Bool
	api, rec := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusBadGateway, map[string]string{"detail": "wildberries unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, apiclient.GoodsInput{Name: "Кружка", Article: "777", Price: 250, Image: "https://img/1.jpg"})
	}))
	view := NewParseView(api, rec, zap.NewNop())
	ctx := context.Background()

	_, _, err := view.Parse(ctx, "   ")
	require.EqualError(t, err, "Пожалуйста, введите URL товара")

	_, _, err = view.Parse(ctx, "https://ozon.ru/product/1")
	require.EqualError(t, err, "Пожалуйста, введите корректную ссылку на товар Wildberries")
	require.Equal(t, 2, rec.Count(notify.LevelError))

	link := "https://www.wildberries.ru/catalog/777/detail.aspx"
	form, manual, err := view.Parse(ctx, link)
	require.NoError(t, err)
	require.False(t, manual)
	require.Equal(t, "Кружка", form.Name)
	require.Equal(t, link, form.URL)
	require.Equal(t, 1, form.MinDaily)

	// ошибка разбора: ручной ввод без уведомления об ошибке
	fail.Store(true)
	form, manual, err = view.Parse(ctx, link)
	require.NoError(t, err)
	require.True(t, manual)
	require.Equal(t, link, form.URL)
	require.Empty(t, form.Name)
	require.Equal(t, 2, rec.Count(notify.LevelError))
}

func TestGoodsListViewMount(t *testing.T) {
	var query atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /goods/", func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		writeJSON(w, http.StatusOK, model.Page[model.Goods]{
			Items: []model.Goods{{ID: 5, Name: "Лампа", IsHidden: true}, {ID: 6, Name: "Чайник"}},
			Total: 2,
		})
	})
	mux.HandleFunc("DELETE /goods/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api, rec := newTestAPI(t, mux)
	st := newTestStore(t)
	buttons := newButtons()
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, store.KeyHighlightedGoods, "5"))

	view := NewGoodsListView(api, st, buttons, rec, zap.NewNop())
	obs := &goodslist.ManualObserver{}
	var added bool
	require.NoError(t, view.Mount(ctx, obs, func() { added = true }))

	require.Equal(t, int64(5), view.Highlighted())
	// ключ прочитан и удален
	_, err := st.Get(ctx, store.KeyHighlightedGoods)
	require.ErrorIs(t, err, store.ErrNoRows)

	require.Contains(t, query.Load().(string), "include_hidden=true")
	require.Len(t, view.Items(), 2)
	require.False(t, view.Engine().HasMore())

	params, visible := buttons.Main()
	require.True(t, visible)
	require.Equal(t, "Добавить товар", params.Text)
	buttons.PressMain()
	require.True(t, added)

	require.NoError(t, view.Delete(ctx, 5))
	require.Len(t, view.Items(), 1)
	require.Equal(t, "Товар успешно удален", rec.Last().Text)

	view.Unmount()
	require.Equal(t, 0, buttons.Handlers())
	require.Equal(t, 0, obs.Observing())
}

func TestGoodsListViewRemount(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /goods/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, http.StatusOK, model.Page[model.Goods]{Items: []model.Goods{{ID: 6, Name: "Чайник"}}, Total: 1})
	})
	api, rec := newTestAPI(t, mux)
	buttons := newButtons()
	view := NewGoodsListView(api, newTestStore(t), buttons, rec, zap.NewNop())
	ctx := context.Background()
	obs := &goodslist.ManualObserver{}

	require.NoError(t, view.Mount(ctx, obs, func() {}))
	view.Unmount()
	require.Equal(t, 0, buttons.Handlers())

	require.NoError(t, view.Mount(ctx, obs, func() {}))
	require.Len(t, view.Items(), 1)
	require.Equal(t, 1, obs.Observing())
	require.Equal(t, int32(2), requests.Load())
	require.Zero(t, rec.Count(notify.LevelError))

	// повторный Mount без Unmount не копит кнопки
	require.NoError(t, view.Mount(ctx, obs, func() {}))
	require.Equal(t, 1, buttons.Handlers())
	require.Equal(t, 1, obs.Observing())

	view.Unmount()
	require.Equal(t, 0, buttons.Handlers())
	require.Equal(t, 0, obs.Observing())
}

func TestCategoriesView(t *testing.T) {
	var noteHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Category{{ID: 1, Name: "Кухня", IsActive: true}})
	})
	mux.HandleFunc("POST /categories/", func(w http.ResponseWriter, r *http.Request) {
		var in apiclient.CategoryInput
		json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, model.Category{ID: 2, Name: in.Name, IsActive: in.IsActive})
	})
	mux.HandleFunc("DELETE /categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /categories/{id}/notes/", func(w http.ResponseWriter, r *http.Request) {
		noteHits.Add(1)
		var in apiclient.NoteInput
		json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, model.CategoryNote{ID: 9, Text: in.Text})
	})
	api, rec := newTestAPI(t, mux)
	view := NewCategoriesView(api, rec, zap.NewNop())
	ctx := context.Background()

	cats, err := view.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	// пустое название не отправляется
	_, err = view.Save(ctx, 0, CategoryForm{Name: " "})
	var ferr *FormError
	require.ErrorAs(t, err, &ferr)

	cat, err := view.Save(ctx, 0, CategoryForm{Name: "Дом", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, int64(2), cat.ID)
	require.Len(t, view.Categories(), 2)

	require.NoError(t, view.Delete(ctx, 1))
	require.Len(t, view.Categories(), 1)

	_, err = view.AddNote(ctx, 2, "")
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, int32(0), noteHits.Load())

	note, err := view.AddNote(ctx, 2, " проверить сроки ")
	require.NoError(t, err)
	require.Equal(t, "проверить сроки", note.Text)
	require.Equal(t, "Заметка добавлена", rec.Last().Text)
}

func day(s string) model.Date {
	d, _ := model.ParseDate(s)
	return d
}

func TestAvailabilityGrouping(t *testing.T) {
	rows := []model.DailyAvailability{
		{GoodsID: 2, Date: day("2025-07-16"), AvailableQuantity: 3},
		{GoodsID: 1, Date: day("2025-07-15"), AvailableQuantity: 1, GoodsName: "Лампа"},
		{GoodsID: 2, Date: day("2025-07-15"), AvailableQuantity: 5},
		{GoodsID: 3, Date: day("2025-08-01"), AvailableQuantity: 2},
	}
	goods := []model.Goods{{ID: 2, Name: "Чайник", Article: "A-2"}}

	groups := GroupAvailability(Enrich(rows, goods))
	require.Len(t, groups, 3)

	assert.Equal(t, "Чайник", groups[0].GoodsName)
	assert.Equal(t, "A-2", groups[0].GoodsArticle)
	// даты по возрастанию
	require.Len(t, groups[0].Days, 2)
	assert.Equal(t, "2025-07-15", groups[0].Days[0].Date.String())

	assert.Equal(t, "Лампа", groups[1].GoodsName)
	assert.Equal(t, "Н/Д", groups[1].GoodsArticle)
	assert.Equal(t, "Товар #3", groups[2].GoodsName)

	filtered := FilterByDate(groups, "15.07")
	require.Len(t, filtered, 2)
	require.Len(t, filtered[0].Days, 1)
	assert.Len(t, FilterByDate(groups, ""), 3)
	assert.Empty(t, FilterByDate(groups, "01.01.2024"))
}

func TestAvailabilityView(t *testing.T) {
	var regenerated atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /availability/", func(w http.ResponseWriter, r *http.Request) {
		qty := 1
		if regenerated.Load() {
			qty = 4
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []model.DailyAvailability{
			{GoodsID: 7, Date: day("2025-07-15"), AvailableQuantity: qty},
		}})
	})
	mux.HandleFunc("GET /goods/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Page[model.Goods]{Items: []model.Goods{{ID: 7, Name: "Лампа", Article: "L-7"}}, Total: 1})
	})
	mux.HandleFunc("POST /goods/{id}/regenerate-availability/", func(w http.ResponseWriter, r *http.Request) {
		regenerated.Store(true)
		writeJSON(w, http.StatusOK, map[string]int{"records_created": 30})
	})
	api, rec := newTestAPI(t, mux)
	st := newTestStore(t)
	view := NewAvailabilityView(api, st, rec, zap.NewNop())
	ctx := context.Background()

	groups, err := view.Load(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "Лампа", groups[0].GoodsName)

	require.NoError(t, view.Highlight(ctx, 7))
	value, err := st.Get(ctx, store.KeyHighlightedGoods)
	require.NoError(t, err)
	require.Equal(t, "7", value)

	n, err := view.Regenerate(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 30, n)
	// кэш доступности сброшен, сводка перечитана
	require.Equal(t, 4, view.Groups()[0].Days[0].AvailableQuantity)
	require.Equal(t, "Доступность товара перегенерирована: 30 записей", rec.Last().Text)
}

func TestAvailabilityViewError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /availability/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "db down"})
	})
	mux.HandleFunc("GET /goods/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Page[model.Goods]{})
	})
	api, rec := newTestAPI(t, mux)
	view := NewAvailabilityView(api, newTestStore(t), rec, zap.NewNop())

	_, err := view.Load(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, rec.Count(notify.LevelError))
	require.Equal(t, "Ошибка при загрузке данных: db down", rec.Last().Text)
}

func TestReservationsViewCancel(t *testing.T) {
	var cancels atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /reservations/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Reservation{
			{ID: 1, GoodsID: 7, Status: model.ReservationPending},
			{ID: 2, GoodsID: 7, Status: model.ReservationConfirmed},
			{ID: 3, GoodsID: 8, Status: model.ReservationActive},
		})
	})
	mux.HandleFunc("POST /reservations/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		cancels.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	api, rec := newTestAPI(t, mux)
	view := NewReservationsView(api, rec, zap.NewNop())
	ctx := context.Background()

	_, err := view.Load(ctx)
	require.NoError(t, err)
	require.Len(t, view.Filter(model.ReservationPending, model.ReservationActive), 2)
	require.Len(t, view.Filter(), 3)

	require.NoError(t, view.Cancel(ctx, 1))
	require.Equal(t, model.ReservationCanceled, view.Filter(model.ReservationCanceled)[0].Status)

	err = view.Cancel(ctx, 2)
	require.True(t, errors.Is(err, ErrNotCancelable))
	require.ErrorIs(t, view.Cancel(ctx, 42), ErrReservationUnknown)
	require.Equal(t, int32(1), cancels.Load())
}
