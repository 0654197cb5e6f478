package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	apiconfig "github.com/iurnickita/goodsreserv/internal/apiclient/config"
	"github.com/iurnickita/goodsreserv/internal/confirmation"
	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
	"github.com/iurnickita/goodsreserv/internal/telegram"
	tgconfig "github.com/iurnickita/goodsreserv/internal/telegram/config"
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

func hostedHost() telegram.Host {
	q := url.Values{}
	q.Set("user", `{"id":42,"first_name":"Анна"}`)
	q.Set("hash", "abc")
	rt := telegram.NewEnvRuntime(tgconfig.Config{InitData: q.Encode(), ColorScheme: "light"}, zap.NewNop())
	return telegram.NewHosted(rt, "light", zap.NewNop())
}

func standaloneHost() telegram.Host {
	return telegram.NewStandalone(func() bool { return false }, "light", zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestCatalogActiveOnlyAndSearch(t *testing.T) {
	var searched atomic.Value
	api, rec := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("search"); q != "" {
			searched.Store(q)
			writeJSON(w, http.StatusOK, model.Page[model.Goods]{Items: []model.Goods{{ID: 3, Name: "Кружка", IsActive: true}}, Total: 1})
			return
		}
		writeJSON(w, http.StatusOK, model.Page[model.Goods]{
			Items: []model.Goods{{ID: 1, Name: "Чайник", IsActive: true}, {ID: 2, Name: "Лампа"}},
			Total: 2,
		})
	}))
	view := NewCatalogView(api, rec, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, view.Mount(ctx, nil))
	// неактивные товары не показываются
	require.Len(t, view.Items(), 1)
	require.Equal(t, int64(1), view.Items()[0].ID)

	require.NoError(t, view.Search(ctx, "  кружка "))
	require.Equal(t, "кружка", searched.Load())
	require.Len(t, view.Items(), 1)
	require.Equal(t, int64(3), view.Items()[0].ID)

	require.NoError(t, view.ClearSearch(ctx))
	require.Equal(t, int64(1), view.Items()[0].ID)
	view.Unmount()
}

func TestCatalogRemount(t *testing.T) {
	var requests atomic.Int32
	api, rec := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, http.StatusOK, model.Page[model.Goods]{
			Items: []model.Goods{{ID: 1, Name: "Чайник", IsActive: true}},
			Total: 1,
		})
	}))
	view := NewCatalogView(api, rec, zap.NewNop())
	ctx := context.Background()
	obs := &goodslist.ManualObserver{}

	require.NoError(t, view.Mount(ctx, obs))
	view.Unmount()
	require.Equal(t, 0, obs.Observing())

	require.NoError(t, view.Mount(ctx, obs))
	require.Len(t, view.Items(), 1)
	require.Equal(t, 1, obs.Observing())
	require.Equal(t, int32(2), requests.Load())
	require.Zero(t, rec.Count(notify.LevelError))

	// конец списка: догрузка не уходит в сеть
	require.NoError(t, view.More(ctx))
	require.Equal(t, int32(2), requests.Load())
	view.Unmount()
}

func TestDetailMountTwice(t *testing.T) {
	api, rec := newTestAPI(t, http.NotFoundHandler())
	host := standaloneHost()
	view := NewDetailView(api, host, rec, zap.NewNop())

	var backs []int
	view.Mount(func() { backs = append(backs, 1) })
	view.Mount(func() { backs = append(backs, 2) })
	require.Equal(t, 1, host.Buttons().Handlers())

	host.Buttons().PressBack()
	require.Equal(t, []int{2}, backs)

	view.Unmount()
	require.Equal(t, 0, host.Buttons().Handlers())
	require.False(t, host.Buttons().BackVisible())
}

func TestDetailReserve(t *testing.T) {
	var reserved struct {
		GoodsID  int64 `json:"goods_id"`
		Quantity int   `json:"quantity"`
	}
	var initData atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /goods/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Goods{ID: 7, Name: "Чайник", MaxDaily: 2, IsActive: true})
	})
	mux.HandleFunc("GET /user/{id}/daily_reservations_count/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]int{"count": 1})
	})
	mux.HandleFunc("POST /reservations/", func(w http.ResponseWriter, r *http.Request) {
		initData.Store(r.Header.Get("X-Telegram-Init-Data"))
		json.NewDecoder(r.Body).Decode(&reserved)
		writeJSON(w, http.StatusOK, model.Reservation{ID: 100, GoodsID: reserved.GoodsID, Quantity: reserved.Quantity, Status: model.ReservationPending})
	})
	api, rec := newTestAPI(t, mux)
	host := hostedHost()
	api.SetInitData(host.InitData())
	view := NewDetailView(api, host, rec, zap.NewNop())
	ctx := context.Background()

	_, err := view.Reserve(ctx, 1)
	require.ErrorIs(t, err, ErrGoodsNotLoaded)

	g, err := view.Load(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Чайник", g.Name)
	require.Equal(t, 1, view.DailyCount())

	view.Mount(func() {})
	require.True(t, host.Buttons().BackVisible())

	for _, qty := range []int{0, 3} {
		_, err = view.Reserve(ctx, qty)
		require.ErrorIs(t, err, ErrBadQuantity)
	}
	require.Equal(t, "Количество должно быть от 1 до 2", rec.Last().Text)

	r, err := view.Reserve(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(100), r.ID)
	require.Equal(t, int64(7), reserved.GoodsID)
	require.Equal(t, 2, reserved.Quantity)
	require.Equal(t, host.InitData(), initData.Load())
	require.Equal(t, 2, view.DailyCount())
	require.Equal(t, "Товар успешно забронирован", rec.Last().Text)

	view.Unmount()
	require.False(t, host.Buttons().BackVisible())
}

func TestDetailReserveOutsideTelegram(t *testing.T) {
	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /goods/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Goods{ID: 7, MaxDaily: 2})
	})
	mux.HandleFunc("POST /reservations/", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	})
	api, rec := newTestAPI(t, mux)
	view := NewDetailView(api, standaloneHost(), rec, zap.NewNop())
	ctx := context.Background()

	_, err := view.Load(ctx, 7)
	require.NoError(t, err)
	// без пользователя лимиты не запрашиваются
	require.Equal(t, 0, view.DailyCount())

	_, err = view.Reserve(ctx, 1)
	require.ErrorIs(t, err, ErrNoHostUser)
	require.Equal(t, "Для бронирования товара необходимо открыть приложение через Telegram", rec.Last().Text)
	require.Equal(t, int32(0), posts.Load())
}

func TestDetailLoadFailure(t *testing.T) {
	api, rec := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Goods not found"})
	}))
	view := NewDetailView(api, standaloneHost(), rec, zap.NewNop())

	_, err := view.Load(context.Background(), 9)
	require.True(t, apiclient.IsNotFound(err))
	// одно уведомление, общее от клиента подавлено
	require.Equal(t, 1, rec.Count(notify.LevelError))
	require.Equal(t, "Не удалось загрузить информацию о товаре", rec.Last().Text)
	_, ok := view.Goods()
	require.False(t, ok)
}

type backend struct {
	mu        sync.Mutex
	listHits  int
	statuses  []string
	confirmed url.Values
	canceled  []string
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /reservations/user/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.listHits++
		b.statuses = r.URL.Query()["status"]
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, []model.Reservation{
			{ID: 1, GoodsID: 7, Quantity: 1, Status: model.ReservationPending},
			{ID: 2, GoodsID: 8, Quantity: 1, Status: model.ReservationActive},
		})
	})
	mux.HandleFunc("GET /goods/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "7":
			writeJSON(w, http.StatusOK, model.Goods{ID: 7, Name: "Чайник"})
		default:
			writeJSON(w, http.StatusOK, model.Goods{
				ID:   8,
				Name: "Лампа",
				DeliveryConfirmationRequirements: []model.ConfirmationRequirement{
					{ID: "1", Title: "Трек-номер", Type: model.RequirementText},
				},
			})
		}
	})
	mux.HandleFunc("POST /reservations/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		b.mu.Lock()
		b.confirmed = r.MultipartForm.Value
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, model.Reservation{ID: 2, GoodsID: 8, Status: model.ReservationConfirmed})
	})
	mux.HandleFunc("POST /reservations/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.canceled = append(b.canceled, r.PathValue("id"))
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
	})
	return mux
}

func TestMyReservationsLoad(t *testing.T) {
	b := &backend{}
	api, rec := newTestAPI(t, b.handler(t))
	view := NewMyReservationsView(api, rec, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		list, err := view.Load(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
	}
	// список всегда из сети
	require.Equal(t, 2, b.listHits)
	require.Equal(t, []string{"pending", "active"}, b.statuses)
}

func TestMyReservationsConfirmDelivery(t *testing.T) {
	b := &backend{}
	api, rec := newTestAPI(t, b.handler(t))
	view := NewMyReservationsView(api, rec, zap.NewNop())
	ctx := context.Background()

	_, err := view.Load(ctx)
	require.NoError(t, err)

	r, err := view.Open(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, r.Goods)
	require.Equal(t, "Лампа", r.Goods.Name)

	form, err := view.Confirm()
	require.NoError(t, err)
	require.NotNil(t, form)
	require.Equal(t, model.PhaseDelivery, form.Phase())
	require.NoError(t, form.SetText("1", "RR123456789RU"))

	result, err := view.Submit(ctx)
	require.NoError(t, err)
	require.True(t, result.Remove)
	require.Equal(t, confirmation.StateClosedSuccess, view.Workflow().State())

	// получение подтверждено, бронирование ушло из списка
	require.Len(t, view.Reservations(), 1)
	require.Equal(t, int64(1), view.Reservations()[0].ID)

	require.Equal(t, []string{"delivery"}, b.confirmed["confirmation_type"])
	var data map[string]model.ConfirmationData
	require.NoError(t, json.Unmarshal([]byte(b.confirmed.Get("data")), &data))
	require.Equal(t, "RR123456789RU", data["1"].Value)
	require.Equal(t, "Информация о доставке успешно отправлена", rec.Last().Text)
}

func TestMyReservationsNoRequirements(t *testing.T) {
	b := &backend{}
	api, rec := newTestAPI(t, b.handler(t))
	view := NewMyReservationsView(api, rec, zap.NewNop())
	ctx := context.Background()

	_, err := view.Load(ctx)
	require.NoError(t, err)
	_, err = view.Open(ctx, 1)
	require.NoError(t, err)

	form, err := view.Confirm()
	require.NoError(t, err)
	require.Nil(t, form)
	require.True(t, view.Workflow().NoRequirements())
	require.Equal(t, notify.LevelInfo, rec.Last().Level)
	// список не меняется
	require.Len(t, view.Reservations(), 2)

	_, err = view.Open(ctx, 99)
	require.ErrorIs(t, err, ErrReservationUnknown)
}

func TestMyReservationsCancel(t *testing.T) {
	b := &backend{}
	api, rec := newTestAPI(t, b.handler(t))
	view := NewMyReservationsView(api, rec, zap.NewNop())
	ctx := context.Background()

	_, err := view.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, view.Cancel(ctx, 1))
	require.Equal(t, []string{"1"}, b.canceled)
	require.Len(t, view.Reservations(), 1)
	require.Equal(t, "Бронирование успешно отменено", rec.Last().Text)

	require.ErrorIs(t, view.Cancel(ctx, 1), ErrReservationUnknown)
}
