// Package handler диагностический HTTP-сервер: метрики клиента API и проверка живости
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/handler/config"
	"github.com/iurnickita/goodsreserv/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// CacheStat размер кэша для /healthz; *apiclient.Cache
type CacheStat interface {
	Len() int
}

// Serve работает до отмены ctx. Пустой адрес - сервер не нужен, сразу nil.
func Serve(ctx context.Context, cfg config.Config, gatherer prometheus.Gatherer, cache CacheStat, zaplog *zap.Logger) error {
	if cfg.ServerAddr == "" {
		return nil
	}
	h := newHandler(gatherer, cache, zaplog)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h.newRouter(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zaplog.Info("diagnostics server started", zap.String("addr", cfg.ServerAddr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type handler struct {
	gatherer prometheus.Gatherer
	cache    CacheStat
	started  time.Time
	zaplog   *zap.Logger
}

func newHandler(gatherer prometheus.Gatherer, cache CacheStat, zaplog *zap.Logger) *handler {
	return &handler{
		gatherer: gatherer,
		cache:    cache,
		started:  time.Now(),
		zaplog:   zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	metrics := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", logger.RequestLogMdlw(metrics.ServeHTTP, h.zaplog))
	mux.HandleFunc("GET /healthz", logger.RequestLogMdlw(h.Health, h.zaplog))

	return mux
}

type HealthJSONResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	CacheEntries int    `json:"cache_entries"`
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthJSONResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}
	if h.cache != nil {
		resp.CacheEntries = h.cache.Len()
	}
	responseJSON, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}
