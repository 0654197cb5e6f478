// Package apiclient клиент REST API бэкенда бронирования товаров.
package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/apiclient/config"
	"github.com/iurnickita/goodsreserv/internal/logger"
	"github.com/iurnickita/goodsreserv/internal/metrics"
	"github.com/iurnickita/goodsreserv/internal/notify"
)

const headerRequestID = "X-Request-ID"

// Error единый вид ошибки API.
// Status == 0 - запрос не дошел до сервера.
type Error struct {
	Status  int
	Message string
	Body    []byte
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsNotFound ошибка 404 от сервера
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	http           *resty.Client
	cache          *Cache
	notifier       notify.Notifier
	zaplog         *zap.Logger
	metrics        *metrics.ClientMetrics
	initDataHeader string

	mu       sync.RWMutex
	initData string
}

type Option func(*Client)

func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTransport подменяет http.RoundTripper (тесты, прокси)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

func NewClient(cfg config.Config, cache *Cache, notifier notify.Notifier, zaplog *zap.Logger, opts ...Option) *Client {
	httpc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)
	logger.RestyRequestLog(httpc, zaplog)

	if cache == nil {
		cache = NewCache()
	}
	client := &Client{
		http:           httpc,
		cache:          cache,
		notifier:       notifier,
		zaplog:         zaplog,
		initDataHeader: cfg.InitDataHeader,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// SetInitData задает данные инициализации Telegram для всех последующих запросов.
// Пустая строка игнорируется: обновления токена нет.
func (client *Client) SetInitData(initData string) {
	if initData == "" {
		return
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	client.initData = initData
	client.zaplog.Debug("init data attached to API requests")
}

func (client *Client) Cache() *Cache {
	return client.cache
}

// Invalidate сбрасывает кэш для путей
func (client *Client) Invalidate(paths ...string) {
	n := client.cache.Invalidate(paths...)
	if client.metrics != nil && n > 0 {
		client.metrics.CacheInvalidations.Add(float64(n))
	}
}

// Параметры запроса

type requestOptions struct {
	skipCache bool
	quiet     bool
}

type RequestOption func(*requestOptions)

// SkipCache GET-запрос идет в сеть, ответ не кэшируется
func SkipCache() RequestOption {
	return func(o *requestOptions) { o.skipCache = true }
}

// Quiet не показывать уведомление об ошибке, вызывающий обработает её сам
func Quiet() RequestOption {
	return func(o *requestOptions) { o.quiet = true }
}

func collect(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Request выполняет запрос; body сериализуется в JSON, ответ декодируется в out (если не nil).
// GET-ответы кэшируются по пути (вместе с query-строкой).
func (client *Client) Request(ctx context.Context, method string, path string, body any, out any, opts ...RequestOption) error {
	o := collect(opts)

	cacheable := method == http.MethodGet && !o.skipCache
	if cacheable {
		if cached, ok := client.cache.Get(path); ok {
			if client.metrics != nil {
				client.metrics.CacheHits.Inc()
			}
			return decode(cached, out)
		}
		if client.metrics != nil {
			client.metrics.CacheMisses.Inc()
		}
	}

	respBody, err := client.execute(ctx, method, path, o, func(req *resty.Request) {
		if body != nil {
			req.SetBody(body)
		}
	})
	if err != nil {
		return err
	}

	if cacheable {
		client.cache.Set(path, respBody)
	}
	return decode(respBody, out)
}

// FilePart файл для multipart-запроса; Open вызывается на каждую отправку
type FilePart struct {
	Param    string
	FileName string
	Open     func() (io.ReadCloser, error)
}

// Multipart отправляет POST multipart/form-data с полями и файлами
func (client *Client) Multipart(ctx context.Context, path string, fields map[string]string, files []FilePart, out any, opts ...RequestOption) error {
	o := collect(opts)

	var readers []io.ReadCloser
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	for _, f := range files {
		r, err := f.Open()
		if err != nil {
			apiErr := &Error{Message: "не удалось открыть файл " + f.FileName, cause: err}
			client.fail(apiErr, o)
			return apiErr
		}
		readers = append(readers, r)
	}

	respBody, err := client.execute(ctx, http.MethodPost, path, o, func(req *resty.Request) {
		req.SetMultipartFormData(fields)
		for i, f := range files {
			req.SetFileReader(f.Param, f.FileName, readers[i])
		}
	})
	if err != nil {
		return err
	}
	return decode(respBody, out)
}

func (client *Client) execute(ctx context.Context, method string, path string, o requestOptions, prepare func(*resty.Request)) ([]byte, error) {
	req := client.http.R().SetContext(ctx)
	req.SetHeader(headerRequestID, uuid.NewString())

	client.mu.RLock()
	if client.initData != "" {
		req.SetHeader(client.initDataHeader, client.initData)
	}
	client.mu.RUnlock()

	prepare(req)

	start := time.Now()
	resp, err := req.Execute(method, path)
	client.observe(method, path, resp, time.Since(start))
	if err != nil {
		apiErr := &Error{Message: err.Error(), cause: errors.Wrapf(err, "%s %s", method, path)}
		client.fail(apiErr, o)
		return nil, apiErr
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		apiErr := &Error{
			Status:  resp.StatusCode(),
			Message: errorMessage(resp),
			Body:    resp.Body(),
		}
		client.fail(apiErr, o)
		return nil, apiErr
	}

	return resp.Body(), nil
}

func (client *Client) fail(apiErr *Error, o requestOptions) {
	if client.metrics != nil {
		kind := "http"
		if apiErr.Status == 0 {
			kind = "transport"
		}
		client.metrics.ErrorsTotal.WithLabelValues(kind).Inc()
	}
	if !o.quiet {
		client.notifier.Error("Ошибка: " + apiErr.Message)
	}
}

func (client *Client) observe(method string, path string, resp *resty.Response, d time.Duration) {
	if client.metrics == nil {
		return
	}
	res := resource(path)
	code := "0"
	if resp != nil && resp.RawResponse != nil {
		code = strconv.Itoa(resp.StatusCode())
	}
	client.metrics.RequestsTotal.WithLabelValues(method, res, code).Inc()
	client.metrics.RequestDuration.WithLabelValues(method, res).Observe(d.Seconds())
}

// resource первый сегмент пути: /goods/12?x=1 -> goods
func resource(path string) string {
	p := strings.TrimLeft(path, "/")
	if i := strings.IndexAny(p, "/?"); i >= 0 {
		p = p[:i]
	}
	return p
}

// errorMessage сообщение сервера из поля detail, иначе статус ответа
func errorMessage(resp *resty.Response) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && len(body.Detail) > 0 {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil && text != "" {
			return text
		}
		// ошибки валидации FastAPI: [{"loc": [...], "msg": "..."}]
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &list); err == nil && len(list) > 0 {
			msgs := make([]string, 0, len(list))
			for _, item := range list {
				msgs = append(msgs, item.Msg)
			}
			return strings.Join(msgs, "; ")
		}
	}
	if resp.Status() != "" {
		return resp.Status()
	}
	return http.StatusText(resp.StatusCode())
}

func decode(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
