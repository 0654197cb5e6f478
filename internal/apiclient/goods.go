package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iurnickita/goodsreserv/internal/model"
)

const goodsPath = "/goods/"

func goodsItemPath(id int64) string {
	return "/goods/" + strconv.FormatInt(id, 10)
}

// ListParams параметры страницы списка товаров
type ListParams struct {
	Skip          int
	Limit         int
	IncludeHidden bool
	SortBy        string
	SortOrder     string
}

func (p ListParams) query() string {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(p.Skip))
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.IncludeHidden {
		q.Set("include_hidden", "true")
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}
	return q.Encode()
}

// GoodsInput тело создания и изменения товара
type GoodsInput struct {
	Name                             string                          `json:"name"`
	Article                          string                          `json:"article"`
	URL                              string                          `json:"url"`
	Price                            int                             `json:"price"`
	CashbackPercent                  int                             `json:"cashback_percent"`
	Image                            string                          `json:"image"`
	PurchaseGuide                    string                          `json:"purchase_guide"`
	StartDate                        *model.Date                     `json:"start_date"`
	EndDate                          *model.Date                     `json:"end_date"`
	MinDaily                         int                             `json:"min_daily"`
	MaxDaily                         int                             `json:"max_daily"`
	TotalSalesLimit                  *int                            `json:"total_sales_limit"`
	CategoryID                       *int64                          `json:"category_id"`
	ConfirmationRequirements         []model.ConfirmationRequirement `json:"confirmation_requirements"`
	DeliveryConfirmationRequirements []model.ConfirmationRequirement `json:"delivery_confirmation_requirements"`
	IsActive                         bool                            `json:"is_active"`
	IsHidden                         bool                            `json:"is_hidden"`
}

// ListGoods одна страница товаров. Поле total ответа ненадежно, корректирует вызывающий.
func (client *Client) ListGoods(ctx context.Context, p ListParams, opts ...RequestOption) (model.Page[model.Goods], error) {
	var page model.Page[model.Goods]
	err := client.Request(ctx, http.MethodGet, goodsPath+"?"+p.query(), nil, &page, opts...)
	return page, err
}

// SearchGoods полнотекстовый поиск; своя пара страница/total
func (client *Client) SearchGoods(ctx context.Context, query string, skip int, limit int, opts ...RequestOption) (model.Page[model.Goods], error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("skip", strconv.Itoa(skip))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var page model.Page[model.Goods]
	err := client.Request(ctx, http.MethodGet, goodsPath+"?"+q.Encode(), nil, &page, opts...)
	return page, err
}

func (client *Client) GetGoods(ctx context.Context, id int64, opts ...RequestOption) (model.Goods, error) {
	var goods model.Goods
	err := client.Request(ctx, http.MethodGet, goodsItemPath(id), nil, &goods, opts...)
	return goods, err
}

func (client *Client) CreateGoods(ctx context.Context, in GoodsInput, opts ...RequestOption) (model.Goods, error) {
	var goods model.Goods
	if err := client.Request(ctx, http.MethodPost, goodsPath, in, &goods, opts...); err != nil {
		return model.Goods{}, err
	}
	client.Invalidate(goodsPath)
	client.notifier.Success("Товар успешно создан")
	return goods, nil
}

func (client *Client) UpdateGoods(ctx context.Context, id int64, in GoodsInput, opts ...RequestOption) (model.Goods, error) {
	var goods model.Goods
	if err := client.Request(ctx, http.MethodPut, goodsItemPath(id), in, &goods, opts...); err != nil {
		return model.Goods{}, err
	}
	client.Invalidate(goodsPath, goodsItemPath(id))
	client.notifier.Success("Товар успешно обновлен")
	return goods, nil
}

func (client *Client) DeleteGoods(ctx context.Context, id int64, opts ...RequestOption) error {
	if err := client.Request(ctx, http.MethodDelete, goodsItemPath(id), nil, nil, opts...); err != nil {
		return err
	}
	client.Invalidate(goodsPath, goodsItemPath(id))
	client.notifier.Success("Товар успешно удален")
	return nil
}

type bulkRequest struct {
	GoodsIDs []int64 `json:"goods_ids"`
}

// BulkHideGoods скрывает товары из каталога
func (client *Client) BulkHideGoods(ctx context.Context, ids []int64, opts ...RequestOption) error {
	if err := client.Request(ctx, http.MethodPut, goodsPath+"bulk/hide", bulkRequest{GoodsIDs: ids}, nil, opts...); err != nil {
		return err
	}
	client.Invalidate(goodsPath)
	client.notifier.Success("Товары успешно скрыты")
	return nil
}

// BulkShowGoods возвращает товары в каталог
func (client *Client) BulkShowGoods(ctx context.Context, ids []int64, opts ...RequestOption) error {
	if err := client.Request(ctx, http.MethodPut, goodsPath+"bulk/show", bulkRequest{GoodsIDs: ids}, nil, opts...); err != nil {
		return err
	}
	client.Invalidate(goodsPath)
	client.notifier.Success("Товары успешно показаны")
	return nil
}

// ParseWildberries заполняет черновик товара по ссылке на карточку Wildberries
func (client *Client) ParseWildberries(ctx context.Context, productURL string, opts ...RequestOption) (GoodsInput, error) {
	var draft GoodsInput
	body := struct {
		URL string `json:"url"`
	}{URL: productURL}
	err := client.Request(ctx, http.MethodPost, "/parse-wildberries/", body, &draft, opts...)
	return draft, err
}

// RegenerateAvailability пересоздает записи доступности товара, возвращает их число
func (client *Client) RegenerateAvailability(ctx context.Context, goodsID int64, opts ...RequestOption) (int, error) {
	var resp struct {
		RecordsCreated int `json:"records_created"`
	}
	path := goodsItemPath(goodsID) + "/regenerate-availability/"
	if err := client.Request(ctx, http.MethodPost, path, nil, &resp, opts...); err != nil {
		return 0, err
	}
	client.Invalidate(goodsPath, goodsItemPath(goodsID), availabilityPath)
	client.notifier.Success(fmt.Sprintf("Доступность товара перегенерирована: %d записей", resp.RecordsCreated))
	return resp.RecordsCreated, nil
}
