// Package admin экраны администратора: товары, категории с заметками,
// доступность и все бронирования.
package admin

import (
	"context"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/goodslist"
	"github.com/iurnickita/goodsreserv/internal/model"
)

// API методы клиента, нужные экранам; *apiclient.Client
type API interface {
	goodslist.Source

	GetGoods(ctx context.Context, id int64, opts ...apiclient.RequestOption) (model.Goods, error)
	CreateGoods(ctx context.Context, in apiclient.GoodsInput, opts ...apiclient.RequestOption) (model.Goods, error)
	UpdateGoods(ctx context.Context, id int64, in apiclient.GoodsInput, opts ...apiclient.RequestOption) (model.Goods, error)
	DeleteGoods(ctx context.Context, id int64, opts ...apiclient.RequestOption) error
	ParseWildberries(ctx context.Context, productURL string, opts ...apiclient.RequestOption) (apiclient.GoodsInput, error)
	RegenerateAvailability(ctx context.Context, goodsID int64, opts ...apiclient.RequestOption) (int, error)

	ListCategories(ctx context.Context, opts ...apiclient.RequestOption) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64, opts ...apiclient.RequestOption) (model.Category, error)
	CreateCategory(ctx context.Context, in apiclient.CategoryInput, opts ...apiclient.RequestOption) (model.Category, error)
	UpdateCategory(ctx context.Context, id int64, in apiclient.CategoryInput, opts ...apiclient.RequestOption) (model.Category, error)
	DeleteCategory(ctx context.Context, id int64, opts ...apiclient.RequestOption) error
	ListCategoryNotes(ctx context.Context, categoryID int64, opts ...apiclient.RequestOption) ([]model.CategoryNote, error)
	CreateCategoryNote(ctx context.Context, categoryID int64, text string, opts ...apiclient.RequestOption) (model.CategoryNote, error)
	UpdateCategoryNote(ctx context.Context, categoryID int64, noteID int64, text string, opts ...apiclient.RequestOption) (model.CategoryNote, error)
	DeleteCategoryNote(ctx context.Context, categoryID int64, noteID int64, opts ...apiclient.RequestOption) error

	ListAvailability(ctx context.Context, opts ...apiclient.RequestOption) ([]model.DailyAvailability, error)
	ListReservations(ctx context.Context, opts ...apiclient.RequestOption) ([]model.Reservation, error)
	CancelReservation(ctx context.Context, id int64, opts ...apiclient.RequestOption) error
}
