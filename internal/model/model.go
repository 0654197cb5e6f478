package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Товары

type Goods struct {
	ID                               int64                     `json:"id"`
	Name                             string                    `json:"name"`
	Article                          string                    `json:"article"`
	URL                              string                    `json:"url"`
	Price                            int                       `json:"price"`
	CashbackPercent                  int                       `json:"cashback_percent"`
	Image                            string                    `json:"image"`
	PurchaseGuide                    string                    `json:"purchase_guide"`
	StartDate                        *Date                     `json:"start_date,omitempty"`
	EndDate                          *Date                     `json:"end_date,omitempty"`
	MinDaily                         int                       `json:"min_daily"`
	MaxDaily                         int                       `json:"max_daily"`
	TotalSalesLimit                  *int                      `json:"total_sales_limit,omitempty"`
	CategoryID                       *int64                    `json:"category_id"`
	Category                         *Category                 `json:"category,omitempty"`
	ConfirmationRequirements         []ConfirmationRequirement `json:"confirmation_requirements"`
	DeliveryConfirmationRequirements []ConfirmationRequirement `json:"delivery_confirmation_requirements"`
	IsActive                         bool                      `json:"is_active"`
	IsHidden                         bool                      `json:"is_hidden"`
	DailyAvailability                []DailyAvailability       `json:"daily_availability,omitempty"`
}

// Requirements возвращает список требований для этапа подтверждения
func (g Goods) Requirements(phase Phase) []ConfirmationRequirement {
	if phase == PhaseOrder {
		return g.ConfirmationRequirements
	}
	return g.DeliveryConfirmationRequirements
}

// PriceWithCashback цена с учетом кэшбэка, округленная до рубля
func (g Goods) PriceWithCashback() int {
	return PriceWithCashback(g.Price, g.CashbackPercent)
}

func PriceWithCashback(price int, cashbackPercent int) int {
	if cashbackPercent == 0 {
		return price
	}
	p := decimal.NewFromInt(int64(price))
	discount := p.Mul(decimal.NewFromInt(int64(cashbackPercent))).Div(decimal.NewFromInt(100))
	return int(p.Sub(discount).Round(0).IntPart())
}

// AvailableOn остаток на дату; false если записи нет
func (g Goods) AvailableOn(day time.Time) (int, bool) {
	d := NewDate(day)
	for _, a := range g.DailyAvailability {
		if a.Date.Equal(d.Time) {
			return a.AvailableQuantity, true
		}
	}
	return 0, false
}

// MaskArticle скрывает все символы артикула, кроме последних четырех
func MaskArticle(article string) string {
	r := []rune(article)
	if len(r) <= 4 {
		return article
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// Требования подтверждения

type RequirementType string

const (
	RequirementText  RequirementType = "text"
	RequirementPhoto RequirementType = "photo"
	RequirementVideo RequirementType = "video"
)

func (t RequirementType) Valid() bool {
	switch t {
	case RequirementText, RequirementPhoto, RequirementVideo:
		return true
	default:
		return false
	}
}

type ConfirmationRequirement struct {
	ID    RequirementID   `json:"id"`
	Title string          `json:"title"`
	Type  RequirementType `json:"type"`
}

// RequirementID бэкенд отдает id то числом, то строкой
type RequirementID string

func (id *RequirementID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RequirementID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = RequirementID(n.String())
	return nil
}

// Категории

type Category struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	IsActive    bool           `json:"is_active"`
	Notes       []CategoryNote `json:"notes,omitempty"`
}

type CategoryNote struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Бронирования

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationActive    ReservationStatus = "active"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCanceled  ReservationStatus = "canceled"
)

// Cancelable отмена возможна до подтверждения доставки
func (s ReservationStatus) Cancelable() bool {
	return s == ReservationPending || s == ReservationActive
}

type Reservation struct {
	ID               int64                       `json:"id"`
	GoodsID          int64                       `json:"goods_id"`
	UserID           int64                       `json:"user_id"`
	Quantity         int                         `json:"quantity"`
	Status           ReservationStatus           `json:"status"`
	ReservedAt       time.Time                   `json:"reserved_at"`
	ConfirmationData map[string]ConfirmationData `json:"confirmation_data,omitempty"`

	// денормализованные поля списка
	GoodsName            string `json:"goods_name,omitempty"`
	GoodsImage           string `json:"goods_image,omitempty"`
	GoodsPrice           int    `json:"goods_price,omitempty"`
	GoodsCashbackPercent int    `json:"goods_cashback_percent,omitempty"`

	// подгружается клиентом по требованию
	Goods *Goods `json:"-"`
}

type ConfirmationData struct {
	Type  RequirementType `json:"type"`
	Title string          `json:"title"`
	Value string          `json:"value"`
}

// Этап подтверждения

type Phase int

const (
	PhaseOrder Phase = iota
	PhaseDelivery
)

// PhaseFor этап определяется статусом бронирования
func PhaseFor(status ReservationStatus) Phase {
	if status == ReservationPending {
		return PhaseOrder
	}
	return PhaseDelivery
}

func (p Phase) String() string {
	if p == PhaseOrder {
		return "order"
	}
	return "delivery"
}

// Доступность

type DailyAvailability struct {
	ID                int64 `json:"id,omitempty"`
	GoodsID           int64 `json:"goods_id"`
	Date              Date  `json:"date"`
	AvailableQuantity int   `json:"available_quantity"`

	GoodsName    string `json:"goods_name,omitempty"`
	GoodsArticle string `json:"goods_article,omitempty"`
	GoodsImage   string `json:"goods_image,omitempty"`
	GoodsPrice   int    `json:"goods_price,omitempty"`
}

// Страница списка

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Дата без времени, формат YYYY-MM-DD

const DateLayout = "2006-01-02"

type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	// бывает и полный timestamp
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
