package admin

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FormError ошибка заполнения формы с именем поля
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

// подписи полей для сообщений
var labels = map[string]string{
	"Name":            "Название",
	"Article":         "Артикул",
	"URL":             "Ссылка на товар",
	"Price":           "Цена",
	"CashbackPercent": "Кэшбэк, %",
	"Image":           "Ссылка на изображение",
	"MinDaily":        "Минимум в день",
	"MaxDaily":        "Максимум в день",
	"TotalSalesLimit": "Общий лимит продаж",
	"Title":           "Название требования",
	"Type":            "Тип требования",
	"Description":     "Описание",
	"Text":            "Текст заметки",
	"StartDate":       "Дата начала",
	"EndDate":         "Дата окончания",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// validateStruct первая ошибка validator в виде FormError
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	name := label(fe.StructField())

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("Поле «%s» обязательно", name)
	case "gte", "min":
		msg = fmt.Sprintf("«%s» не может быть меньше %s", name, fe.Param())
	case "lte", "max":
		msg = fmt.Sprintf("«%s» не может быть больше %s", name, fe.Param())
	case "ltefield":
		msg = fmt.Sprintf("«%s» не может превышать «%s»", name, label(fe.Param()))
	case "oneof":
		msg = fmt.Sprintf("«%s»: допустимо %s", name, strings.Join(strings.Fields(fe.Param()), ", "))
	case "url", "http_url":
		msg = fmt.Sprintf("«%s» должно быть корректной ссылкой", name)
	default:
		msg = fmt.Sprintf("Поле «%s» заполнено неверно", name)
	}
	return &FormError{Field: fe.Namespace(), Message: msg}
}

// Товар

type RequirementForm struct {
	ID    string
	Title string `validate:"required"`
	Type  string `validate:"oneof=text photo video"`
}

// GoodsForm поля формы товара. Даты в виде ГГГГ-ММ-ДД, пустая строка - без даты.
// CategoryID 0 - без категории.
type GoodsForm struct {
	Name                             string `validate:"required"`
	Article                          string `validate:"required"`
	URL                              string `validate:"omitempty,http_url"`
	Price                            int    `validate:"gte=0"`
	CashbackPercent                  int    `validate:"gte=0,lte=100"`
	Image                            string `validate:"required"`
	PurchaseGuide                    string
	StartDate                        string
	EndDate                          string
	MinDaily                         int  `validate:"gte=1,ltefield=MaxDaily"`
	MaxDaily                         int  `validate:"gte=1"`
	TotalSalesLimit                  *int `validate:"omitempty,gte=0"`
	CategoryID                       int64
	ConfirmationRequirements         []RequirementForm `validate:"dive"`
	DeliveryConfirmationRequirements []RequirementForm `validate:"dive"`
	IsActive                         bool
	IsHidden                         bool
}

// NewGoodsForm форма нового товара со значениями по умолчанию
func NewGoodsForm() GoodsForm {
	return GoodsForm{MinDaily: 1, MaxDaily: 1, IsActive: true}
}

// Validate проверка до отправки
func (f GoodsForm) Validate() error {
	if err := validateStruct(f.trimmed()); err != nil {
		return err
	}
	start, err := parseFormDate("StartDate", f.StartDate)
	if err != nil {
		return err
	}
	end, err := parseFormDate("EndDate", f.EndDate)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(start.Time) {
		return &FormError{Field: "EndDate", Message: "Дата окончания не может быть раньше даты начала"}
	}
	return nil
}

func (f GoodsForm) trimmed() GoodsForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Article = strings.TrimSpace(f.Article)
	f.URL = strings.TrimSpace(f.URL)
	f.Image = strings.TrimSpace(f.Image)
	f.ConfirmationRequirements = trimTitles(f.ConfirmationRequirements)
	f.DeliveryConfirmationRequirements = trimTitles(f.DeliveryConfirmationRequirements)
	return f
}

func trimTitles(forms []RequirementForm) []RequirementForm {
	out := make([]RequirementForm, len(forms))
	for i, r := range forms {
		r.Title = strings.TrimSpace(r.Title)
		out[i] = r
	}
	return out
}

// Input тело запроса; вызывать после Validate
func (f GoodsForm) Input() (apiclient.GoodsInput, error) {
	start, err := parseFormDate("StartDate", f.StartDate)
	if err != nil {
		return apiclient.GoodsInput{}, err
	}
	end, err := parseFormDate("EndDate", f.EndDate)
	if err != nil {
		return apiclient.GoodsInput{}, err
	}
	in := apiclient.GoodsInput{
		Name:                             strings.TrimSpace(f.Name),
		Article:                          strings.TrimSpace(f.Article),
		URL:                              strings.TrimSpace(f.URL),
		Price:                            f.Price,
		CashbackPercent:                  f.CashbackPercent,
		Image:                            strings.TrimSpace(f.Image),
		PurchaseGuide:                    f.PurchaseGuide,
		StartDate:                        start,
		EndDate:                          end,
		MinDaily:                         f.MinDaily,
		MaxDaily:                         f.MaxDaily,
		TotalSalesLimit:                  f.TotalSalesLimit,
		ConfirmationRequirements:         requirements(f.ConfirmationRequirements),
		DeliveryConfirmationRequirements: requirements(f.DeliveryConfirmationRequirements),
		IsActive:                         f.IsActive,
		IsHidden:                         f.IsHidden,
	}
	// пустая категория уходит как null
	if f.CategoryID != 0 {
		id := f.CategoryID
		in.CategoryID = &id
	}
	return in, nil
}

func requirements(forms []RequirementForm) []model.ConfirmationRequirement {
	reqs := make([]model.ConfirmationRequirement, 0, len(forms))
	for _, r := range forms {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		reqs = append(reqs, model.ConfirmationRequirement{
			ID:    model.RequirementID(id),
			Title: strings.TrimSpace(r.Title),
			Type:  model.RequirementType(r.Type),
		})
	}
	return reqs
}

func parseFormDate(field string, s string) (*model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, &FormError{Field: field, Message: fmt.Sprintf("«%s»: ожидается дата ГГГГ-ММ-ДД", label(field))}
	}
	return &d, nil
}

// GoodsFormFrom форма редактирования существующего товара
func GoodsFormFrom(g model.Goods) GoodsForm {
	f := GoodsForm{
		Name:                             g.Name,
		Article:                          g.Article,
		URL:                              g.URL,
		Price:                            g.Price,
		CashbackPercent:                  g.CashbackPercent,
		Image:                            g.Image,
		PurchaseGuide:                    g.PurchaseGuide,
		MinDaily:                         g.MinDaily,
		MaxDaily:                         g.MaxDaily,
		TotalSalesLimit:                  g.TotalSalesLimit,
		ConfirmationRequirements:         requirementForms(g.ConfirmationRequirements),
		DeliveryConfirmationRequirements: requirementForms(g.DeliveryConfirmationRequirements),
		IsActive:                         g.IsActive,
		IsHidden:                         g.IsHidden,
	}
	if g.StartDate != nil {
		f.StartDate = g.StartDate.String()
	}
	if g.EndDate != nil {
		f.EndDate = g.EndDate.String()
	}
	if g.CategoryID != nil {
		f.CategoryID = *g.CategoryID
	} else if g.Category != nil {
		f.CategoryID = g.Category.ID
	}
	return f
}

// GoodsFormFromDraft форма по результату разбора ссылки
func GoodsFormFromDraft(d apiclient.GoodsInput) GoodsForm {
	f := NewGoodsForm()
	f.Name = d.Name
	f.Article = d.Article
	f.URL = d.URL
	f.Price = d.Price
	f.CashbackPercent = d.CashbackPercent
	f.Image = d.Image
	f.PurchaseGuide = d.PurchaseGuide
	if d.MinDaily > 0 {
		f.MinDaily = d.MinDaily
	}
	if d.MaxDaily > 0 {
		f.MaxDaily = d.MaxDaily
	}
	return f
}

func requirementForms(reqs []model.ConfirmationRequirement) []RequirementForm {
	forms := make([]RequirementForm, 0, len(reqs))
	for _, r := range reqs {
		forms = append(forms, RequirementForm{ID: string(r.ID), Title: r.Title, Type: string(r.Type)})
	}
	return forms
}

// Категория

type CategoryForm struct {
	Name        string `validate:"required"`
	Description string
	IsActive    bool
}

func (f CategoryForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	return validateStruct(f)
}

func (f CategoryForm) Input() apiclient.CategoryInput {
	return apiclient.CategoryInput{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		IsActive:    f.IsActive,
	}
}

type noteForm struct {
	Text string `validate:"required"`
}
