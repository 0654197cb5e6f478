package admin

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/goodsreserv/internal/model"
	"github.com/iurnickita/goodsreserv/internal/notify"
)

// CategoriesView категории и их заметки
type CategoriesView struct {
	api      API
	notifier notify.Notifier
	zaplog   *zap.Logger

	mu         sync.Mutex
	categories []model.Category
}

func NewCategoriesView(api API, notifier notify.Notifier, zaplog *zap.Logger) *CategoriesView {
	return &CategoriesView{api: api, notifier: notifier, zaplog: zaplog}
}

func (v *CategoriesView) Load(ctx context.Context) ([]model.Category, error) {
	cats, err := v.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.categories = cats
	return cats, nil
}

func (v *CategoriesView) Categories() []model.Category {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.categories
}

func (v *CategoriesView) Get(ctx context.Context, id int64) (model.Category, error) {
	return v.api.GetCategory(ctx, id)
}

// Save создает категорию при id 0, иначе обновляет
func (v *CategoriesView) Save(ctx context.Context, id int64, f CategoryForm) (model.Category, error) {
	if err := f.Validate(); err != nil {
		v.notifier.Error(err.Error())
		return model.Category{}, err
	}
	var (
		cat model.Category
		err error
	)
	if id == 0 {
		cat, err = v.api.CreateCategory(ctx, f.Input())
	} else {
		cat, err = v.api.UpdateCategory(ctx, id, f.Input())
	}
	if err != nil {
		return model.Category{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.categories = upsertCategory(v.categories, cat)
	return cat, nil
}

func (v *CategoriesView) Delete(ctx context.Context, id int64) error {
	if err := v.api.DeleteCategory(ctx, id); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, c := range v.categories {
		if c.ID == id {
			v.categories = append(v.categories[:i], v.categories[i+1:]...)
			break
		}
	}
	return nil
}

func upsertCategory(list []model.Category, cat model.Category) []model.Category {
	for i, c := range list {
		if c.ID == cat.ID {
			list[i] = cat
			return list
		}
	}
	return append(list, cat)
}

// Заметки

func (v *CategoriesView) Notes(ctx context.Context, categoryID int64) ([]model.CategoryNote, error) {
	return v.api.ListCategoryNotes(ctx, categoryID)
}

func (v *CategoriesView) AddNote(ctx context.Context, categoryID int64, text string) (model.CategoryNote, error) {
	text, err := v.noteText(text)
	if err != nil {
		return model.CategoryNote{}, err
	}
	return v.api.CreateCategoryNote(ctx, categoryID, text)
}

func (v *CategoriesView) UpdateNote(ctx context.Context, categoryID int64, noteID int64, text string) (model.CategoryNote, error) {
	text, err := v.noteText(text)
	if err != nil {
		return model.CategoryNote{}, err
	}
	return v.api.UpdateCategoryNote(ctx, categoryID, noteID, text)
}

func (v *CategoriesView) DeleteNote(ctx context.Context, categoryID int64, noteID int64) error {
	return v.api.DeleteCategoryNote(ctx, categoryID, noteID)
}

func (v *CategoriesView) noteText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validateStruct(noteForm{Text: text}); err != nil {
		v.notifier.Error(err.Error())
		return "", err
	}
	return text, nil
}
