package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/iurnickita/goodsreserv/internal/model"
)

const categoriesPath = "/categories/"

func categoryItemPath(id int64) string {
	return "/categories/" + strconv.FormatInt(id, 10)
}

func categoryNotesPath(id int64) string {
	return categoryItemPath(id) + "/notes/"
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type NoteInput struct {
	Text string `json:"text"`
}

func (client *Client) ListCategories(ctx context.Context, opts ...RequestOption) ([]model.Category, error) {
	var categories []model.Category
	err := client.Request(ctx, http.MethodGet, categoriesPath, nil, &categories, opts...)
	return categories, err
}

func (client *Client) GetCategory(ctx context.Context, id int64, opts ...RequestOption) (model.Category, error) {
	var category model.Category
	err := client.Request(ctx, http.MethodGet, categoryItemPath(id), nil, &category, opts...)
	return category, err
}

func (client *Client) CreateCategory(ctx context.Context, in CategoryInput, opts ...RequestOption) (model.Category, error) {
	var category model.Category
	if err := client.Request(ctx, http.MethodPost, categoriesPath, in, &category, opts...); err != nil {
		return model.Category{}, err
	}
	client.Invalidate(categoriesPath)
	client.notifier.Success("Категория успешно создана")
	return category, nil
}

func (client *Client) UpdateCategory(ctx context.Context, id int64, in CategoryInput, opts ...RequestOption) (model.Category, error) {
	var category model.Category
	if err := client.Request(ctx, http.MethodPut, categoryItemPath(id), in, &category, opts...); err != nil {
		return model.Category{}, err
	}
	client.Invalidate(categoriesPath, categoryItemPath(id))
	client.notifier.Success("Категория успешно обновлена")
	return category, nil
}

// DeleteCategory товары категории не затрагиваются
func (client *Client) DeleteCategory(ctx context.Context, id int64, opts ...RequestOption) error {
	if err := client.Request(ctx, http.MethodDelete, categoryItemPath(id), nil, nil, opts...); err != nil {
		return err
	}
	client.Invalidate(categoriesPath, categoryItemPath(id))
	client.notifier.Success("Категория успешно удалена")
	return nil
}

// Заметки категории

func (client *Client) ListCategoryNotes(ctx context.Context, categoryID int64, opts ...RequestOption) ([]model.CategoryNote, error) {
	var notes []model.CategoryNote
	err := client.Request(ctx, http.MethodGet, categoryNotesPath(categoryID), nil, &notes, opts...)
	return notes, err
}

func (client *Client) CreateCategoryNote(ctx context.Context, categoryID int64, text string, opts ...RequestOption) (model.CategoryNote, error) {
	var note model.CategoryNote
	if err := client.Request(ctx, http.MethodPost, categoryNotesPath(categoryID), NoteInput{Text: text}, &note, opts...); err != nil {
		return model.CategoryNote{}, err
	}
	client.invalidateNotes(categoryID)
	client.notifier.Success("Заметка добавлена")
	return note, nil
}

func (client *Client) UpdateCategoryNote(ctx context.Context, categoryID int64, noteID int64, text string, opts ...RequestOption) (model.CategoryNote, error) {
	var note model.CategoryNote
	path := categoryNotesPath(categoryID) + strconv.FormatInt(noteID, 10)
	if err := client.Request(ctx, http.MethodPut, path, NoteInput{Text: text}, &note, opts...); err != nil {
		return model.CategoryNote{}, err
	}
	client.invalidateNotes(categoryID)
	client.notifier.Success("Заметка обновлена")
	return note, nil
}

func (client *Client) DeleteCategoryNote(ctx context.Context, categoryID int64, noteID int64, opts ...RequestOption) error {
	path := categoryNotesPath(categoryID) + strconv.FormatInt(noteID, 10)
	if err := client.Request(ctx, http.MethodDelete, path, nil, nil, opts...); err != nil {
		return err
	}
	client.invalidateNotes(categoryID)
	client.notifier.Success("Заметка удалена")
	return nil
}

// заметки приходят и в составе категории
func (client *Client) invalidateNotes(categoryID int64) {
	client.Invalidate(categoriesPath, categoryItemPath(categoryID), categoryNotesPath(categoryID))
}
