// Package confirmation подтверждение этапов бронирования: выкупа (pending -> active)
// и получения товара (active -> confirmed). Набор полей задается товаром для каждого этапа.
package confirmation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/iurnickita/goodsreserv/internal/apiclient"
	"github.com/iurnickita/goodsreserv/internal/model"
)

// Ограничения размера файлов
const (
	MaxPhotoSize int64 = 5 * 1024 * 1024
	MaxVideoSize int64 = 20 * 1024 * 1024
)

const msgRequired = "Пожалуйста, заполните все обязательные поля"

// ValidationError поле не прошло проверку
type ValidationError struct {
	ID      model.RequirementID
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Attachment выбранный файл. Open вызывается на каждую отправку, повтор после ошибки читает файл заново.
type Attachment struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileAttachment вложение из файла на диске
func FileAttachment(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, errors.Wrap(err, "stat attachment")
	}
	if info.IsDir() {
		return Attachment{}, errors.Errorf("%s is a directory", path)
	}
	return Attachment{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// Field поле формы; варианты: *TextField, *PhotoField, *VideoField
type Field interface {
	Requirement() model.ConfirmationRequirement
	Validate() error
	Entry() apiclient.ConfirmationEntry
}

// NewField поле по типу требования
func NewField(req model.ConfirmationRequirement) (Field, error) {
	switch req.Type {
	case model.RequirementText:
		return &TextField{req: req}, nil
	case model.RequirementPhoto:
		return &PhotoField{mediaField{req: req}}, nil
	case model.RequirementVideo:
		return &VideoField{mediaField{req: req}}, nil
	default:
		return nil, errors.Errorf("unknown requirement type %q", req.Type)
	}
}

// Текст

type TextField struct {
	req   model.ConfirmationRequirement
	Value string
}

func (f *TextField) Requirement() model.ConfirmationRequirement { return f.req }

func (f *TextField) Validate() error {
	if f.Value == "" {
		return required(f.req)
	}
	return nil
}

func (f *TextField) Entry() apiclient.ConfirmationEntry {
	return apiclient.ConfirmationEntry{Type: model.RequirementText, Title: f.req.Title, Value: f.Value}
}

// Фото и видео

type mediaField struct {
	req  model.ConfirmationRequirement
	File *Attachment
}

func (f *mediaField) Requirement() model.ConfirmationRequirement { return f.req }

func (f *mediaField) Validate() error {
	if f.File == nil {
		return required(f.req)
	}
	return nil
}

func (f *mediaField) entry(t model.RequirementType) apiclient.ConfirmationEntry {
	entry := apiclient.ConfirmationEntry{Type: t, Title: f.req.Title}
	if f.File != nil {
		entry.Value = f.File.Name
		entry.File = &apiclient.FilePart{FileName: f.File.Name, Open: f.File.Open}
	}
	return entry
}

// attach проверка размера при выборе; отклоненный файл не заменяет прежний
func (f *mediaField) attach(a Attachment, limit int64) error {
	if a.Size > limit {
		return &ValidationError{
			ID:      f.req.ID,
			Title:   f.req.Title,
			Message: fmt.Sprintf("Размер файла превышает %d МБ. Пожалуйста, выберите файл меньшего размера.", limit/(1024*1024)),
		}
	}
	f.File = &a
	return nil
}

type PhotoField struct {
	mediaField
}

func (f *PhotoField) Entry() apiclient.ConfirmationEntry {
	return f.entry(model.RequirementPhoto)
}

type VideoField struct {
	mediaField
}

func (f *VideoField) Entry() apiclient.ConfirmationEntry {
	return f.entry(model.RequirementVideo)
}

func required(req model.ConfirmationRequirement) error {
	return &ValidationError{
		ID:      req.ID,
		Title:   req.Title,
		Message: fmt.Sprintf("%s: «%s»", msgRequired, req.Title),
	}
}
